package secrets

import (
	"fmt"

	"github.com/copytree/copytree/internal/pipeline"
)

// Stage runs the secret scanner against the rendered document immediately
// before delivery (spec.md §4.15: "pre-delivery scan"). A high-severity
// finding aborts the run with NewSecretsDetectedError unless
// rc.Options.AllowSecrets overrides it; low-severity findings are only
// logged. `always` entries are not exempted (spec.md §9 Open Question:
// "subject to scanning").
type Stage struct {
	pipeline.BaseStage

	Denylist []string
	Allow    []AllowEntry
}

func NewStage(denylist []string, allow []AllowEntry) *Stage {
	return &Stage{
		BaseStage: pipeline.BaseStage{StageName: "secret-scan"},
		Denylist:  denylist,
		Allow:     allow,
	}
}

func (s *Stage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	scanner, err := New(s.Denylist, s.Allow)
	if err != nil {
		return nil, pipeline.NewConfigurationError("secret-scan", "compiling scanner patterns", err)
	}

	findings := scanner.Scan("__rendered__", in.Rendered)
	if len(findings) == 0 {
		return in, nil
	}

	for _, f := range findings {
		rc.Logger.Warn("potential secret detected", "pattern", f.Pattern, "severity", f.Severity, "redacted", f.Redaction)
	}

	if HasHighSeverity(findings) && !rc.Options.AllowSecrets {
		return nil, pipeline.NewSecretsDetectedError("secret-scan", fmt.Sprintf("%d potential secret(s) detected; rerun with --allow-secrets to override", len(findings)))
	}

	return in, nil
}
