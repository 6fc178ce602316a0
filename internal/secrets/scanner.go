// Package secrets implements the pre-delivery secret scanner of spec.md
// §4.15: built-in regex patterns for common credential shapes, plus a
// user-configurable allow/deny list. No secret-scanning library appears
// anywhere in the corpus (checked every _examples and other_examples
// go.mod); stdlib regexp is used directly, documented as a stdlib
// justification in DESIGN.md.
package secrets

import (
	"fmt"
	"regexp"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// Severity classifies a Finding's confidence/impact.
type Severity string

const (
	SeverityHigh Severity = "high"
	SeverityLow  Severity = "low"
)

// Pattern is one named built-in or user-supplied detection rule.
type Pattern struct {
	Name     string
	Regex    *regexp.Regexp
	Severity Severity
}

// Finding is one detected match, reported with enough context to locate and
// redact it.
type Finding struct {
	Path      string
	Offset    int
	Pattern   string
	Severity  Severity
	Redaction string
}

// builtinPatterns covers common credential shapes: cloud provider keys,
// private-key PEM headers, generic high-entropy tokens.
var builtinPatterns = []Pattern{
	{Name: "aws-access-key-id", Regex: regexp.MustCompile(`AKIA[0-9A-Z]{16}`), Severity: SeverityHigh},
	{Name: "private-key-pem", Regex: regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH |DSA )?PRIVATE KEY-----`), Severity: SeverityHigh},
	{Name: "github-token", Regex: regexp.MustCompile(`gh[pousr]_[0-9A-Za-z]{36,}`), Severity: SeverityHigh},
	{Name: "slack-token", Regex: regexp.MustCompile(`xox[baprs]-[0-9A-Za-z-]{10,}`), Severity: SeverityHigh},
	{Name: "generic-api-key", Regex: regexp.MustCompile(`(?i)(api[_-]?key|secret|token)\s*[:=]\s*['"][0-9A-Za-z\-_]{16,}['"]`), Severity: SeverityLow},
	{Name: "google-api-key", Regex: regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`), Severity: SeverityHigh},
}

// AllowEntry is one suppression rule: a literal string, glob, or regex that,
// when it matches the finding's matched text, downgrades the finding from
// fatal to reported-only.
type AllowEntry struct {
	Kind  string // "literal" | "glob" | "regex"
	Value string
	re    *regexp.Regexp
}

// Scanner holds the compiled pattern set and allow/deny lists for one run.
type Scanner struct {
	patterns []Pattern
	allow    []AllowEntry
}

// New builds a Scanner from the built-in patterns, any user-supplied
// denylist regexes, and an allowlist. A malformed user regex is rejected at
// construction time rather than silently ignored.
func New(denylist []string, allow []AllowEntry) (*Scanner, error) {
	patterns := append([]Pattern{}, builtinPatterns...)
	for i, expr := range denylist {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling denylist pattern %d (%q): %w", i, expr, err)
		}
		patterns = append(patterns, Pattern{Name: fmt.Sprintf("user-denylist-%d", i), Regex: re, Severity: SeverityHigh})
	}

	compiledAllow := make([]AllowEntry, len(allow))
	for i, a := range allow {
		compiledAllow[i] = a
		if a.Kind == "regex" {
			re, err := regexp.Compile(a.Value)
			if err != nil {
				return nil, fmt.Errorf("compiling allowlist regex %d (%q): %w", i, a.Value, err)
			}
			compiledAllow[i].re = re
		}
	}

	return &Scanner{patterns: patterns, allow: compiledAllow}, nil
}

// Scan runs every pattern against content, returning one Finding per match
// not suppressed by the allowlist.
func (s *Scanner) Scan(path, content string) []Finding {
	var findings []Finding
	for _, p := range s.patterns {
		locs := p.Regex.FindAllStringIndex(content, -1)
		for _, loc := range locs {
			matched := content[loc[0]:loc[1]]
			if s.isAllowed(matched) {
				continue
			}
			findings = append(findings, Finding{
				Path:      path,
				Offset:    loc[0],
				Pattern:   p.Name,
				Severity:  p.Severity,
				Redaction: redact(matched),
			})
		}
	}
	return findings
}

func (s *Scanner) isAllowed(matched string) bool {
	for _, a := range s.allow {
		switch a.Kind {
		case "literal":
			if a.Value == matched {
				return true
			}
		case "glob":
			if ok, _ := doublestar.Match(a.Value, matched); ok {
				return true
			}
		case "regex":
			if a.re != nil && a.re.MatchString(matched) {
				return true
			}
		}
	}
	return false
}

// redact produces a short label for a matched secret: the first 4 and last 4
// characters, with the middle masked, never the full matched text.
func redact(matched string) string {
	if len(matched) <= 8 {
		return "****"
	}
	return matched[:4] + "..." + matched[len(matched)-4:]
}

// HasHighSeverity reports whether any finding in the list is high severity.
func HasHighSeverity(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityHigh {
			return true
		}
	}
	return false
}
