package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/copytree/copytree/internal/assemble"
	"github.com/copytree/copytree/internal/cache"
	"github.com/copytree/copytree/internal/config"
	"github.com/copytree/copytree/internal/llm"
	"github.com/copytree/copytree/internal/pipeline"
)

// askTurn is one exchange in a persisted conversation.
type askTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// askConversation is the JSON blob persisted under --state. It is grounded
// on cache.Entry's one-file-per-key persistence style (internal/cache/cache.go)
// rather than the transform cache itself, since a conversation is identified
// by a user-chosen key rather than a content hash.
type askConversation struct {
	Turns []askTurn `json:"turns"`
}

// askCmd implements `copytree ask`: it assembles a context document the same
// way `generate` would (minus secret scanning and delivery) and hands it to
// the LLM provider alongside the question, optionally persisting the
// exchange under --state so a later invocation can continue the thread.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask an LLM a question about this codebase",
	Long: `Ask assembles a context document from the current directory the same way
generate does, then sends it to the configured LLM provider along with your
question.

Set ANTHROPIC_API_KEY to enable the Anthropic provider; without it, ask fails
with a clear error rather than silently returning nothing.

Pass --state <key> to persist the exchange and continue a conversation across
invocations:

  copytree ask --state review "what does the pipeline package do?"
  copytree ask --state review "and how does that differ from generate?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	fv := GlobalFlags()
	question := strings.Join(args, " ")

	profile, err := config.LoadProfile(fv)
	if err != nil {
		return pipeline.NewConfigurationError("cli", "resolving profile", err)
	}

	opts := config.ToOptions(fv)

	var c *cache.Cache
	if opts.CacheEnabled {
		if opts.CacheDir != "" {
			c, err = cache.NewWithDir(opts.CacheDir)
		} else {
			c = cache.New()
		}
		if err != nil {
			return pipeline.NewCacheIOError("cli", "opening content cache", err)
		}
	}

	provider := buildProvider()
	rc := pipeline.NewRunContext(cmd.Context(), opts, profile)
	driver := assemble.Ask(provider, c)

	ws, err := driver.Run(rc, pipeline.NewWorkingSet())
	if err != nil {
		return err
	}

	var conv *askConversation
	var statePath string
	if fv.State != "" {
		statePath, err = askStatePath(fv.State)
		if err != nil {
			return pipeline.NewCacheIOError("ask", "resolving state path", err)
		}
		conv, err = loadAskConversation(statePath)
		if err != nil {
			return pipeline.NewCacheIOError("ask", "loading conversation state", err)
		}
	} else {
		conv = &askConversation{}
	}

	prompt := buildAskPrompt(conv, question, ws.Rendered)

	system := "You are an assistant answering questions about the codebase supplied as context."
	if opts.Instructions != "" {
		system = opts.Instructions
	}

	answer, err := provider.Text(cmd.Context(), prompt, llm.Options{System: system})
	if err != nil {
		return pipeline.NewLLMProviderError("ask", "requesting completion", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)

	conv.Turns = append(conv.Turns, askTurn{Role: "user", Content: question}, askTurn{Role: "assistant", Content: answer})
	if statePath != "" {
		if err := saveAskConversation(statePath, conv); err != nil {
			return pipeline.NewCacheIOError("ask", "saving conversation state", err)
		}
	}

	return nil
}

// buildAskPrompt renders the prior turns (if any), the freshly assembled
// context document, and the new question into a single prompt.
func buildAskPrompt(conv *askConversation, question, context string) string {
	var b strings.Builder
	if len(conv.Turns) > 0 {
		b.WriteString("Prior conversation:\n")
		for _, t := range conv.Turns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
		b.WriteString("\n")
	}
	b.WriteString("Context:\n")
	b.WriteString(context)
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	return b.String()
}

// askStatePath resolves the on-disk path for a conversation keyed by name.
// Path separators in the key are rejected so it cannot escape the state
// directory.
func askStatePath(key string) (string, error) {
	if strings.ContainsAny(key, "/\\") {
		return "", fmt.Errorf("--state: %q must not contain path separators", key)
	}
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, key+".json"), nil
}

// loadAskConversation reads a persisted conversation, returning an empty one
// if the file does not yet exist.
func loadAskConversation(path string) (*askConversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &askConversation{}, nil
		}
		return nil, err
	}
	var conv askConversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// saveAskConversation persists conv as JSON to path.
func saveAskConversation(path string, conv *askConversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
