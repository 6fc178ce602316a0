package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/copytree/copytree/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskCommandRegistered(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "ask" {
			found = true
			break
		}
	}
	assert.True(t, found, "ask command must be registered on root")
}

func TestAskRequiresQuestion(t *testing.T) {
	rootCmd.SetArgs([]string{"ask"})
	defer rootCmd.SetArgs(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	code := Execute()
	assert.Equal(t, int(pipeline.ExitError), code)
}

// TestAskWithoutProviderFails verifies ask surfaces a clear LLMProviderError
// (ExitError) instead of succeeding silently when no API key is configured.
func TestAskWithoutProviderFails(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	rootCmd.SetArgs([]string{"ask", "--dir", ".", "what does this package do?"})
	defer rootCmd.SetArgs(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	code := Execute()
	assert.Equal(t, int(pipeline.ExitError), code)
}

func TestAskStatePathRejectsPathSeparators(t *testing.T) {
	_, err := askStatePath("foo/bar")
	require.Error(t, err)
}

func TestAskConversationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thread.json")

	loaded, err := loadAskConversation(path)
	require.NoError(t, err)
	assert.Empty(t, loaded.Turns)

	loaded.Turns = append(loaded.Turns, askTurn{Role: "user", Content: "hi"}, askTurn{Role: "assistant", Content: "hello"})
	require.NoError(t, saveAskConversation(path, loaded))

	reloaded, err := loadAskConversation(path)
	require.NoError(t, err)
	require.Len(t, reloaded.Turns, 2)
	assert.Equal(t, "hi", reloaded.Turns[0].Content)
	assert.Equal(t, "assistant", reloaded.Turns[1].Role)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestBuildAskPromptIncludesPriorTurns(t *testing.T) {
	conv := &askConversation{Turns: []askTurn{{Role: "user", Content: "first question"}}}
	prompt := buildAskPrompt(conv, "second question", "some context")

	assert.Contains(t, prompt, "first question")
	assert.Contains(t, prompt, "some context")
	assert.Contains(t, prompt, "second question")
}
