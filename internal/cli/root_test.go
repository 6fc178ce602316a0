package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/copytree/copytree/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandUse(t *testing.T) {
	assert.Equal(t, "copytree", rootCmd.Use)
}

func TestRootCommandSilenceUsage(t *testing.T) {
	assert.True(t, rootCmd.SilenceUsage, "SilenceUsage must be true to avoid printing usage on errors")
}

func TestRootCommandSilenceErrors(t *testing.T) {
	assert.True(t, rootCmd.SilenceErrors, "SilenceErrors must be true for manual error handling")
}

func TestRootCommandHasVerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag, "root command must have --verbose persistent flag")
	assert.Equal(t, "v", flag.Shorthand)
}

func TestRootCommandHasQuietFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("quiet")
	require.NotNil(t, flag, "root command must have --quiet persistent flag")
	assert.Equal(t, "q", flag.Shorthand)
}

func TestRootCommandHasDirFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("dir")
	require.NotNil(t, flag, "root command must have --dir persistent flag")
	assert.Equal(t, "d", flag.Shorthand)
	assert.Equal(t, ".", flag.DefValue)
}

func TestRootCommandHasOutputFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("output")
	require.NotNil(t, flag, "root command must have --output persistent flag")
	assert.Equal(t, "o", flag.Shorthand)
}

func TestRootCommandHasFormatFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("format")
	require.NotNil(t, flag, "root command must have --format persistent flag")
	assert.Equal(t, "xml", flag.DefValue)
}

func TestRootCommandHasTargetFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("target")
	require.NotNil(t, flag, "root command must have --target persistent flag")
	assert.Equal(t, "claude", flag.DefValue)
}

func TestRootCommandHasFilterFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("filter")
	require.NotNil(t, flag, "root command must have --filter persistent flag")
	assert.Equal(t, "f", flag.Shorthand)
}

func TestRootCommandHasSpecFlags(t *testing.T) {
	names := []string{
		"profile", "exclude", "depth", "modified", "changed", "external",
		"ai-filter", "instructions", "order-by", "display", "as-reference", "only-tree",
		"char-limit", "add-line-numbers", "info", "dry-run", "state",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(name)
			assert.NotNil(t, flag, "root command must have --%s persistent flag", name)
		})
	}
}

func TestRootCommandHasBooleanFlags(t *testing.T) {
	boolFlags := []string{
		"modified", "display", "as-reference", "only-tree", "add-line-numbers",
		"info", "dry-run", "allow-secrets", "continue-on-error", "parallel",
		"tui", "no-cache", "token-count", "yes", "clear-cache",
	}
	for _, name := range boolFlags {
		t.Run(name, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(name)
			require.NotNil(t, flag, "root command must have --%s persistent flag", name)
			assert.Equal(t, "false", flag.DefValue)
		})
	}
}

func TestRootCommandHasTokenizerFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("tokenizer")
	require.NotNil(t, flag, "root command must have --tokenizer persistent flag")
	assert.Equal(t, "cl100k_base", flag.DefValue)
}

func TestRootCommandHasMaxTokensFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("max-tokens")
	require.NotNil(t, flag, "root command must have --max-tokens persistent flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRootCommandHasTruncationStrategyFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("truncation-strategy")
	require.NotNil(t, flag, "root command must have --truncation-strategy persistent flag")
	assert.Equal(t, "skip", flag.DefValue)
}

func TestRootCommandHasTopFilesFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("top-files")
	require.NotNil(t, flag, "root command must have --top-files persistent flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestExecuteWithHelp(t *testing.T) {
	rootCmd.SetArgs([]string{"--help"})
	defer rootCmd.SetArgs(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer rootCmd.SetOut(nil)

	code := Execute()
	assert.Equal(t, int(pipeline.ExitSuccess), code)
	assert.Contains(t, buf.String(), "filtered, transformed subset")
}

func TestExecuteHelpShowsAllFlags(t *testing.T) {
	rootCmd.SetArgs([]string{"--help"})
	defer rootCmd.SetArgs(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer rootCmd.SetOut(nil)

	code := Execute()
	assert.Equal(t, int(pipeline.ExitSuccess), code)

	output := buf.String()
	expectedFlags := []string{
		"--dir", "--profile", "--filter", "--exclude", "--depth",
		"--modified", "--changed", "--external", "--ai-filter", "--instructions", "--order-by",
		"--format", "--output", "--display", "--as-reference", "--only-tree",
		"--char-limit", "--add-line-numbers", "--info", "--dry-run", "--state",
		"--target", "--allow-secrets", "--continue-on-error", "--parallel",
		"--max-concurrency", "--max-files", "--max-total-size", "--tui",
		"--no-cache", "--cache-dir", "--tokenizer", "--max-tokens",
		"--truncation-strategy", "--token-count", "--top-files",
		"--verbose", "--quiet", "--yes", "--clear-cache",
	}
	for _, flag := range expectedFlags {
		assert.Contains(t, output, flag, "help output should show %s flag", flag)
	}
}

func TestExecuteWithUnknownFlag(t *testing.T) {
	rootCmd.SetArgs([]string{"--nonexistent-flag"})
	defer rootCmd.SetArgs(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetErr(buf)
	defer rootCmd.SetErr(nil)

	code := Execute()
	assert.Equal(t, int(pipeline.ExitError), code)
}

func TestRootCmdReturnsCommand(t *testing.T) {
	cmd := RootCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "copytree", cmd.Use)
}

func TestGlobalFlagsReturnsValues(t *testing.T) {
	fv := GlobalFlags()
	require.NotNil(t, fv, "GlobalFlags() should return non-nil FlagValues")
}

func TestExecuteMapsExitCodes(t *testing.T) {
	t.Run("nil error returns ExitSuccess", func(t *testing.T) {
		assert.Equal(t, pipeline.ExitSuccess, pipeline.CodeOf(nil))
	})
	t.Run("generic error returns ExitError", func(t *testing.T) {
		assert.Equal(t, pipeline.ExitError, pipeline.CodeOf(errors.New("boom")))
	})
	t.Run("configuration error returns ExitUserError", func(t *testing.T) {
		err := pipeline.NewConfigurationError("cli", "bad flag", nil)
		assert.Equal(t, pipeline.ExitUserError, pipeline.CodeOf(err))
	})
	t.Run("secrets detected returns ExitValidation", func(t *testing.T) {
		err := pipeline.NewSecretsDetectedError("secret-scan", "found secrets")
		assert.Equal(t, pipeline.ExitValidation, pipeline.CodeOf(err))
	})
}

func TestExecuteWithInvalidDirReturnsUserError(t *testing.T) {
	rootCmd.SetArgs([]string{"--dir", "/does/not/exist/at/all", "generate"})
	defer rootCmd.SetArgs(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	code := Execute()
	assert.Equal(t, int(pipeline.ExitUserError), code)
}
