package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores defaults left over from a previous invocation of the
// shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "stepflow version "))
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "", "graph")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))
	assert.Contains(t, out, "Detect_Object")
}

func TestDescribeCommand_Raw(t *testing.T) {
	out, err := execute(t, "", "describe", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "# FoodQualityControl")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.yaml")
	require.NoError(t, os.WriteFile(valid, []byte("name: one\nstart_at: done\nstates:\n  done:\n    type: terminal\n    outcome: succeeded\n"), 0o644))
	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("name: one\nstart_at: missing\nstates:\n  done:\n    type: terminal\n    outcome: succeeded\n"), 0o644))

	out, err := execute(t, "", "validate", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "one is valid (1 states)")

	_, err = execute(t, "", "validate", broken)
	assert.ErrorContains(t, err, "validation failed")
}

func TestRunCommand_ExitStatus(t *testing.T) {
	out, err := execute(t, "", "run", "--json", "--labels", "Pizza")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "Succeeded"`)

	_, err = execute(t, "", "run", "--json", "--labels", "Salad")
	var code exitStatus
	require.True(t, errors.As(err, &code))
	assert.Equal(t, exitStatus(1), code)
}

func TestRunCommand_Batch(t *testing.T) {
	stdin := `{"Bucket":"b","Key":"one.jpeg"}` + "\n" + `{"Bucket":"b","Key":"two.jpeg"}` + "\n"

	out, err := execute(t, stdin, "run", "--batch", "--json", "--labels", "Pizza")

	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, `"status":"Succeeded"`))
}
