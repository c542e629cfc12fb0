package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const grantTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<us-patent-grant file="US%[1]s.XML">
<us-bibliographic-data-grant>
<publication-reference><document-id><country>US</country><doc-number>%[1]s</doc-number><kind>B2</kind></document-id></publication-reference>
<invention-title>Grant %[1]s</invention-title>
</us-bibliographic-data-grant>
</us-patent-grant>
`

func writeCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "2024")
	require.NoError(t, os.MkdirAll(dir, 0755))
	body := fmt.Sprintf(grantTemplate, "11000001") + fmt.Sprintf(grantTemplate, "11000002")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ipg240102.xml"), []byte(body), 0644))
	return root
}

// runApp runs the CLI and returns what it printed to stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"ipgest"}, args...))
	return out.String(), err
}

func findFlag(flags []cli.Flag, name string) cli.Flag {
	for _, f := range flags {
		for _, n := range f.Names() {
			if n == name {
				return f
			}
		}
	}
	return nil
}

func TestRunAndLastRun(t *testing.T) {
	for _, store := range []string{"badger", "sqlite"} {
		t.Run(store, func(t *testing.T) {
			root := writeCorpus(t)
			db := filepath.Join(t.TempDir(), "grants.db")
			logFile := filepath.Join(t.TempDir(), "ipgest.log")

			out, err := runApp(t, "--log-file", logFile, "run",
				"-p", root, "-d", "2024", "--store", store, "--db", db)
			require.NoError(t, err)
			assert.Contains(t, out, "Files:        1")
			assert.Contains(t, out, "Built:        2")
			assert.Contains(t, out, "Failed:       0")

			logged, err := os.ReadFile(logFile)
			require.NoError(t, err)
			assert.Contains(t, string(logged), "stage=")

			last, err := runApp(t, "last-run", "--store", store, "--db", db)
			require.NoError(t, err)
			assert.Contains(t, last, "Inserted:")
			assert.Contains(t, last, "Built:        2")
		})
	}
}

func TestRunWithConfigFile(t *testing.T) {
	root := writeCorpus(t)
	db := filepath.Join(t.TempDir(), "grants.db")
	cfgPath := filepath.Join(t.TempDir(), "ipgest.yaml")
	cfg := fmt.Sprintf("root: %s\ndirs: [\"2024\"]\nstore:\n  kind: sqlite\n  path: %s\nlog_level: error\n", root, db)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	out, err := runApp(t, "run", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Built:        2")
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))

	// Flags override the file
	out, err = runApp(t, "run", "--config", cfgPath, "-x", `nomatch\d+\.xml`)
	require.NoError(t, err)
	assert.Contains(t, out, "Files:        0")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing root", []string{"run", "-p", filepath.Join(t.TempDir(), "absent"), "--db", ":memory:"}},
		{"bad pattern", []string{"run", "-p", t.TempDir(), "-x", "ipg((", "--db", ":memory:"}},
		{"unknown store", []string{"run", "-p", t.TempDir(), "--store", "postgres"}},
		{"zero batch", []string{"run", "-p", t.TempDir(), "--batch-size", "0", "--db", ":memory:"}},
		{"missing config", []string{"run", "--config", filepath.Join(t.TempDir(), "none.yaml")}},
		{"in-memory last run", []string{"last-run", "--db", ":memory:"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestLastRunEmpty(t *testing.T) {
	out, err := runApp(t, "last-run", "--db", filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestLogLevels(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")
	tests := []struct {
		name    string
		args    []string
		enabled slog.Level
		off     slog.Level
	}{
		{"default info", nil, slog.LevelInfo, slog.LevelDebug},
		{"log-level debug", []string{"--log-level", "DEBUG"}, slog.LevelDebug, slog.LevelDebug - 1},
		{"verbosity 0", []string{"-v", "0"}, slog.LevelError, slog.LevelWarn},
		{"verbosity 1", []string{"-v", "1"}, slog.LevelWarn, slog.LevelInfo},
		{"verbosity 3 wins", []string{"--log-level", "error", "-v", "3"}, slog.LevelDebug, slog.LevelDebug - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := slog.Default()
			t.Cleanup(func() { slog.SetDefault(prev) })

			app := newApp()
			app.Writer = &bytes.Buffer{}
			app.ErrWriter = &bytes.Buffer{}
			var enabled, off bool
			app.After = func(c *cli.Context) error {
				enabled = slog.Default().Enabled(context.Background(), tt.enabled)
				off = slog.Default().Enabled(context.Background(), tt.off)
				return closeLogFile(c)
			}
			args := append([]string{"ipgest"}, tt.args...)
			require.NoError(t, app.Run(append(args, "last-run", "--db", db)))
			assert.True(t, enabled)
			assert.False(t, off)
		})
	}
}

func TestInvalidLogSettings(t *testing.T) {
	_, err := runApp(t, "--log-level", "chatty", "last-run", "--db", filepath.Join(t.TempDir(), "db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")

	_, err = runApp(t, "-v", "7", "last-run", "--db", filepath.Join(t.TempDir(), "db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid verbosity")
}

func TestRunCommandFlags(t *testing.T) {
	app := newApp()
	var run *cli.Command
	for _, cmd := range app.Commands {
		if cmd.Name == "run" {
			run = cmd
		}
	}
	require.NotNil(t, run)

	root, ok := findFlag(run.Flags, "p").(*cli.StringFlag)
	require.True(t, ok)
	assert.Equal(t, "/", root.Value)
	assert.Equal(t, []string{"PATENTROOT"}, root.EnvVars)

	pattern, ok := findFlag(run.Flags, "xmlregex").(*cli.StringFlag)
	require.True(t, ok)
	assert.Equal(t, `ipg\d{6}.xml`, pattern.Value)

	_, ok = findFlag(run.Flags, "d").(*cli.StringSliceFlag)
	assert.True(t, ok)
}

func TestPatentRootFromEnvironment(t *testing.T) {
	root := writeCorpus(t)
	t.Setenv("PATENTROOT", root)

	out, err := runApp(t, "run", "-d", "2024", "--db", ":memory:")
	require.NoError(t, err)
	assert.Contains(t, out, "Built:        2")
}
