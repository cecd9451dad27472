package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/ingestion"
)

// run executes the app and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"quarry"}, args...))
	return out.String(), err
}

func writeFixture(t *testing.T) string {
	t.Helper()
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var lines []string
	for n := 1; n <= 3; n++ {
		build := &core.Build{
			BuildTypeId: "Core",
			Number:      fmt.Sprint(n),
			Branch:      "main",
			Status:      core.BuildStatusSuccess,
			StartedAt:   started.Add(time.Duration(n) * time.Hour),
		}
		tests := []*core.TestOccurrence{
			{Name: "unit: org.example.LoginTest.ok", Status: core.TestStatusSuccess, DurationMs: 10},
			{Name: "unit: org.example.LoginTest.bad", Status: core.TestStatusFailure, DurationMs: 20},
		}
		line, err := json.Marshal(ingestion.NewRecord(build, tests))
		require.NoError(t, err)
		lines = append(lines, string(line))
	}
	path := filepath.Join(t.TempDir(), "builds.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func TestCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")
	fixture := writeFixture(t)

	out, err := run(t, "import", "--db", db, "--workers", "1", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "3 lines (0 resumed), 3 builds, 6 tests, 0 existing")

	t.Run("import resumes", func(t *testing.T) {
		out, err := run(t, "import", "--db", db, "--progress=false", fixture)
		require.NoError(t, err)
		assert.Contains(t, out, "3 lines (3 resumed), 0 builds")
	})

	t.Run("builds", func(t *testing.T) {
		out, err := run(t, "builds", "--db", db, "buildType:Core,count:2")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], "#3")
		assert.Contains(t, lines[1], "#2")
		assert.Equal(t, "2 items", lines[2])
	})

	t.Run("builds with page size", func(t *testing.T) {
		out, err := run(t, "builds", "--db", db, "--page-size", "1", "buildType:Core")
		require.NoError(t, err)
		assert.Contains(t, out, "1 items")
	})

	t.Run("tests", func(t *testing.T) {
		out, err := run(t, "tests", "--db", db, "build:(number:2),status:FAILURE")
		require.NoError(t, err)
		assert.Contains(t, out, "unit: org.example.LoginTest.bad")
		assert.Contains(t, out, "1 items")
	})

	t.Run("tree", func(t *testing.T) {
		out, err := run(t, "tree", "--db", db, "build:(buildType:Core),scopeType:class")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 5)
		assert.True(t, strings.HasPrefix(lines[0], "tests [root] total=6 passed=3 failed=3"))
		assert.True(t, strings.HasPrefix(lines[3], "      LoginTest [class]"))
		assert.Equal(t, "6 tests in 3 builds", lines[4])
	})

	t.Run("help", func(t *testing.T) {
		for _, cmd := range []string{"builds", "tests", "tree"} {
			out, err := run(t, cmd, "--db", db, "$help")
			require.NoError(t, err, cmd)
			assert.Contains(t, out, "Supported locator dimensions", cmd)
		}
	})

	t.Run("bad locator", func(t *testing.T) {
		_, err := run(t, "builds", "--db", db, "status:SHINY")
		assert.Error(t, err)

		_, err = run(t, "builds", "--db", db, "color:red")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "supported dimensions")
	})

	t.Run("locator is required", func(t *testing.T) {
		_, err := run(t, "builds", "--db", db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "$help")
	})
}

func TestImportCommandFlags(t *testing.T) {
	t.Run("db is required", func(t *testing.T) {
		_, err := run(t, "import", "file.jsonl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("files are required", func(t *testing.T) {
		_, err := run(t, "import", "--db", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file")
	})

	t.Run("batch-size must be positive", func(t *testing.T) {
		_, err := run(t, "import", "--db", t.TempDir(), "--batch-size", "0", "file.jsonl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "import", "--db", t.TempDir(), filepath.Join(t.TempDir(), "missing.jsonl"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("defaults", func(t *testing.T) {
		var cmd *cli.Command
		for _, c := range newApp().Commands {
			if c.Name == "import" {
				cmd = c
			}
		}
		require.NotNil(t, cmd)
		for _, flag := range cmd.Flags {
			switch f := flag.(type) {
			case *cli.IntFlag:
				if f.Name == "batch-size" {
					assert.Equal(t, 100, f.Value)
				}
				if f.Name == "max-retries" {
					assert.Equal(t, 5, f.Value)
				}
			case *cli.BoolFlag:
				assert.True(t, f.Value)
			}
		}
	})
}

func TestSetupLogger(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "builds", "--db", t.TempDir(), "id:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")

	out, err := run(t, "--log-level", "ERROR", "builds", "--db", t.TempDir(), "id:1")
	require.NoError(t, err)
	assert.Equal(t, "0 items\n", out)
}
