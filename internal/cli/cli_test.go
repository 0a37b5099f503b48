package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/ensure/internal/app"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErrCode  int
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Happy path with all flags",
			args: []string{
				"--root", "/units/a",
				"--root=/units/b",
				"--log-file", "/tmp/ensure.log",
				"--log-level=debug",
				"--log-format=json",
				"--shell", "/bin/bash",
				"--no-color",
				"--timestamps",
				"pkg/git", "v2", "extra",
			},
			expectedConfig: &app.Config{
				Unit:       "pkg/git",
				Args:       []string{"v2", "extra"},
				Roots:      []string{"/units/a", "/units/b"},
				Shell:      "/bin/bash",
				LogFile:    "/tmp/ensure.log",
				LogFormat:  "json",
				LogLevel:   "debug",
				NoColor:    true,
				Timestamps: true,
			},
		},
		{
			name: "Defaults",
			args: []string{"--root", "/units", "--log-file", "/tmp/x.log", "hello"},
			expectedConfig: &app.Config{
				Unit:      "hello",
				Args:      []string{},
				Roots:     []string{"/units"},
				LogFile:   "/tmp/x.log",
				LogFormat: "text",
				LogLevel:  "info",
			},
		},
		{
			name: "List mode needs no unit",
			args: []string{"--root", "/units", "--log-file", "/tmp/x.log", "--list"},
			expectedConfig: &app.Config{
				Roots:     []string{"/units"},
				List:      true,
				LogFile:   "/tmp/x.log",
				LogFormat: "text",
				LogLevel:  "info",
			},
		},
		{
			name:       "Help flag",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.Contains(t, output, "Usage:")
				require.Contains(t, output, "ensure [options] UNIT [ARGS...]")
			},
		},
		{
			name:          "Missing unit",
			args:          []string{"--root", "/units"},
			expectErrCode: 2,
			checkOutput: func(t *testing.T, output string) {
				require.Contains(t, output, "Usage:")
			},
		},
		{
			name:          "Unknown flag",
			args:          []string{"--bogus", "hello"},
			expectErrCode: 2,
		},
		{
			name:          "Invalid log level",
			args:          []string{"--root", "/units", "--log-level=loud", "hello"},
			expectErrCode: 2,
		},
		{
			name:          "Unit combined with list",
			args:          []string{"--root", "/units", "--list", "hello"},
			expectErrCode: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer

			cfg, exit, err := Parse(tc.args, &out)

			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
			require.Equal(t, tc.expectExit, exit)

			if tc.expectErrCode != 0 {
				var exitErr *ExitError
				require.True(t, errors.As(err, &exitErr), "expected an ExitError, got %v", err)
				require.Equal(t, tc.expectErrCode, exitErr.Code)
				require.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			if tc.expectedConfig == nil {
				require.Nil(t, cfg)
				return
			}
			if diff := cmp.Diff(tc.expectedConfig, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_ConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ensure.yaml")
	yamlConfig := `
roots:
  - units
  - /abs/units
shell: /bin/bash
log_level: warn
timestamps: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o644))

	// Flags win over the file.
	cfg, _, err := Parse([]string{"--config", path, "--log-level", "debug", "--log-file", "/tmp/x.log", "hello"}, &bytes.Buffer{})
	require.NoError(t, err)

	require.Equal(t, []string{filepath.Join(dir, "units"), "/abs/units"}, cfg.Roots)
	require.Equal(t, "/bin/bash", cfg.Shell)
	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.Timestamps)
}

func TestParse_ConfigFileMissing(t *testing.T) {
	t.Parallel()

	_, _, err := Parse([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "hello"}, &bytes.Buffer{})

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 2, exitErr.Code)
}

func TestParse_LogLevelFromEnvironment(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")

	cfg, _, err := Parse([]string{"--root", "/units", "--log-file", "/tmp/x.log", "hello"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, "error", cfg.LogLevel)

	cfg, _, err = Parse([]string{"--root", "/units", "--log-file", "/tmp/x.log", "--log-level", "warn", "hello"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
}
