package tool

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// script writes an sh script to a temp dir and returns its path
func script(t *testing.T, body string, mode os.FileMode) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "fake-tool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), mode))
	return path
}

func TestCommand_Run(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantCode   int
		wantStdout string
		wantStderr string
		wantErr    bool
	}{
		{
			"success captures stdout",
			`echo "$1 $2"`,
			0,
			"--id 0.97\n",
			"",
			false,
		},
		{
			"nonzero exit is never swallowed",
			`echo partial; echo "bad input" 1>&2; exit 3`,
			3,
			"partial\n",
			"bad input\n",
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Command{Name: "fake", Path: script(t, tt.body, 0755)}

			res, err := c.Run(context.Background(), "--id", "0.97")
			require.Equal(t, tt.wantCode, res.ExitCode)
			require.Equal(t, tt.wantStdout, res.Stdout)
			require.Equal(t, tt.wantStderr, res.Stderr)

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var execErr *ExecutionError
			require.True(t, errors.As(err, &execErr))
			require.Equal(t, tt.wantStdout, execErr.Result.Stdout)
			require.Equal(t, tt.wantStderr, execErr.Result.Stderr)
			require.Contains(t, execErr.Diagnostic(), "bad input")
		})
	}
}

func TestPin(t *testing.T) {
	t.Run("missing binary", func(t *testing.T) {
		_, err := Pin("vsearch", filepath.Join(t.TempDir(), "bin", "vsearch"))

		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		require.Equal(t, "vsearch", nf.Tool)
	})

	t.Run("directory instead of binary", func(t *testing.T) {
		_, err := Pin("vsearch", t.TempDir())

		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
	})

	t.Run("present but not executable", func(t *testing.T) {
		path := script(t, "exit 0", 0644)

		c, err := Pin("vsearch", path)
		require.NoError(t, err)
		require.Equal(t, path, c.Path)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.NotZero(t, info.Mode().Perm()&0100)

		_, err = c.Run(context.Background())
		require.NoError(t, err)
	})
}

func TestLookup(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh on PATH")
	}

	c, err := Lookup("shell", "sh")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(c.Path) || c.Path != "")

	_, err = Lookup("cutadapt", "definitely-not-a-real-trimmer-binary")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
}
