// Package tool is the gateway to the external executables the pipeline
// shells out to (cutadapt for trimming and vsearch for dereplication and
// clustering).
//
// Stages only see the Runner capability, so tests can swap in a stub that
// writes the files a real tool would have written.
package tool

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Result is what an external process left behind once it exited.
type Result struct {
	// ExitCode of the process, 0 on success
	ExitCode int

	// Stdout captured in full
	Stdout string

	// Stderr captured in full
	Stderr string
}

// Runner runs one external tool with the given arguments and blocks until
// it exits. A nonzero exit is returned as an *ExecutionError.
type Runner interface {
	Run(ctx context.Context, args ...string) (Result, error)
}

// Command is a Runner backed by a real executable on the filesystem.
type Command struct {
	// Name is the tool's display name, ex: "vsearch"
	Name string

	// Path to the executable
	Path string
}

// Run the executable with args, capturing both output streams.
func (c *Command) Run(ctx context.Context, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running external tool", "tool", c.Name, "args", strings.Join(args, " "))

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, &ExecutionError{Tool: c.Name, Args: args, Result: res}
		}
		// never started: missing binary, permissions, cancelled context
		res.ExitCode = -1
		return res, &ExecutionError{Tool: c.Name, Args: args, Result: res, Err: err}
	}

	return res, nil
}

// Pin resolves a tool that ships at a fixed location next to the pipeline.
//
// The file has to exist. If it exists without an executable bit it is
// chmod'ed to 0755 once, since archives and uploads often drop the mode.
func Pin(name, path string) (*Command, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &NotFoundError{Tool: name, Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &NotFoundError{Tool: name, Path: path, Err: fmt.Errorf("%s is a directory", path)}
	}

	if info.Mode().Perm()&0111 == 0 {
		if err := os.Chmod(path, 0755); err != nil {
			return nil, &NotFoundError{Tool: name, Path: path, Err: errors.Wrap(err, "not executable")}
		}
		slog.Debug("made pinned tool executable", "tool", name, "path", path)
	}

	return &Command{Name: name, Path: path}, nil
}

// Lookup resolves a tool that's expected on the PATH of the execution
// environment. path may also be absolute or relative.
func Lookup(name, path string) (*Command, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, &NotFoundError{Tool: name, Path: path, Err: err}
	}
	return &Command{Name: name, Path: resolved}, nil
}

// RunnerFunc adapts a plain function to a Runner.
type RunnerFunc func(ctx context.Context, args ...string) (Result, error)

// Run calls f(ctx, args...).
func (f RunnerFunc) Run(ctx context.Context, args ...string) (Result, error) {
	return f(ctx, args...)
}

// Arg returns the value following flag in args, or "" if flag isn't present.
func Arg(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
