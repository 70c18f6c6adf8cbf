package tool

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a required executable is absent or can't be
// made executable.
type NotFoundError struct {
	Tool string
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s executable not found at %s: %v", e.Tool, e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ExecutionError is returned when an external tool exits nonzero (or never
// starts). It carries both output streams for post-mortem.
type ExecutionError struct {
	Tool   string
	Args   []string
	Result Result

	// Err is set when the process couldn't be started or waited on
	Err error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to execute %s %s: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.Result.ExitCode)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Diagnostic is the captured output of the failed process, formatted for a
// human reading stderr.
func (e *ExecutionError) Diagnostic() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "command: %s %s\n", e.Tool, strings.Join(e.Args, " "))
	fmt.Fprintf(&sb, "stdout:\n%s\n", strings.TrimRight(e.Result.Stdout, "\n"))
	fmt.Fprintf(&sb, "stderr:\n%s\n", strings.TrimRight(e.Result.Stderr, "\n"))
	return sb.String()
}
