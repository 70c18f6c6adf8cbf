package pipeline

import (
	"fmt"

	"github.com/Kartikesh07/eDNA-Classification/internal/tool"
	"github.com/pkg/errors"
)

// StageError is returned by a run that stopped at Stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Diagnostic is the failed tool's captured output if the stage failed because
// an external tool did, "" otherwise.
func (e *StageError) Diagnostic() string {
	var exe *tool.ExecutionError
	if errors.As(e.Err, &exe) {
		return exe.Diagnostic()
	}
	return ""
}
