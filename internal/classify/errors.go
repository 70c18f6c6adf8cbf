package classify

import "fmt"

// ModelLoadError is returned when a classifier artifact is missing, can't be
// decoded, or doesn't fit with the other artifacts.
type ModelLoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *ModelLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("failed to load %s from %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// UnknownLabelError is returned when the model predicts a code that isn't in
// the label table, ie: the artifacts come from different training runs.
type UnknownLabelError struct {
	Code  int
	Known int
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("predicted label code %d isn't in the label table (%d labels)", e.Code, e.Known)
}
