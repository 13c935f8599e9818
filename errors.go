package ppmfilter

import "errors"

// Stage names the pipeline step that failed.
type Stage string

// Pipeline stages.
const (
	StageImage  Stage = "image"
	StageKernel Stage = "kernel"
	StageOutput Stage = "output"
)

// StageError wraps a failure with the pipeline stage it happened in.
// The wrapped error is an *errs.OpError carrying the kind, path and field.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StageOf reports the stage of the first StageError in err's chain.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

func stageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
