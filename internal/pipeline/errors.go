package pipeline

import (
	"errors"
	"fmt"
)

// Fatal error kinds. Stages wrap them with %w; use errors.Is to classify.
var (
	// ErrTimeout: the input file did not arrive before the deadline.
	ErrTimeout = errors.New("timeout")
	// ErrConnectivity: the storage collaborator could not be reached or failed.
	ErrConnectivity = errors.New("storage connectivity")
	// ErrDataFormat: the input file is missing, empty or lacks a required column.
	ErrDataFormat = errors.New("data format")
)

// StageError records which stage aborted a run
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage name carried by err, or ""
func FailedStage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

func connectivityError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConnectivity, op, err)
}

// LoadError is a load failure after rows were already committed
type LoadError struct {
	Appended int64
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v (%d rows already appended)", e.Err, e.Appended)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// AppendedRows returns the rows committed before err aborted a load
func AppendedRows(err error) int64 {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Appended
	}
	return 0
}

func partialLoad(appended int64, err error) error {
	if appended == 0 {
		return err
	}
	return &LoadError{Appended: appended, Err: err}
}
