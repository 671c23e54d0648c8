package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUploadInProgress is returned when an upload arrives while another is being processed.
	ErrUploadInProgress = errors.New("an upload is already being processed")
	// ErrNoDataset is returned when no file has been loaded in the session.
	ErrNoDataset = errors.New("no campaign data loaded")
)

// DecodeStage names the decoder that failed.
type DecodeStage string

const (
	StageExcel DecodeStage = "Excel"
	StageCSV   DecodeStage = "CSV"
)

// DecodeError reports that a file could not be turned into tabular rows.
type DecodeError struct {
	Stage DecodeStage
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse %s file: %v", e.Stage, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// NewDecodeError wraps cause for the given stage.
func NewDecodeError(stage DecodeStage, cause error) *DecodeError {
	return &DecodeError{Stage: stage, Cause: cause}
}
