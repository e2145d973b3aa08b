package service

import (
	"errors"
	"fmt"
)

var (
	ErrMissingMetadata   = errors.New("missing metadata for attachment")
	ErrMultiLanguageExam = errors.New("multi-language exams are not supported")
	ErrNoMasteringResult = errors.New("mastering returned no result")
	ErrMissingContent    = errors.New("exam has no content")
	ErrConversionFailed  = errors.New("exam conversion failed")
)

// ConversionError is returned by the conversion entry points. It matches
// both ErrConversionFailed and the underlying cause.
type ConversionError struct {
	ExamUUID string
	Op       string
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s failed for exam %s: %v", e.Op, e.ExamUUID, e.Err)
}

func (e *ConversionError) Unwrap() []error {
	return []error{ErrConversionFailed, e.Err}
}
