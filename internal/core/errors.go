package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyEmail is returned when both subject and body are empty
	ErrEmptyEmail = errors.New("subject or body is required")
	// ErrEmptyBatch is returned when a batch has no emails
	ErrEmptyBatch = errors.New("no emails provided")
)

// InputError marks a request the caller must fix
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// PipelineError wraps a vectorizer or classifier failure during inference
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err is caused by invalid input
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
