package synth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue is returned for a numeric field that does not resolve into 0-127.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidProfile is returned when a document does not match the profile schema.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrSweepRunning is returned when a patch test is started while another one runs.
	ErrSweepRunning = errors.New("patch test already running")
	// ErrInvalidName is returned by Save for names that are not plain file names.
	ErrInvalidName = errors.New("invalid profile name")
)

// NotFoundError reports a name with no entry in the profile. Nothing is sent.
type NotFoundError struct {
	Kind      string // "patch", "effect" or "controller".
	Name      string
	PatchType string
}

func (e *NotFoundError) Error() string {
	if e.PatchType != "" {
		return fmt.Sprintf("%s not found: %s (%s)", e.Kind, e.Name, e.PatchType)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// ParseError reports a configuration document that could not be loaded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a profile that could not be written.
type PersistenceError struct {
	Name string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save profile %q to %s: %v", e.Name, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
