package apperr

import (
	"errors"
	"fmt"
)

// ErrRegistrationClosed is returned when a committable registers after the
// pipeline left its setup phase.
var ErrRegistrationClosed = errors.New("checkpointer registration is closed")

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// ConnectionError reports that the metadata service at Endpoint could not be reached.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to metadata service at %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func NewConnection(endpoint string, err error) *ConnectionError {
	return &ConnectionError{Endpoint: endpoint, Err: err}
}

// DuplicateRegistrationError is returned when a committable name is already registered.
type DuplicateRegistrationError struct {
	Name string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("checkpointing provider %q already registered", e.Name)
}

func NewDuplicateRegistration(name string) *DuplicateRegistrationError {
	return &DuplicateRegistrationError{Name: name}
}

// MalformedWorkUnitError marks a work unit that cannot describe itself.
type MalformedWorkUnitError struct {
	ID  string
	Err error
}

func (e *MalformedWorkUnitError) Error() string {
	if e.ID == "" {
		return "malformed work unit: " + e.Err.Error()
	}
	return fmt.Sprintf("malformed work unit %q: %v", e.ID, e.Err)
}

func (e *MalformedWorkUnitError) Unwrap() error {
	return e.Err
}

func NewMalformedWorkUnit(id string, err error) *MalformedWorkUnitError {
	return &MalformedWorkUnitError{ID: id, Err: err}
}
