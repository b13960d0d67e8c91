package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every failure the domain can report.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindInvalidState      ErrorKind = "invalid_state"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindDuplicateName     ErrorKind = "duplicate_name"
	KindPermission        ErrorKind = "permission"
	KindNotFound          ErrorKind = "not_found"
	KindInvalidFilter     ErrorKind = "invalid_filter"
)

// DomainError carries the kind plus the offending entity, field or id so
// callers can render it without parsing the message.
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Entity  string    `json:"entity,omitempty"`
	Field   string    `json:"field,omitempty"`
	ID      string    `json:"id,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Entity != "" {
		b.WriteString(" ")
		b.WriteString(e.Entity)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, " %s", e.ID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches any DomainError of the same kind, so the sentinels below work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation        = &DomainError{Kind: KindValidation}
	ErrInvalidState      = &DomainError{Kind: KindInvalidState}
	ErrInvalidTransition = &DomainError{Kind: KindInvalidTransition}
	ErrDuplicateName     = &DomainError{Kind: KindDuplicateName}
	ErrPermission        = &DomainError{Kind: KindPermission}
	ErrNotFound          = &DomainError{Kind: KindNotFound}
	ErrInvalidFilter     = &DomainError{Kind: KindInvalidFilter}
)

func NewValidationError(field, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Field: field, Message: message}
}

func NewInvalidStateError(entity, id, message string) *DomainError {
	return &DomainError{Kind: KindInvalidState, Entity: entity, ID: id, Message: message}
}

func NewInvalidTransitionError(id string, from, to AppointmentStatus) *DomainError {
	return &DomainError{
		Kind:    KindInvalidTransition,
		Entity:  "appointment",
		Field:   "status",
		ID:      id,
		Message: fmt.Sprintf("cannot move from %s to %s", from, to),
	}
}

func NewDuplicateNameError(entity, name string) *DomainError {
	return &DomainError{Kind: KindDuplicateName, Entity: entity, Field: "name", Message: fmt.Sprintf("%q already exists", name)}
}

func NewPermissionError(entity, id string) *DomainError {
	return &DomainError{Kind: KindPermission, Entity: entity, ID: id, Message: "not owned by tenant"}
}

func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Kind: KindNotFound, Entity: entity, ID: id, Message: "not found"}
}

func NewInvalidFilterError(field, value string) *DomainError {
	return &DomainError{Kind: KindInvalidFilter, Field: field, Message: fmt.Sprintf("unsupported value %q", value)}
}

// KindOf returns the kind of a domain error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
