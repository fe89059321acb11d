package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a workflow failure. Retryability is a property of the
// kind, not of the call site: LockBusy and DeadlockDetected may be retried by
// the caller with backoff, everything else is final.
type ErrorKind string

const (
	KindLockBusy               ErrorKind = "lock_busy"
	KindDeadlockDetected       ErrorKind = "deadlock_detected"
	KindAuthorizationDenied    ErrorKind = "authorization_denied"
	KindInvalidStateTransition ErrorKind = "invalid_state_transition"
	KindResourceConflict       ErrorKind = "resource_conflict"
	KindValidation             ErrorKind = "validation"
	KindNotFound               ErrorKind = "not_found"
	KindUnavailable            ErrorKind = "unavailable"
	KindInternal               ErrorKind = "internal"
)

type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewDomainError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

func WrapDomainError(kind ErrorKind, message string, err error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Err: err}
}

func LockBusyError(key string) *DomainError {
	return NewDomainError(KindLockBusy, fmt.Sprintf("could not acquire lock %q, resource busy", key))
}

func DeadlockError(err error) *DomainError {
	return WrapDomainError(KindDeadlockDetected, "transaction aborted by deadlock", err)
}

func AuthorizationDeniedError(message string) *DomainError {
	return NewDomainError(KindAuthorizationDenied, message)
}

func InvalidTransitionError(from, to string) *DomainError {
	return NewDomainError(KindInvalidStateTransition, fmt.Sprintf("illegal status transition from %q to %q", from, to))
}

func ResourceConflictError(message string) *DomainError {
	return NewDomainError(KindResourceConflict, message)
}

func ValidationError(message string) *DomainError {
	return NewDomainError(KindValidation, message)
}

func NotFoundError(resource, id string) *DomainError {
	return NewDomainError(KindNotFound, fmt.Sprintf("%s %s not found", resource, id))
}

func UnavailableError(message string) *DomainError {
	return NewDomainError(KindUnavailable, message)
}

// IsKind reports whether err is (or wraps) a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	return IsKind(err, KindLockBusy) || IsKind(err, KindDeadlockDetected) || IsKind(err, KindUnavailable)
}

func WrapError(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}
