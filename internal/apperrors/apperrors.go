// Package apperrors holds the error kinds shared by the verification,
// allotment, order lifecycle and refund components. Handlers classify them
// with errors.As to pick the response status and body.
package apperrors

import (
	"fmt"
	"strings"
)

// ValidationError reports missing or malformed input. It is shown to the caller verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Resource string
	ID       string
	IDs      []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NotFound reports one or more absent resources of the same kind.
func NotFound(resource string, ids ...string) error {
	return &NotFoundError{Resource: resource, ID: strings.Join(ids, ", "), IDs: ids}
}

// InfrastructureError wraps a failure of the OCR engine, blob storage or the store.
// Callers only ever see Public; Err is for the server log.
type InfrastructureError struct {
	Op     string
	Public string
	Err    error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

func Infrastructure(op, public string, err error) error {
	return &InfrastructureError{Op: op, Public: public, Err: err}
}

// ConflictError means a write lost to an earlier one. IDs lists what was already taken.
type ConflictError struct {
	Msg string
	IDs []string
}

func (e *ConflictError) Error() string {
	if len(e.IDs) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, strings.Join(e.IDs, ", "))
}

func Conflict(msg string, ids ...string) error {
	return &ConflictError{Msg: msg, IDs: ids}
}

type InvalidTransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func InvalidTransition(from, to fmt.Stringer, reason string) error {
	return &InvalidTransitionError{From: from.String(), To: to.String(), Reason: reason}
}

// Store wraps a persistent store failure.
func Store(op string, err error) error {
	return Infrastructure(op, "storage is unavailable, please try again", err)
}
