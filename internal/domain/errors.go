package domain

import (
	"errors"
	"fmt"
)

// NotFoundError reports a missing record. ID is optional.
type NotFoundError struct {
	Resource string
	ID       int64
	Err      error
}

func (e NotFoundError) Error() string {
	switch {
	case e.Resource == "":
		return "not found"
	case e.ID > 0:
		return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
	default:
		return e.Resource + " not found"
	}
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError rejects caller input. Field uses the JSON name.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	switch {
	case e.Msg != "" && e.Field != "":
		return e.Field + ": " + e.Msg
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return "invalid " + e.Field
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ConflictError reports a request that clashes with stored state.
type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "conflict"
	}
	if e.Resource == "" {
		return msg
	}
	return e.Resource + ": " + msg
}

func (e ConflictError) Unwrap() error { return e.Err }

// UnavailableError means a collaborator such as Drive is not configured.
type UnavailableError struct {
	Service string
}

func (e UnavailableError) Error() string { return e.Service + " is not configured" }

// InternalError hides the cause from clients. Msg names the failed step.
type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "internal error"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e InternalError) Unwrap() error { return e.Err }

func is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func IsNotFound(err error) bool    { return is[NotFoundError](err) }
func IsValidation(err error) bool  { return is[ValidationError](err) }
func IsConflict(err error) bool    { return is[ConflictError](err) }
func IsUnavailable(err error) bool { return is[UnavailableError](err) }
func IsInternal(err error) bool    { return is[InternalError](err) }
