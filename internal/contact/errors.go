package contact

import (
	"errors"
	"fmt"
)

var (
	ErrNoSession = errors.New("no active session")
	ErrNotFound  = errors.New("contact not found")
)

// ValidationError is a local rejection; the store was never called.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RemoteError is a failed store round trip.
type RemoteError struct {
	Op  Op
	Err error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return failureMessages[e.Op]
	}
	return e.Err.Error()
}

func (e *RemoteError) Unwrap() error { return e.Err }

type Op string

const (
	OpLoad   Op = "load"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

var successMessages = map[Op]string{
	OpCreate: "Contact added successfully",
	OpUpdate: "Contact updated successfully",
	OpDelete: "Contact deleted successfully",
}

var failureMessages = map[Op]string{
	OpLoad:   "Failed to fetch contacts",
	OpCreate: "Failed to add contact",
	OpUpdate: "Failed to update contact",
	OpDelete: "Failed to delete contact",
}

// SuccessMessage is the user-facing text for a completed operation.
func SuccessMessage(op Op) string { return successMessages[op] }

// FailureMessage is the user-facing text for err raised by op.
func FailureMessage(op Op, err error) string {
	if op == OpLoad {
		return failureMessages[OpLoad]
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var re *RemoteError
	if errors.As(err, &re) && re.Err != nil && re.Err.Error() != "" {
		return re.Err.Error()
	}
	if errors.Is(err, ErrNoSession) {
		return "Please sign in first"
	}
	if msg, ok := failureMessages[op]; ok {
		return msg
	}
	return fmt.Sprintf("%s failed", op)
}
