package match

import (
	"errors"
	"fmt"
)

// Kind classifies a coordinator error.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindPrecondition
	KindNotFound
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindNotFound:
		return "not_found"
	case KindInfrastructure:
		return "infrastructure"
	}
	return "unknown"
}

// Error is returned by every coordinator operation. Msg is safe to show to
// the acting player; Err keeps the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrPrecondition)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrPrecondition   = &Error{Kind: KindPrecondition}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInfrastructure = &Error{Kind: KindInfrastructure}
)

// ErrInsufficientFunds is returned by a Ledger that cannot take a stake.
var ErrInsufficientFunds = errors.New("insufficient funds")

// errStateMissing marks a started session whose ephemeral fields are gone.
var errStateMissing = errors.New("ephemeral state missing")

func validation(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Err: err}
}

func precondition(msg string) *Error {
	return &Error{Kind: KindPrecondition, Msg: msg}
}

func notFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func infra(msg string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Msg: msg, Err: err}
}

// PublicMessage is the text sent to the actor in an error event.
// Infrastructure causes are not leaked.
func PublicMessage(err error) string {
	var me *Error
	if errors.As(err, &me) {
		if me.Kind == KindInfrastructure {
			return "service unavailable"
		}
		return me.Msg
	}
	return "internal error"
}
