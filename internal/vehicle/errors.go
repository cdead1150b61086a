package vehicle

import (
	"errors"
	"fmt"
)

var (
	ErrConnection  = errors.New("connection error")
	ErrTimeout     = errors.New("timeout")
	ErrCommand     = errors.New("command error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Error carries the vehicle, the operation and the taxonomy kind of an
// adapter failure. It unwraps to both Kind and Err.
type Error struct {
	Vehicle string
	Op      string
	Kind    error
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v: %v", e.Vehicle, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Vehicle, e.Op, e.Kind)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewError(vehicle, op string, kind, err error) error {
	return &Error{Vehicle: vehicle, Op: op, Kind: kind, Err: err}
}

func Unsupported(vehicle, op string) error {
	return &Error{Vehicle: vehicle, Op: op, Kind: ErrUnsupported}
}

func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
