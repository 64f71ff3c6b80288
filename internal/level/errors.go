package level

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument reports an empty identity key or an unknown
	// identifier where one is structurally required.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIllegalState reports selecting an item on a hidden level, or a
	// selected item that is missing from its own level.
	ErrIllegalState = errors.New("illegal state")
	// ErrConstruction reports a typed level that could not be built.
	ErrConstruction = errors.New("construction failure")
)

// Error carries the failing operation and the level/item it touched.
type Error struct {
	Op     string
	Level  string
	Item   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("vislevel: ")
	b.WriteString(e.Op)
	if e.Level != "" {
		fmt.Fprintf(&b, " level=%q", e.Level)
	}
	if e.Item != "" {
		fmt.Fprintf(&b, " item=%q", e.Item)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds an *Error. Exported for sibling packages that share the
// same taxonomy.
func NewError(op, level, item string, kind error, detail string) error {
	return &Error{Op: op, Level: level, Item: item, Detail: detail, Err: kind}
}
