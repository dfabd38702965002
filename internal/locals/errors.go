package locals

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	// ErrInvalidUTF8 is matched by errors for captures whose text is not
	// valid UTF-8. The whole file fails; no partial result is produced.
	ErrInvalidUTF8 = errors.New("capture text is not valid UTF-8")

	// ErrInternal marks a broken builder invariant, as opposed to bad input.
	ErrInternal = errors.New("internal consistency failure")
)

// EncodingError reports the capture whose text could not be decoded.
type EncodingError struct {
	Kind  string
	Start uint32
	End   uint32
	Point sitter.Point
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("locals: %s capture at %d:%d (bytes %d-%d): %v",
		e.Kind, e.Point.Row, e.Point.Column, e.Start, e.End, ErrInvalidUTF8)
}

func (e *EncodingError) Unwrap() error { return ErrInvalidUTF8 }

func internalErrorf(format string, args ...any) error {
	return fmt.Errorf("locals: %w: %s", ErrInternal, fmt.Sprintf(format, args...))
}
