package rdla

import (
	"fmt"

	"github.com/Neumenon/rdl2/rdl"
)

// ParseError represents a parsing error with location. It wraps
// rdl.ErrParse.
type ParseError struct {
	Message string
	Pos     Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}

func (e *ParseError) Unwrap() error { return rdl.ErrParse }
