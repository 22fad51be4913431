package assembly

import (
	"errors"
	"fmt"

	"github.com/chazu/tenon/pkg/consolidate"
)

var (
	// ErrEmptyAssembly means no part of the assembly could be loaded.
	ErrEmptyAssembly = errors.New("assembly: no part loaded")

	// ErrStructural means the merged document has an unresolvable or
	// invalid reference. Nothing is written.
	ErrStructural = consolidate.ErrStructural
)

// PartError is a recoverable failure to load one part.
type PartError struct {
	Label      string
	SourceFile string
	Err        error
}

func (e *PartError) Error() string {
	return fmt.Sprintf("part %q (%s): %v", e.Label, e.SourceFile, e.Err)
}

func (e *PartError) Unwrap() error {
	return e.Err
}
