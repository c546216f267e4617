package pipeline

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/decode"
	"github.com/AnyUserName/imgpipe/internal/engine"
	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

var (
	// ErrFrozen is returned by Append once execution has started.
	ErrFrozen = errors.New("pipeline is frozen: operations cannot be added after execution starts")

	// ErrSourceConsumed is returned when a single-use stream source is
	// executed a second time.
	ErrSourceConsumed = errors.New("input stream was already consumed by a previous execution")
)

// UnsupportedFormatError is returned at execution time when a format on the
// executed path has no codec in the requested direction.
type UnsupportedFormatError struct {
	Format    format.Format
	Direction format.Direction
	Reason    string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Format == format.Unknown {
		return "Input buffer contains unsupported image format"
	}
	if e.Reason == "" {
		return fmt.Sprintf("%s %s is not supported", e.Format, e.Direction)
	}
	return e.Reason
}

// Kind is the taxonomy an error belongs to.
type Kind int

const (
	KindOther Kind = iota
	KindValidation
	KindUnsupportedFormat
	KindStructuralMismatch
	KindEngine
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindStructuralMismatch:
		return "structural mismatch"
	case KindEngine:
		return "engine failure"
	}
	return "other"
}

// Classify maps err, wrapped or not, onto the error taxonomy.
func Classify(err error) Kind {
	var (
		verr     *options.ValidationError
		uerr     *UnsupportedFormatError
		mismatch *decode.StructuralMismatchError
		eerr     *engine.EngineError
	)
	switch {
	case err == nil:
		return KindOther
	case errors.As(err, &verr):
		return KindValidation
	case errors.As(err, &uerr):
		return KindUnsupportedFormat
	case errors.As(err, &mismatch):
		return KindStructuralMismatch
	case errors.As(err, &eerr):
		return KindEngine
	}
	return KindOther
}
