package pipeline

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// OpKind tags an Operation.
type OpKind int

const (
	OpLoad OpKind = iota
	OpResize
	OpRotate
	OpFlip
	OpFlop
	OpBlur
	OpModulate
	OpGrayscale
	OpFlatten
	OpOutput
)

var opNames = [...]string{
	OpLoad:      "load",
	OpResize:    "resize",
	OpRotate:    "rotate",
	OpFlip:      "flip",
	OpFlop:      "flop",
	OpBlur:      "blur",
	OpModulate:  "modulate",
	OpGrayscale: "grayscale",
	OpFlatten:   "flatten",
	OpOutput:    "output",
}

func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// MaxDimension bounds resize targets.
const MaxDimension = 65535

// Operation is one step of a pipeline. Only the fields meaningful for Kind
// are set. Raw holds the caller's options until Append validates them into
// Options; after that the operation is never modified.
type Operation struct {
	Kind    OpKind
	Width   int
	Height  int
	Angle   float64
	Format  format.Format
	Raw     options.Raw
	Options options.Set

	// name is the output format as the caller spelled it.
	name string
	// implicit marks an output inferred from a file suffix.
	implicit bool
}

// Resize scales to width x height. Either may be 0 to keep the aspect ratio.
func Resize(width, height int, raw options.Raw) Operation {
	return Operation{Kind: OpResize, Width: width, Height: height, Raw: raw}
}

// Rotate turns the image clockwise by angle degrees.
func Rotate(angle float64, raw options.Raw) Operation {
	return Operation{Kind: OpRotate, Angle: angle, Raw: raw}
}

func Flip() Operation      { return Operation{Kind: OpFlip} }
func Flop() Operation      { return Operation{Kind: OpFlop} }
func Grayscale() Operation { return Operation{Kind: OpGrayscale} }

// Blur applies a gaussian blur of the given sigma.
func Blur(sigma float64) Operation {
	return Operation{Kind: OpBlur, Raw: options.Raw{"sigma": sigma}}
}

// Modulate scales brightness and saturation.
func Modulate(raw options.Raw) Operation {
	return Operation{Kind: OpModulate, Raw: raw}
}

// Flatten removes alpha by compositing over a background colour.
func Flatten(raw options.Raw) Operation {
	return Operation{Kind: OpFlatten, Raw: raw}
}

// Output selects the output format by name ("jpeg", "jpg", "jp2", ...)
// with its encode options.
func Output(name string, raw options.Raw) Operation {
	return Operation{Kind: OpOutput, name: name, Raw: raw}
}

// Implicit reports whether an output operation came from a file suffix
// rather than an explicit request.
func (op Operation) Implicit() bool { return op.implicit }

func (op Operation) String() string {
	switch op.Kind {
	case OpResize:
		return fmt.Sprintf("resize(%dx%d)", op.Width, op.Height)
	case OpRotate:
		return fmt.Sprintf("rotate(%g)", op.Angle)
	case OpOutput:
		return fmt.Sprintf("output(%s)", op.Format)
	}
	return op.Kind.String()
}

// validate checks the operation's arguments and options and returns the
// validated copy that gets appended.
func (op Operation) validate() (Operation, error) {
	var owner string
	switch op.Kind {
	case OpResize:
		if err := checkDimensions(op.Width, op.Height); err != nil {
			return op, err
		}
		owner = options.OwnerResize
	case OpRotate:
		if math.IsNaN(op.Angle) || math.IsInf(op.Angle, 0) {
			return op, options.NotFinite(options.OwnerRotate, "angle", op.Angle)
		}
		owner = options.OwnerRotate
	case OpBlur:
		owner = options.OwnerBlur
	case OpModulate:
		owner = options.OwnerModulate
	case OpFlatten:
		owner = options.OwnerFlatten
	case OpFlip, OpFlop, OpGrayscale:
		return op, nil
	case OpOutput:
		f, ok := format.Parse(op.name)
		if !ok {
			return op, options.UnknownFormat(op.name)
		}
		op.Format = f
		owner = string(f)
	default:
		return op, errors.Errorf("operation %s cannot be appended", op.Kind)
	}

	set, err := options.Validate(owner, op.Raw)
	if err != nil {
		return op, err
	}
	op.Options = set
	return op, nil
}

func checkDimensions(width, height int) error {
	if width < 0 || width > MaxDimension {
		return options.OutOfRangeInt(options.OwnerResize, "width", width, 0, MaxDimension)
	}
	if height < 0 || height > MaxDimension {
		return options.OutOfRangeInt(options.OwnerResize, "height", height, 0, MaxDimension)
	}
	if width == 0 && height == 0 {
		return options.OutOfRangeInt(options.OwnerResize, "width", width, 1, MaxDimension)
	}
	return nil
}
