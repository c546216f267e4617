package engine

import (
	"context"
	"image"

	"github.com/AnyUserName/imgpipe/internal/decode"
	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// Codec reads and writes one format.
type Codec interface {
	// Format returns the format this codec handles.
	Format() format.Format

	// CanDecode and CanEncode report whether the direction is usable. When it
	// is not, the string says why (e.g. a missing external tool).
	CanDecode() (bool, string)
	CanEncode() (bool, string)

	// Decode turns encoded bytes into pixels.
	Decode(ctx context.Context, data []byte, opts DecodeOptions) (image.Image, error)

	// Encode writes img using a validated option set for this format.
	Encode(ctx context.Context, img image.Image, opts options.Set) ([]byte, error)
}

// Sizer is implemented by codecs that can report dimensions from the header
// alone, without decoding pixels.
type Sizer interface {
	Size(data []byte) (width, height int, err error)
}

// DecodeOptions carries the resolved input options for one decode.
type DecodeOptions struct {
	Strategy   decode.Strategy
	AutoOrient bool
}
