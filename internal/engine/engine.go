// Package engine is the codec boundary. It owns the per-format codecs, turns
// bytes into pixels and back, applies pixel operations, and reports which
// formats it can handle so the capability table can be built from it.
package engine

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/capability"
	"github.com/AnyUserName/imgpipe/internal/decode"
	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// Engine holds one codec per format.
type Engine struct {
	codecs map[format.Format]Codec
}

// Option configures an Engine.
type Option func(*Engine)

// WithCodec installs c, replacing any built-in codec for the same format.
func WithCodec(c Codec) Option {
	return func(e *Engine) { e.codecs[c.Format()] = c }
}

// WithoutCodec removes the codec for f, as if it were not compiled in.
func WithoutCodec(f format.Format) Option {
	return func(e *Engine) { delete(e.codecs, f) }
}

// New creates an engine with every built-in codec. External tools are
// probed lazily, the first time availability is asked for.
func New(opts ...Option) *Engine {
	e := &Engine{codecs: make(map[format.Format]Codec)}

	all := []Codec{
		&JPEGCodec{},
		&PNGCodec{},
		NewWebPCodec(),
		NewAVIFCodec(),
		NewGIFCodec(),
		NewTIFFCodec(),
		NewBMPCodec(),
		NewJP2Codec(),
	}
	for _, c := range all {
		e.codecs[c.Format()] = c
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Codec returns the codec for f.
func (e *Engine) Codec(f format.Format) (Codec, bool) {
	c, ok := e.codecs[f]
	return c, ok
}

// Probe reports every installed codec in display order.
func (e *Engine) Probe() []capability.Record {
	var records []capability.Record
	for _, f := range format.All {
		c, ok := e.codecs[f]
		if !ok {
			continue
		}
		rec := capability.Record{Format: f}
		rec.Input, rec.InputReason = c.CanDecode()
		rec.Output, rec.OutputReason = c.CanEncode()
		records = append(records, rec)
	}
	return records
}

// Decode reads data as format f. When limit is positive, inputs whose
// width*height exceeds it fail before their pixels are decoded.
func (e *Engine) Decode(ctx context.Context, f format.Format, data []byte, opts DecodeOptions, limit int) (image.Image, error) {
	c, ok := e.codecs[f]
	if !ok {
		return nil, errors.Errorf("no codec for %s", f)
	}
	if can, reason := c.CanDecode(); !can {
		return nil, errors.New(reason)
	}

	if sizer, ok := c.(Sizer); ok && limit > 0 {
		w, h, err := sizer.Size(data)
		if err != nil {
			return nil, classify("decode", f, err, "")
		}
		if exceeds(w, h, limit) {
			return nil, classify("decode", f, ErrPixelLimit, "")
		}
	}

	img, err := c.Decode(ctx, data, opts)
	if err != nil {
		return nil, classify("decode", f, err, "")
	}
	if limit > 0 {
		b := img.Bounds()
		if exceeds(b.Dx(), b.Dy(), limit) {
			return nil, classify("decode", f, ErrPixelLimit, "")
		}
	}
	return img, nil
}

// Size reports the dimensions of data in format f, from headers when the
// codec can read them and by a full decode otherwise.
func (e *Engine) Size(ctx context.Context, f format.Format, data []byte) (int, int, error) {
	c, ok := e.codecs[f]
	if !ok {
		return 0, 0, errors.Errorf("no codec for %s", f)
	}
	if sizer, ok := c.(Sizer); ok {
		w, h, err := sizer.Size(data)
		if err != nil {
			return 0, 0, classify("decode", f, err, "")
		}
		return w, h, nil
	}
	img, err := e.Decode(ctx, f, data, DecodeOptions{Strategy: decode.Oneshot}, 0)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Encode writes img as format f.
func (e *Engine) Encode(ctx context.Context, f format.Format, img image.Image, opts options.Set) ([]byte, error) {
	c, ok := e.codecs[f]
	if !ok {
		return nil, errors.Errorf("no codec for %s", f)
	}
	if can, reason := c.CanEncode(); !can {
		return nil, errors.New(reason)
	}
	out, err := c.Encode(ctx, img, opts)
	if err != nil {
		return nil, classify("encode", f, err, "")
	}
	return out, nil
}

// String returns a summary of the installed codecs.
func (e *Engine) String() string {
	var in, out []string
	for _, rec := range e.Probe() {
		if rec.Input {
			in = append(in, string(rec.Format))
		}
		if rec.Output {
			out = append(out, string(rec.Format))
		}
	}
	return fmt.Sprintf("decode: %s; encode: %s", strings.Join(in, ", "), strings.Join(out, ", "))
}

func exceeds(w, h, limit int) bool {
	return int64(w)*int64(h) > int64(limit)
}
