package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/decode"
	"github.com/AnyUserName/imgpipe/internal/engine"
	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/hasher"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// Result is the outcome of one successful execution.
type Result struct {
	// Data holds the payload for buffer sinks.
	Data []byte
	// Path is the file written by file sinks.
	Path     string
	Metadata Metadata
}

// Metadata describes the produced output, not the requested one.
type Metadata struct {
	Format   format.Format `json:"format"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Channels int           `json:"channels"`
	Size     int           `json:"size"`
	Hash     string        `json:"hash"`
	Strategy string        `json:"strategy"`
}

// ToBuffer executes the pipeline and returns the payload in memory.
func (p *Pipeline) ToBuffer(ctx context.Context) (*Result, error) {
	return p.Execute(ctx, BufferSink())
}

// ToFile executes the pipeline and writes the payload to path.
func (p *Pipeline) ToFile(ctx context.Context, path string) (*Result, error) {
	return p.Execute(ctx, FileSink(path))
}

// Execute runs the pipeline once into sink.
func (p *Pipeline) Execute(ctx context.Context, sink Sink) (*Result, error) {
	return p.run(ctx, p.snapshot(), sink)
}

func (p *Pipeline) run(ctx context.Context, ops []Operation, sink Sink) (*Result, error) {
	start := time.Now()
	proc := p.proc
	load := ops[0]

	data, err := p.source.Read(ctx)
	if err != nil {
		return nil, err
	}

	in := format.Sniff(data)
	if in == format.Unknown {
		return nil, &UnsupportedFormatError{Format: in, Direction: format.Input}
	}
	if !proc.registry.Supports(in, format.Input) {
		return nil, &UnsupportedFormatError{Format: in, Direction: format.Input,
			Reason: proc.registry.Reason(in, format.Input)}
	}

	strategy := decode.Default
	if load.Options.Bool(options.JP2Oneshot) {
		strategy = decode.Oneshot
	}
	res, err := proc.selector.Resolve(in, data, strategy)
	if err != nil {
		var mismatch *decode.StructuralMismatchError
		if errors.As(err, &mismatch) {
			return nil, err
		}
		return nil, engine.Classify("decode", in, err, "")
	}

	output := resolveOutput(ops, sink, in)
	if !proc.registry.Supports(output.Format, format.Output) {
		return nil, &UnsupportedFormatError{Format: output.Format, Direction: format.Output,
			Reason: proc.registry.Reason(output.Format, format.Output)}
	}

	img, err := proc.engine.Decode(ctx, in, data, engine.DecodeOptions{
		Strategy:   res.Strategy,
		AutoOrient: load.Options.Bool(options.AutoOrient),
	}, load.Options.Int(options.LimitInputPixels))
	if err != nil {
		return nil, err
	}

	limit := load.Options.Int(options.LimitInputPixels)
	for _, op := range ops[1:] {
		if img, err = apply(img, op, limit); err != nil {
			return nil, engine.Classify(op.Kind.String(), in, err, "")
		}
	}

	payload, err := proc.engine.Encode(ctx, output.Format, img, output.Options)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	result := &Result{Metadata: Metadata{
		Format:   output.Format,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: engine.Channels(img, output.Format.SupportsAlpha()),
		Size:     len(payload),
		Hash:     hasher.ContentHash(payload, 16),
		Strategy: res.Strategy.String(),
	}}

	path, err := sink.write(payload)
	if err != nil {
		return nil, err
	}
	if path == "" {
		result.Data = payload
	}
	result.Path = path

	proc.log.Debug("pipeline executed",
		"source", p.source.String(),
		"input", in,
		"output", output.Format,
		"strategy", result.Metadata.Strategy,
		"width", result.Metadata.Width,
		"height", result.Metadata.Height,
		"bytes", result.Metadata.Size,
		"elapsed", time.Since(start))
	return result, nil
}

// resolveOutput picks the terminal output operation: the explicit one, else
// the sink's suffix, else the input format.
func resolveOutput(ops []Operation, sink Sink, in format.Format) Operation {
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].Kind == OpOutput {
			return ops[i]
		}
	}
	f := sink.implied()
	implicit := f != format.Unknown
	if !implicit {
		f = in
	}
	schema, _ := options.OutputSchema(f)
	return Operation{
		Kind:     OpOutput,
		Format:   f,
		Options:  options.NewSet(schema),
		name:     string(f),
		implicit: implicit,
	}
}

// apply runs one pixel operation. A positive limit bounds the pixel count a
// resize may produce, the same bound limitInputPixels puts on decode.
func apply(img image.Image, op Operation, limit int) (image.Image, error) {
	switch op.Kind {
	case OpResize:
		b := img.Bounds()
		w, h := engine.ResizedSize(b.Dx(), b.Dy(), op.Width, op.Height, op.Options)
		if limit > 0 && int64(w)*int64(h) > int64(limit) {
			return nil, engine.ErrOutputPixelLimit
		}
		return engine.Resize(img, op.Width, op.Height, op.Options), nil
	case OpRotate:
		return engine.Rotate(img, op.Angle, op.Options), nil
	case OpFlip:
		return engine.Flip(img), nil
	case OpFlop:
		return engine.Flop(img), nil
	case OpBlur:
		return engine.Blur(img, op.Options.Float("sigma")), nil
	case OpModulate:
		return engine.Modulate(img, op.Options), nil
	case OpGrayscale:
		return engine.Grayscale(img), nil
	case OpFlatten:
		return engine.Flatten(img, op.Options), nil
	}
	return img, nil
}
