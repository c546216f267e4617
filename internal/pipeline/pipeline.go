// Package pipeline builds and runs image transformation pipelines.
//
// A Pipeline starts with a Load and accumulates operations. Options are
// validated when an operation is appended, so malformed input is reported
// before any decode work. The first execution freezes the pipeline; it can
// then be executed again, concurrently if needed, over the same operations.
// Whether a codec exists is checked lazily, only for the formats an
// execution actually decodes or encodes.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/AnyUserName/imgpipe/internal/capability"
	"github.com/AnyUserName/imgpipe/internal/decode"
	"github.com/AnyUserName/imgpipe/internal/engine"
	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// Config holds the collaborators shared by every pipeline of a Processor.
type Config struct {
	// Engine performs decode, encode and pixel operations. Nil means
	// engine.New().
	Engine *engine.Engine
	// Selector resolves decode strategies. Nil means decode.NewSelector().
	Selector *decode.Selector
	// Logger receives debug records for each execution. Nil discards.
	Logger *slog.Logger
}

// Processor creates pipelines bound to one engine and its capability table.
// It is safe for concurrent use.
type Processor struct {
	engine   *engine.Engine
	registry *capability.Registry
	selector *decode.Selector
	log      *slog.Logger
}

// New creates a processor, probing the engine's codecs once.
func New(cfg Config) *Processor {
	if cfg.Engine == nil {
		cfg.Engine = engine.New()
	}
	if cfg.Selector == nil {
		cfg.Selector = decode.NewSelector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{
		engine:   cfg.Engine,
		registry: capability.NewRegistry(cfg.Engine),
		selector: cfg.Selector,
		log:      cfg.Logger,
	}
}

// Capabilities returns the probed capability table, for eager checks.
func (p *Processor) Capabilities() *capability.Registry { return p.registry }

// Supports is shorthand for Capabilities().Supports.
func (p *Processor) Supports(f format.Format, d format.Direction) bool {
	return p.registry.Supports(f, d)
}

// Load starts a pipeline reading src. Input options ("jp2.oneshot",
// "limitInputPixels", "autoOrient") are validated immediately.
func (p *Processor) Load(src Source, input options.Raw) (*Pipeline, error) {
	set, err := options.Validate(options.OwnerInput, input)
	if err != nil {
		return nil, err
	}
	load := Operation{Kind: OpLoad, Raw: input, Options: set}
	return &Pipeline{proc: p, source: src, ops: []Operation{load}}, nil
}

// Pipeline is an ordered list of operations over one source.
type Pipeline struct {
	proc   *Processor
	source Source

	mu     sync.Mutex
	frozen bool
	ops    []Operation
}

// Append validates ops and adds them in order. Nothing is appended if any
// of them fails. Selecting an output format replaces the previous one.
func (p *Pipeline) Append(ops ...Operation) error {
	valid := make([]Operation, 0, len(ops))
	for _, op := range ops {
		v, err := op.validate()
		if err != nil {
			return err
		}
		valid = append(valid, v)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return ErrFrozen
	}
	for _, op := range valid {
		if op.Kind == OpOutput {
			p.ops = removeOutput(p.ops)
		}
		p.ops = append(p.ops, op)
	}
	return nil
}

func removeOutput(ops []Operation) []Operation {
	out := ops[:0]
	for _, op := range ops {
		if op.Kind != OpOutput {
			out = append(out, op)
		}
	}
	return out
}

// Operations returns a copy of the operation list.
func (p *Pipeline) Operations() []Operation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Operation(nil), p.ops...)
}

// Freeze stops further appends. Executing a pipeline freezes it.
func (p *Pipeline) Freeze() {
	p.mu.Lock()
	p.frozen = true
	p.mu.Unlock()
}

// Frozen reports whether the pipeline accepts no more operations.
func (p *Pipeline) Frozen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frozen
}

// snapshot freezes the pipeline and returns its operations. The slice is
// shared but never written again.
func (p *Pipeline) snapshot() []Operation {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frozen = true
	return p.ops
}

// Description is what Describe learns about an encoded image.
type Description struct {
	Format format.Format
	Width  int
	Height int
}

// Describe sniffs data and reports its format and dimensions without
// building a pipeline. Formats the engine cannot read are rejected.
func (p *Processor) Describe(ctx context.Context, data []byte) (Description, error) {
	f := format.Sniff(data)
	if f == format.Unknown {
		return Description{}, &UnsupportedFormatError{Format: f, Direction: format.Input}
	}
	if !p.registry.Supports(f, format.Input) {
		return Description{}, &UnsupportedFormatError{Format: f, Direction: format.Input,
			Reason: p.registry.Reason(f, format.Input)}
	}
	w, h, err := p.engine.Size(ctx, f, data)
	if err != nil {
		return Description{}, err
	}
	return Description{Format: f, Width: w, Height: h}, nil
}
