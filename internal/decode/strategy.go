// Package decode chooses how an input is read. Some formats can be laid out
// on disk in pieces that a streaming decoder cannot stitch together as it
// goes; for those the caller must opt in to a one-shot decode that
// reassembles the whole raster first. The selector never upgrades a
// strategy on its own.
package decode

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/jp2"
)

// Strategy is the caller's decode choice.
type Strategy int

const (
	// Default assumes one coherent top-level structure.
	Default Strategy = iota
	// Oneshot decodes and reassembles every part before anything else runs.
	Oneshot
)

func (s Strategy) String() string {
	if s == Oneshot {
		return "oneshot"
	}
	return "default"
}

// State tracks a Load through resolution:
// Unresolved -> DefaultPath|OneshotPath -> Resolved|Failed.
type State int

const (
	Unresolved State = iota
	DefaultPath
	OneshotPath
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case DefaultPath:
		return "default-path"
	case OneshotPath:
		return "oneshot-path"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return "unresolved"
}

// Layout is what an inspector learns from file structure alone.
type Layout struct {
	Width, Height int
	Parts         int
	Tiles         int
	Segmented     bool
}

// Inspector reads structure without decoding pixels.
type Inspector func(data []byte) (Layout, error)

// Resolution is the outcome of resolving one Load for one execution.
type Resolution struct {
	Format    format.Format
	Strategy  Strategy
	Path      State
	State     State
	Layout    Layout
	Inspected bool
}

// StructuralMismatchError is returned when Default meets a segmented input.
// Re-running with Oneshot is the caller's decision.
type StructuralMismatchError struct {
	Format format.Format
	Parts  int
	Tiles  int
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("%s input is split into %d tile-parts over %d tiles; decode with %s.oneshot",
		e.Format, e.Parts, e.Tiles, e.Format)
}

// Selector holds per-format inspectors. It is safe for concurrent use once
// built.
type Selector struct {
	inspectors map[format.Format]Inspector
}

// NewSelector returns a selector with the built-in inspectors.
func NewSelector() *Selector {
	s := &Selector{inspectors: map[format.Format]Inspector{}}
	s.inspectors[format.JP2] = inspectJP2
	return s
}

// Register installs an inspector for f. Call before first use.
func (s *Selector) Register(f format.Format, in Inspector) {
	s.inspectors[f] = in
}

// Resolve picks the decode path for data in format f.
func (s *Selector) Resolve(f format.Format, data []byte, strategy Strategy) (Resolution, error) {
	res := Resolution{Format: f, Strategy: strategy, Path: DefaultPath, State: Unresolved}
	if strategy == Oneshot {
		res.Path = OneshotPath
	}

	inspect, ok := s.inspectors[f]
	if !ok {
		res.State = Resolved
		return res, nil
	}
	layout, err := inspect(data)
	if err != nil {
		res.State = Failed
		return res, errors.Wrapf(err, "inspect %s input", f)
	}
	res.Layout = layout
	res.Inspected = true

	if strategy == Default && layout.Segmented {
		res.State = Failed
		return res, &StructuralMismatchError{Format: f, Parts: layout.Parts, Tiles: layout.Tiles}
	}
	res.State = Resolved
	return res, nil
}

func inspectJP2(data []byte) (Layout, error) {
	l, err := jp2.Inspect(data)
	if err != nil {
		return Layout{}, err
	}
	return Layout{
		Width:     l.Width,
		Height:    l.Height,
		Parts:     l.TileParts,
		Tiles:     l.Tiles(),
		Segmented: l.Segmented(),
	}, nil
}
