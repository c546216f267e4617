package engine

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/format"
)

// Cause is the coarse reason an engine operation failed.
type Cause int

const (
	Unknown Cause = iota
	CorruptData
	ResourceExhausted
)

func (c Cause) String() string {
	switch c {
	case CorruptData:
		return "corrupt data"
	case ResourceExhausted:
		return "resource exhausted"
	}
	return "unknown"
}

// EngineError wraps a failure raised while decoding or encoding. Detail is
// the engine's own text, kept verbatim.
type EngineError struct {
	Op     string
	Format format.Format
	Cause  Cause
	Detail string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Detail == "" && e.Err != nil {
		return fmt.Sprintf("%s %s failed: %v", e.Format, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Format, e.Op, e.Detail)
}

func (e *EngineError) Unwrap() error { return e.Err }

// ErrPixelLimit is the cause wrapped when an input exceeds limitInputPixels.
var ErrPixelLimit = errors.New("Input image exceeds pixel limit")

// ErrOutputPixelLimit is the cause wrapped when a resize would produce more
// pixels than limitInputPixels allows.
var ErrOutputPixelLimit = errors.New("Output image exceeds pixel limit")

// Patterns over decoder errors and captured tool output. Checked in order;
// the first match wins.
var (
	reResourceExhausted = regexp.MustCompile(
		`(?i)out of memory|cannot allocate|memory allocation|` +
			`exceeds pixel limit|image too large|too many tiles|` +
			`no space left on device`)

	reCorruptData = regexp.MustCompile(
		`(?i)corrupt|truncated|unexpected EOF|premature end|` +
			`invalid( \w+)? (format|header|marker|box|codestream|image|data)|` +
			`can't recognize format|` +
			`not a (valid )?(jpeg|png|gif|bmp|tiff|webp|avif|jp2|j2k)|` +
			`bad (marker|magic|header|huffman|RST)|checksum|malformed|` +
			`unknown format|unexpected marker|failed to decode|` +
			`expected marker|unsupported (file )?format`)
)

// MatchResourceExhausted reports whether text describes an exhausted resource.
func MatchResourceExhausted(text string) bool {
	return reResourceExhausted.MatchString(text)
}

// MatchCorruptData reports whether text describes unreadable input.
func MatchCorruptData(text string) bool {
	return reCorruptData.MatchString(text)
}

// Classify builds an EngineError from err and any captured tool output.
// Context cancellation and existing EngineErrors pass through untouched.
func Classify(op string, f format.Format, err error, output string) error {
	return classify(op, f, err, output)
}

func classify(op string, f format.Format, err error, output string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var existing *EngineError
	if errors.As(err, &existing) {
		return err
	}

	detail := strings.TrimSpace(output)
	if detail == "" {
		detail = err.Error()
	}
	e := &EngineError{Op: op, Format: f, Detail: detail, Err: err}
	switch {
	case errors.Is(err, ErrPixelLimit), errors.Is(err, ErrOutputPixelLimit), MatchResourceExhausted(detail):
		e.Cause = ResourceExhausted
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF), MatchCorruptData(detail):
		e.Cause = CorruptData
	}
	return e
}
