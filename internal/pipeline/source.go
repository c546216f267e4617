package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Source yields the encoded input for one execution.
type Source interface {
	// Read returns the whole input. Single-use sources fail on the second
	// call with ErrSourceConsumed.
	Read(ctx context.Context) ([]byte, error)
	String() string
}

type bytesSource []byte

// FromBytes reads from memory. It can be executed any number of times.
func FromBytes(data []byte) Source { return bytesSource(data) }

func (b bytesSource) Read(context.Context) ([]byte, error) { return b, nil }
func (b bytesSource) String() string                       { return fmt.Sprintf("buffer(%d bytes)", len(b)) }

type fileSource string

// FromFile reads path afresh on every execution.
func FromFile(path string) Source { return fileSource(path) }

func (f fileSource) Read(context.Context) ([]byte, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, errors.Wrapf(err, "read input %s", string(f))
	}
	return data, nil
}

func (f fileSource) String() string { return string(f) }

type readerSource struct {
	mu       sync.Mutex
	r        io.Reader
	consumed bool
}

// FromReader drains r on the first execution. Later executions fail fast
// with ErrSourceConsumed instead of seeing an empty stream.
func FromReader(r io.Reader) Source { return &readerSource{r: r} }

func (s *readerSource) Read(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		return nil, ErrSourceConsumed
	}
	s.consumed = true
	data, err := io.ReadAll(s.r)
	if err != nil {
		return nil, errors.Wrap(err, "read input stream")
	}
	return data, nil
}

func (s *readerSource) String() string { return "stream" }
