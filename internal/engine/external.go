package engine

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/format"
)

// Atomic counter for unique work directory names across goroutines.
var tempCounter atomic.Int64

// tool is an external binary looked up on PATH once. Shelling out keeps the
// build free of cgo.
type tool struct {
	name    string
	project string

	once  sync.Once
	found bool
	path  string
}

func newTool(name, project string) *tool {
	return &tool{name: name, project: project}
}

func (t *tool) available() bool {
	t.once.Do(func() {
		path, err := exec.LookPath(t.name)
		if err == nil {
			t.found = true
			t.path = path
		}
	})
	return t.found
}

// missing is the capability reason shown when the tool is not installed,
// e.g. "JP2 output requires opj_compress (OpenJPEG) on PATH".
func (t *tool) missing(label string, d format.Direction) string {
	return fmt.Sprintf("%s %s requires %s (%s) on PATH", label, d, t.name, t.project)
}

// run executes the tool and classifies a failure from its combined output.
func (t *tool) run(ctx context.Context, op string, f format.Format, args ...string) error {
	if !t.available() {
		return errors.Errorf("%s not found in PATH", t.name)
	}
	cmd := exec.CommandContext(ctx, t.path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return classify(op, f, errors.Wrap(err, t.name), string(out))
	}
	return nil
}

// workdir creates a private scratch directory for one tool invocation.
// The returned cleanup removes it and everything in it.
func workdir(prefix string) (string, func(), error) {
	id := tempCounter.Add(1)
	dir, err := os.MkdirTemp("", fmt.Sprintf("imgpipe_%s_%d_*", prefix, id))
	if err != nil {
		return "", nil, errors.Wrap(err, "create temp dir")
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

// writePNG stores img losslessly so external encoders can read it.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create temp png")
	}
	w := bufio.NewWriter(f)
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		f.Close()
		return errors.Wrap(err, "encode temp png")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "write temp png")
	}
	return f.Close()
}

// readPNG loads the PNG an external decoder produced.
func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open decoded png")
	}
	defer f.Close()
	img, err := png.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrap(err, "read decoded png")
	}
	return img, nil
}
