package pipeline

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/format"
)

// Sink is where an execution's payload goes.
type Sink interface {
	// implied returns the output format a sink suggests, or format.Unknown.
	implied() format.Format
	// write stores data, returning the path written, if any.
	write(data []byte) (string, error)
}

type bufferSink struct{}

// BufferSink keeps the payload in Result.Data.
func BufferSink() Sink { return bufferSink{} }

func (bufferSink) implied() format.Format       { return format.Unknown }
func (bufferSink) write([]byte) (string, error) { return "", nil }

type fileSink struct{ path string }

// FileSink writes the payload to path. A recognised suffix selects the
// output format when none was set explicitly.
func FileSink(path string) Sink { return fileSink{path: path} }

func (s fileSink) implied() format.Format { return format.FromPath(s.path) }

// write goes through a temp file in the destination directory and a rename,
// so a failed run never leaves a partial file at path.
func (s fileSink) write(data []byte) (string, error) {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".imgpipe-*")
	if err != nil {
		return "", errors.Wrap(err, "create output")
	}
	tmpPath := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", errors.Wrapf(err, "write %s", s.path)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", s.path)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrapf(err, "write %s", s.path)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return "", errors.Wrapf(err, "write %s", s.path)
	}
	ok = true
	return s.path, nil
}
