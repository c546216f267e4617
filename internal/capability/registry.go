// Package capability records which formats the codec engine can decode and
// encode in the current build. The table is probed once and is read-only
// afterwards, so it needs no locking.
package capability

import (
	"fmt"
	"strings"

	"github.com/AnyUserName/imgpipe/internal/format"
)

// Record describes one format's support in both directions. A missing
// codec is represented as false together with a human readable reason.
type Record struct {
	Format       format.Format
	Input        bool
	Output       bool
	InputReason  string
	OutputReason string
}

// Prober is implemented by codec engines able to report their compiled-in
// codec list.
type Prober interface {
	Probe() []Record
}

// Registry holds the probed capability table.
type Registry struct {
	records map[format.Format]Record
}

// NewRegistry probes p exactly once and freezes the result.
func NewRegistry(p Prober) *Registry {
	r := &Registry{
		records: make(map[format.Format]Record),
	}
	for _, rec := range p.Probe() {
		r.records[rec.Format] = rec
	}
	return r
}

// Supports reports whether format f is available in direction d. Unknown
// formats are simply unsupported.
func (r *Registry) Supports(f format.Format, d format.Direction) bool {
	rec, ok := r.records[f]
	if !ok {
		return false
	}
	if d == format.Output {
		return rec.Output
	}
	return rec.Input
}

// Reason explains why f is unavailable in direction d, or returns "" when
// it is available.
func (r *Registry) Reason(f format.Format, d format.Direction) string {
	if r.Supports(f, d) {
		return ""
	}
	rec, ok := r.records[f]
	if !ok {
		return fmt.Sprintf("%s %s is not provided by this engine", f, d)
	}
	if d == format.Output && rec.OutputReason != "" {
		return rec.OutputReason
	}
	if d == format.Input && rec.InputReason != "" {
		return rec.InputReason
	}
	return fmt.Sprintf("%s %s is not supported", f, d)
}

// Record returns the raw record for f.
func (r *Registry) Record(f format.Format) (Record, bool) {
	rec, ok := r.records[f]
	return rec, ok
}

// Records returns all records in display order.
func (r *Registry) Records() []Record {
	var out []Record
	for _, f := range format.All {
		if rec, ok := r.records[f]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Available returns the formats supported in direction d.
func (r *Registry) Available(d format.Direction) []format.Format {
	var out []format.Format
	for _, rec := range r.Records() {
		if r.Supports(rec.Format, d) {
			out = append(out, rec.Format)
		}
	}
	return out
}

// String returns a one-line summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available(format.Output)
	if len(avail) == 0 {
		return "no encoders available"
	}
	names := make([]string, len(avail))
	for i, f := range avail {
		names[i] = string(f)
	}
	return fmt.Sprintf("encoders: %s", strings.Join(names, ", "))
}
