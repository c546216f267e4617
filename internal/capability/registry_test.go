package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgpipe/internal/format"
)

type countingProber struct {
	calls   int
	records []Record
}

func (p *countingProber) Probe() []Record {
	p.calls++
	return p.records
}

func newTestRegistry() (*Registry, *countingProber) {
	p := &countingProber{records: []Record{
		{Format: format.JPEG, Input: true, Output: true},
		{Format: format.PNG, Input: true, Output: true},
		{Format: format.JP2, OutputReason: "JP2 output requires opj_compress (OpenJPEG) on PATH"},
	}}
	return NewRegistry(p), p
}

func TestRegistryProbesOnce(t *testing.T) {
	r, p := newTestRegistry()
	for i := 0; i < 5; i++ {
		r.Supports(format.JPEG, format.Output)
		r.Records()
	}
	assert.Equal(t, 1, p.calls)
}

func TestRegistrySupports(t *testing.T) {
	r, _ := newTestRegistry()
	assert.True(t, r.Supports(format.JPEG, format.Input))
	assert.True(t, r.Supports(format.PNG, format.Output))
	assert.False(t, r.Supports(format.JP2, format.Output))
	assert.False(t, r.Supports(format.JP2, format.Input))
	// Formats the engine never mentions are unsupported, not errors.
	assert.False(t, r.Supports(format.AVIF, format.Output))
}

func TestRegistryReason(t *testing.T) {
	r, _ := newTestRegistry()
	assert.Empty(t, r.Reason(format.JPEG, format.Output))
	assert.Equal(t, "JP2 output requires opj_compress (OpenJPEG) on PATH", r.Reason(format.JP2, format.Output))
	assert.Equal(t, "jp2 input is not supported", r.Reason(format.JP2, format.Input))
	assert.Equal(t, "avif output is not provided by this engine", r.Reason(format.AVIF, format.Output))
}

func TestRegistryRecordsOrder(t *testing.T) {
	r, _ := newTestRegistry()
	recs := r.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, format.JPEG, recs[0].Format)
	assert.Equal(t, format.PNG, recs[1].Format)
	assert.Equal(t, format.JP2, recs[2].Format)
	assert.Equal(t, []format.Format{format.JPEG, format.PNG}, r.Available(format.Output))
	assert.Equal(t, "encoders: jpeg, png", r.String())
}
