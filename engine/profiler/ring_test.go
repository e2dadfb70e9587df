package profiler

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingKeepsNewestInOrder(t *testing.T) {
	var r evRing
	r.init(3)
	for i := range 5 {
		r.push(evEntry{AtNS: int64(i)})
	}
	got := r.snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, []int64{2, 3, 4}, []int64{got[0].AtNS, got[1].AtNS, got[2].AtNS})
}

func TestInternerIsStable(t *testing.T) {
	var in interner
	assert.Equal(t, 0, in.id("frame"))
	assert.Equal(t, 1, in.id("drain"))
	assert.Equal(t, 0, in.id("frame"))
	assert.Equal(t, []string{"frame", "drain"}, in.names())
}

func TestSpeedscopeBalancesEvents(t *testing.T) {
	evs := []evEntry{
		{AtNS: 0, FrameID: 0, Open: true},
		{AtNS: 1000, FrameID: 1, Open: true},
		{AtNS: 1500, FrameID: 0},             // mismatched close, dropped
		{AtNS: 2000, FrameID: 1},             // closes 1
		{AtNS: 1000, FrameID: 2, Open: true}, // clock went backwards
	}
	out, end := speedscopeEvents(evs)
	types := ""
	for _, e := range out {
		types += e.Type
	}
	assert.Equal(t, "OOCOCC", types)
	assert.EqualValues(t, 2, end)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i].At, out[i-1].At)
	}
	// Unclosed scopes close innermost first.
	assert.Equal(t, 2, out[4].Frame)
	assert.Equal(t, 0, out[5].Frame)
}

func TestEncodeSpeedscope(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, encodeSpeedscope(&buf, nil, nil), errNoEvents)

	evs := []evEntry{{AtNS: 0, Open: true}, {AtNS: 5000}}
	require.NoError(t, encodeSpeedscope(&buf, evs, []string{"frame"}))

	var doc ssFile
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Profiles, 1)
	assert.Equal(t, "evented", doc.Profiles[0].Type)
	assert.EqualValues(t, 5, doc.Profiles[0].EndValue)
	assert.Equal(t, "frame", doc.Shared.Frames[0].Name)
}
