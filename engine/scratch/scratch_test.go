package scratch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolRecyclesAfterReset(t *testing.T) {
	p := Floats(8)

	a := p.Get()
	*a = append(*a, 1, 2, 3)
	_ = p.Get()
	assert.Equal(t, 2, p.InUse())
	assert.Equal(t, 2, p.Created())

	p.Reset()
	assert.Equal(t, 0, p.InUse())

	c := p.Get()
	d := p.Get()
	assert.Equal(t, 2, p.Created(), "no new allocations after reset")
	assert.Empty(t, *c)
	assert.Empty(t, *d)
}

func TestPoolKeepsGrownSlices(t *testing.T) {
	p := Floats(4)

	s := p.Get()
	for i := range 100 {
		*s = append(*s, float32(i))
	}
	grown := cap(*s)
	p.Reset()

	again := p.Get()
	assert.Same(t, s, again)
	assert.Empty(t, *again)
	assert.Equal(t, grown, cap(*again), "the grown backing array is reused")
	assert.Equal(t, 1, p.Created())
}

func TestPoolResetFuncRunsOnReset(t *testing.T) {
	resets := 0
	p := NewPool(func() int { return 7 }, func(v *int) { *v = 0; resets++ })

	assert.Equal(t, 7, *p.Get())
	p.Reset()
	assert.Equal(t, 1, resets)
	assert.Equal(t, 0, *p.Get())
}
