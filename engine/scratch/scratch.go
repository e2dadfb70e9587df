package scratch

// Pool hands out reusable scratch objects for per-frame work. It is owned by
// one goroutine (the render thread) and is not safe for concurrent use.
//
// Get returns a pointer to a recycled object or a new one. Every object handed
// out since the last Reset is recycled by the next Reset, which runs the reset
// func on it first. Writes through the pointer, such as a slice that grew, are
// kept across frames. Call Reset once per frame after the frame's work is
// submitted.
type Pool[T any] struct {
	newFn   func() T
	resetFn func(*T)
	free    []*T
	used    []*T
	created int
}

// NewPool creates a pool. reset may be nil.
func NewPool[T any](newFn func() T, reset func(*T)) *Pool[T] {
	return &Pool[T]{newFn: newFn, resetFn: reset}
}

// Get returns an object that stays valid until the next Reset.
func (p *Pool[T]) Get() *T {
	var v *T
	if n := len(p.free); n > 0 {
		v = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
	} else {
		nv := p.newFn()
		v = &nv
		p.created++
	}
	p.used = append(p.used, v)
	return v
}

// Reset recycles every object handed out since the previous Reset.
func (p *Pool[T]) Reset() {
	for i, v := range p.used {
		if p.resetFn != nil {
			p.resetFn(v)
		}
		p.free = append(p.free, v)
		p.used[i] = nil
	}
	p.used = p.used[:0]
}

// InUse reports objects handed out since the last Reset.
func (p *Pool[T]) InUse() int { return len(p.used) }

// Created reports how many objects the pool has allocated in total.
func (p *Pool[T]) Created() int { return p.created }

// Floats returns a pool of float32 slices with the given starting capacity,
// truncated to zero length on reset.
func Floats(capacity int) *Pool[[]float32] {
	if capacity <= 0 {
		capacity = 1024
	}
	return NewPool(
		func() []float32 { return make([]float32, 0, capacity) },
		func(s *[]float32) { *s = (*s)[:0] },
	)
}
