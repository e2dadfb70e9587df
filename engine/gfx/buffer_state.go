package gfx

import "fmt"

// BufferState is the backend-independent bookkeeping of a vertex buffer:
// capacity, vertex count, override and disposal. Backends embed it so the
// upload and draw rules are the same everywhere.
type BufferState struct {
	desc        BufferDescriptor
	capacity    int // floats
	vertexCount int
	disposed    bool
}

func NewBufferState(desc BufferDescriptor) BufferState {
	return BufferState{desc: desc, capacity: desc.InitialCapacity()}
}

func (s *BufferState) Descriptor() BufferDescriptor { return s.desc }
func (s *BufferState) Capacity() int                { return s.capacity }
func (s *BufferState) VertexCount() int             { return s.vertexCount }
func (s *BufferState) Disposed() bool               { return s.disposed }

// SetVertexCount overrides the count derived from the last upload, for drawing
// a truncated batch. Negative values clamp to zero.
func (s *BufferState) SetVertexCount(n int) {
	if n < 0 {
		n = 0
	}
	s.vertexCount = n
}

// UploadPlan is what a backend has to do for one upload.
type UploadPlan struct {
	Data        []float32
	Resize      bool
	NewCapacity int // floats, valid when Resize is set
}

// PlanUpload validates an upload of data[offset:offset+count] and reports
// whether the native buffer must be reallocated first.
func (s *BufferState) PlanUpload(data []float32, offset, count int) (UploadPlan, error) {
	if s.disposed {
		return UploadPlan{}, ErrDisposed
	}
	if offset < 0 || count < 0 || offset+count > len(data) {
		return UploadPlan{}, fmt.Errorf("gfx: upload range [%d:%d] out of bounds for %d floats", offset, offset+count, len(data))
	}
	plan := UploadPlan{Data: data[offset : offset+count]}
	if count > s.capacity {
		plan.Resize = true
		plan.NewCapacity = GrowCapacity(count)
	}
	return plan, nil
}

// CommitUpload records a successful upload.
func (s *BufferState) CommitUpload(plan UploadPlan) {
	if plan.Resize {
		s.capacity = plan.NewCapacity
	}
	fpv := s.desc.FloatsPerVertex()
	if fpv <= 0 {
		s.vertexCount = 0
		return
	}
	s.vertexCount = len(plan.Data) / fpv
}

// ClampRange clamps a requested range to the current vertex count. ok is false
// when there is nothing to draw.
func (s *BufferState) ClampRange(first, count int) (int, int, bool) {
	if s.disposed || first < 0 || count <= 0 {
		return 0, 0, false
	}
	if first+count > s.vertexCount {
		count = s.vertexCount - first
	}
	if count <= 0 {
		return 0, 0, false
	}
	return first, count, true
}

// MarkDisposed flips the disposed flag. It returns false if it was already set,
// letting Dispose implementations return early on a second call.
func (s *BufferState) MarkDisposed() bool {
	if s.disposed {
		return false
	}
	s.disposed = true
	return true
}
