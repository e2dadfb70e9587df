package profiler

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

type evEntry struct {
	AtNS    int64
	FrameID int
	Open    bool
}

// evRing is a fixed-size event log. Once full, the oldest events are
// overwritten.
type evRing struct {
	ready atomic.Bool
	cap   uint64
	write atomic.Uint64
	evs   []evEntry
}

func (r *evRing) init(capacity int) {
	if capacity <= 0 {
		capacity = 1 << 20
	}
	r.cap = uint64(capacity)
	r.evs = make([]evEntry, r.cap)
	r.write.Store(0)
	r.ready.Store(true)
}

func (r *evRing) push(e evEntry) {
	i := r.write.Add(1) - 1
	r.evs[i%r.cap] = e
}

// snapshot returns the retained events in write order.
func (r *evRing) snapshot() []evEntry {
	n := r.write.Load()
	if n == 0 {
		return nil
	}
	start := uint64(0)
	if n > r.cap {
		start = n - r.cap
	}
	out := make([]evEntry, 0, n-start)
	for k := start; k < n; k++ {
		out = append(out, r.evs[k%r.cap])
	}
	return out
}

type interner struct {
	mu     sync.Mutex
	frames []string
	index  map[string]int
}

func (in *interner) id(name string) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[name]; ok {
		return id
	}
	if in.index == nil {
		in.index = map[string]int{}
	}
	id := len(in.frames)
	in.index[name] = id
	in.frames = append(in.frames, name)
	return id
}

func (in *interner) names() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.frames...)
}

var errNoEvents = errors.New("profiler: no events recorded")

type ssFile struct {
	Schema             string      `json:"$schema"`
	Shared             ssShared    `json:"shared"`
	Profiles           []ssProfile `json:"profiles"`
	ActiveProfileIndex int         `json:"activeProfileIndex"`
	Exporter           string      `json:"exporter,omitempty"`
	Name               string      `json:"name,omitempty"`
}

type ssShared struct {
	Frames []ssFrame `json:"frames"`
}

type ssFrame struct {
	Name string `json:"name"`
}

type ssProfile struct {
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Unit       string    `json:"unit"`
	StartValue int64     `json:"startValue"`
	EndValue   int64     `json:"endValue"`
	Events     []ssEvent `json:"events"`
}

type ssEvent struct {
	Type  string `json:"type"` // "O" or "C"
	At    int64  `json:"at"`   // µs since the first event
	Frame int    `json:"frame"`
}

// speedscopeEvents converts raw events into a balanced open/close stream.
// Closes that do not match the innermost open scope are dropped, and scopes
// still open at the end are closed at the last timestamp.
func speedscopeEvents(evs []evEntry) ([]ssEvent, int64) {
	if len(evs) == 0 {
		return nil, 0
	}
	base := evs[0].AtNS
	out := make([]ssEvent, 0, len(evs)+16)
	stack := make([]int, 0, 64)
	lastUS, endUS := int64(0), int64(0)

	for _, e := range evs {
		// Keep timestamps monotonic.
		atUS := max((e.AtNS-base)/1000, lastUS)
		if e.Open {
			out = append(out, ssEvent{Type: "O", At: atUS, Frame: e.FrameID})
			stack = append(stack, e.FrameID)
		} else {
			if len(stack) == 0 || stack[len(stack)-1] != e.FrameID {
				continue
			}
			stack = stack[:len(stack)-1]
			out = append(out, ssEvent{Type: "C", At: atUS, Frame: e.FrameID})
		}
		lastUS = atUS
		endUS = max(endUS, atUS)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, ssEvent{Type: "C", At: lastUS, Frame: stack[i]})
	}
	return out, endUS
}

func encodeSpeedscope(w io.Writer, evs []evEntry, names []string) error {
	events, end := speedscopeEvents(evs)
	if len(events) == 0 {
		return errNoEvents
	}
	frames := make([]ssFrame, len(names))
	for i, n := range names {
		frames[i] = ssFrame{Name: n}
	}
	doc := ssFile{
		Schema: "https://www.speedscope.app/file-format-schema.json",
		Shared: ssShared{Frames: frames},
		Profiles: []ssProfile{{
			Type:     "evented",
			Name:     "render thread",
			Unit:     "microseconds",
			EndValue: end,
			Events:   events,
		}},
		Exporter: "chartgfx-profiler",
		Name:     "chartgfx capture",
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&doc)
}
