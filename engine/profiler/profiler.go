//go:build profile

package profiler

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"
)

// Enabled reports whether scopes are recorded in this build.
const Enabled = true

var (
	evrb  evRing
	names interner
)

// Init must be called once, e.g. on app start, with the number of events to
// retain. Scopes started before Init are not recorded.
func Init(capacity int) {
	evrb.init(capacity)
}

// Start begins a scope and returns the func that ends it.
func Start(name string) func() {
	if !evrb.ready.Load() {
		return func() {}
	}
	fid := names.id(name)
	now := time.Now().UnixNano()
	evrb.push(evEntry{AtNS: now, FrameID: fid, Open: true})
	return func() {
		end := max(time.Now().UnixNano(), now)
		evrb.push(evEntry{AtNS: end, FrameID: fid})
	}
}

// WriteSpeedscope writes the retained events as an evented speedscope
// profile.
func WriteSpeedscope(w io.Writer) error {
	return encodeSpeedscope(w, evrb.snapshot(), names.names())
}

// Dump writes the profile to path atomically.
func Dump(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("profiler: %w", err)
	}
	if err := WriteSpeedscope(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("profiler: %w", err)
	}
	return os.Rename(tmp, path)
}

func MemoryUsage() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc
}

func MemoryAllocs() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Mallocs
}
