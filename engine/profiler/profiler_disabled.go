//go:build !profile

package profiler

import (
	"errors"
	"io"
)

// No-op versions when the "profile" build tag is not set.

const Enabled = false

var errDisabled = errors.New("profiler: built without the profile tag")

func Init(capacity int) {}

func Start(name string) func() { return func() {} }

func WriteSpeedscope(w io.Writer) error { return errDisabled }

func Dump(path string) error { return errDisabled }

func MemoryUsage() uint64  { return 0 }
func MemoryAllocs() uint64 { return 0 }
