// internal/layout/handle.go
package layout

import (
	"fmt"
	"sync/atomic"
)

// Handle is an opaque, stable reference to a node in an Arena.
//
// Layout: arena tag (16 bits) | generation (16 bits) | slot index + 1 (32 bits).
// The zero Handle is never issued.
type Handle uint64

// NullHandle is the zero value. It never refers to a node.
const NullHandle Handle = 0

const (
	tagShift = 48
	genShift = 32
	genMask  = 0xFFFF
	slotMask = 0xFFFFFFFF
)

var arenaTags atomic.Uint32

// nextArenaTag hands out non-zero 16-bit tags so handles from different
// arenas are distinguishable until the counter wraps.
func nextArenaTag() uint16 {
	for {
		if t := uint16(arenaTags.Add(1)); t != 0 {
			return t
		}
	}
}

func makeHandle(tag uint16, gen uint16, index uint32) Handle {
	return Handle(uint64(tag)<<tagShift | uint64(gen)<<genShift | uint64(index+1))
}

func (h Handle) tag() uint16 { return uint16(uint64(h) >> tagShift) }
func (h Handle) gen() uint16 { return uint16((uint64(h) >> genShift) & genMask) }

// index returns the slot index and false for the null handle.
func (h Handle) index() (uint32, bool) {
	raw := uint32(uint64(h) & slotMask)
	if raw == 0 {
		return 0, false
	}
	return raw - 1, true
}

// IsNull reports whether h is the zero handle.
func (h Handle) IsNull() bool { return h == NullHandle }

func (h Handle) String() string {
	idx, ok := h.index()
	if !ok {
		return "node(null)"
	}
	return fmt.Sprintf("node(%d/%d@%d)", idx, h.gen(), h.tag())
}
