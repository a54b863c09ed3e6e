package topology

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// IndexWidth is the size in bytes of one index.
// Input indices may be 1, 2 or 4 bytes wide; device indices are 2 or 4.
type IndexWidth uint8

// Index widths.
const (
	Width8  IndexWidth = 1
	Width16 IndexWidth = 2
	Width32 IndexWidth = 4
)

// MaxShortIndex is the largest index a generated 2-byte buffer may hold.
// 0xffff stays reserved as the restart sentinel.
const MaxShortIndex = 0xfffe

// IsValid reports whether w is 1, 2 or 4.
func (w IndexWidth) IsValid() bool {
	return w == Width8 || w == Width16 || w == Width32
}

// Bytes returns the width in bytes as an int.
func (w IndexWidth) Bytes() int {
	return int(w)
}

// String returns the width as "u8", "u16" or "u32".
func (w IndexWidth) String() string {
	switch w {
	case Width8:
		return "u8"
	case Width16:
		return "u16"
	case Width32:
		return "u32"
	default:
		return fmt.Sprintf("Unknown(%d)", int(w))
	}
}

// Promote returns the device width for input width w: 1-byte indices are
// always promoted to 2 bytes.
func (w IndexWidth) Promote() IndexWidth {
	if w == Width32 {
		return Width32
	}
	return Width16
}

// RestartIndex returns the all-ones restart sentinel for the width.
func (w IndexWidth) RestartIndex() uint32 {
	switch w {
	case Width8:
		return 0xff
	case Width16:
		return 0xffff
	default:
		return 0xffffffff
	}
}

// Format returns the WebGPU index format for a device width.
// It reports false for 1-byte indices, which no device consumes directly.
func (w IndexWidth) Format() (gputypes.IndexFormat, bool) {
	switch w {
	case Width16:
		return gputypes.IndexFormatUint16, true
	case Width32:
		return gputypes.IndexFormatUint32, true
	default:
		return 0, false
	}
}

// ParseIndexWidth accepts 1, 2 or 4.
func ParseIndexWidth(n int) (IndexWidth, error) {
	w := IndexWidth(n)
	if n < 0 || n > 4 || !w.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidIndexWidth, n)
	}
	return w, nil
}
