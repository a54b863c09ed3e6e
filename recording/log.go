package recording

import (
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/primconv/gpucore"
)

// Command names as reported by Name.
const (
	NameSetVertexBuffers = "set-vertex-buffers"
	NameSetIndexBuffer   = "set-index-buffer"
	NameDrawIndexed      = "draw-indexed"
	NameDraw             = "draw"
	NameDrawPrimitives   = "draw-primitives"
)

// Name returns the short name of a command.
func Name(cmd gpucore.Command) string {
	switch cmd.(type) {
	case gpucore.SetVertexBuffers:
		return NameSetVertexBuffers
	case gpucore.SetIndexBuffer:
		return NameSetIndexBuffer
	case gpucore.DrawIndexed:
		return NameDrawIndexed
	case gpucore.Draw:
		return NameDraw
	case gpucore.DrawPrimitives:
		return NameDrawPrimitives
	default:
		return fmt.Sprintf("%T", cmd)
	}
}

// Log is an ordered sequence of emitted commands.
type Log []gpucore.Command

// Count returns how many commands have the given name.
func (l Log) Count(name string) int {
	n := 0
	for _, c := range l {
		if Name(c) == name {
			n++
		}
	}
	return n
}

// Names returns the command names in order.
func (l Log) Names() []string {
	out := make([]string, len(l))
	for i, c := range l {
		out[i] = Name(c)
	}
	return out
}

// Summary returns per-name command counts.
func (l Log) Summary() map[string]int {
	out := make(map[string]int)
	for _, c := range l {
		out[Name(c)]++
	}
	return out
}

// WriteTo writes one command per line, numbered from zero.
func (l Log) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, c := range l {
		n, err := fmt.Fprintf(w, "%4d  %v\n", i, c)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (l Log) String() string {
	var b strings.Builder
	_, _ = l.WriteTo(&b)
	return b.String()
}
