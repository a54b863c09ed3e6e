// Command primconv replays a draw script against a device profile and
// prints the device commands the translator decided on.
//
// Usage:
//
//	primconv [-profile webgpu] [-draws script.yaml] [-backend noop] [-v] [-json]
//
// Without -draws a built-in set of draws covering every topology is used.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/primconv"
	"github.com/gogpu/primconv/backend"
	"github.com/gogpu/primconv/backend/native"
	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/profile"
	"github.com/gogpu/primconv/recording"
	"github.com/gogpu/primconv/topology"
	"github.com/gogpu/wgpu/hal"
)

const demoScript = `
draws:
  - {topology: points, count: 4}
  - {topology: lines, count: 6}
  - {topology: line-strip, count: 5}
  - {topology: line-loop, count: 4}
  - {topology: triangles, count: 6}
  - {topology: triangle-strip, count: 6}
  - {topology: triangle-fan, count: 6}
  - {topology: quads, count: 8, repeat: 2}
  - {topology: quad-strip, count: 6}
  - {topology: polygon, count: 5}
  - {topology: triangles, count: 6, fill: lines}
  - topology: triangle-strip
    indices: [0, 1, 2, 3, -1, 4, 5, 6]
    width: 1
    restart: true
  - {flush: pipeline}
`

func main() {
	var (
		profileRef = flag.String("profile", "webgpu", "built-in profile name or profile file ("+strings.Join(profile.Builtins(), ", ")+")")
		drawsFile  = flag.String("draws", "", "YAML draw script (default: built-in demo)")
		backendArg = flag.String("backend", "", "backend override ("+strings.Join(backend.Available(), ", ")+")")
		verbose    = flag.Bool("v", false, "debug logging")
		jsonOut    = flag.Bool("json", false, "print the report as JSON")
	)
	flag.Parse()

	logger := newLogger(*verbose)
	if err := run(os.Stdout, logger, *profileRef, *drawsFile, *backendArg, *jsonOut); err != nil {
		logger.Error("primconv failed", "err", err)
		os.Exit(1)
	}
}

// newLogger logs text to a terminal and JSON otherwise.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

type report struct {
	Profile  string         `json:"profile"`
	Backend  string         `json:"backend"`
	Class    string         `json:"class"`
	Caps     string         `json:"caps"`
	Commands map[string]int `json:"commands,omitempty"`
	Stats    primconv.Stats `json:"stats"`
}

func run(out io.Writer, logger *slog.Logger, profileRef, drawsFile, backendName string, jsonOut bool) error {
	prof, err := profile.Resolve(profileRef)
	if err != nil {
		return err
	}
	script, err := loadScript(drawsFile)
	if err != nil {
		return err
	}
	if backendName == "" {
		backendName = prof.Backend
	}
	if backendName == "" {
		backendName = backend.BackendRecording
	}

	dev, err := backend.Open(backendName)
	if err != nil {
		return err
	}
	defer dev.Close()
	if nd, ok := dev.(*native.Device); ok {
		nd.SetRenderPass(&tracePass{logger: logger})
	}

	primconv.SetLogger(logger)
	opts := append(prof.Options(), primconv.WithLogger(logger))
	ctx, err := primconv.NewContext(dev, opts...)
	if err != nil {
		return err
	}

	vb, err := dev.CreateBuffer(4096, gpucore.BufferUsageVertex, "demo-vertices")
	if err != nil {
		return err
	}
	bindings := []gpucore.VertexBinding{{Buffer: vb, Stride: 16}}

	for i, step := range script.Steps {
		if step.Flush != "" {
			if err := ctx.FlushForStateChange(step.Flush); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			continue
		}
		info, err := step.Info()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		for range max(step.Repeat, 1) {
			if err := ctx.Draw(bindings, info); err != nil {
				logger.Warn("draw failed", "step", i, "topology", info.Topology, "err", err)
			}
		}
	}
	if err := ctx.Close(); err != nil {
		return err
	}
	vb.Release()

	r := report{
		Profile: prof.Name,
		Backend: dev.Name(),
		Class:   ctx.DeviceClass().String(),
		Caps:    ctx.Caps().String(),
		Stats:   ctx.Stats(),
	}
	rec, isRecording := dev.(*recording.Device)
	if isRecording {
		r.Commands = rec.Commands().Summary()
	}

	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	fmt.Fprintf(out, "profile %s on %s (%s, %s)\n", r.Profile, r.Backend, r.Class, r.Caps)
	if isRecording {
		if _, err := rec.Commands().WriteTo(out); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(out, r.Stats)
	return err
}

func loadScript(file string) (*profile.Script, error) {
	if file == "" {
		return profile.ParseScript([]byte(demoScript))
	}
	return profile.LoadScript(file)
}

// tracePass logs the render pass calls of the native backend.
type tracePass struct {
	logger *slog.Logger
}

func (p *tracePass) SetVertexBuffer(slot uint32, _ hal.Buffer, offset uint64) {
	p.logger.Info("set vertex buffer", "slot", slot, "offset", offset)
}

func (p *tracePass) SetIndexBuffer(_ hal.Buffer, format gputypes.IndexFormat, offset uint64) {
	w := topology.Width32
	if format == gputypes.IndexFormatUint16 {
		w = topology.Width16
	}
	p.logger.Info("set index buffer", "width", w, "offset", offset)
}

func (p *tracePass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.logger.Info("draw", "vertices", vertexCount, "first", firstVertex)
}

func (p *tracePass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.logger.Info("draw indexed", "indices", indexCount, "first", firstIndex, "base", baseVertex)
}
