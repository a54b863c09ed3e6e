package profile

import (
	"encoding/binary"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/primconv"
	"github.com/gogpu/primconv/topology"
)

// Script is a YAML list of draws replayed against a context.
//
//	draws:
//	  - topology: quads
//	    count: 8
//	  - topology: triangle-strip
//	    indices: [0, 1, 2, -1, 3, 4, 5]
//	    width: 1
//	    restart: true
//	  - flush: pipeline
type Script struct {
	Steps []Step `yaml:"draws"`
}

// Step is one draw, or a flush when Flush is set.
type Step struct {
	Topology Topology `yaml:"topology"`
	Start    int      `yaml:"start"`
	// Count defaults to len(Indices) for indexed steps.
	Count int `yaml:"count"`

	// Indices makes the step indexed; -1 stands for the restart index.
	Indices   []int `yaml:"indices"`
	Width     int   `yaml:"width"`
	IndexBias int32 `yaml:"index_bias"`

	ProvokingVertex ProvokingVertex `yaml:"provoking_vertex"`
	Restart         bool            `yaml:"restart"`
	Fill            string          `yaml:"fill"`

	// Repeat submits the draw this many times; zero means once.
	Repeat int `yaml:"repeat"`

	// Flush, when set, flushes pending draws with this reason instead of
	// drawing.
	Flush string `yaml:"flush"`
}

// ParseScript decodes a draw script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	for i := range s.Steps {
		if s.Steps[i].Flush != "" {
			continue
		}
		if _, err := s.Steps[i].Info(); err != nil {
			return nil, fmt.Errorf("draw %d: %w", i, err)
		}
	}
	return &s, nil
}

// LoadScript reads a draw script file.
func LoadScript(file string) (*Script, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return ParseScript(data)
}

// Info converts the step into a draw, encoding its indices in client memory.
func (s Step) Info() (primconv.DrawInfo, error) {
	fill, err := primconv.ParseFillMode(s.Fill)
	if err != nil {
		return primconv.DrawInfo{}, err
	}
	info := primconv.DrawInfo{
		Topology:        topology.Topology(s.Topology),
		Start:           s.Start,
		Count:           s.Count,
		IndexBias:       s.IndexBias,
		ProvokingVertex: topology.ProvokingVertex(s.ProvokingVertex),
		Restart:         s.Restart,
		FillMode:        fill,
	}
	if len(s.Indices) == 0 {
		return info, nil
	}

	width := topology.Width16
	if s.Width != 0 {
		if width, err = topology.ParseIndexWidth(s.Width); err != nil {
			return primconv.DrawInfo{}, err
		}
	}
	data, lo, hi, err := encodeIndices(s.Indices, width)
	if err != nil {
		return primconv.DrawInfo{}, err
	}
	if info.Count == 0 {
		info.Count = len(s.Indices) - s.Start
	}
	info.Index = &primconv.IndexData{Data: data, Width: width}
	info.MinIndex, info.MaxIndex = lo, hi
	return info, nil
}

// encodeIndices packs indices little-endian and returns their bounds,
// ignoring restart entries.
func encodeIndices(indices []int, w topology.IndexWidth) (data []byte, lo, hi uint32, err error) {
	limit := uint64(w.RestartIndex())
	data = make([]byte, len(indices)*w.Bytes())
	lo = ^uint32(0)
	for i, v := range indices {
		var u uint32
		switch {
		case v == -1:
			u = w.RestartIndex()
		case v < 0 || uint64(v) >= limit:
			return nil, 0, 0, fmt.Errorf("index %d out of range for %v", v, w)
		default:
			u = uint32(v)
			lo, hi = min(lo, u), max(hi, u)
		}
		switch w {
		case topology.Width8:
			data[i] = byte(u)
		case topology.Width16:
			binary.LittleEndian.PutUint16(data[i*2:], uint16(u))
		case topology.Width32:
			binary.LittleEndian.PutUint32(data[i*4:], u)
		}
	}
	if lo > hi {
		lo = 0
	}
	return data, lo, hi, nil
}
