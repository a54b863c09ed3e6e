// Package profile loads device profiles: YAML descriptions of the
// capabilities and emission class of a device, turned into
// primconv.Context options.
//
// Three profiles are built in: webgpu, batched-legacy and quads-native.
package profile

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/primconv"
	"github.com/gogpu/primconv/topology"
)

//go:embed profiles/*.yaml
var builtinFS embed.FS

// ErrInvalidProfile is returned for profiles that cannot describe a device.
var ErrInvalidProfile = errors.New("profile: invalid profile")

// Topology is a topology.Topology read from its name.
type Topology topology.Topology

// UnmarshalYAML implements yaml.Unmarshaler for Topology.
func (t *Topology) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := topology.ParseTopology(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*t = Topology(parsed)
	return nil
}

// ProvokingVertex is a topology.ProvokingVertex read from "first" or "last".
type ProvokingVertex topology.ProvokingVertex

// UnmarshalYAML implements yaml.Unmarshaler for ProvokingVertex.
func (pv *ProvokingVertex) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := topology.ParseProvokingVertex(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*pv = ProvokingVertex(parsed)
	return nil
}

// DeviceClass is a primconv.DeviceClass read from "immediate" or "batched".
type DeviceClass primconv.DeviceClass

// UnmarshalYAML implements yaml.Unmarshaler for DeviceClass.
func (c *DeviceClass) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := primconv.ParseDeviceClass(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = DeviceClass(parsed)
	return nil
}

// Profile describes a device.
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Backend names the registered backend to open, e.g. "recording".
	Backend string      `yaml:"backend"`
	Class   DeviceClass `yaml:"class"`

	// Topologies lists what the device draws directly. Empty means WebGPU
	// caps.
	Topologies      []Topology      `yaml:"topologies"`
	NativeQuads     bool            `yaml:"native_quads"`
	ProvokingVertex ProvokingVertex `yaml:"provoking_vertex"`

	IndexedOnly    bool `yaml:"indexed_only"`
	NativeUnfilled bool `yaml:"native_unfilled"`

	CacheSlots    int `yaml:"cache_slots"`
	BatchCapacity int `yaml:"batch_capacity"`
}

// Parse decodes and validates a profile.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a profile file.
func Load(file string) (*Profile, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return p, nil
}

// Builtin returns the built-in profile with the given name.
func Builtin(name string) (*Profile, error) {
	data, err := builtinFS.ReadFile(path.Join("profiles", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: no built-in profile %q (have %s)",
			ErrInvalidProfile, name, strings.Join(Builtins(), ", "))
	}
	return Parse(data)
}

// Builtins returns the names of the built-in profiles, sorted.
func Builtins() []string {
	entries, _ := builtinFS.ReadDir("profiles")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}

// Resolve loads ref as a file if one exists, and as a built-in name
// otherwise.
func Resolve(ref string) (*Profile, error) {
	if _, err := os.Stat(ref); err == nil {
		return Load(ref)
	}
	return Builtin(ref)
}

// Validate checks that the device can draw every reduction target the
// conversion rules may produce for ordinary topologies.
func (p *Profile) Validate() error {
	if p.CacheSlots < 0 || p.BatchCapacity < 0 {
		return fmt.Errorf("%w: negative cache_slots or batch_capacity", ErrInvalidProfile)
	}
	caps := p.Caps()
	for _, t := range []topology.Topology{topology.Points, topology.Lines, topology.Triangles} {
		if !caps.Supports(t) {
			return fmt.Errorf("%w: %q does not support %v", ErrInvalidProfile, p.Name, t)
		}
	}
	return nil
}

// Caps returns the capability mask the profile describes.
func (p *Profile) Caps() topology.Caps {
	if len(p.Topologies) == 0 {
		return topology.WebGPUCaps().WithNativeQuads(p.NativeQuads)
	}
	var caps topology.Caps
	for _, t := range p.Topologies {
		caps = caps.With(topology.Topology(t))
	}
	return caps.WithNativeQuads(p.NativeQuads)
}

// Options returns the Context options the profile describes.
func (p *Profile) Options() []primconv.Option {
	return []primconv.Option{
		primconv.WithCaps(p.Caps()),
		primconv.WithProvokingVertex(topology.ProvokingVertex(p.ProvokingVertex)),
		primconv.WithDeviceClass(primconv.DeviceClass(p.Class)),
		primconv.WithIndexedOnly(p.IndexedOnly),
		primconv.WithNativeUnfilled(p.NativeUnfilled),
		primconv.WithCacheSlots(p.CacheSlots),
		primconv.WithBatchCapacity(p.BatchCapacity),
	}
}
