package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/topology"
)

type stubDevice struct {
	gpucore.Device
	name string
}

func (s *stubDevice) Name() string                              { return s.name }
func (s *stubDevice) Caps() topology.Caps                       { return topology.WebGPUCaps() }
func (s *stubDevice) ProvokingVertex() topology.ProvokingVertex { return topology.First }
func (s *stubDevice) Close() error                              { return nil }

func TestRegistryRegisterAndOpen(t *testing.T) {
	Register("stub", func() (Device, error) { return &stubDevice{name: "stub"}, nil })
	defer Unregister("stub")

	if !IsRegistered("stub") {
		t.Fatal("stub backend should be registered")
	}
	d, err := Open("stub")
	if err != nil {
		t.Fatalf("Open(stub) error = %v", err)
	}
	if d.Name() != "stub" {
		t.Errorf("Name() = %q, want stub", d.Name())
	}

	found := false
	for _, n := range Available() {
		if n == "stub" {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, missing stub", Available())
	}
}

func TestRegistryOpenUnknown(t *testing.T) {
	if _, err := Open("does-not-exist"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(unknown) error = %v, want %v", err, ErrBackendNotAvailable)
	}
}

func TestRegistryDefaultSkipsFailing(t *testing.T) {
	boom := errors.New("no adapter")
	Register(BackendNoop, func() (Device, error) { return nil, boom })
	Register(BackendRecording, func() (Device, error) { return &stubDevice{name: BackendRecording}, nil })
	defer Unregister(BackendNoop)
	defer Unregister(BackendRecording)

	d, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if d.Name() != BackendRecording {
		t.Errorf("Default() = %q, want %q", d.Name(), BackendRecording)
	}
}

func TestRegistryUnregister(t *testing.T) {
	Register("temp", func() (Device, error) { return &stubDevice{name: "temp"}, nil })
	Unregister("temp")
	if IsRegistered("temp") {
		t.Error("temp should be unregistered")
	}
}
