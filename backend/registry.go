package backend

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Backend names.
const (
	// BackendRecording is the in-memory device that logs every command.
	BackendRecording = "recording"

	// BackendNoop is the wgpu HAL device on the noop API.
	BackendNoop = "noop"
)

// DeviceFactory opens a new device instance.
type DeviceFactory func() (Device, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]DeviceFactory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendNoop, BackendRecording}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory DeviceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens a device by name.
func Open(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (forgotten import?)", ErrBackendNotAvailable, name)
	}
	return factory()
}

// Default opens the best available backend based on priority, falling back
// to any registered backend that opens successfully.
func Default() (Device, error) {
	registryMu.RLock()
	factories := make([]DeviceFactory, 0, len(backends))
	for _, name := range backendPriority {
		if f, ok := backends[name]; ok {
			factories = append(factories, f)
		}
	}
	for name, f := range backends {
		if !slices.Contains(backendPriority, name) {
			factories = append(factories, f)
		}
	}
	registryMu.RUnlock()

	var lastErr error = ErrBackendNotAvailable
	for _, f := range factories {
		d, err := f()
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

