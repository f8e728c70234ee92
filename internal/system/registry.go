package system

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by OS adapters on platforms other than Windows.
var ErrUnsupported = errors.New("operation is only supported on Windows")

// Root selects a registry hive.
type Root int

const (
	CurrentUser Root = iota
	LocalMachine
)

func (r Root) String() string {
	switch r {
	case CurrentUser:
		return "HKCU"
	case LocalMachine:
		return "HKLM"
	default:
		return "HK?"
	}
}

// RegistryValue is one named value of a key, rendered as text.
type RegistryValue struct {
	Name string
	Data string
}

// Registry is the subset of registry access the maintenance steps use.
// A key that does not exist reads as empty.
type Registry interface {
	ReadValues(root Root, path string) ([]RegistryValue, error)
	DeleteValue(root Root, path, name string) error
	// DeleteAllValues returns how many values were removed.
	DeleteAllValues(root Root, path string) (int, error)
	// SetDWORD creates the key when missing.
	SetDWORD(root Root, path, name string, value uint32) error
}

// ServiceManager controls Windows services by name.
type ServiceManager interface {
	// Stop is a no-op for a service that is already stopped.
	Stop(ctx context.Context, name string) error
	// Start is a no-op for a service that is already running.
	Start(ctx context.Context, name string) error
	Disable(name string) error
}
