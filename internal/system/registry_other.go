//go:build !windows

package system

type unsupportedRegistry struct{}

// NewRegistry returns a registry whose every call fails with ErrUnsupported.
func NewRegistry() Registry {
	return unsupportedRegistry{}
}

func (unsupportedRegistry) ReadValues(Root, string) ([]RegistryValue, error) {
	return nil, ErrUnsupported
}

func (unsupportedRegistry) DeleteValue(Root, string, string) error {
	return ErrUnsupported
}

func (unsupportedRegistry) DeleteAllValues(Root, string) (int, error) {
	return 0, ErrUnsupported
}

func (unsupportedRegistry) SetDWORD(Root, string, string, uint32) error {
	return ErrUnsupported
}
