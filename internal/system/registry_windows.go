//go:build windows

package system

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// WindowsRegistry implements Registry on top of x/sys/windows/registry.
type WindowsRegistry struct{}

// NewRegistry returns the host registry.
func NewRegistry() Registry {
	return WindowsRegistry{}
}

func hive(root Root) (registry.Key, error) {
	switch root {
	case CurrentUser:
		return registry.CURRENT_USER, nil
	case LocalMachine:
		return registry.LOCAL_MACHINE, nil
	}
	return 0, fmt.Errorf("unknown registry root %d", root)
}

func openKey(root Root, path string, access uint32) (registry.Key, error) {
	h, err := hive(root)
	if err != nil {
		return 0, err
	}
	return registry.OpenKey(h, path, access)
}

func (WindowsRegistry) ReadValues(root Root, path string) ([]RegistryValue, error) {
	k, err := openKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s\\%s: %w", root, path, err)
	}
	defer k.Close()

	names, err := k.ReadValueNames(0)
	if err != nil {
		return nil, fmt.Errorf("list values of %s\\%s: %w", root, path, err)
	}

	values := make([]RegistryValue, 0, len(names))
	for _, name := range names {
		values = append(values, RegistryValue{Name: name, Data: readValue(k, name)})
	}
	return values, nil
}

// readValue renders a value of any type as text.
func readValue(k registry.Key, name string) string {
	if s, _, err := k.GetStringValue(name); err == nil {
		return s
	}
	if n, _, err := k.GetIntegerValue(name); err == nil {
		return strconv.FormatUint(n, 10)
	}
	if list, _, err := k.GetStringsValue(name); err == nil {
		return strings.Join(list, ";")
	}
	if b, _, err := k.GetBinaryValue(name); err == nil {
		return fmt.Sprintf("%x", b)
	}
	return ""
}

func (WindowsRegistry) DeleteValue(root Root, path, name string) error {
	k, err := openKey(root, path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open %s\\%s: %w", root, path, err)
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil {
		return fmt.Errorf("delete %s\\%s\\%s: %w", root, path, name, err)
	}
	return nil
}

func (WindowsRegistry) DeleteAllValues(root Root, path string) (int, error) {
	k, err := openKey(root, path, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("open %s\\%s: %w", root, path, err)
	}
	defer k.Close()

	names, err := k.ReadValueNames(0)
	if err != nil {
		return 0, fmt.Errorf("list values of %s\\%s: %w", root, path, err)
	}

	var errs []error
	deleted := 0
	for _, name := range names {
		if err := k.DeleteValue(name); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

func (WindowsRegistry) SetDWORD(root Root, path, name string, value uint32) error {
	h, err := hive(root)
	if err != nil {
		return err
	}
	k, _, err := registry.CreateKey(h, path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open %s\\%s: %w", root, path, err)
	}
	defer k.Close()

	if err := k.SetDWordValue(name, value); err != nil {
		return fmt.Errorf("set %s\\%s\\%s: %w", root, path, name, err)
	}
	return nil
}
