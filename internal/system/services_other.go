//go:build !windows

package system

import "context"

type unsupportedServices struct{}

// NewServiceManager returns a manager whose every call fails with ErrUnsupported.
func NewServiceManager() ServiceManager {
	return unsupportedServices{}
}

func (unsupportedServices) Stop(context.Context, string) error  { return ErrUnsupported }
func (unsupportedServices) Start(context.Context, string) error { return ErrUnsupported }
func (unsupportedServices) Disable(string) error                { return ErrUnsupported }
