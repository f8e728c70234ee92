//go:build windows

package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

// defaultServiceTimeout bounds how long Stop/Start wait for the state change.
const defaultServiceTimeout = 60 * time.Second

// WindowsServices управляет службами через Service Control Manager.
type WindowsServices struct {
	Timeout  time.Duration
	Interval time.Duration
}

// NewServiceManager returns a manager backed by the local SCM.
func NewServiceManager() ServiceManager {
	return &WindowsServices{Timeout: defaultServiceTimeout, Interval: 300 * time.Millisecond}
}

func (w *WindowsServices) open(name string) (*mgr.Mgr, *mgr.Service, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("connect to service manager: %w", err)
	}
	s, err := m.OpenService(name)
	if err != nil {
		m.Disconnect()
		return nil, nil, fmt.Errorf("open service %s: %w", name, err)
	}
	return m, s, nil
}

func (w *WindowsServices) Stop(ctx context.Context, name string) error {
	m, s, err := w.open(name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return fmt.Errorf("query service %s: %w", name, err)
	}
	if status.State == svc.Stopped {
		return nil
	}

	if _, err := s.Control(svc.Stop); err != nil && !errors.Is(err, windows.ERROR_SERVICE_NOT_ACTIVE) {
		return fmt.Errorf("stop service %s: %w", name, err)
	}
	return w.waitFor(ctx, s, name, svc.Stopped)
}

func (w *WindowsServices) Start(ctx context.Context, name string) error {
	m, s, err := w.open(name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return fmt.Errorf("query service %s: %w", name, err)
	}
	if status.State == svc.Running {
		return nil
	}

	if err := s.Start(); err != nil && !errors.Is(err, windows.ERROR_SERVICE_ALREADY_RUNNING) {
		return fmt.Errorf("start service %s: %w", name, err)
	}
	return w.waitFor(ctx, s, name, svc.Running)
}

func (w *WindowsServices) Disable(name string) error {
	m, s, err := w.open(name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	cfg, err := s.Config()
	if err != nil {
		return fmt.Errorf("read config of %s: %w", name, err)
	}
	if cfg.StartType == mgr.StartDisabled {
		return nil
	}
	cfg.StartType = mgr.StartDisabled
	if err := s.UpdateConfig(cfg); err != nil {
		return fmt.Errorf("disable service %s: %w", name, err)
	}
	return nil
}

func (w *WindowsServices) waitFor(ctx context.Context, s *mgr.Service, name string, want svc.State) error {
	deadline := time.Now().Add(w.Timeout)
	for {
		status, err := s.Query()
		if err != nil {
			return fmt.Errorf("query service %s: %w", name, err)
		}
		if status.State == want {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("service %s did not reach state %d within %s", name, want, w.Timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.Interval):
		}
	}
}
