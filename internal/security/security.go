package security

import (
	"errors"
	"fmt"
	"os"

	"systemrepair/internal/config"
	"systemrepair/internal/logging"
)

// ErrElevation wraps every failure of the elevation bootstrap.
var ErrElevation = errors.New("administrator privileges required")

// Notifier prints user-facing lines; *cli.Console satisfies it.
type Notifier interface {
	Info(format string, args ...interface{})
}

// Elevator makes sure the process runs with administrative rights,
// relaunching itself through UAC when it does not.
type Elevator struct {
	IsAdmin  func() (bool, error)
	Relaunch func(args []string) error
	// Args are forwarded to the elevated copy.
	Args []string
	// NoRelaunch turns a missing elevation into an error instead of a UAC prompt.
	NoRelaunch bool

	Logger *logging.EnterpriseLogger
	Out    Notifier
}

// NewElevator returns an Elevator bound to the running process.
func NewElevator(logger *logging.EnterpriseLogger, out Notifier) *Elevator {
	return &Elevator{
		IsAdmin:  IsAdmin,
		Relaunch: RelaunchElevated,
		Args:     os.Args[1:],
		Logger:   logger,
		Out:      out,
	}
}

// Ensure returns (false, nil) when the process is already elevated. Otherwise
// it requests elevation and returns (true, nil): the caller should exit and
// let the elevated copy continue.
func (e *Elevator) Ensure() (bool, error) {
	admin, err := e.IsAdmin()
	if err != nil {
		// Treated as not elevated: the UAC prompt settles it.
		e.log("WARN", "Could not determine elevation status", "error", err.Error())
	}
	if admin {
		e.log("INFO", "Running with administrator privileges.")
		return false, nil
	}

	if e.NoRelaunch {
		e.log("ERROR", "Not running as administrator and relaunch is disabled")
		return false, fmt.Errorf("%w: not running as administrator", ErrElevation)
	}

	if e.Out != nil {
		e.Out.Info("Requesting administrator privileges...")
	}
	e.log("INFO", "Requesting administrator privileges...")

	if err := e.Relaunch(e.Args); err != nil {
		e.log("FATAL", "Failed to get admin rights", "error", err.Error())
		return false, fmt.Errorf("%w: failed to get admin rights: %v", ErrElevation, err)
	}

	e.log("INFO", "Elevated instance started, exiting this one")
	return true, nil
}

func (e *Elevator) log(level, msg string, fields ...interface{}) {
	if e.Logger != nil {
		e.Logger.Log(level, msg, fields...)
	}
}

// tokenCheck decides elevation from two token queries. Elevated answers
// first and Member is the fallback. A failing Member query counts as "not
// admin" so the caller asks for elevation instead of giving up.
type tokenCheck struct {
	Elevated func() (bool, error)
	Member   func() (bool, error)
}

func (c tokenCheck) IsAdmin() (bool, error) {
	elevated, elevErr := c.Elevated()
	if elevErr == nil && elevated {
		return true, nil
	}

	member, err := c.Member()
	if err != nil {
		if elevErr != nil {
			return false, errors.Join(elevErr, err)
		}
		return false, nil
	}
	return member, nil
}

// SecurityChecks runs the elevation bootstrap when the configuration requires
// administrator rights. relaunched reports that an elevated copy took over.
func SecurityChecks(cfg *config.Config, e *Elevator) (relaunched bool, err error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if !cfg.Security.RequireAdmin {
		return false, nil
	}
	return e.Ensure()
}
