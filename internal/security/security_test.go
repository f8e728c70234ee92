package security

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systemrepair/internal/config"
	"systemrepair/internal/logging"
)

type recorder struct {
	lines []string
}

func (r *recorder) Info(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func newTestElevator(admin bool, adminErr, relaunchErr error) (*Elevator, *recorder, *[][]string) {
	out := &recorder{}
	var calls [][]string
	e := &Elevator{
		IsAdmin: func() (bool, error) { return admin, adminErr },
		Relaunch: func(args []string) error {
			calls = append(calls, args)
			return relaunchErr
		},
		Args:   []string{"--plan", "cleanup"},
		Logger: logging.Nop(),
		Out:    out,
	}
	return e, out, &calls
}

func TestEnsureAlreadyElevated(t *testing.T) {
	e, out, calls := newTestElevator(true, nil, nil)

	relaunched, err := e.Ensure()
	require.NoError(t, err)
	assert.False(t, relaunched)
	assert.Empty(t, *calls)
	assert.Empty(t, out.lines)
}

func TestEnsureRequestsElevation(t *testing.T) {
	e, out, calls := newTestElevator(false, nil, nil)

	relaunched, err := e.Ensure()
	require.NoError(t, err)
	assert.True(t, relaunched)
	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"--plan", "cleanup"}, (*calls)[0])
	assert.Equal(t, []string{"Requesting administrator privileges..."}, out.lines)
}

func TestEnsureFailedRequestTerminates(t *testing.T) {
	e, _, _ := newTestElevator(false, nil, errors.New("The operation was canceled by the user."))

	relaunched, err := e.Ensure()
	require.Error(t, err)
	assert.False(t, relaunched)
	assert.True(t, errors.Is(err, ErrElevation))
	assert.Contains(t, err.Error(), "canceled by the user")
}

func TestEnsureDetectionErrorStillRequestsElevation(t *testing.T) {
	e, out, calls := newTestElevator(false, errors.New("access denied"), nil)

	relaunched, err := e.Ensure()
	require.NoError(t, err)
	assert.True(t, relaunched)
	assert.Len(t, *calls, 1)
	assert.Equal(t, []string{"Requesting administrator privileges..."}, out.lines)
}

func TestTokenCheck(t *testing.T) {
	errNoImpersonation := errors.New("An attempt has been made to operate on an impersonation token by a thread that is not currently impersonating a client.")
	yes := func() (bool, error) { return true, nil }
	no := func() (bool, error) { return false, nil }
	fail := func() (bool, error) { return false, errNoImpersonation }

	tests := []struct {
		name     string
		elevated func() (bool, error)
		member   func() (bool, error)
		want     bool
		wantErr  bool
	}{
		{name: "elevated token", elevated: yes, member: fail, want: true},
		{name: "UAC disabled admin", elevated: no, member: yes, want: true},
		{name: "standard user", elevated: no, member: no},
		{name: "membership query fails", elevated: no, member: fail},
		{name: "elevation query fails, member", elevated: fail, member: yes, want: true},
		{name: "both queries fail", elevated: fail, member: fail, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin, err := tokenCheck{Elevated: tt.elevated, Member: tt.member}.IsAdmin()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, admin)
		})
	}
}

func TestNonElevatedAdminReachesUACPrompt(t *testing.T) {
	check := tokenCheck{
		Elevated: func() (bool, error) { return false, nil },
		Member:   func() (bool, error) { return false, errors.New("no impersonation token") },
	}
	e, out, calls := newTestElevator(false, nil, nil)
	e.IsAdmin = check.IsAdmin

	relaunched, err := e.Ensure()
	require.NoError(t, err)
	assert.True(t, relaunched)
	assert.Len(t, *calls, 1)
	assert.Contains(t, out.lines, "Requesting administrator privileges...")
}

func TestEnsureNoRelaunch(t *testing.T) {
	e, out, calls := newTestElevator(false, nil, nil)
	e.NoRelaunch = true

	relaunched, err := e.Ensure()
	assert.False(t, relaunched)
	assert.True(t, errors.Is(err, ErrElevation))
	assert.Empty(t, *calls)
	assert.Empty(t, out.lines)
}

func TestSecurityChecksHonoursRequireAdmin(t *testing.T) {
	e, _, calls := newTestElevator(false, nil, nil)

	cfg := config.Default()
	cfg.Security.RequireAdmin = false
	relaunched, err := SecurityChecks(cfg, e)
	require.NoError(t, err)
	assert.False(t, relaunched)
	assert.Empty(t, *calls)

	cfg.Security.RequireAdmin = true
	relaunched, err = SecurityChecks(cfg, e)
	require.NoError(t, err)
	assert.True(t, relaunched)
	assert.Len(t, *calls, 1)
}
