//go:build !windows

package system

import "context"

func isSSD(ctx context.Context, drive string) (bool, error) {
	return false, ErrUnsupported
}
