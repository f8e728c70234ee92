package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// DiskInspector answers the disk questions the maintenance steps ask.
type DiskInspector interface {
	// IsSSD reports whether the physical disk holding drive (e.g. "C:") is
	// solid state.
	IsSSD(ctx context.Context, drive string) (bool, error)
	// FreeSpace returns free bytes on the volume rooted at path.
	FreeSpace(path string) (uint64, error)
}

// HostDisk inspects the local machine.
type HostDisk struct{}

// NewDiskInspector returns the host inspector.
func NewDiskInspector() DiskInspector {
	return HostDisk{}
}

func (HostDisk) FreeSpace(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("disk usage of %s: %w", path, err)
	}
	return usage.Free, nil
}

func (HostDisk) IsSSD(ctx context.Context, drive string) (bool, error) {
	return isSSD(ctx, drive)
}
