//go:build windows

package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/yusufpapurcu/wmi"
)

const storageNamespace = `root\Microsoft\Windows\Storage`

// mediaTypeSSD is MSFT_PhysicalDisk.MediaType for solid state drives.
const mediaTypeSSD = 4

type msftPartition struct {
	DiskNumber uint32
}

type msftPhysicalDisk struct {
	DeviceId  string
	MediaType uint16
}

func isSSD(ctx context.Context, drive string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	letter := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(drive), ":"))
	if len(letter) != 1 {
		return false, fmt.Errorf("invalid drive %q", drive)
	}

	var partitions []msftPartition
	query := fmt.Sprintf("SELECT DiskNumber FROM MSFT_Partition WHERE DriveLetter = '%s'", letter)
	if err := wmi.QueryNamespace(query, &partitions, storageNamespace); err != nil {
		return false, fmt.Errorf("query partition of %s: %w", drive, err)
	}
	if len(partitions) == 0 {
		return false, fmt.Errorf("no partition found for drive %s", drive)
	}

	var disks []msftPhysicalDisk
	query = fmt.Sprintf("SELECT DeviceId, MediaType FROM MSFT_PhysicalDisk WHERE DeviceId = '%d'", partitions[0].DiskNumber)
	if err := wmi.QueryNamespace(query, &disks, storageNamespace); err != nil {
		return false, fmt.Errorf("query physical disk %d: %w", partitions[0].DiskNumber, err)
	}
	if len(disks) == 0 {
		return false, fmt.Errorf("physical disk %d not found", partitions[0].DiskNumber)
	}

	return disks[0].MediaType == mediaTypeSSD, nil
}
