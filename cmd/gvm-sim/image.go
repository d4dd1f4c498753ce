package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const sectorSize = 512

// loadOrCreateImage returns the in-memory backing store for the
// simulated SD card. An empty path mmaps an anonymous, non-file-backed
// region (a throwaway image, never touching disk). A non-empty path is
// opened (created and sized to sectorCount sectors if it does not
// already exist) and mmapped MAP_SHARED, so writes the simulated card
// accepts land directly on the backing file's pages the way a real
// board's SD card would persist them to flash. No separate save step
// is needed; munmapImage flushes and releases the mapping on exit.
func loadOrCreateImage(path string, sectorCount uint64) ([]byte, error) {
	if path == "" {
		data, err := unix.Mmap(-1, 0, int(sectorCount*sectorSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
		if err != nil {
			return nil, fmt.Errorf("gvm-sim: mmap anonymous image: %w", err)
		}
		return data, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("gvm-sim: open image %q: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("gvm-sim: stat image %q: %w", path, err)
	}

	size := info.Size()
	if size == 0 {
		size = int64(sectorCount * sectorSize)
		if err := f.Truncate(size); err != nil {
			return nil, fmt.Errorf("gvm-sim: size image %q: %w", path, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("gvm-sim: mmap image %q: %w", path, err)
	}
	return data, nil
}

// munmapImage unmaps backing, flushing any pending writes on a
// file-backed mapping back to disk first. Msync on an anonymous mapping
// is a harmless no-op, so its error is not treated as fatal.
func munmapImage(backing []byte) error {
	_ = unix.Msync(backing, unix.MS_SYNC)
	if err := unix.Munmap(backing); err != nil {
		return fmt.Errorf("gvm-sim: unmap image: %w", err)
	}
	return nil
}
