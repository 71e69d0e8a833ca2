// Package storage provides disk usage helpers for storage paths.
package storage

import "os"

// DiskUsageBytes returns the total size in bytes of the given files. Missing
// paths are skipped (contribute 0). Used for the status line of the history
// command and the serve facade.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}
