package app

import "github.com/dustin/go-humanize"

// formatSize converts a byte count to a human-readable string, used by
// `list` to report each installed package's on-disk footprint.
func formatSize(bytes int64) string {
	return humanize.Bytes(uint64(bytes))
}
