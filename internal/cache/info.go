package cache

import (
	"strconv"
	"strings"
)

// parseMemoryInfo extracts the fields we surface from a Redis "INFO memory"
// reply. The reply is a CRLF-separated list of "key:value" lines with
// "# Section" headers interleaved.
func parseMemoryInfo(info string) MemoryStats {
	var ms MemoryStats
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch key {
		case "used_memory":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				ms.UsedMemory = n
			}
		case "used_memory_human":
			ms.UsedMemoryHuman = value
		case "used_memory_peak_human":
			ms.PeakMemoryHuman = value
		}
	}
	return ms
}
