package tui

import "fmt"

// FormatBytes returns a human-readable size (B, KB, MB, ...). Negative
// values keep their sign so space increases display naturally.
func FormatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}

	sign := ""
	if bytes < 0 {
		sign = "-"
		bytes = -bytes
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%s%d B", sign, bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%s%.1f %s", sign, float64(bytes)/float64(div), suffixes[exp])
}
