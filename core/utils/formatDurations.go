package utils

import (
	"fmt"
	"time"
)

// FormatDuration renders d in the largest of s, ms or μs that keeps it above one.
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2f s", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2f ms", float64(d.Microseconds())/1000)
	default:
		return fmt.Sprintf("%d μs", d.Microseconds())
	}
}
