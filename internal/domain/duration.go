package domain

import (
	"fmt"
	"time"
)

// FormatClock renders a duration the way the UI reports clip lengths,
// minutes and zero-padded seconds: 90s -> "1:30".
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
