package cli

import (
	"fmt"
	"time"
)

// FormatConfidence formats a 0..100 confidence as a percentage.
func FormatConfidence(pct float64) string {
	if pct == float64(int64(pct)) {
		return fmt.Sprintf("%d%%", int64(pct))
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatAge formats the time elapsed since t relative to now.
func FormatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < 0:
		return t.UTC().Format(time.RFC3339)
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	default:
		return t.UTC().Format("2006-01-02")
	}
}

// FormatDuration formats d rounded for display.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	secs := d.Seconds()
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	secs -= float64(mins * 60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}
