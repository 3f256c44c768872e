// Package fmtutil provides formatting utilities for human-readable output.
// Package fmtutil 提供用于人类可读输出的格式化工具。
package fmtutil

import (
	"fmt"
	"strings"
	"time"
)

// FormatCount formats a count with thousand separators.
// FormatCount 格式化数字，添加千位分隔符。
func FormatCount(n uint64) string {
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// FormatBytes formats a buffer size in binary units.
// FormatBytes 将字节数格式化为可读格式。
func FormatBytes(b uint64) string {
	switch {
	case b < 1<<10:
		return fmt.Sprintf("%dB", b)
	case b < 1<<20:
		return fmt.Sprintf("%.2fKiB", float64(b)/(1<<10))
	case b < 1<<30:
		return fmt.Sprintf("%.2fMiB", float64(b)/(1<<20))
	default:
		return fmt.Sprintf("%.2fGiB", float64(b)/(1<<30))
	}
}

// FormatDuration formats elapsed time: sub-second values keep Go's notation,
// longer ones are broken into d/h/m/s parts.
// FormatDuration 将持续时间格式化为可读格式。
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Microsecond).String()
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, " ")
}

// FormatRate formats rows per second over an elapsed duration.
// FormatRate 计算并格式化每秒速率。
func FormatRate(n uint64, elapsed time.Duration, unit string) string {
	if elapsed <= 0 {
		return "- " + unit + "/s"
	}
	rate := float64(n) / elapsed.Seconds()
	switch {
	case rate < 1000:
		return fmt.Sprintf("%.2f %s/s", rate, unit)
	case rate < 1000000:
		return fmt.Sprintf("%.2fK %s/s", rate/1000, unit)
	default:
		return fmt.Sprintf("%.2fM %s/s", rate/1000000, unit)
	}
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
