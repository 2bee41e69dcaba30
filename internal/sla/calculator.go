package sla

import (
	"fmt"
	"time"
)

// BreachedLabel is the display string for an exhausted or absent SLA window.
const BreachedLabel = "SLA Breached"

// Progress returns the percentage of the SLA window elapsed at now, clamped
// to [0,100]. Missing timestamps degrade to 0 rather than erroring so a
// single malformed record never aborts a sweep or report.
func Progress(createdAt, deadline, now time.Time) float64 {
	if createdAt.IsZero() || deadline.IsZero() {
		return 0
	}
	total := deadline.Sub(createdAt)
	if total <= 0 {
		return 0
	}
	elapsed := now.Sub(createdAt)
	pct := float64(elapsed) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// LevelFor maps an SLA progress percentage to an escalation level.
// Boundary values belong to the higher level.
func (p Policy) LevelFor(progress float64) int {
	switch {
	case progress >= p.BreachThreshold:
		return 3
	case progress >= p.UrgentThreshold:
		return 2
	case progress >= p.WarningThreshold:
		return 1
	default:
		return 0
	}
}

// TimeRemaining returns the duration until the deadline, clamped to zero once
// the deadline has passed. A zero deadline yields zero.
func TimeRemaining(deadline, now time.Time) time.Duration {
	if deadline.IsZero() {
		return 0
	}
	remaining := deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatRemaining renders a remaining duration for display, largest unit
// first: "3d 4h 12m", "2h 5m", or "50m". Non-positive durations render as
// the breach label.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return BreachedLabel
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
