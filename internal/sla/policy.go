package sla

import (
	"time"

	"github.com/ROHAN-089/namma-city/internal/config"
	"github.com/ROHAN-089/namma-city/internal/domain"
)

// Policy is the immutable SLA rule set: how long each priority gets before
// its deadline and at which progress percentages escalation kicks in. A
// single Policy value is built from configuration at startup and injected
// everywhere deadlines or levels are computed; the table is never inlined at
// call sites.
type Policy struct {
	Durations map[domain.IssuePriority]time.Duration

	// Progress thresholds (percent elapsed) for each escalation level.
	// Boundaries are inclusive of the higher level.
	WarningThreshold float64
	UrgentThreshold  float64
	BreachThreshold  float64
}

// DefaultPolicy returns the production SLA table.
func DefaultPolicy() Policy {
	return Policy{
		Durations: map[domain.IssuePriority]time.Duration{
			domain.IssuePriorityUrgent: 24 * time.Hour,
			domain.IssuePriorityHigh:   72 * time.Hour,
			domain.IssuePriorityMedium: 168 * time.Hour,
			domain.IssuePriorityLow:    336 * time.Hour,
		},
		WarningThreshold: 50,
		UrgentThreshold:  80,
		BreachThreshold:  100,
	}
}

// PolicyFromConfig builds a Policy from runtime configuration, falling back
// to the default table wherever a value is absent or nonsensical.
func PolicyFromConfig(cfg config.SLAConfig) Policy {
	p := DefaultPolicy()
	setHours := func(priority domain.IssuePriority, hours int) {
		if hours > 0 {
			p.Durations[priority] = time.Duration(hours) * time.Hour
		}
	}
	setHours(domain.IssuePriorityUrgent, cfg.UrgentHours)
	setHours(domain.IssuePriorityHigh, cfg.HighHours)
	setHours(domain.IssuePriorityMedium, cfg.MediumHours)
	setHours(domain.IssuePriorityLow, cfg.LowHours)

	if cfg.WarningThresholdPct > 0 {
		p.WarningThreshold = cfg.WarningThresholdPct
	}
	if cfg.UrgentThresholdPct > 0 {
		p.UrgentThreshold = cfg.UrgentThresholdPct
	}
	if cfg.BreachThresholdPct > 0 {
		p.BreachThreshold = cfg.BreachThresholdPct
	}
	return p
}

// Duration returns the SLA window for a priority. Unknown or missing
// priorities fall back to the medium window.
func (p Policy) Duration(priority domain.IssuePriority) time.Duration {
	if d, ok := p.Durations[priority]; ok {
		return d
	}
	return p.Durations[domain.IssuePriorityMedium]
}

// Deadline computes the SLA deadline for an issue created at createdAt.
func (p Policy) Deadline(priority domain.IssuePriority, createdAt time.Time) time.Time {
	return createdAt.Add(p.Duration(priority))
}
