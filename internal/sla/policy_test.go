package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ROHAN-089/namma-city/internal/config"
	"github.com/ROHAN-089/namma-city/internal/domain"
)

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.SLAConfig{
		UrgentHours:         4,
		HighHours:           8,
		WarningThresholdPct: 60,
	})

	// Overridden values take effect.
	assert.Equal(t, 4*time.Hour, p.Duration(domain.IssuePriorityUrgent))
	assert.Equal(t, 8*time.Hour, p.Duration(domain.IssuePriorityHigh))
	assert.Equal(t, 60.0, p.WarningThreshold)

	// Unset values keep the defaults.
	assert.Equal(t, 168*time.Hour, p.Duration(domain.IssuePriorityMedium))
	assert.Equal(t, 336*time.Hour, p.Duration(domain.IssuePriorityLow))
	assert.Equal(t, 80.0, p.UrgentThreshold)
	assert.Equal(t, 100.0, p.BreachThreshold)

	// An adjusted table shifts level classification accordingly.
	assert.Equal(t, 1, p.LevelFor(60))
	assert.Equal(t, 0, p.LevelFor(59.9))
}
