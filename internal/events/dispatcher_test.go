package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var escalated, breached int
	d.Subscribe(EventIssueEscalated, func(context.Context, Event) error {
		escalated++
		return nil
	})
	d.Subscribe(EventIssueEscalated, func(context.Context, Event) error {
		escalated++
		return nil
	})
	d.Subscribe(EventSLABreached, func(context.Context, Event) error {
		breached++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIssueEscalated, IssueID: "i-1"}))
	assert.Equal(t, 2, escalated)
	assert.Zero(t, breached)
}

func TestDispatcherContinuesPastFailingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()

	var delivered bool
	d.Subscribe(EventSweepCompleted, func(context.Context, Event) error {
		return errors.New("webhook down")
	})
	d.Subscribe(EventSweepCompleted, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventSweepCompleted})
	assert.Error(t, err)
	assert.True(t, delivered)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventIssuePriorityChanged}))
}
