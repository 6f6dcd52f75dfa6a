package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ar-tracker/internal/config"
	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/events"
)

func TestRender(t *testing.T) {
	anchor := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	actor := events.Actor{Username: "jdoe"}

	tests := []struct {
		name    string
		event   events.Event
		subject string
		body    string
		email   bool
		webhook bool
	}{
		{
			name: "created",
			event: events.Event{ARNumber: "AR-1", Actor: actor, Payload: events.TicketCreatedPayload{
				Title: "Broken link", Product: "About", SubProduct: "Bylaws", Severity: "1 day", Priority: domain.TicketPriorityHigh, Assignee: "ann",
			}},
			subject: "AR-1 filed: Broken link",
			body:    "jdoe filed About / Bylaws with severity 1 day and priority High. Assigned to ann.",
			email:   true, webhook: true,
		},
		{
			name: "status changed",
			event: events.Event{ARNumber: "AR-1", Actor: actor, Payload: events.TicketStatusChangedPayload{
				OldStatus: domain.TicketStatusAssigned, NewStatus: domain.TicketStatusResolved,
			}},
			subject: "AR-1 is now Resolved",
			body:    "jdoe moved the ticket from Assigned to Resolved.",
			webhook: true,
		},
		{
			name:    "updated",
			event:   events.Event{ARNumber: "AR-1", Actor: actor, Payload: events.TicketUpdatedPayload{Fields: []string{"title", "progressLog"}}},
			subject: "AR-1 updated",
			body:    "jdoe changed title, progressLog.",
		},
		{
			name:    "escalated by the monitor",
			event:   events.Event{ARNumber: "AR-2", Payload: events.TicketEscalatedPayload{Severity: "5 days", ClockAnchor: anchor}},
			subject: "AR-2 escalated",
			body:    "No change since 2024-03-01 08:30 UTC; severity 5 days has elapsed.",
			email:   true, webhook: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Render(tt.event)
			require.True(t, ok)
			assert.Equal(t, tt.subject, msg.Subject)
			assert.Equal(t, tt.body, msg.Body)
			assert.Equal(t, tt.email, msg.Email)
			assert.Equal(t, tt.webhook, msg.Webhook)
		})
	}

	_, ok := Render(events.Event{ARNumber: "AR-3", Payload: "unexpected"})
	assert.False(t, ok)
}

func TestNotificationServiceLogsEscalationAtWarn(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{}).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID: "evt-1", Type: events.EventTicketEscalated, ARNumber: "AR-7",
		Payload: events.TicketEscalatedPayload{Severity: "1 day"},
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("AR-7 escalated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "evt-1", entries[0].ContextMap()["event_id"])
}
