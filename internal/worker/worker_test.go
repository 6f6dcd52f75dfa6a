package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ar-tracker/internal/config"
	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/escalation"
	"github.com/spec-kit/ar-tracker/internal/events"
	"github.com/spec-kit/ar-tracker/internal/service"
)

func TestEscalationWorkerStopsOnCancel(t *testing.T) {
	ticked := make(chan struct{}, 1)
	source := escalation.SourceFunc(func(context.Context) ([]domain.Ticket, error) {
		select {
		case ticked <- struct{}{}:
		default:
		}
		return nil, nil
	})
	monitor := escalation.NewMonitor(source, escalation.MonitorOptions{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	wg := StartEscalationWorker(ctx, monitor, zap.NewNop())

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not tick")
	}
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	_, ok := monitor.Latest()
	assert.True(t, ok)
}

func TestEscalationWorkerNilMonitor(t *testing.T) {
	wg := StartEscalationWorker(context.Background(), nil, zap.NewNop())
	require.NotNil(t, wg)
	wg.Wait()
}

func TestNotificationWorkerSubscribes(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	StartNotificationWorker(service.NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{}), zap.NewNop())
	StartNotificationWorker(nil, zap.NewNop())
	assert.Equal(t, 1, dispatcher.Subscribers(events.EventTicketEscalated))

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketEscalated, ARNumber: "AR-1"})
	assert.NoError(t, err)
}
