package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ar-tracker/internal/escalation"
)

// StartEscalationWorker runs the monitor until ctx is cancelled. Wait on the returned group
// before closing the monitor's dependencies.
func StartEscalationWorker(ctx context.Context, monitor *escalation.Monitor, logger *zap.Logger) *sync.WaitGroup {
	var wg sync.WaitGroup
	if monitor == nil {
		return &wg
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("escalation monitor started", zap.Duration("interval", monitor.Interval()))
		if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("escalation monitor stopped", zap.Error(err))
			return
		}
		logger.Info("escalation monitor stopped")
	}()
	return &wg
}
