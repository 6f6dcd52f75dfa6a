package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/ar-tracker/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to ticket events. Handlers run
// inline on the publishing goroutine.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		logger.Warn("notification service not configured; ticket events are not forwarded")
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification handlers registered")
}
