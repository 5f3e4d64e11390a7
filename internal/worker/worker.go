// Package worker wires event subscribers that run after a committed write.
package worker

import (
	"go.uber.org/zap"

	"github.com/jobboard/job-board/internal/cache"
	"github.com/jobboard/job-board/internal/events"
	"github.com/jobboard/job-board/internal/service"
)

// Start registers view-cache invalidation and, when given, notification handlers.
func Start(dispatcher events.Dispatcher, viewCache cache.ViewCache, keys cache.Keys, notifications *service.NotificationService, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if viewCache != nil {
		NewCacheInvalidator(viewCache, keys, logger).RegisterHandlers(dispatcher)
	}
	if notifications != nil {
		notifications.RegisterHandlers(dispatcher)
	}
}
