package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobboard/job-board/internal/cache"
	"github.com/jobboard/job-board/internal/events"
)

// CacheInvalidator drops the cached views an event makes stale.
type CacheInvalidator struct {
	cache  cache.ViewCache
	keys   cache.Keys
	logger *zap.Logger
}

// NewCacheInvalidator builds the invalidator.
func NewCacheInvalidator(viewCache cache.ViewCache, keys cache.Keys, logger *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: viewCache, keys: keys, logger: logger}
}

// RegisterHandlers subscribes to every event that changes a cached view.
func (c *CacheInvalidator) RegisterHandlers(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventApplicationSubmitted,
		events.EventApplicationStatusChanged,
		events.EventJobCreated,
		events.EventJobUpdated,
		events.EventJobDeleted,
		events.EventApplicationsViewed,
	} {
		dispatcher.Subscribe(eventType, c.handle)
	}
}

// Keys returns the cache keys made stale by event.
func (c *CacheInvalidator) Keys(event events.Event) []string {
	var keys []string
	dashboards := func(userIDs ...string) {
		for _, id := range userIDs {
			if id != "" {
				keys = append(keys, c.keys.Dashboard(id))
			}
		}
	}

	switch payload := event.Payload.(type) {
	case events.ApplicationSubmittedPayload:
		keys = append(keys, c.keys.Job(event.JobID), c.keys.Applicants(event.JobID))
		dashboards(payload.ApplicantID, payload.JobOwnerID)
	case events.ApplicationStatusChangedPayload:
		keys = append(keys, c.keys.Applicants(event.JobID))
		dashboards(payload.ApplicantID, event.ActorID)
	case events.JobChangedPayload:
		switch event.Type {
		case events.EventJobUpdated:
			keys = append(keys, c.keys.Job(event.JobID))
		case events.EventJobDeleted:
			keys = append(keys, c.keys.Job(event.JobID), c.keys.Applicants(event.JobID))
			dashboards(payload.ApplicantIDs...)
		}
		dashboards(payload.OwnerID)
	default:
		dashboards(event.ActorID)
	}
	return keys
}

// handle never fails the publishing request; a stale entry expires with its TTL.
func (c *CacheInvalidator) handle(ctx context.Context, event events.Event) error {
	keys := c.Keys(event)
	if err := c.cache.Invalidate(ctx, keys...); err != nil {
		c.logger.Warn("view cache invalidation failed",
			zap.String("event_type", string(event.Type)),
			zap.Strings("keys", keys),
			zap.Error(err))
	}
	return nil
}
