package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-gate/internal/models"
	"github.com/noah-isme/enrollment-gate/pkg/jobs"
)

// OfferingsListener reacts to a NewOfferingsEvent off the fetch path.
type OfferingsListener func(ctx context.Context, event models.NewOfferingsEvent) error

// NotificationService fans NewOfferingsEvents out to listeners through a job queue.
type NotificationService struct {
	queue     *jobs.Queue[models.NewOfferingsEvent]
	logger    *zap.Logger
	listeners []OfferingsListener

	mu   sync.RWMutex
	last *models.NewOfferingsEvent
}

// NewNotificationService constructs the service; call Start before publishing.
func NewNotificationService(cfg jobs.QueueConfig, logger *zap.Logger, listeners ...OfferingsListener) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s := &NotificationService{logger: logger, listeners: listeners}
	s.queue = jobs.NewQueue[models.NewOfferingsEvent]("new-offerings", s.dispatch, cfg)
	return s
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains nothing and waits for workers to exit.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyNewOfferings records the event and enqueues it without blocking.
func (s *NotificationService) NotifyNewOfferings(ctx context.Context, event models.NewOfferingsEvent) {
	s.mu.Lock()
	s.last = &event
	s.mu.Unlock()

	if err := s.queue.TryEnqueue(jobs.Job[models.NewOfferingsEvent]{ID: uuid.NewString(), Payload: event}); err != nil {
		s.logger.Warn("new offerings notification not queued", zap.Int("delta", event.Delta), zap.Error(err))
	}
}

// LastEvent returns the most recent event, if any.
func (s *NotificationService) LastEvent() *models.NewOfferingsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	event := *s.last
	return &event
}

// Stats exposes queue counters.
func (s *NotificationService) Stats() jobs.Stats {
	return s.queue.Stats()
}

func (s *NotificationService) dispatch(ctx context.Context, job jobs.Job[models.NewOfferingsEvent]) error {
	var errs []error
	for _, listener := range s.listeners {
		if err := listener(ctx, job.Payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogListener writes each event to the logger.
func LogListener(logger *zap.Logger) OfferingsListener {
	return func(ctx context.Context, event models.NewOfferingsEvent) error {
		logger.Info("new course offerings published",
			zap.Int("delta", event.Delta),
			zap.Int("total", event.Total),
			zap.Time("detected_at", event.DetectedAt),
		)
		return nil
	}
}
