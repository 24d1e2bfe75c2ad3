package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

const (
	defaultAvailabilityTTL = 60 * time.Second
	defaultMinInterval     = 2 * time.Second
)

type offeringsFetcher interface {
	OfferingsSummary(ctx context.Context) ([]models.CourseOffering, error)
}

// OfferingsNotifier receives an event whenever a refresh finds more offerings
// than the previous snapshot held.
type OfferingsNotifier interface {
	NotifyNewOfferings(ctx context.Context, event models.NewOfferingsEvent)
}

// AvailabilityOptions tunes an AvailabilityCache. Zero values fall back to defaults.
type AvailabilityOptions struct {
	TTL         time.Duration
	MinInterval time.Duration
	Now         func() time.Time
}

// CacheState is everything the cache knows between fetches.
type CacheState struct {
	Snapshot    *models.AvailabilitySnapshot
	LastAttempt time.Time
	LastCount   int
	Baselined   bool
}

// AvailabilityCache serves seat availability from a TTL-bound snapshot and
// refuses to hit the backend more than once per MinInterval.
type AvailabilityCache struct {
	fetcher     offeringsFetcher
	notifier    OfferingsNotifier
	metrics     *MetricsService
	logger      *zap.Logger
	ttl         time.Duration
	minInterval time.Duration
	now         func() time.Time

	mu        sync.Mutex
	state     CacheState
	installed time.Time
}

// NewAvailabilityCache constructs a cache around the offerings summary fetcher.
func NewAvailabilityCache(fetcher offeringsFetcher, opts AvailabilityOptions, notifier OfferingsNotifier, metrics *MetricsService, logger *zap.Logger) *AvailabilityCache {
	if opts.TTL <= 0 {
		opts.TTL = defaultAvailabilityTTL
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = defaultMinInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityCache{
		fetcher:     fetcher,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
		ttl:         opts.TTL,
		minInterval: opts.MinInterval,
		now:         opts.Now,
		state: CacheState{
			Snapshot: &models.AvailabilitySnapshot{Offerings: []models.CourseOffering{}},
		},
	}
}

// State returns a copy of the current cache state.
func (c *AvailabilityCache) State() CacheState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current availability snapshot, refreshing it when it has
// expired or forceRefresh is set and the rate limit allows. On fetch failure the
// previous snapshot is returned together with a FETCH_FAILED error.
//
// The first successful fetch is a baseline: it never publishes a
// NewOfferingsEvent, even when the empty initial state would make it look like
// growth. Later fetches publish when the offering count increases.
func (c *AvailabilityCache) Snapshot(ctx context.Context, forceRefresh bool) (*models.AvailabilitySnapshot, error) {
	c.mu.Lock()
	now := c.now()
	current := c.state.Snapshot
	if !forceRefresh && c.state.Baselined && now.Sub(current.FetchedAt) < c.ttl {
		c.mu.Unlock()
		c.metrics.RecordAvailability(AvailabilityHit)
		return current, nil
	}
	if !c.state.LastAttempt.IsZero() && now.Sub(c.state.LastAttempt) < c.minInterval {
		c.mu.Unlock()
		c.metrics.RecordAvailability(AvailabilityRateLimited)
		return current, nil
	}
	c.state.LastAttempt = now
	c.mu.Unlock()

	offerings, err := c.fetcher.OfferingsSummary(ctx)
	if err != nil {
		c.metrics.RecordAvailability(AvailabilityFailed)
		c.logger.Warn("availability refresh failed, serving last snapshot", zap.Error(err))
		return c.currentSnapshot(), appErrors.Wrap(err, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
	}

	snapshot, event := c.install(offerings, now)
	c.metrics.RecordAvailability(AvailabilityFetched)
	if event != nil {
		c.metrics.RecordNewOfferings(event.Delta)
		c.logger.Info("new offerings detected", zap.Int("delta", event.Delta), zap.Int("total", event.Total))
		if c.notifier != nil {
			c.notifier.NotifyNewOfferings(ctx, *event)
		}
	}
	return snapshot, nil
}

func (c *AvailabilityCache) install(offerings []models.CourseOffering, attempt time.Time) (*models.AvailabilitySnapshot, *models.NewOfferingsEvent) {
	clamped := make([]models.CourseOffering, 0, len(offerings))
	for _, offering := range offerings {
		clamped = append(clamped, offering.Clamped())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A slower, older fetch must not overwrite a newer one.
	if c.state.Baselined && attempt.Before(c.installed) {
		return c.state.Snapshot, nil
	}

	snapshot := &models.AvailabilitySnapshot{Offerings: clamped, FetchedAt: c.now()}
	var event *models.NewOfferingsEvent
	if c.state.Baselined && len(clamped) > c.state.LastCount {
		event = &models.NewOfferingsEvent{
			Delta:      len(clamped) - c.state.LastCount,
			Total:      len(clamped),
			DetectedAt: snapshot.FetchedAt,
		}
	}
	c.state.Snapshot = snapshot
	c.installed = attempt
	c.state.LastCount = len(clamped)
	c.state.Baselined = true
	return snapshot, event
}

func (c *AvailabilityCache) currentSnapshot() *models.AvailabilitySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot
}

// GetOfferings returns the offerings of the current snapshot.
func (c *AvailabilityCache) GetOfferings(ctx context.Context, forceRefresh bool) ([]models.CourseOffering, error) {
	snapshot, err := c.Snapshot(ctx, forceRefresh)
	return snapshot.Offerings, err
}

// SeatsForShift sums trusted seats for one course type and shift.
func (c *AvailabilityCache) SeatsForShift(ctx context.Context, courseTypeID int, shift models.ScheduleShift, forceRefresh bool) (int, error) {
	snapshot, err := c.Snapshot(ctx, forceRefresh)
	return snapshot.SeatsForShift(courseTypeID, shift), err
}

// SeatsByCourseType groups seats of the current snapshot per course type.
func (c *AvailabilityCache) SeatsByCourseType(ctx context.Context) (map[int]*models.CourseTypeSeats, *models.AvailabilitySnapshot, error) {
	snapshot, err := c.Snapshot(ctx, false)
	return snapshot.SeatsByCourseType(), snapshot, err
}
