package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-gate/internal/identity"
	"github.com/noah-isme/enrollment-gate/internal/models"
)

const (
	defaultLookupDebounce  = 800 * time.Millisecond
	defaultLookupMinLength = 6
	lookupTimeout          = 15 * time.Second
)

// LookupFunc evaluates eligibility for one identity.
type LookupFunc func(ctx context.Context, applicant models.ApplicantIdentity) (*models.EligibilityResult, error)

// LookupOutcome is the most recently applied lookup.
type LookupOutcome struct {
	RequestID uint64
	Result    *models.EligibilityResult
	Err       error
}

// LookupScheduler debounces identity input and applies only the result of the
// latest request. Superseded lookups still run; their results are dropped.
type LookupScheduler struct {
	lookup    LookupFunc
	debounce  time.Duration
	minLength int
	logger    *zap.Logger

	latest atomic.Uint64

	mu      sync.Mutex
	timer   *time.Timer
	applied *LookupOutcome
	closed  bool
}

// NewLookupScheduler constructs a scheduler around lookup.
func NewLookupScheduler(lookup LookupFunc, debounce time.Duration, minLength int, logger *zap.Logger) *LookupScheduler {
	if debounce <= 0 {
		debounce = defaultLookupDebounce
	}
	if minLength <= 0 {
		minLength = defaultLookupMinLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupScheduler{lookup: lookup, debounce: debounce, minLength: minLength, logger: logger}
}

// Submit records identity input. Values shorter than the minimum length are
// ignored and return false. Each accepted input restarts the debounce timer and
// becomes the latest request.
func (s *LookupScheduler) Submit(applicant models.ApplicantIdentity) (uint64, bool) {
	applicant = applicant.Normalized()
	if len([]rune(strings.TrimSpace(applicant.DocumentValue))) < s.minLength {
		return s.latest.Load(), false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.latest.Load(), false
	}

	id := s.latest.Add(1)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(id, applicant)
	})
	return id, true
}

func (s *LookupScheduler) run(id uint64, applicant models.ApplicantIdentity) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	result, err := s.lookup(ctx, applicant)

	s.mu.Lock()
	defer s.mu.Unlock()
	if latest := s.latest.Load(); id != latest {
		s.logger.Debug("discarding stale lookup",
			zap.Uint64("request_id", id),
			zap.Uint64("latest_id", latest),
			zap.String("applicant", identity.Fingerprint(applicant)),
		)
		return
	}
	s.applied = &LookupOutcome{RequestID: id, Result: result, Err: err}
}

// Latest returns the id of the newest request and the last applied outcome,
// which is nil until a lookup for the newest request completes.
func (s *LookupScheduler) Latest() (uint64, *LookupOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := s.latest.Load()
	if s.applied == nil || s.applied.RequestID != latest {
		return latest, nil
	}
	outcome := *s.applied
	return latest, &outcome
}

// Close stops any pending timer and rejects further input.
func (s *LookupScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
}
