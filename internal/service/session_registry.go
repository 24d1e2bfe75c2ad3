package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

const defaultSessionIdleTTL = 30 * time.Minute

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = appErrors.Clone(appErrors.ErrNotFound, "form session not found or expired")

type eligibilityEvaluator interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (*models.EligibilityResult, error)
}

// SessionOptions tunes form sessions.
type SessionOptions struct {
	Debounce  time.Duration
	MinLength int
	IdleTTL   time.Duration
	Now       func() time.Time
}

// SessionView is the externally visible state of a form session.
type SessionView struct {
	ID         string                    `json:"id"`
	CatalogKey string                    `json:"catalog_key"`
	RequestID  uint64                    `json:"request_id"`
	Pending    bool                      `json:"pending"`
	Result     *models.EligibilityResult `json:"result,omitempty"`
	Error      error                     `json:"-"`
}

type formSession struct {
	id         string
	catalogKey string
	initial    *models.EligibilityResult
	scheduler  *LookupScheduler
	lastSeen   time.Time
}

// SessionRegistry holds one LookupScheduler per open enrollment form.
type SessionRegistry struct {
	evaluator eligibilityEvaluator
	opts      SessionOptions
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*formSession
}

// NewSessionRegistry constructs an empty registry.
func NewSessionRegistry(evaluator eligibilityEvaluator, opts SessionOptions, logger *zap.Logger) *SessionRegistry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultSessionIdleTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{evaluator: evaluator, opts: opts, logger: logger, sessions: make(map[string]*formSession)}
}

// Open evaluates the catalog entry without an identity and starts a session.
func (r *SessionRegistry) Open(ctx context.Context, catalogKey string) (*SessionView, error) {
	initial, err := r.evaluator.Evaluate(ctx, EvaluateRequest{CatalogKey: catalogKey})
	if err != nil {
		return nil, err
	}

	session := &formSession{
		id:         uuid.NewString(),
		catalogKey: initial.CatalogKey,
		initial:    initial,
		lastSeen:   r.opts.Now(),
	}
	key := initial.CatalogKey
	session.scheduler = NewLookupScheduler(func(ctx context.Context, applicant models.ApplicantIdentity) (*models.EligibilityResult, error) {
		return r.evaluator.Evaluate(ctx, EvaluateRequest{CatalogKey: key, Identity: &applicant})
	}, r.opts.Debounce, r.opts.MinLength, r.logger)

	r.mu.Lock()
	r.sessions[session.id] = session
	r.mu.Unlock()

	return &SessionView{ID: session.id, CatalogKey: session.catalogKey, Result: initial}, nil
}

// SubmitIdentity feeds identity input to the session's scheduler. accepted is
// false when the value is too short to trigger a lookup.
func (r *SessionRegistry) SubmitIdentity(sessionID string, applicant models.ApplicantIdentity) (*SessionView, bool, error) {
	session, err := r.touch(sessionID)
	if err != nil {
		return nil, false, err
	}
	requestID, accepted := session.scheduler.Submit(applicant)
	return &SessionView{ID: session.id, CatalogKey: session.catalogKey, RequestID: requestID, Pending: accepted}, accepted, nil
}

// Decision returns the latest applied decision for the session. Before any
// identity lookup completes it returns the initial decision.
func (r *SessionRegistry) Decision(sessionID string) (*SessionView, error) {
	session, err := r.touch(sessionID)
	if err != nil {
		return nil, err
	}
	view := &SessionView{ID: session.id, CatalogKey: session.catalogKey}
	latest, outcome := session.scheduler.Latest()
	view.RequestID = latest
	switch {
	case latest == 0:
		view.Result = session.initial
	case outcome == nil:
		view.Pending = true
	default:
		view.Result = outcome.Result
		view.Error = outcome.Err
	}
	return view, nil
}

// Close ends a session and stops its scheduler.
func (r *SessionRegistry) Close(sessionID string) {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if ok {
		session.scheduler.Close()
	}
}

// Len reports the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartCleanup removes idle sessions every interval until ctx is cancelled.
func (r *SessionRegistry) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.RemoveIdleAt(r.opts.Now()); removed > 0 {
				r.logger.Debug("expired idle form sessions", zap.Int("removed", removed))
			}
		}
	}
}

// RemoveIdleAt drops sessions idle for longer than IdleTTL as of now.
func (r *SessionRegistry) RemoveIdleAt(now time.Time) int {
	r.mu.Lock()
	expired := make([]*formSession, 0)
	for id, session := range r.sessions {
		if now.Sub(session.lastSeen) > r.opts.IdleTTL {
			expired = append(expired, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		session.scheduler.Close()
	}
	return len(expired)
}

func (r *SessionRegistry) touch(sessionID string) (*formSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.lastSeen = r.opts.Now()
	return session, nil
}
