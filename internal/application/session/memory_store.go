package session

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

const backendMemory = "memory"

type memoryEntry struct {
	state   *domain.State
	expires time.Time
}

// MemoryStore keeps sessions in process.  Entries expire ttl after their last
// save; a cron job removes expired entries.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// NewMemoryStore returns an empty store.  A non-positive ttl never expires.
func NewMemoryStore(ttl time.Duration, logger logging.Logger, metrics *prometheus.AppMetrics) *MemoryStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopMetrics()
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*domain.State, error) {
	start := time.Now()
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && s.expired(e) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()

	var err error
	if !ok {
		err = ErrSessionNotFound.WithDetail(id)
	}
	prometheus.RecordSessionOp(s.metrics, backendMemory, "load", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return e.state.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, id string, state *domain.State) error {
	if id == "" {
		return apperrors.InvalidParam("session id is required")
	}
	start := time.Now()
	e := memoryEntry{state: state.Clone()}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()
	prometheus.RecordSessionOp(s.metrics, backendMemory, "save", nil, time.Since(start))
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	prometheus.RecordSessionOp(s.metrics, backendMemory, "delete", nil, 0)
	return nil
}

// Len reports the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && !s.now().Before(e.expires)
}

// Run schedules Sweep on spec (a robfig/cron expression such as "@every 5m")
// and blocks until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Debug("expired sessions removed", logging.Int("count", n))
		}
	}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid session sweep schedule")
	}
	c.Start()
	s.logger.Info("session sweeper started", logging.String("schedule", spec))
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("session sweeper stopped")
	return nil
}
