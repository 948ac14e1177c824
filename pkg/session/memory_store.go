package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore implements the Store contract in process memory. Intended for
// development and tests; history is an in-memory append-only slice.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	history []HistoryRecord

	cfg     Config
	log     *slog.Logger
	now     func() time.Time
	sweeper *sweeper
}

var (
	_ Store    = (*MemoryStore)(nil)
	_ Archiver = (*MemoryStore)(nil)
)

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore(cfg Config, opts ...Option) *MemoryStore {
	st := newSettings(opts...)

	s := &MemoryStore{
		records: make(map[string]*Record),
		cfg:     cfg,
		log:     st.log,
		now:     st.now,
	}

	if cfg.AutoSweep {
		s.sweeper = newSweeper(s.sweepExpired, cfg.SweepInterval, st.log)
	}

	return s
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() error {
	if s.sweeper != nil {
		s.sweeper.stop()
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sid string) (p Payload, err error) {
	defer recoverToError(&err)

	if sid == "" {
		return nil, ErrInvalidSessionID
	}

	// Snapshot under the lock; gated writes mutate the stored record's
	// timestamps in place.
	s.mu.RLock()
	rec, ok := s.records[sid]
	var snapshot Record
	if ok {
		snapshot = *rec
	}
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if snapshot.Expired(s.now()) {
		if err := s.Destroy(ctx, sid); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return presentPayload(sid, &snapshot)
}

func (s *MemoryStore) Set(ctx context.Context, sid string, payload Payload) (err error) {
	defer recoverToError(&err)

	if sid == "" {
		return ErrInvalidSessionID
	}

	force := forceUpdateRequested(payload)
	clean, err := preparePayload(payload, s.cfg.MaxAge)
	if err != nil {
		return err
	}
	if clean == nil {
		return nil
	}

	rec, err := newRecord(sid, clean, s.now(), s.cfg.MaxAge, s.cfg.StringifyPayload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if existing, ok := s.records[sid]; ok {
		rec.CreatedAt = existing.CreatedAt
		if s.cfg.RequireForceUpdate && !force {
			existing.LastAccessedAt = rec.LastAccessedAt
			existing.ExpiresAt = rec.ExpiresAt
			s.mu.Unlock()
			if s.sweeper != nil {
				s.sweeper.kick()
			}
			return nil
		}
	}
	s.records[sid] = rec
	s.mu.Unlock()

	if s.sweeper != nil {
		s.sweeper.kick()
	}
	return nil
}

func (s *MemoryStore) Destroy(ctx context.Context, sid string) error {
	if sid == "" {
		return ErrInvalidSessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sid]
	if !ok {
		return nil
	}

	s.history = append(s.history, newHistoryRecord(*rec, s.now()))
	delete(s.records, sid)
	return nil
}

func (s *MemoryStore) Len(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for sid, rec := range s.records {
		s.history = append(s.history, newHistoryRecord(*rec, now))
		delete(s.records, sid)
	}
	return nil
}

func (s *MemoryStore) GetAndReset(ctx context.Context, sid string) (Payload, error) {
	p, err := s.Get(ctx, sid)
	if err != nil || p == nil {
		return nil, err
	}
	if err := s.Set(ctx, sid, p); err != nil {
		return nil, err
	}
	return p, nil
}

// History returns the archived records for a session id.
func (s *MemoryStore) History(ctx context.Context, sid string) ([]HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []HistoryRecord
	for _, h := range s.history {
		if h.SID == sid {
			recs = append(recs, h)
		}
	}
	return recs, nil
}

// sweepExpired archives and removes every record whose lifetime elapsed.
func (s *MemoryStore) sweepExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for sid, rec := range s.records {
		if rec.Expired(now) {
			s.history = append(s.history, newHistoryRecord(*rec, now))
			delete(s.records, sid)
		}
	}
	return nil
}
