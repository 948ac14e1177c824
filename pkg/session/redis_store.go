package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionstore/pkg/logger"
	redisconn "github.com/dmitrymomot/sessionstore/pkg/redis"
)

const (
	redisKeyPrefix     = "session:"
	redisHistoryPrefix = "session_history:"

	redisScanBatch = 100
)

// RedisStore implements the Store contract on Redis. Records live as JSON
// under "session:<sid>" with a TTL matching the expiry; history entries are
// pushed onto the "session_history:<sid>" list.
//
// Redis evicts expired records on its own, so no background sweeper runs;
// records removed by the TTL bypass archival, which is this backend's
// accepted tradeoff. Gated and repeated writes use read-then-write, so
// concurrent writers for the same id follow last-write-wins.
type RedisStore struct {
	cfg        Config
	client     *redis.Client
	ownsClient bool
	log        *slog.Logger
	now        func() time.Time
}

var (
	_ Store    = (*RedisStore)(nil)
	_ Archiver = (*RedisStore)(nil)
)

// NewRedisStore connects to Redis (unless a client is supplied via options)
// and returns a ready store.
func NewRedisStore(ctx context.Context, cfg Config, opts ...Option) (*RedisStore, error) {
	st := newSettings(opts...)

	client := st.redis
	owns := false
	if client == nil {
		var err error
		client, err = redisconn.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		owns = true
	}

	return &RedisStore{cfg: cfg, client: client, ownsClient: owns, log: st.log, now: st.now}, nil
}

// Close disconnects the client when the store owns the connection.
func (s *RedisStore) Close() error {
	if !s.ownsClient {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *RedisStore) key(sid string) string        { return redisKeyPrefix + sid }
func (s *RedisStore) historyKey(sid string) string { return redisHistoryPrefix + sid }

func (s *RedisStore) Get(ctx context.Context, sid string) (p Payload, err error) {
	defer recoverToError(&err)

	if sid == "" {
		return nil, ErrInvalidSessionID
	}

	rec, err := s.find(ctx, sid)
	if err != nil || rec == nil {
		return nil, err
	}

	if rec.Expired(s.now()) {
		if err := s.Destroy(ctx, sid); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return presentPayload(sid, rec)
}

func (s *RedisStore) Set(ctx context.Context, sid string, payload Payload) (err error) {
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

	existing, err := s.find(ctx, sid)
	if err != nil {
		return err
	}
	if existing != nil {
		rec.CreatedAt = existing.CreatedAt
		if s.cfg.RequireForceUpdate && !force {
			existing.LastAccessedAt = rec.LastAccessedAt
			existing.ExpiresAt = rec.ExpiresAt
			rec = existing
		}
	}

	return s.write(ctx, rec)
}

func (s *RedisStore) Destroy(ctx context.Context, sid string) error {
	if sid == "" {
		return ErrInvalidSessionID
	}

	rec, err := s.find(ctx, sid)
	if err != nil {
		return err
	}
	if rec != nil {
		s.archive(ctx, rec)
	}

	if err := s.client.Del(ctx, s.key(sid)).Err(); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *RedisStore) Len(ctx context.Context) (int64, error) {
	var n int64
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", redisScanBatch).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return n, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	var keys []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", redisScanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Join(ErrStorage, err)
	}
	if len(keys) == 0 {
		return nil
	}

	// Archive before deletion; individual failures are logged and
	// suppressed so a broken history write never fails the clear.
	for _, key := range keys {
		sid := key[len(redisKeyPrefix):]
		rec, err := s.find(ctx, sid)
		if err != nil || rec == nil {
			if err != nil {
				s.log.Warn("session archival failed",
					logger.Component("session.archive"),
					logger.SessionID(sid),
					logger.Error(err))
			}
			continue
		}
		s.archive(ctx, rec)
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *RedisStore) GetAndReset(ctx context.Context, sid string) (Payload, error) {
	p, err := s.Get(ctx, sid)
	if err != nil || p == nil {
		return nil, err
	}
	if err := s.Set(ctx, sid, p); err != nil {
		return nil, err
	}
	return p, nil
}

// History returns the archived records for a session id, newest first.
func (s *RedisStore) History(ctx context.Context, sid string) ([]HistoryRecord, error) {
	vals, err := s.client.LRange(ctx, s.historyKey(sid), 0, -1).Result()
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	recs := make([]HistoryRecord, 0, len(vals))
	for _, val := range vals {
		var h HistoryRecord
		if err := json.Unmarshal([]byte(val), &h); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		recs = append(recs, h)
	}
	return recs, nil
}

// find loads a live record, reporting absence as (nil, nil).
func (s *RedisStore) find(ctx context.Context, sid string) (*Record, error) {
	val, err := s.client.Get(ctx, s.key(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	return &rec, nil
}

// write stores the record under its key. An already-expired record is kept
// without a TTL so the next Get archives it instead of Redis silently
// evicting it.
func (s *RedisStore) write(ctx context.Context, rec *Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}

	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl < 0 {
		ttl = 0
	}

	if err := s.client.Set(ctx, s.key(rec.SID), b, ttl).Err(); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// archive pushes a history clone of the record; failures are logged and
// suppressed, never propagated to the caller.
func (s *RedisStore) archive(ctx context.Context, rec *Record) {
	h := newHistoryRecord(*rec, s.now())
	b, err := json.Marshal(h)
	if err == nil {
		err = s.client.LPush(ctx, s.historyKey(rec.SID), b).Err()
	}
	if err != nil {
		s.log.Warn("session archival failed",
			logger.Component("session.archive"),
			logger.SessionID(rec.SID),
			logger.Error(err))
	}
}
