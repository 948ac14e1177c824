package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionstore/pkg/async"
	"github.com/dmitrymomot/sessionstore/pkg/logger"
	mongodb "github.com/dmitrymomot/sessionstore/pkg/mongo"
)

// MongoStore persists sessions in a MongoDB collection and archives
// superseded or expired records into a history collection.
type MongoStore struct {
	cfg     Config
	live    *mongo.Collection
	history *mongo.Collection
	client  *mongo.Client // set only when the store dialed the connection itself
	log     *slog.Logger
	now     func() time.Time
	sweeper *sweeper
}

var (
	_ Store    = (*MongoStore)(nil)
	_ Archiver = (*MongoStore)(nil)
)

// NewMongoStore connects to MongoDB and returns a ready store. Supplying
// collection handles or a client via options skips the connection setup.
func NewMongoStore(ctx context.Context, cfg Config, opts ...Option) (*MongoStore, error) {
	st := newSettings(opts...)

	s := &MongoStore{
		cfg:     cfg,
		live:    st.live,
		history: st.history,
		log:     st.log,
		now:     st.now,
	}

	if s.live == nil || s.history == nil {
		client := st.client
		if client == nil {
			var err error
			client, err = mongodb.New(ctx, cfg.Mongo)
			if err != nil {
				return nil, err
			}
			s.client = client
		}
		db := client.Database(cfg.Mongo.Database)
		if s.live == nil {
			s.live = db.Collection(cfg.Collection)
		}
		if s.history == nil {
			s.history = db.Collection(cfg.HistoryCollection)
		}
	}

	if cfg.AutoSweep {
		s.sweeper = newSweeper(s.sweepExpired, cfg.SweepInterval, s.log)
	}

	return s, nil
}

// Close stops the background sweeper and disconnects the client when the
// store owns the connection.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.sweeper != nil {
		s.sweeper.stop()
	}
	if s.client != nil {
		if err := s.client.Disconnect(ctx); err != nil {
			return errors.Join(ErrStorage, err)
		}
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, sid string) (p Payload, err error) {
	defer recoverToError(&err)

	if sid == "" {
		return nil, ErrInvalidSessionID
	}

	var rec Record
	findErr := s.live.FindOne(ctx, bson.M{"_id": sid}).Decode(&rec)
	if errors.Is(findErr, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if findErr != nil {
		return nil, errors.Join(ErrStorage, findErr)
	}

	if rec.Expired(s.now()) {
		if err := s.Destroy(ctx, sid); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return presentPayload(sid, &rec)
}

func (s *MongoStore) Set(ctx context.Context, sid string, payload Payload) (err error) {
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
		// Unauthenticated sessions are never persisted.
		return nil
	}

	rec, err := newRecord(sid, clean, s.now(), s.cfg.MaxAge, s.cfg.StringifyPayload)
	if err != nil {
		return err
	}

	if err := s.upsert(ctx, rec, force); err != nil {
		return err
	}

	if s.sweeper != nil {
		s.sweeper.kick()
	}
	return nil
}

// upsert writes the record in place of any live record with the same id.
// When force-update gating is on and the caller did not request an
// overwrite, an existing record keeps its payload and only the timestamps
// are refreshed.
func (s *MongoStore) upsert(ctx context.Context, rec *Record, force bool) error {
	filter := bson.M{"_id": rec.SID}

	if s.cfg.RequireForceUpdate && !force {
		res, err := s.live.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
			"last_accessed_at": rec.LastAccessedAt,
			"expires_at":       rec.ExpiresAt,
		}})
		if err != nil {
			return errors.Join(ErrStorage, err)
		}
		if res.MatchedCount > 0 {
			return nil
		}
		if _, err := s.live.InsertOne(ctx, rec); err != nil {
			return errors.Join(ErrStorage, err)
		}
		return nil
	}

	set := bson.M{
		"last_accessed_at": rec.LastAccessedAt,
		"expires_at":       rec.ExpiresAt,
	}
	if s.cfg.StringifyPayload {
		set["payload_text"] = rec.PayloadText
	} else {
		set["payload"] = rec.Payload
	}

	if _, err := s.live.UpdateOne(ctx, filter, bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": rec.CreatedAt},
	}, options.UpdateOne().SetUpsert(true)); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *MongoStore) Destroy(ctx context.Context, sid string) error {
	if sid == "" {
		return ErrInvalidSessionID
	}
	return s.archive(ctx, bson.M{"_id": sid})
}

func (s *MongoStore) Len(ctx context.Context) (int64, error) {
	n, err := s.live.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return n, nil
}

func (s *MongoStore) Clear(ctx context.Context) error {
	return s.archive(ctx, bson.M{})
}

func (s *MongoStore) GetAndReset(ctx context.Context, sid string) (Payload, error) {
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
func (s *MongoStore) History(ctx context.Context, sid string) ([]HistoryRecord, error) {
	cur, err := s.history.Find(ctx, bson.M{"sid": sid})
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	var recs []HistoryRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return recs, nil
}

// sweepExpired archives and removes every record whose lifetime elapsed.
func (s *MongoStore) sweepExpired(ctx context.Context) error {
	return s.archive(ctx, bson.M{"expires_at": bson.M{"$lte": s.now()}})
}

// archive clones every live record matching the filter into the history
// collection, then deletes the matched records. Clones run as an unordered
// fan-out; individual failures are logged and suppressed so a broken history
// write never fails the parent operation. Deletion waits for every clone
// attempt to settle so history is not lost for records still being copied.
func (s *MongoStore) archive(ctx context.Context, filter bson.M) error {
	cur, err := s.live.Find(ctx, filter)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	var recs []Record
	if err := cur.All(ctx, &recs); err != nil {
		return errors.Join(ErrStorage, err)
	}

	if len(recs) > 0 {
		now := s.now()
		futures := make([]*async.Future[struct{}], len(recs))
		for i, rec := range recs {
			futures[i] = async.Async(ctx, newHistoryRecord(rec, now), s.insertHistory)
		}
		_, errs := async.WaitSettled(futures...)
		for i, err := range errs {
			if err != nil {
				s.log.Warn("session archival failed",
					logger.Component("session.archive"),
					logger.SessionID(recs[i].SID),
					logger.Error(err))
			}
		}
	}

	if _, err := s.live.DeleteMany(ctx, filter); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *MongoStore) insertHistory(ctx context.Context, h HistoryRecord) (struct{}, error) {
	_, err := s.history.InsertOne(ctx, h)
	return struct{}{}, err
}
