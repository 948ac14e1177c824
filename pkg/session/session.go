package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Payload is the opaque session data handed over by the HTTP middleware.
type Payload map[string]any

// Control keys the store recognizes inside a payload.
const (
	KeyUser        = "user"
	KeyPassport    = "passport"
	KeyCookie      = "cookie"
	KeySID         = "sid"
	KeyForceUpdate = "forceUpdate"
)

// Record is a live session. The session id is the primary key of the live
// collection, so at most one record exists per id.
type Record struct {
	SID            string    `bson:"_id" json:"sid"`
	Payload        Payload   `bson:"payload,omitempty" json:"payload,omitempty"`
	PayloadText    string    `bson:"payload_text,omitempty" json:"payload_text,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	LastAccessedAt time.Time `bson:"last_accessed_at" json:"last_accessed_at"`
	ExpiresAt      time.Time `bson:"expires_at" json:"expires_at"`
}

// Expired reports whether the record's lifetime has elapsed at the given
// time. A record expiring exactly now counts as expired.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// payloadMap decodes the stored payload into a fresh map, regardless of the
// persistence representation.
func (r *Record) payloadMap() (Payload, error) {
	if r.PayloadText != "" {
		var p Payload
		if err := json.Unmarshal([]byte(r.PayloadText), &p); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		return p, nil
	}
	return normalizeMap(r.Payload), nil
}

// newRecord builds a live record for the payload with a fresh expiry.
func newRecord(sid string, p Payload, now time.Time, maxAge time.Duration, stringify bool) (*Record, error) {
	rec := &Record{
		SID:            sid,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(maxAge),
	}

	if stringify {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		rec.PayloadText = string(b)
	} else {
		rec.Payload = p
	}

	return rec, nil
}

// presentPayload is what Get hands back to the middleware: the stored
// payload with the extracted user merged in and the session id stamped on.
func presentPayload(sid string, rec *Record) (Payload, error) {
	p, err := rec.payloadMap()
	if err != nil {
		return nil, err
	}
	if user, ok := ExtractUser(p); ok {
		p[KeyUser] = user
	}
	p[KeySID] = sid
	return p, nil
}

// HistoryRecord is an append-only archive entry created when a live record
// is superseded or expired. Multiple entries may exist per session id.
type HistoryRecord struct {
	ID          string    `bson:"_id" json:"id"`
	SID         string    `bson:"sid" json:"sid"`
	Payload     Payload   `bson:"payload,omitempty" json:"payload,omitempty"`
	PayloadText string    `bson:"payload_text,omitempty" json:"payload_text,omitempty"`
	LoggedInAt  time.Time `bson:"logged_in_at" json:"logged_in_at"`
	LoggedOutAt time.Time `bson:"logged_out_at" json:"logged_out_at"`
}

// newHistoryRecord clones a live record into an archive entry under a fresh
// identity, never reusing the original key.
func newHistoryRecord(rec Record, now time.Time) HistoryRecord {
	return HistoryRecord{
		ID:          uuid.NewString(),
		SID:         rec.SID,
		Payload:     rec.Payload,
		PayloadText: rec.PayloadText,
		LoggedInAt:  rec.CreatedAt,
		LoggedOutAt: now,
	}
}
