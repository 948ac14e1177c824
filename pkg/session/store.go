package session

import "context"

// Store is the contract the HTTP session middleware programs against. A
// missing session is reported as a nil payload with a nil error; errors are
// reserved for configuration and storage failures.
type Store interface {
	// Get returns the payload of a live, unexpired session with the
	// extracted user merged in and the session id stamped on. An expired
	// record is archived and removed on the way out.
	Get(ctx context.Context, sid string) (Payload, error)

	// Set persists an authenticated payload under the session id with a
	// fresh expiry. Payloads without an extractable user are dropped
	// without error.
	Set(ctx context.Context, sid string, payload Payload) error

	// Destroy archives the live record into history and deletes it.
	// Destroying an absent id is a no-op.
	Destroy(ctx context.Context, sid string) error

	// Len returns the number of live records.
	Len(ctx context.Context) (int64, error)

	// Clear archives every live record into history and removes them all.
	Clear(ctx context.Context) error

	// GetAndReset is Get followed by a Set of the same payload, refreshing
	// expiry and last access time.
	GetAndReset(ctx context.Context, sid string) (Payload, error)
}

// Archiver is an optional interface for stores exposing the archived history
// of a session id.
type Archiver interface {
	History(ctx context.Context, sid string) ([]HistoryRecord, error)
}
