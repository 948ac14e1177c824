package session

import (
	"errors"
	"fmt"
)

var (
	// ErrMaxAgeExceedsCookie reports a configured max age longer than the
	// lifetime the session cookie allows. The write is aborted.
	ErrMaxAgeExceedsCookie = errors.New("session.max_age_exceeds_cookie")

	// ErrStorage wraps failures of the underlying storage backend on
	// primary path operations.
	ErrStorage = errors.New("session.storage_failure")

	// ErrInvalidPayload reports a payload that cannot be encoded or decoded.
	ErrInvalidPayload = errors.New("session.invalid_payload")

	// ErrInvalidSessionID reports an empty session id.
	ErrInvalidSessionID = errors.New("session.invalid_session_id")
)

// recoverToError converts a panic inside a primary-path operation into the
// operation's returned error. Must be installed with defer.
func recoverToError(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("session: recovered panic: %v", r)
	}
}
