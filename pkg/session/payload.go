package session

import (
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DataProvider is the conversion capability a nested payload value, usually
// the cookie, may expose to control its serialized form.
type DataProvider interface {
	SessionData() map[string]any
}

// preparePayload validates and normalizes a payload for persistence. A nil
// result with a nil error means the payload carries no authenticated user
// and must not be stored.
func preparePayload(p Payload, maxAge time.Duration) (Payload, error) {
	if p == nil {
		return nil, nil
	}
	if _, ok := ExtractUser(p); !ok {
		return nil, nil
	}

	clean := sanitize(p)

	if limit, ok := cookieMaxAge(clean); ok && maxAge > limit {
		return nil, ErrMaxAgeExceedsCookie
	}

	// forceUpdate is a control flag for the write, not session data.
	delete(clean, KeyForceUpdate)
	return clean, nil
}

// sanitize returns a copy of the payload with non-serializable values
// (functions, channels, unsafe pointers) dropped and DataProvider values
// replaced by their serializable form. Nested maps are sanitized
// recursively.
func sanitize(p Payload) Payload {
	clean := make(Payload, len(p))
	for k, v := range p {
		if v, ok := sanitizeValue(v); ok {
			clean[k] = v
		}
	}
	return clean
}

func sanitizeValue(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	if dp, ok := v.(DataProvider); ok {
		return sanitize(dp.SessionData()), true
	}
	if m, ok := asMap(v); ok {
		return sanitize(m), true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false
	}
	return v, true
}

// asMap widens the map shapes a payload value can arrive in: plain maps from
// JSON decoding and bson documents from native decoding.
func asMap(v any) (Payload, bool) {
	switch m := v.(type) {
	case Payload:
		return m, true
	case map[string]any:
		return m, true
	case bson.M:
		return Payload(m), true
	case bson.D:
		out := make(Payload, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out, true
	}
	return nil, false
}

// normalizeMap rewrites bson document values into plain maps recursively so
// payloads look the same regardless of the persistence representation.
func normalizeMap(p Payload) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		if m, ok := asMap(v); ok {
			out[k] = normalizeMap(m)
			continue
		}
		out[k] = v
	}
	return out
}

// cookieMaxAge reads the lifetime limit the session cookie carries, if any.
// Duration values are taken as-is; bare numbers are milliseconds.
func cookieMaxAge(p Payload) (time.Duration, bool) {
	c, ok := asMap(p[KeyCookie])
	if !ok {
		return 0, false
	}
	for _, key := range []string{"originalMaxAge", "maxAge"} {
		if d, ok := asDuration(c[key]); ok {
			return d, true
		}
	}
	return 0, false
}

func asDuration(v any) (time.Duration, bool) {
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case int:
		return time.Duration(d) * time.Millisecond, true
	case int32:
		return time.Duration(d) * time.Millisecond, true
	case int64:
		return time.Duration(d) * time.Millisecond, true
	case float64:
		return time.Duration(d * float64(time.Millisecond)), true
	}
	return 0, false
}

// forceUpdateRequested reports whether the caller explicitly asked for a
// payload overwrite.
func forceUpdateRequested(p Payload) bool {
	b, ok := p[KeyForceUpdate].(bool)
	return ok && b
}
