package session

// UserExtractor is a named rule recognizing one authentication payload shape.
type UserExtractor struct {
	// Name identifies the shape in logs and documentation.
	Name string
	// Extract returns the authenticated user carried by the payload, if any.
	Extract func(Payload) (any, bool)
}

// userExtractors is the closed policy table of recognized authentication
// shapes, checked in order:
//
//	direct    payload["user"]
//	passport  payload["passport"]["user"]
//
// A payload matching none of them belongs to an unauthenticated visitor and
// is never persisted.
var userExtractors = []UserExtractor{
	{
		Name: "direct",
		Extract: func(p Payload) (any, bool) {
			u, ok := p[KeyUser]
			return u, ok && u != nil
		},
	},
	{
		Name: "passport",
		Extract: func(p Payload) (any, bool) {
			auth, ok := asMap(p[KeyPassport])
			if !ok {
				return nil, false
			}
			u, ok := auth[KeyUser]
			return u, ok && u != nil
		},
	},
}

// ExtractUser returns the authenticated user carried by the payload, trying
// each recognized shape in order.
func ExtractUser(p Payload) (any, bool) {
	if p == nil {
		return nil, false
	}
	for _, ex := range userExtractors {
		if u, ok := ex.Extract(p); ok {
			return u, true
		}
	}
	return nil, false
}
