// Package session persists HTTP session payloads keyed by session id and
// archives superseded or expired sessions into an append-only history.
//
// The Store interface is the contract an HTTP session middleware programs
// against: Get, Set, Destroy, Len, Clear, and the GetAndReset convenience
// composition. Three backends implement it: MongoStore (the primary one,
// with a MongoDB live collection and history collection), RedisStore
// (TTL-native, history as a list), and MemoryStore (development and tests).
//
// Only authenticated sessions are stored: a payload must carry a user either
// directly under "user" or nested under "passport". Payloads without one are
// silently dropped on Set: the store reports success and persists nothing.
//
// Every write stamps a fresh expiry of now plus the configured max age. A
// write whose configured max age exceeds the lifetime the session cookie
// allows fails with ErrMaxAgeExceedsCookie. Expired records are archived and
// removed either lazily on Get or by the background sweeper that Set kicks
// after each write.
//
// # Usage
//
//	cfg, err := session.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	store, err := session.NewMongoStore(ctx, cfg,
//		session.WithLogger(logger.New(logger.WithProduction("sessionstore"))),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close(ctx)
//
//	err = store.Set(ctx, sid, session.Payload{
//		"user": "u-42",
//		"cart": []string{"sku-1"},
//	})
package session
