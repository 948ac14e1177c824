// Package mongo provides MongoDB connection management for the session
// store: environment-driven configuration, retrying connection setup,
// health checks, and signal-driven shutdown.
//
// The configuration accepts either a full connection URI or discrete
// host/port/database/credential fields that are assembled into one.
//
// # Usage
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	stop := mongo.DisconnectOnSignal(db.Client(), slog.Default())
//	defer stop()
//
// Connection failures are wrapped in package-level sentinel errors so
// callers can branch with errors.Is.
package mongo
