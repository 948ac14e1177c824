// Package redis provides helpers for connecting to a Redis server: a
// retrying Connect built on the go-redis client, environment-driven
// configuration, and a health check for liveness probes.
//
// The session package uses it to dial the Redis-backed store; applications
// holding their own client can skip it entirely.
package redis
