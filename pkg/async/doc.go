// Package async provides small generic primitives for running functions in
// the background and joining their results.
//
// Async starts a computation and hands back a Future. WaitAll joins a batch
// and stops at the first failure; WaitSettled joins a batch and reports every
// outcome, which fits best-effort fan-out such as archival writes where one
// failure must not abort the rest.
package async
