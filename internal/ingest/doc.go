// Package ingest turns scraped meet result pages into new rows for the store.
//
// A run starts from the active swimmers in the store, discovers their meet
// result pages, skips pages whose (meet, swimmer) pair already has times,
// fetches the rest and appends only rows whose natural key is not stored yet.
// Running it twice against unchanged pages inserts nothing the second time.
package ingest
