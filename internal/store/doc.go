// Package store provides index-keyed result storage with in-order release.
//
// This package is internal to sitepulse. Probe outcomes complete in any
// order; the store keeps them keyed by their input index and publishes them
// to subscribers strictly in index order, buffering out-of-order arrivals
// until the gap before them is filled.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with ordered pub/sub
//
// The store is safe for concurrent use. Subscribers receive values via
// buffered channels with non-blocking sends: a subscriber whose buffer is
// full misses values rather than blocking the producer, so callers size the
// buffer for the whole batch.
package store
