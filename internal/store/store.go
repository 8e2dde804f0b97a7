package store

import "errors"

// ErrDuplicateIndex is returned by [Store.Put] when a value is already stored
// under the given index.
var ErrDuplicateIndex = errors.New("duplicate index")

// Store defines the interface for storing values by index and subscribing to
// their in-order release.
//
// Store implementations must be safe for concurrent access.
type Store[T any] interface {
	// Put stores v under index. Each index may be stored once; a second Put
	// for the same index returns ErrDuplicateIndex and leaves the first value.
	Put(index int, v T) error

	// Values returns a snapshot of all stored values in unspecified order.
	Values() []T

	// Len returns the number of stored values.
	Len() int

	// Flush releases every value still buffered behind a gap, in index order.
	// Used when a run ends before all indices were filled.
	Flush()

	// Subscribe returns a channel that receives values in index order.
	// Only values released after the call are delivered.
	Subscribe(buffer int) <-chan T

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan T)
}
