package store

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain reads everything currently buffered on ch without blocking.
func drain[T any](ch <-chan T) []T {
	var out []T
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore[string](1)
	require.NotNil(t, store)

	assert.Zero(t, store.Len())
	assert.Empty(t, store.Values())
}

func TestMemoryStore_ImplementsStore(t *testing.T) {
	var _ Store[int] = NewMemoryStore[int](1)
}

func TestMemoryStore_Put(t *testing.T) {
	store := NewMemoryStore[string](1)

	require.NoError(t, store.Put(1, "a"))
	require.NoError(t, store.Put(3, "c"))

	assert.Equal(t, 2, store.Len())
	values := store.Values()
	sort.Strings(values)
	assert.Equal(t, []string{"a", "c"}, values)
}

// TestMemoryStore_PutDuplicate verifies that an index can be stored once only
// and the first value wins.
func TestMemoryStore_PutDuplicate(t *testing.T) {
	store := NewMemoryStore[string](1)

	require.NoError(t, store.Put(1, "first"))
	err := store.Put(1, "second")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateIndex))
	assert.Equal(t, []string{"first"}, store.Values())
}

// TestMemoryStore_ReleasesInOrder verifies that out-of-order puts are
// published in index order once the gap is filled.
func TestMemoryStore_ReleasesInOrder(t *testing.T) {
	store := NewMemoryStore[int](1)
	ch := store.Subscribe(10)
	defer store.Unsubscribe(ch)

	require.NoError(t, store.Put(3, 3))
	require.NoError(t, store.Put(2, 2))
	assert.Empty(t, drain(ch), "nothing is releasable before index 1 arrives")

	require.NoError(t, store.Put(1, 1))
	assert.Equal(t, []int{1, 2, 3}, drain(ch))

	require.NoError(t, store.Put(5, 5))
	assert.Empty(t, drain(ch))

	require.NoError(t, store.Put(4, 4))
	assert.Equal(t, []int{4, 5}, drain(ch))
}

// TestMemoryStore_ReverseOrderPuts verifies values delivered in reverse
// completion order still come out ascending.
func TestMemoryStore_ReverseOrderPuts(t *testing.T) {
	const n = 50
	store := NewMemoryStore[int](1)
	ch := store.Subscribe(n)
	defer store.Unsubscribe(ch)

	for i := n; i >= 1; i-- {
		require.NoError(t, store.Put(i, i))
	}

	got := drain(ch)
	require.Len(t, got, n)
	for i, v := range got {
		assert.Equal(t, i+1, v)
	}
}

// TestMemoryStore_Flush verifies buffered values behind a gap are released
// in order by Flush.
func TestMemoryStore_Flush(t *testing.T) {
	store := NewMemoryStore[int](1)
	ch := store.Subscribe(10)
	defer store.Unsubscribe(ch)

	require.NoError(t, store.Put(1, 1))
	require.NoError(t, store.Put(4, 4))
	require.NoError(t, store.Put(3, 3))
	assert.Equal(t, []int{1}, drain(ch))

	store.Flush()
	assert.Equal(t, []int{3, 4}, drain(ch))

	// flushing again releases nothing new
	store.Flush()
	assert.Empty(t, drain(ch))

	// later indices continue after the flushed ones
	require.NoError(t, store.Put(5, 5))
	assert.Equal(t, []int{5}, drain(ch))
}

func TestMemoryStore_FlushEmpty(t *testing.T) {
	store := NewMemoryStore[int](1)
	ch := store.Subscribe(1)
	defer store.Unsubscribe(ch)

	store.Flush()
	assert.Empty(t, drain(ch))
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore[int](1)

	ch1 := store.Subscribe(5)
	ch2 := store.Subscribe(5)

	require.NoError(t, store.Put(2, 2))
	require.NoError(t, store.Put(1, 1))

	assert.Equal(t, []int{1, 2}, drain(ch1))
	assert.Equal(t, []int{1, 2}, drain(ch2))
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore[int](1)

	ch := store.Subscribe(1)
	store.Unsubscribe(ch)

	// channel should be closed
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "Unsubscribe() channel should be closed")
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}

	// second unsubscribe is a no-op
	store.Unsubscribe(ch)
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore[int](1)

	// never read from this subscriber
	_ = store.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 200; i++ {
			_ = store.Put(i, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Put() blocked on slow subscriber")
	}
}

// TestMemoryStore_ConcurrentPuts verifies concurrent producers still yield a
// strictly ascending release sequence.
func TestMemoryStore_ConcurrentPuts(t *testing.T) {
	const workers, perWorker = 10, 50
	const total = workers * perWorker

	store := NewMemoryStore[int](1)
	ch := store.Subscribe(total)
	defer store.Unsubscribe(ch)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			// interleave indices across workers
			for j := 0; j < perWorker; j++ {
				idx := j*workers + w + 1
				assert.NoError(t, store.Put(idx, idx))
			}
		}(w)
	}
	wg.Wait()

	got := drain(ch)
	require.Len(t, got, total)
	for i, v := range got {
		assert.Equal(t, i+1, v)
	}
	assert.Equal(t, total, store.Len())
}
