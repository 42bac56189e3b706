package client

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecordFireExactlyOnce exercises testable properties 1-2 directly: a
// record's callback fires exactly once even when fire is raced from many
// goroutines, and none of those extra fires touch the client or cookie
// after the winner has already delivered.
func TestRecordFireExactlyOnce(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)

	var fireCount atomic.Int32
	rec := newRecord(c, "TEST", "", func(status int, got *Client, payload any, cookie any) {
		fireCount.Add(1)
		assert.Same(t, c, got)
	}, "cookie")

	const racers = 64
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			rec.fire(-i, nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), fireCount.Load())
	assert.True(t, rec.fired.Load())
}
