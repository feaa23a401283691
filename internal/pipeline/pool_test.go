package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsEveryTask(t *testing.T) {
	var ran atomic.Int64
	p := newPool(3, 16, func(string) { ran.Add(1) })
	for i := 0; i < 10; i++ {
		require.NoError(t, p.enqueue("job"))
	}
	require.NoError(t, p.close())
	assert.Equal(t, int64(10), ran.Load())
}

func TestPoolRejectsWhenQueueFull(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	var once sync.Once
	p := newPool(1, 2, func(string) {
		once.Do(func() { close(started) })
		<-block
	})

	// First task occupies the worker, the next two fill the queue.
	require.NoError(t, p.enqueue("a"))
	<-started
	require.NoError(t, p.enqueue("b"))
	require.NoError(t, p.enqueue("c"))

	assert.ErrorIs(t, p.enqueue("overflow"), ErrQueueFull)

	close(block)
	require.NoError(t, p.close())
}
