package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueDeduplicatesKeyedJobs(t *testing.T) {
	var mu sync.Mutex
	started := make(chan struct{})
	release := make(chan struct{})
	runs := 0

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		runs++
		mu.Unlock()
		close(started)
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Key: "owner-1"}))
	<-started
	// Same key while the first job is still running: dropped silently.
	require.NoError(t, q.Enqueue(Job{ID: "2", Key: "owner-1"}))
	close(release)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, runs)
}

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "1"}))
}
