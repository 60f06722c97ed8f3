package workqueue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itera/chatbot-service/internal/pkg/workqueue"
)

func TestQueue_ProcessesJobsBeforeStop(t *testing.T) {
	// Arrange
	var processed atomic.Int64
	q := workqueue.New("test", 10, func(_ context.Context, job int) error {
		processed.Add(int64(job))
		return nil
	})
	q.Start(2)

	// Act
	for i := 1; i <= 4; i++ {
		assert.True(t, q.Enqueue(i))
	}
	q.Stop()

	// Assert
	assert.Equal(t, int64(10), processed.Load())
}

func TestQueue_DropsWhenFull(t *testing.T) {
	q := workqueue.New("test", 1, func(_ context.Context, _ string) error { return nil })

	assert.True(t, q.Enqueue("a"))
	assert.False(t, q.Enqueue("b"))
	assert.Equal(t, 1, q.QueueSize())
}

func TestQueue_WorkerErrorsAreSwallowed(t *testing.T) {
	var calls atomic.Int64
	q := workqueue.New("test", 5, func(_ context.Context, _ string) error {
		calls.Add(1)
		return errors.New("webhook down")
	})
	q.Start(1)

	q.Enqueue("a")
	q.Enqueue("b")
	q.Stop()

	assert.Equal(t, int64(2), calls.Load())
}

func TestQueue_EnqueueAfterStop(t *testing.T) {
	q := workqueue.New("test", 5, func(_ context.Context, _ string) error { return nil })
	q.Start(1)
	q.Stop()

	assert.False(t, q.Enqueue("late"))
	q.Stop()
}
