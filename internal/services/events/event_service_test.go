package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
)

func TestService_PublishReachesAllSubscribers(t *testing.T) {
	service := NewService(arbor.NewLogger())

	var calls atomic.Int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		calls.Add(1)
		return nil
	}
	require.NoError(t, service.Subscribe(interfaces.EventJobCompleted, handler))
	require.NoError(t, service.Subscribe(interfaces.EventJobCompleted, handler))

	err := service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventJobCompleted})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return calls.Load() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestService_PublishIgnoresOtherTypes(t *testing.T) {
	service := NewService(arbor.NewLogger())

	var calls atomic.Int32
	require.NoError(t, service.Subscribe(interfaces.EventJobFailed, func(ctx context.Context, event interfaces.Event) error {
		calls.Add(1)
		return nil
	}))

	require.NoError(t, service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventJobQueued}))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestService_HandlerErrorDoesNotPropagate(t *testing.T) {
	service := NewService(arbor.NewLogger())

	require.NoError(t, service.Subscribe(interfaces.EventJobActive, func(ctx context.Context, event interfaces.Event) error {
		return fmt.Errorf("subscriber blew up")
	}))

	err := service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventJobActive})
	assert.NoError(t, err)
}

func TestService_NilHandlerRejected(t *testing.T) {
	service := NewService(arbor.NewLogger())

	err := service.Subscribe(interfaces.EventJobQueued, nil)
	assert.Error(t, err)
}
