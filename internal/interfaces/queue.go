package interfaces

import (
	"context"
	"time"

	"github.com/aidocify/docify/internal/models"
)

// QueueManager provides durable at-least-once message delivery between the
// upload path and the ingestion workers.
type QueueManager interface {
	// Enqueue adds a message to the queue
	Enqueue(ctx context.Context, msg models.QueueMessage) error

	// Receive pulls the next visible message from the queue. Returns the
	// message and a delete function to call after successful processing.
	// Returns models.ErrNoMessage when the queue is empty.
	Receive(ctx context.Context) (*models.QueueMessage, func() error, error)

	// Extend extends the visibility timeout for a long-running job
	Extend(ctx context.Context, messageID string, duration time.Duration) error

	// Close closes the queue manager
	Close() error
}
