package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

// JobHandler processes a single queue message. Returning an error leaves the
// message invisible until its visibility timeout lapses, after which the
// queue redelivers it (up to the queue's receive budget).
type JobHandler func(ctx context.Context, msg *models.QueueMessage) error

// WorkerPool polls the queue and dispatches messages to registered handlers
// by message type.
type WorkerPool struct {
	queue        interfaces.QueueManager
	logger       arbor.ILogger
	handlers     map[string]JobHandler
	handlersMu   sync.RWMutex
	concurrency  int
	pollInterval time.Duration

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewWorkerPool creates a worker pool with the given concurrency
func NewWorkerPool(queue interfaces.QueueManager, logger arbor.ILogger, concurrency int, pollInterval time.Duration) *WorkerPool {
	if concurrency <= 0 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &WorkerPool{
		queue:        queue,
		logger:       logger,
		handlers:     make(map[string]JobHandler),
		concurrency:  concurrency,
		pollInterval: pollInterval,
	}
}

// RegisterHandler registers a handler for a message type. Must be called
// before Start.
func (p *WorkerPool) RegisterHandler(msgType string, handler JobHandler) {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	p.handlers[msgType] = handler
}

// Start launches the worker goroutines
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.New("worker pool already started")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.started = true

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.worker(workerCtx, i)
	}

	p.logger.Info().Int("concurrency", p.concurrency).Msg("Worker pool started")
	return nil
}

// Stop signals all workers to exit and waits for in-flight jobs to finish
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.started = false
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info().Msg("Worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	// Stagger startup so workers don't hammer the queue in lockstep
	select {
	case <-time.After(time.Duration(id) * 100 * time.Millisecond):
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain all ready messages before going back to sleep
			for {
				if err := p.processNext(ctx); err != nil {
					if !errors.Is(err, models.ErrNoMessage) {
						p.logger.Warn().Err(err).Int("worker", id).Msg("Failed to process queue message")
					}
					break
				}
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

func (p *WorkerPool) processNext(ctx context.Context) error {
	msg, deleteFn, err := p.queue.Receive(ctx)
	if err != nil {
		return err
	}

	p.handlersMu.RLock()
	handler, ok := p.handlers[msg.Type]
	p.handlersMu.RUnlock()

	if !ok {
		// No handler will ever match; drop the message so it doesn't cycle
		p.logger.Warn().Str("type", msg.Type).Str("job_id", msg.JobID).Msg("No handler registered for message type, dropping")
		return deleteFn()
	}

	if err := handler(ctx, msg); err != nil {
		// Leave the message for redelivery after the visibility timeout
		p.logger.Warn().Err(err).Str("job_id", msg.JobID).Msg("Job handler failed")
		return fmt.Errorf("handler failed for job %s: %w", msg.JobID, err)
	}

	if err := deleteFn(); err != nil {
		return fmt.Errorf("failed to delete processed message: %w", err)
	}

	return nil
}
