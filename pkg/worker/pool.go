// Package worker provides an asynchronous worker pool for persisting chat
// turns using the provided storage.Driver and publishing turn events via the
// provided eventstream.Publisher.
//
// The pool decouples persistence from the API's streaming hot path so the
// client-agent interaction stays fully transparent.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/demoforge/demoforge/pkg/eventstream"
	"github.com/demoforge/demoforge/pkg/storage"
)

var (
	defaultNumWorkers   uint = 4
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Turn   *storage.Turn
	Source eventstream.EventSource
	Meta   eventstream.TurnRequestMeta
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting turns.
	Driver storage.Driver

	// Publisher is the optional event publisher for persisted turns.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided slog logger.
	Logger *slog.Logger
}

// Pool processes persistence jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("worker: storage driver is required")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job
// being dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"session_id", job.Turn.SessionID,
			"turn_id", job.Turn.ID,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"session_id", job.Turn.SessionID,
			"turn_id", job.Turn.ID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the
// jobs queue.
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob persists the turn and, when a publisher is configured, emits a
// turn-persisted event. Event failures are logged, not fatal.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	if err := p.config.Driver.PutTurn(ctx, job.Turn); err != nil {
		p.logger.Error("async turn persistence failed",
			"session_id", job.Turn.SessionID,
			"turn_id", job.Turn.ID,
			"error", err,
		)
		return
	}

	p.logger.Info("turn persisted",
		"session_id", job.Turn.SessionID,
		"turn_id", job.Turn.ID,
	)

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewTurnPersisted(job.Source, job.Meta, job.Turn)
	if err := p.config.Publisher.PublishTurn(ctx, event); err != nil {
		p.logger.Warn("failed to publish turn event",
			"event_id", event.EventID,
			"turn_id", job.Turn.ID,
			"error", err,
		)
	}
}
