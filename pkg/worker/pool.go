// Package worker provides an asynchronous worker pool for publishing
// ingest events through a configured eventstream.Publisher.
//
// The pool decouples event publishing from the API's HTTP hot path so that
// ingest latency never depends on the event stream backend.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/eventstream"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against. Exactly
// one of the event fields is set.
type Job struct {
	Trace  *eventstream.TraceIngestedEvent
	Commit *eventstream.CommitLinkedEvent
}

func (j Job) eventType() string {
	switch {
	case j.Trace != nil:
		return j.Trace.EventType
	case j.Commit != nil:
		return j.Commit.EventType
	}
	return ""
}

func (j Job) eventID() string {
	switch {
	case j.Trace != nil:
		return j.Trace.EventID
	case j.Commit != nil:
		return j.Commit.EventID
	}
	return ""
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher is the eventstream backend events are written to.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool publishes ingest events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
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
// Returns true if enqueued, false if the job is empty or the queue is
// full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	if job.Trace == nil && job.Commit == nil {
		p.logger.Error("empty job not queued")
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.String("event_type", job.eventType()),
			zap.String("event_id", job.eventID()),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("event_type", job.eventType()),
			zap.String("event_id", job.eventID()),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the API HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("publish worker stopped", zap.Uint("worker_id", id))
}

// processJob publishes the job's event through the configured publisher.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	var err error
	switch {
	case job.Trace != nil:
		err = p.config.Publisher.PublishTraceIngested(ctx, job.Trace)
	case job.Commit != nil:
		err = p.config.Publisher.PublishCommitLinked(ctx, job.Commit)
	}
	if err != nil {
		p.logger.Error("async event publish failed",
			zap.String("event_type", job.eventType()),
			zap.String("event_id", job.eventID()),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("event published",
		zap.String("event_type", job.eventType()),
		zap.String("event_id", job.eventID()),
	)
}
