package worker

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/eventstream"
)

// capturePublisher records published events. When started and release are
// set, the first publish signals started and every publish blocks until
// release is closed.
type capturePublisher struct {
	mu      sync.Mutex
	traces  []*eventstream.TraceIngestedEvent
	commits []*eventstream.CommitLinkedEvent

	startOnce sync.Once
	started   chan struct{}
	release   chan struct{}
}

func (c *capturePublisher) block() {
	if c.started != nil {
		c.startOnce.Do(func() { close(c.started) })
	}
	if c.release != nil {
		<-c.release
	}
}

func (c *capturePublisher) PublishTraceIngested(_ context.Context, event *eventstream.TraceIngestedEvent) error {
	c.block()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.traces = append(c.traces, event)
	return nil
}

func (c *capturePublisher) PublishCommitLinked(_ context.Context, event *eventstream.CommitLinkedEvent) error {
	c.block()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commits = append(c.commits, event)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

// newTestPool creates a worker pool backed by a capturing publisher.
// Callers should "wp.Close()" to drain enqueued jobs before asserting
// published state.
func newTestPool() (*Pool, *capturePublisher) {
	logger, _ := zap.NewDevelopment()
	pub := &capturePublisher{}

	wp, err := NewPool(&Config{
		Publisher: pub,
		Logger:    logger,
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, pub
}

var _ = Describe("Worker Pool", func() {
	var (
		wp  *Pool
		pub *capturePublisher
	)

	BeforeEach(func() {
		wp, pub = newTestPool()
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			ok := wp.Enqueue(Job{
				Trace: eventstream.NewTraceIngestedEvent(
					"p1", "",
					&agenttrace.AgentTrace{Version: "1.0", ID: "t1"},
				),
			})
			Expect(ok).To(BeTrue())
			wp.Close()
		})

		It("returns false for an empty job", func() {
			Expect(wp.Enqueue(Job{})).To(BeFalse())
			wp.Close()
		})
	})

	Describe("publishing", func() {
		It("publishes both event kinds after draining", func() {
			wp.Enqueue(Job{
				Trace: eventstream.NewTraceIngestedEvent(
					"p1", "alice",
					&agenttrace.AgentTrace{Version: "1.0", ID: "t1"},
				),
			})
			wp.Enqueue(Job{
				Commit: eventstream.NewCommitLinkedEvent(
					"p1", "",
					&agenttrace.CommitLink{CommitSHA: "c1", TraceIDs: []string{"t1"}},
				),
			})

			// Drain the worker pool to ensure publishing completes before assertions
			wp.Close()

			Expect(pub.traces).To(HaveLen(1))
			Expect(pub.traces[0].TraceID).To(Equal("t1"))
			Expect(pub.traces[0].UserID).To(Equal("alice"))

			Expect(pub.commits).To(HaveLen(1))
			Expect(pub.commits[0].CommitSHA).To(Equal("c1"))
		})
	})

	Describe("backpressure", func() {
		It("drops jobs when the queue is full", func() {
			logger, _ := zap.NewDevelopment()
			blocked := &capturePublisher{
				started: make(chan struct{}),
				release: make(chan struct{}),
			}

			small, err := NewPool(&Config{
				Publisher:  blocked,
				NumWorkers: 1,
				QueueSize:  1,
				Logger:     logger,
			})
			Expect(err).NotTo(HaveOccurred())

			job := func(id string) Job {
				return Job{Trace: eventstream.NewTraceIngestedEvent(
					"p1", "",
					&agenttrace.AgentTrace{Version: "1.0", ID: id},
				)}
			}

			// First job occupies the single worker; wait until it is
			// actually picked up so the queue is empty again.
			Expect(small.Enqueue(job("t1"))).To(BeTrue())
			<-blocked.started

			Expect(small.Enqueue(job("t2"))).To(BeTrue())
			Expect(small.Enqueue(job("t3"))).To(BeFalse())

			close(blocked.release)
			small.Close()

			Expect(blocked.traces).To(HaveLen(2))
		})
	})
})
