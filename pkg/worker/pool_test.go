package worker

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/demoforge/demoforge/pkg/eventstream"
	"github.com/demoforge/demoforge/pkg/logger"
	"github.com/demoforge/demoforge/pkg/storage"
	"github.com/demoforge/demoforge/pkg/storage/inmemory"
)

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.TurnPersistedEvent
}

func (c *capturingPublisher) PublishTurn(_ context.Context, event *eventstream.TurnPersistedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturingPublisher) Close() error { return nil }

func (c *capturingPublisher) all() []*eventstream.TurnPersistedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*eventstream.TurnPersistedEvent(nil), c.events...)
}

// blockingDriver stalls PutTurn until release is closed, signalling on
// blocked when a worker arrives.
type blockingDriver struct {
	*inmemory.Driver
	blocked chan struct{}
	release chan struct{}
}

func (d *blockingDriver) PutTurn(ctx context.Context, t *storage.Turn) error {
	select {
	case d.blocked <- struct{}{}:
	default:
	}
	<-d.release
	return d.Driver.PutTurn(ctx, t)
}

// newTestPool creates a worker pool backed by an in-memory driver.
// Callers should wp.Close() to drain enqueued jobs before asserting state.
func newTestPool(pub eventstream.Publisher) (*Pool, *inmemory.Driver) {
	driver := inmemory.NewDriver()

	wp, err := NewPool(&Config{
		Driver:    driver,
		Publisher: pub,
		Logger:    logger.Nop(),
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, driver
}

func testJob(sessionID, turnID string) Job {
	return Job{
		Turn: &storage.Turn{
			ID:        turnID,
			SessionID: sessionID,
			Question:  "show revenue",
			Answer:    "Revenue is up.",
			Charts:    []string{`{"mark":"bar"}`},
			CreatedAt: time.Now().UTC(),
		},
		Source: eventstream.EventSource{SessionID: sessionID, AgentName: "DEMOFORGE_AGENT"},
		Meta:   eventstream.TurnRequestMeta{Streaming: true},
	}
}

var _ = Describe("Worker Pool", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("requires a storage driver", func() {
		_, err := NewPool(&Config{Logger: logger.Nop()})
		Expect(err).To(HaveOccurred())
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp, driver := newTestPool(nil)
			Expect(driver.PutSession(ctx, &storage.Session{ID: "s-1"})).To(Succeed())

			Expect(wp.Enqueue(testJob("s-1", "t-1"))).To(BeTrue())
			wp.Close()
		})

		It("drops jobs when the queue is full", func() {
			driver := &blockingDriver{
				Driver:  inmemory.NewDriver(),
				blocked: make(chan struct{}, 1),
				release: make(chan struct{}),
			}
			Expect(driver.PutSession(ctx, &storage.Session{ID: "s-1"})).To(Succeed())
			wp, err := NewPool(&Config{
				Driver:     driver,
				NumWorkers: 1,
				QueueSize:  1,
				Logger:     logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			// First job stalls the single worker, second fills the one-slot
			// queue, third has nowhere to go.
			Expect(wp.Enqueue(testJob("s-1", "t-1"))).To(BeTrue())
			Eventually(driver.blocked).Should(Receive())
			Expect(wp.Enqueue(testJob("s-1", "t-2"))).To(BeTrue())
			Expect(wp.Enqueue(testJob("s-1", "t-3"))).To(BeFalse())

			close(driver.release)
			wp.Close()
		})
	})

	Describe("persistence", func() {
		It("stores enqueued turns after draining", func() {
			wp, driver := newTestPool(nil)
			Expect(driver.PutSession(ctx, &storage.Session{ID: "s-1"})).To(Succeed())

			Expect(wp.Enqueue(testJob("s-1", "t-1"))).To(BeTrue())
			Expect(wp.Enqueue(testJob("s-1", "t-2"))).To(BeTrue())
			wp.Close()

			turns, err := driver.ListTurns(ctx, "s-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(HaveLen(2))
		})

		It("publishes a turn-persisted event per stored turn", func() {
			pub := &capturingPublisher{}
			wp, driver := newTestPool(pub)
			Expect(driver.PutSession(ctx, &storage.Session{ID: "s-1"})).To(Succeed())

			Expect(wp.Enqueue(testJob("s-1", "t-1"))).To(BeTrue())
			wp.Close()

			events := pub.all()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeTurnPersisted))
			Expect(events[0].Source.SessionID).To(Equal("s-1"))
			Expect(events[0].Turn.TurnID).To(Equal("t-1"))
		})

		It("does not publish when persistence fails", func() {
			pub := &capturingPublisher{}
			wp, _ := newTestPool(pub)

			// No session exists, so PutTurn fails.
			Expect(wp.Enqueue(testJob("missing", "t-1"))).To(BeTrue())
			wp.Close()

			Expect(pub.all()).To(BeEmpty())
		})
	})
})
