package workers

import "go.uber.org/zap"

// backlogWarnThreshold is purely diagnostic: crossing it never drops
// anything, it just tells the operator a consumer is falling behind badly
// enough to be worth a look.
const backlogWarnThreshold = 10000

// unboundedQueue turns a pair of channels into an unbounded one: sends into
// in() never block on a slow consumer draining out(), because the forwarder
// goroutine buffers anything it can't immediately hand off in a growable
// slice instead of a fixed-capacity channel. Memory is the only bound.
type unboundedQueue struct {
	in     chan string
	out    chan string
	name   string
	logger *zap.Logger
	warned bool
}

func newUnboundedQueue(name string, logger *zap.Logger) *unboundedQueue {
	q := &unboundedQueue{in: make(chan string), out: make(chan string), name: name, logger: logger}
	go q.run()
	return q
}

func (q *unboundedQueue) run() {
	defer close(q.out)
	var buf []string
	for {
		if len(buf) == 0 {
			v, ok := <-q.in
			if !ok {
				return
			}
			buf = append(buf, v)
			continue
		}
		select {
		case v, ok := <-q.in:
			if !ok {
				for _, v := range buf {
					q.out <- v
				}
				return
			}
			buf = append(buf, v)
			q.warnOnBacklog(len(buf))
		case q.out <- buf[0]:
			buf = buf[1:]
		}
	}
}

func (q *unboundedQueue) warnOnBacklog(n int) {
	if n < backlogWarnThreshold {
		q.warned = false
		return
	}
	if q.warned {
		return
	}
	q.warned = true
	q.logger.Warn("invalidation backlog growing, consumer falling behind",
		zap.String("queue", q.name), zap.Int("backlog", n))
}

// InvalidationBroadcast fans a single stream of Writer-published
// identifiers out to both Reader's and Runner's own invalidation channels.
// This is the canonical design spec.md §9 calls for: Writer publishes once,
// both cache owners consume independently, rather than Writer messaging
// Reader alone and leaving Runner's compile cache stale.
//
// Both outbound legs are backed by unboundedQueue rather than a fixed-size
// buffer: spec.md §4.5 requires the invalidation stream to support an
// unbounded backlog without loss, since a dropped id leaves a cache entry
// stale forever instead of merely late (§5's bounded-staleness guarantee
// only holds if every invalidation is eventually delivered).
type InvalidationBroadcast struct {
	in       chan string
	toReader *unboundedQueue
	toRunner *unboundedQueue
	logger   *zap.Logger
}

// NewInvalidationBroadcast builds the fan-out. The inbound channel (fed by
// Writer) is modestly buffered purely to smooth bursts; it is drained
// continuously by Run, which immediately hands each id to both outbound
// queues, so it never fills up under sustained load the way a fixed-size
// outbound buffer would.
func NewInvalidationBroadcast(logger *zap.Logger) *InvalidationBroadcast {
	return &InvalidationBroadcast{
		in:       make(chan string, 1024),
		toReader: newUnboundedQueue("reader", logger),
		toRunner: newUnboundedQueue("runner", logger),
		logger:   logger,
	}
}

// In is the channel Writer publishes committed identifiers to.
func (b *InvalidationBroadcast) In() chan string { return b.in }

// ToReader is the stream Reader's cooperative loop selects on.
func (b *InvalidationBroadcast) ToReader() <-chan string { return b.toReader.out }

// ToRunner is the stream Runner's cooperative loop selects on.
func (b *InvalidationBroadcast) ToRunner() <-chan string { return b.toRunner.out }

// Run drains In() until closed, forwarding each identifier to both
// outbound queues. Intended to be launched as `go b.Run()`.
func (b *InvalidationBroadcast) Run() {
	for id := range b.in {
		b.toReader.in <- id
		b.toRunner.in <- id
	}
	close(b.toReader.in)
	close(b.toRunner.in)
}
