// Package dispatcher is the stateless HTTP front end: it parses wire
// requests, mints identifiers, enqueues jobs to the right worker via its
// bounded queue, and correlates replies through one-shot channels, per
// spec.md §4.7.
package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wess-project/wessd/internal/apperrors"
	"github.com/wess-project/wessd/internal/engine"
	"github.com/wess-project/wessd/internal/metrics"
	"github.com/wess-project/wessd/internal/store"
	"github.com/wess-project/wessd/internal/workers"
)

// Dispatcher holds the channels into Writer, Reader, and Runner, plus the
// quick-validate engine handle used on Create.
type Dispatcher struct {
	writeJobs chan<- workers.WriteJob
	readJobs  chan workers.ReadJob
	runJobs   chan<- workers.RunJob
	engine    *engine.Engine
	metrics   *metrics.Registry
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
	// replyTimeout bounds how long the dispatcher waits on a worker's
	// one-shot reply before treating it as a channel error, matching
	// "the transport layer enforces overall request deadlines" (spec §5).
	replyTimeout time.Duration
}

// New builds a Dispatcher wired to the given worker queues.
func New(
	writeJobs chan<- workers.WriteJob,
	readJobs chan workers.ReadJob,
	runJobs chan<- workers.RunJob,
	eng *engine.Engine,
	m *metrics.Registry,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		writeJobs:    writeJobs,
		readJobs:     readJobs,
		runJobs:      runJobs,
		engine:       eng,
		metrics:      m,
		gatherer:     gatherer,
		logger:       logger,
		replyTimeout: 30 * time.Second,
	}
}

// FetchModule implements workers.ReaderClient, letting Runner reuse the
// dispatcher's own read-job enqueue/await logic instead of duplicating it.
func (d *Dispatcher) FetchModule(ctx context.Context, id string) (*store.Record, bool, error) {
	reply := make(chan workers.ReadReply, 1)
	if err := d.enqueueRead(ctx, workers.ReadJob{ID: id, Reply: reply}); err != nil {
		return nil, false, err
	}
	r, err := d.awaitRead(ctx, reply)
	if err != nil {
		return nil, false, err
	}
	if !r.Found {
		return nil, false, nil
	}
	return r.Record, true, nil
}

func (d *Dispatcher) enqueueWrite(ctx context.Context, job workers.WriteJob) error {
	select {
	case d.writeJobs <- job:
		return nil
	case <-ctx.Done():
		return &apperrors.ChannelError{Op: "enqueue-write", Cause: ctx.Err()}
	}
}

func (d *Dispatcher) enqueueRead(ctx context.Context, job workers.ReadJob) error {
	select {
	case d.readJobs <- job:
		return nil
	case <-ctx.Done():
		return &apperrors.ChannelError{Op: "enqueue-read", Cause: ctx.Err()}
	}
}

func (d *Dispatcher) enqueueRun(ctx context.Context, job workers.RunJob) error {
	select {
	case d.runJobs <- job:
		return nil
	case <-ctx.Done():
		return &apperrors.ChannelError{Op: "enqueue-run", Cause: ctx.Err()}
	}
}

func (d *Dispatcher) awaitRead(ctx context.Context, reply chan workers.ReadReply) (workers.ReadReply, error) {
	timer := time.NewTimer(d.replyTimeout)
	defer timer.Stop()
	select {
	case r := <-reply:
		return r, r.Err
	case <-ctx.Done():
		return workers.ReadReply{}, &apperrors.ChannelError{Op: "await-read", Cause: ctx.Err()}
	case <-timer.C:
		return workers.ReadReply{}, &apperrors.ChannelError{Op: "await-read", Cause: apperrors.ErrChannelClosed}
	}
}

func (d *Dispatcher) awaitRun(ctx context.Context, reply chan workers.RunReply) (workers.RunReply, error) {
	timer := time.NewTimer(d.replyTimeout)
	defer timer.Stop()
	select {
	case r := <-reply:
		return r, r.Err
	case <-ctx.Done():
		return workers.RunReply{}, &apperrors.ChannelError{Op: "await-run", Cause: ctx.Err()}
	case <-timer.C:
		return workers.RunReply{}, &apperrors.ChannelError{Op: "await-run", Cause: apperrors.ErrChannelClosed}
	}
}

// NewIdentifier mints a uniformly random token, independent of payload, per
// the canonical identifier-minting design note in spec.md §9.
func NewIdentifier() string {
	return uuid.New().String()
}
