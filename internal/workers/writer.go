package workers

import (
	"go.uber.org/zap"

	"github.com/wess-project/wessd/internal/store"
)

// Writer serializes all mutations to the store on a single goroutine,
// giving linearizable write ordering per identifier (spec.md §4.4). It
// publishes every successfully-committed identifier to the invalidation
// broadcast so Reader and Runner drop any stale cache entry; it never
// replies to the caller, which has already been acknowledged at enqueue
// time by the dispatcher.
type Writer struct {
	jobs          chan WriteJob
	store         *store.Store
	invalidations chan<- string
	logger        *zap.Logger
}

// NewWriter builds a Writer reading from jobs and publishing committed
// identifiers to invalidations. Capacity of jobs is the bounded queue
// configured by writer.channel_size.
func NewWriter(jobs chan WriteJob, invalidations chan<- string, st *store.Store, logger *zap.Logger) *Writer {
	return &Writer{jobs: jobs, store: st, invalidations: invalidations, logger: logger}
}

// Run drains jobs until the channel is closed. Intended to be launched as
// `go w.Run()`.
func (w *Writer) Run() {
	for job := range w.jobs {
		w.handle(job)
	}
}

func (w *Writer) handle(job WriteJob) {
	var err error
	switch job.Op {
	case OpCreate, OpUpdate:
		encoded, encErr := store.Encode(job.Payload)
		if encErr != nil {
			w.logger.Error("failed to encode record", zap.String("id", job.ID), zap.Error(encErr))
			return
		}
		err = w.store.Put(job.ID, encoded)
	case OpDelete:
		err = w.store.Delete(job.ID)
	}

	if err != nil {
		// The original request has already been acknowledged; failures here
		// are a telemetry/alerting concern, not an API concern (spec §7).
		w.logger.Error("write failed",
			zap.String("id", job.ID),
			zap.Int("op", int(job.Op)),
			zap.Error(err),
		)
		return
	}

	// Create also publishes: it drops any stale cache entry left over from
	// a prior lifecycle of the same identifier (spec §4.4 step 2). The
	// broadcast's inbound channel is drained continuously and its outbound
	// legs are unbounded (see NewInvalidationBroadcast), so this send never
	// needs a drop path to avoid blocking Writer indefinitely.
	w.invalidations <- job.ID
}
