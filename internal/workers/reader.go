package workers

import (
	"go.uber.org/zap"

	"github.com/wess-project/wessd/internal/apperrors"
	"github.com/wess-project/wessd/internal/modulecache"
	"github.com/wess-project/wessd/internal/store"
)

// Reader serves point reads and count queries on a single goroutine and
// owns the module cache (spec.md §4.5). It cooperatively selects between
// its read-job queue and the invalidation stream; invalidations carry no
// strict priority, but each is processed before the worker returns to
// draining reads, so there is no starvation of either input.
type Reader struct {
	jobs          chan ReadJob
	invalidations <-chan string
	cache         *modulecache.Cache
	store         *store.Store
	logger        *zap.Logger
}

// NewReader builds a Reader. jobs is the bounded read-job queue
// (reader.channel_size); invalidations is this Reader's branch of the
// broadcast fan-out.
func NewReader(jobs chan ReadJob, invalidations <-chan string, cache *modulecache.Cache, st *store.Store, logger *zap.Logger) *Reader {
	return &Reader{jobs: jobs, invalidations: invalidations, cache: cache, store: st, logger: logger}
}

// Run is the cooperative select loop. It returns once both jobs and
// invalidations are closed.
func (r *Reader) Run() {
	jobs := r.jobs
	invalidations := r.invalidations
	for jobs != nil || invalidations != nil {
		select {
		case job, ok := <-jobs:
			if !ok {
				jobs = nil
				continue
			}
			r.handleRead(job)
		case id, ok := <-invalidations:
			if !ok {
				invalidations = nil
				continue
			}
			r.cache.Invalidate(id)
		}
	}
}

func (r *Reader) handleRead(job ReadJob) {
	if job.ID == "" {
		n, err := r.store.Count()
		if err != nil {
			r.logger.Error("count failed", zap.Error(err))
			r.reply(job.Reply, ReadReply{Err: &apperrors.ChannelError{Op: "count", Cause: err}})
			return
		}
		r.reply(job.Reply, ReadReply{Count: n, Found: true})
		return
	}

	rec, found, err := r.cache.GetOrFill(job.ID, func() (*store.Record, bool, error) {
		return r.fetchFromStore(job.ID)
	})
	if err != nil {
		r.logger.Error("read failed", zap.String("id", job.ID), zap.Error(err))
		r.reply(job.Reply, ReadReply{Err: &apperrors.ChannelError{Op: "read", Cause: err}})
		return
	}
	if !found {
		r.reply(job.Reply, ReadReply{Found: false})
		return
	}
	r.reply(job.Reply, ReadReply{Record: rec, Found: true})
}

func (r *Reader) fetchFromStore(id string) (*store.Record, bool, error) {
	raw, ok, err := r.store.Get(id)
	if err != nil {
		r.logger.Error("store get failed", zap.String("id", id), zap.Error(err))
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	rec, err := store.Decode(raw)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// reply sends to the one-shot reply channel, discarding the result if the
// caller already gave up and closed/stopped reading (spec §5 cancellation).
func (r *Reader) reply(ch chan ReadReply, reply ReadReply) {
	select {
	case ch <- reply:
	default:
	}
}
