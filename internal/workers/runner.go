package workers

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wess-project/wessd/internal/apperrors"
	"github.com/wess-project/wessd/internal/compilecache"
	"github.com/wess-project/wessd/internal/engine"
	"github.com/wess-project/wessd/internal/store"
	"github.com/wess-project/wessd/internal/wasmval"
)

// ReaderClient is the narrow interface Runner needs against Reader: enqueue
// a point-read job and await its reply. Implemented by *Dispatcher in
// production and by a fake in tests.
type ReaderClient interface {
	FetchModule(ctx context.Context, id string) (*store.Record, bool, error)
}

// CompileTimer and ExecutionTimer let the Runner report the histograms
// spec.md §6 requires without workers importing the metrics package
// directly, keeping the dependency direction one-way (metrics depends on
// nothing domain-specific; workers depend on these tiny interfaces).
type CompileTimer interface {
	ObserveCompile(d time.Duration)
}
type ExecutionTimer interface {
	ObserveExecution(d time.Duration)
}

// Runner serves invocations on a single goroutine and owns the compile
// cache (spec.md §4.6). It fetches module records through Reader rather
// than the store directly, so the module cache is consulted on the
// invocation hot path too.
type Runner struct {
	jobs          chan RunJob
	invalidations <-chan string
	cache         *compilecache.Cache
	engine        *engine.Engine
	reader        ReaderClient
	compileTimer  CompileTimer
	execTimer     ExecutionTimer
	logger        *zap.Logger
}

// NewRunner builds a Runner. jobs is the bounded run-job queue
// (runner.channel_size); invalidations is this Runner's branch of the
// broadcast fan-out, closing the one cross-worker gap spec.md §9 calls out:
// Writer's invalidations must reach the compile cache too, not just
// Reader's module cache.
func NewRunner(
	jobs chan RunJob,
	invalidations <-chan string,
	cache *compilecache.Cache,
	eng *engine.Engine,
	reader ReaderClient,
	compileTimer CompileTimer,
	execTimer ExecutionTimer,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		jobs:          jobs,
		invalidations: invalidations,
		cache:         cache,
		engine:        eng,
		reader:        reader,
		compileTimer:  compileTimer,
		execTimer:     execTimer,
		logger:        logger,
	}
}

// Run is the cooperative select loop, structurally identical to Reader's.
func (rn *Runner) Run() {
	jobs := rn.jobs
	invalidations := rn.invalidations
	for jobs != nil || invalidations != nil {
		select {
		case job, ok := <-jobs:
			if !ok {
				jobs = nil
				continue
			}
			rn.handle(job)
		case id, ok := <-invalidations:
			if !ok {
				invalidations = nil
				continue
			}
			rn.cache.Invalidate(id)
		}
	}
}

func (rn *Runner) handle(job RunJob) {
	ctx := context.Background()

	// Step 1: fetch module via Reader.
	rec, found, err := rn.reader.FetchModule(ctx, job.ID)
	if err != nil {
		rn.reply(job.Reply, RunReply{Err: &apperrors.ChannelError{Op: "fetch-module", Cause: err}})
		return
	}
	if !found {
		rn.reply(job.Reply, RunReply{Err: apperrors.ErrNotFound})
		return
	}

	// Step 2: typecheck.
	expected := rec.Metadata.ArgTags()
	if len(job.Args) != len(expected) {
		rn.reply(job.Reply, RunReply{Err: &apperrors.LengthMismatchError{
			Expected: len(expected),
			Found:    len(job.Args),
		}})
		return
	}
	lanes := make([]uint64, len(expected))
	for i, tag := range expected {
		v, ok := wasmval.ToUint64(tag, job.Args[i])
		if !ok {
			rn.reply(job.Reply, RunReply{Err: &apperrors.InvalidTypeError{Position: i, Expected: string(tag)}})
			return
		}
		lanes[i] = v
	}

	// Step 3: obtain compiled artifact, measuring compile time on a miss.
	var compiled wazero.CompiledModule
	compileStart := time.Now()
	var didCompile bool
	compiled, _, err = rn.cache.GetOrFill(job.ID, func() (wazero.CompiledModule, bool, error) {
		didCompile = true
		c, cErr := rn.engine.Compile(ctx, rec.Wasm)
		if cErr != nil {
			return nil, false, cErr
		}
		return c, true, nil
	})
	if err != nil {
		rn.reply(job.Reply, RunReply{Err: err})
		return
	}
	if didCompile && rn.compileTimer != nil {
		rn.compileTimer.ObserveCompile(time.Since(compileStart))
	}

	// Steps 4-6: instantiate, resolve export, invoke.
	execStart := time.Now()
	results, err := rn.engine.Invoke(ctx, compiled, rec.Metadata.FunctionName, lanes)
	if rn.execTimer != nil {
		rn.execTimer.ObserveExecution(time.Since(execStart))
	}
	if err != nil {
		rn.reply(job.Reply, RunReply{Err: err})
		return
	}

	// Step 7: marshal reply. Multi-return is preserved in full — every
	// declared return lane is converted, never silently truncated to the
	// first (spec §9 open question resolved explicitly).
	returnTags := rec.Metadata.ReturnTags()
	out := make([]ResultValue, len(results))
	for i, lane := range results {
		var tag wasmval.Tag
		if i < len(returnTags) {
			tag = returnTags[i]
		}
		out[i] = ResultValue{Tag: tag, Value: wasmval.FromUint64(tag, lane)}
	}
	rn.reply(job.Reply, RunReply{Results: out})
}

func (rn *Runner) reply(ch chan RunReply, reply RunReply) {
	select {
	case ch <- reply:
	default:
	}
}
