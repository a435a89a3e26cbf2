// Package workers implements the three single-threaded cooperative backend
// tasks — Writer, Reader, Runner — and the broadcast invalidation channel
// between them, per spec.md §4.4-§4.6 and the canonical fan-out design
// chosen in §9 over message-only-to-Reader.
package workers

import (
	"github.com/wess-project/wessd/internal/store"
	"github.com/wess-project/wessd/internal/wasmval"
)

// WriteOp distinguishes the three mutations Writer performs.
type WriteOp int

const (
	OpCreate WriteOp = iota
	OpUpdate
	OpDelete
)

// WriteJob is a single mutation request enqueued to Writer. Payload is
// required for Create/Update and nil for Delete. Writer does not reply:
// writes are fire-and-forget once enqueued, per spec.md §4.4.
type WriteJob struct {
	ID      string
	Op      WriteOp
	Payload *store.Record
}

// ReadJob requests either a point lookup (ID != "") or a count query
// (ID == ""). Reply carries the result.
type ReadJob struct {
	ID    string
	Reply chan ReadReply
}

// ReadReply is the Reader's answer to a ReadJob.
type ReadReply struct {
	Record *store.Record // set when a point lookup hit
	Count  int           // set when ID == ""
	Found  bool          // false => InvalidId (404) for point lookups
	Err    error
}

// RunJob requests an invocation of id's exported function with args already
// decoded from JSON but not yet converted to Wasm value lanes (Runner owns
// that conversion once it knows the declared argument tags).
type RunJob struct {
	ID    string
	Args  []any
	Reply chan RunReply
}

// RunReply is the Runner's answer to a RunJob.
type RunReply struct {
	Results []ResultValue
	Err     error
}

// ResultValue pairs a returned Wasm lane with its declared tag so the
// dispatcher can marshal it back to JSON without re-consulting metadata.
type ResultValue struct {
	Tag   wasmval.Tag
	Value any
}
