package engine

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/wess-project/wessd/internal/apperrors"
	"github.com/wess-project/wessd/internal/engine/testdata"
	"github.com/wess-project/wessd/internal/wasmval"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(zap.NewNop())
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func TestQuickValidate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if err := e.QuickValidate(ctx, testdata.Sum); err != nil {
		t.Fatalf("QuickValidate(Sum) = %v, want nil", err)
	}

	err := e.QuickValidate(ctx, testdata.Invalid)
	var invalidWasm *apperrors.InvalidWasmError
	if !errors.As(err, &invalidWasm) {
		t.Fatalf("QuickValidate(Invalid) err = %v (%T), want *InvalidWasmError", err, err)
	}
}

// TestInvokeSum exercises scenario S1: sum(2, 3) == 5.
func TestInvokeSum(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	compiled, err := e.Compile(ctx, testdata.Sum)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer compiled.Close(ctx)

	args := []uint64{
		mustLane(t, wasmval.TagI32, float64(2)),
		mustLane(t, wasmval.TagI32, float64(3)),
	}
	results, err := e.Invoke(ctx, compiled, "sum", args)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	got := wasmval.FromUint64(wasmval.TagI32, results[0])
	if got.(int32) != 5 {
		t.Fatalf("sum(2,3) = %v, want 5", got)
	}
}

// TestInvokeFib exercises scenario S2: fib(10) == 55.
func TestInvokeFib(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	compiled, err := e.Compile(ctx, testdata.Fib)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer compiled.Close(ctx)

	args := []uint64{mustLane(t, wasmval.TagI32, float64(10))}
	results, err := e.Invoke(ctx, compiled, "fib", args)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	got := wasmval.FromUint64(wasmval.TagI64, results[0])
	if got.(int64) != 55 {
		t.Fatalf("fib(10) = %v, want 55", got)
	}
}

func TestInvokeMissingExport(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	compiled, err := e.Compile(ctx, testdata.Sum)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer compiled.Close(ctx)

	_, err = e.Invoke(ctx, compiled, "nonexistent", nil)
	var instantiateErr *apperrors.InstantiateError
	if !errors.As(err, &instantiateErr) {
		t.Fatalf("Invoke(missing export) err = %v (%T), want *InstantiateError", err, err)
	}
}

func TestCompileInvalid(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Compile(ctx, testdata.Invalid)
	var compileErr *apperrors.CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("Compile(Invalid) err = %v (%T), want *CompileError", err, err)
	}
}

func mustLane(t *testing.T, tag wasmval.Tag, v float64) uint64 {
	t.Helper()
	lane, ok := wasmval.ToUint64(tag, v)
	if !ok {
		t.Fatalf("ToUint64(%v, %v) not ok", tag, v)
	}
	return lane
}
