// Package engine wraps a wazero runtime for the direct, typed invocation
// model spec.md §4.6 requires: compile once, instantiate fresh per
// invocation against an empty import set, resolve the declared export, call
// it with typed uint64 lanes, and marshal the typed result back. No WASI,
// no host functions — every instance is import-free, per the "no
// host-function injection" non-goal.
package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wess-project/wessd/internal/apperrors"
	"github.com/wess-project/wessd/internal/wasmval"
)

// Engine owns the wazero runtime. One Engine is shared by the Runner across
// invocations and by the dispatcher; wazero's Runtime is safe for concurrent
// Compile/Instantiate calls. The Runner calls Compile and Invoke from its
// single goroutine, while the dispatcher calls QuickValidate from its
// request goroutines, concurrently with the Runner.
type Engine struct {
	runtime wazero.Runtime
	logger  *zap.Logger
}

// New constructs an Engine with a fresh wazero runtime.
func New(logger *zap.Logger) *Engine {
	rtCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	runtime := wazero.NewRuntimeWithConfig(context.Background(), rtCfg)
	return &Engine{runtime: runtime, logger: logger}
}

// Close releases the runtime and every module compiled against it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// QuickValidate checks uploaded bytecode on the Create and Update paths by
// compiling it and immediately closing the result, which gives an early,
// clear InvalidWasm error without populating any cache. It is a full
// compile, the same work as Compile, not a lighter decode-only pass.
func (e *Engine) QuickValidate(ctx context.Context, bytecode []byte) error {
	compiled, err := e.runtime.CompileModule(ctx, bytecode)
	if err != nil {
		return &apperrors.InvalidWasmError{Cause: err}
	}
	_ = compiled.Close(ctx)
	return nil
}

// Compile validates and compiles bytecode into a reusable artifact. Callers
// own the artifact's lifetime (the compile cache) and must Close it when
// evicted.
func (e *Engine) Compile(ctx context.Context, bytecode []byte) (wazero.CompiledModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, bytecode)
	if err != nil {
		return nil, &apperrors.CompileError{Cause: err}
	}
	return compiled, nil
}

// Invoke instantiates a fresh, import-free instance of compiled, resolves
// functionName, calls it with args (already converted to Wasm uint64
// lanes), and returns the raw result lanes; pairing them with the declared
// return tags and marshalling them to JSON is left to the caller. Each invocation gets its own
// instance; none are cached or reused, keeping calls stateless.
func (e *Engine) Invoke(ctx context.Context, compiled wazero.CompiledModule, functionName string, args []uint64) ([]uint64, error) {
	instance, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return nil, &apperrors.InstantiateError{Cause: fmt.Errorf("instantiate: %w", err)}
	}
	defer instance.Close(ctx)

	fn := instance.ExportedFunction(functionName)
	if fn == nil {
		return nil, &apperrors.InstantiateError{Cause: fmt.Errorf("export %q not found", functionName)}
	}

	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, &apperrors.ExecutionError{Cause: err}
	}
	return results, nil
}

// ParamTypesMatch reports whether fn's declared wazero signature agrees
// with the tag sequence expected. workers.Runner does not call it: its
// typecheck compares the JSON arguments with the metadata tags only.
func ParamTypesMatch(fn api.Function, expected []wasmval.Tag) bool {
	def := fn.Definition()
	params := def.ParamTypes()
	if len(params) != len(expected) {
		return false
	}
	for i, tag := range expected {
		if params[i] != tag.ValueType() {
			return false
		}
	}
	return true
}
