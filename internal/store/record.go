package store

import (
	"encoding/json"
	"fmt"

	"github.com/wess-project/wessd/internal/wasmval"
)

// Metadata describes the exported function a Record's bytecode should be
// invoked through, per spec.md §3 "Module metadata".
type Metadata struct {
	FunctionName string                `json:"functionName"`
	Args         []wasmval.NullableTag `json:"args"`
	ReturnTypes  []wasmval.NullableTag `json:"returnType"`
}

// Record is the {bytecode, metadata} pair stored under an identifier.
type Record struct {
	Wasm     WasmBytes `json:"wasm"`
	Metadata Metadata  `json:"metadata"`
}

// WasmBytes is the raw Wasm binary. The wire schema represents it as a JSON
// array of byte values (spec §6), not a base64 string, so it gets its own
// marshal/unmarshal pair rather than relying on encoding/json's default
// []byte-as-base64 behavior.
type WasmBytes []byte

func (w WasmBytes) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(w))
	for i, b := range w {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

func (w *WasmBytes) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("wasm bytecode: %w", err)
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("wasm bytecode: byte value %d out of range", v)
		}
		out[i] = byte(v)
	}
	*w = out
	return nil
}

// Encode produces the self-describing JSON blob persisted under an
// identifier's key.
func Encode(r *Record) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return b, nil
}

// Decode parses a previously-encoded Record.
func Decode(b []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &r, nil
}

// ArgTags returns the filtered, present-only argument type sequence.
func (m Metadata) ArgTags() []wasmval.Tag {
	return wasmval.FilterPresent(m.Args)
}

// ReturnTags returns the filtered, present-only return type sequence.
func (m Metadata) ReturnTags() []wasmval.Tag {
	return wasmval.FilterPresent(m.ReturnTypes)
}
