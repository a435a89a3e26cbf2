// Package wasmval marshals between the service's JSON wire format and the
// Wasm numeric value domain (I32/I64/F32/F64), per spec's "Type marshalling"
// table. i32/i64 pass through the wazero API as raw uint64 lanes; f32/f64
// round-trip through api.EncodeF32/DecodeF32 and api.EncodeF64/DecodeF64
// bit patterns.
package wasmval

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"
)

// Tag is one of the four value types crossing the wire/Wasm boundary.
type Tag string

const (
	TagI32 Tag = "I32"
	TagI64 Tag = "I64"
	TagF32 Tag = "F32"
	TagF64 Tag = "F64"
)

// Valid reports whether t is one of the four recognized tags.
func Valid(t Tag) bool {
	switch t {
	case TagI32, TagI64, TagF32, TagF64:
		return true
	default:
		return false
	}
}

// ValueType returns the wazero api.ValueType for t.
func (t Tag) ValueType() api.ValueType {
	switch t {
	case TagI32:
		return api.ValueTypeI32
	case TagI64:
		return api.ValueTypeI64
	case TagF32:
		return api.ValueTypeF32
	case TagF64:
		return api.ValueTypeF64
	default:
		return api.ValueTypeI32
	}
}

// NullableTag unmarshals a metadata.args/metadata.return_types element,
// which is either a quoted tag string or JSON null. Present distinguishes
// an explicit tag from an "absent" marker; absent positions are filtered
// out by FilterPresent before signature comparison.
type NullableTag struct {
	Tag     Tag
	Present bool
}

func (n *NullableTag) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		n.Present = false
		n.Tag = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("type tag: %w", err)
	}
	tag := Tag(s)
	if !Valid(tag) {
		return fmt.Errorf("type tag: unrecognized tag %q", s)
	}
	n.Tag = tag
	n.Present = true
	return nil
}

func (n NullableTag) MarshalJSON() ([]byte, error) {
	if !n.Present {
		return []byte("null"), nil
	}
	return json.Marshal(string(n.Tag))
}

// FilterPresent drops absent (null) entries, preserving order of the
// present ones. This defines the call signature per spec §3.
func FilterPresent(tags []NullableTag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if t.Present {
			out = append(out, t.Tag)
		}
	}
	return out
}

// ToUint64 converts a JSON-decoded argument value to its Wasm uint64 lane
// representation per tag, or reports a type mismatch.
//
// TagI64 is handled separately from the other three tags: routing it through
// float64 first would silently round any value outside float64's ±2^53
// exact-integer range before the bounds check below ever saw it, producing
// a wrong value instead of a type error for large I64 arguments. Parsing
// json.Number.Int64() directly keeps the full int64 range exact.
func ToUint64(tag Tag, v any) (uint64, bool) {
	if tag == TagI64 {
		i, ok := asInt64(v)
		if !ok {
			return 0, false
		}
		return uint64(i), true
	}

	f, ok := asFloat64(v)
	if !ok {
		return 0, false
	}
	switch tag {
	case TagI32:
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return 0, false
		}
		return uint64(uint32(int32(f))), true
	case TagF32:
		return uint64(api.EncodeF32(float32(f))), true
	case TagF64:
		return api.EncodeF64(f), true
	default:
		return 0, false
	}
}

// FromUint64 converts a Wasm return lane back to a JSON-encodable value.
func FromUint64(tag Tag, raw uint64) any {
	switch tag {
	case TagI32:
		return int32(raw)
	case TagI64:
		return int64(raw)
	case TagF32:
		return api.DecodeF32(raw)
	case TagF64:
		return api.DecodeF64(raw)
	default:
		return nil
	}
}

// asInt64 accepts json.Number directly (the production decoding path, via
// dec.UseNumber()) without ever widening through float64, plus the native Go
// integer/float kinds tests and other in-process callers may pass.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n < -9223372036854775808.0 || n > 9223372036854775807.0 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
