package wasmval

import (
	"encoding/json"
	"math"
	"testing"
)

func TestToUint64I32(t *testing.T) {
	tests := []struct {
		name  string
		v     any
		want  uint64
		wrong bool
	}{
		{"in range", float64(42), 42, false},
		{"negative", float64(-1), uint64(uint32(0xFFFFFFFF)), false},
		{"max", float64(math.MaxInt32), uint64(uint32(math.MaxInt32)), false},
		{"overflow", float64(math.MaxInt32) + 1, 0, true},
		{"non-integer", 3.14, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToUint64(TagI32, tt.v)
			if tt.wrong {
				if ok {
					t.Fatalf("ToUint64(%v) = (%d, true), want ok=false", tt.v, got)
				}
				return
			}
			if !ok || got != tt.want {
				t.Fatalf("ToUint64(%v) = (%d, %v), want (%d, true)", tt.v, got, ok, tt.want)
			}
		})
	}
}

func TestToUint64I64(t *testing.T) {
	got, ok := ToUint64(TagI64, float64(7))
	if !ok || got != 7 {
		t.Fatalf("ToUint64(I64, 7) = (%d, %v)", got, ok)
	}
	if _, ok := ToUint64(TagI64, 3.5); ok {
		t.Fatalf("ToUint64(I64, 3.5) ok = true, want false")
	}

	// json.Number is the production decoding path (handlers.go decodes
	// invoke args with dec.UseNumber()) and must preserve the full int64
	// range, not just the float64-exact range up to 2^53.
	const beyondFloat64Precision = "9223372036854775807" // math.MaxInt64
	got, ok = ToUint64(TagI64, json.Number(beyondFloat64Precision))
	if !ok || int64(got) != math.MaxInt64 {
		t.Fatalf("ToUint64(I64, %s) = (%d, %v), want (%d, true)", beyondFloat64Precision, got, ok, uint64(math.MaxInt64))
	}

	const negBeyondPrecision = "-9223372036854775808" // math.MinInt64
	got, ok = ToUint64(TagI64, json.Number(negBeyondPrecision))
	if !ok || int64(got) != math.MinInt64 {
		t.Fatalf("ToUint64(I64, %s) = (%d, %v), want (%d, true)", negBeyondPrecision, got, ok, uint64(math.MinInt64))
	}

	// A value routed through float64 first would round this to
	// 9007199254740993 -> 9007199254740992 (off by one past 2^53); confirm
	// the exact value survives.
	got, ok = ToUint64(TagI64, json.Number("9007199254740993"))
	if !ok || got != 9007199254740993 {
		t.Fatalf("ToUint64(I64, 9007199254740993) = (%d, %v), want (9007199254740993, true)", got, ok)
	}

	if _, ok := ToUint64(TagI64, json.Number("not-a-number")); ok {
		t.Fatalf("ToUint64(I64, not-a-number) ok = true, want false")
	}
}

func TestFloatRoundTrip(t *testing.T) {
	lane, ok := ToUint64(TagF32, 1.5)
	if !ok {
		t.Fatalf("ToUint64(F32, 1.5) not ok")
	}
	got := FromUint64(TagF32, lane)
	if got.(float32) != 1.5 {
		t.Fatalf("F32 round trip = %v, want 1.5", got)
	}

	lane, ok = ToUint64(TagF64, math.Pi)
	if !ok {
		t.Fatalf("ToUint64(F64, Pi) not ok")
	}
	got = FromUint64(TagF64, lane)
	if got.(float64) != math.Pi {
		t.Fatalf("F64 round trip = %v, want Pi", got)
	}
}

func TestNullableTagJSON(t *testing.T) {
	var n NullableTag
	if err := json.Unmarshal([]byte(`"I32"`), &n); err != nil {
		t.Fatalf("Unmarshal(I32): %v", err)
	}
	if !n.Present || n.Tag != TagI32 {
		t.Fatalf("n = %+v, want Present=true Tag=I32", n)
	}

	var absent NullableTag
	if err := json.Unmarshal([]byte(`null`), &absent); err != nil {
		t.Fatalf("Unmarshal(null): %v", err)
	}
	if absent.Present {
		t.Fatalf("absent.Present = true, want false")
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &n); err == nil {
		t.Fatalf("Unmarshal(bogus) err = nil, want error for unrecognized tag")
	}

	b, err := json.Marshal(NullableTag{Tag: TagF64, Present: true})
	if err != nil || string(b) != `"F64"` {
		t.Fatalf("Marshal(F64) = (%s, %v)", b, err)
	}
	b, err = json.Marshal(NullableTag{})
	if err != nil || string(b) != "null" {
		t.Fatalf("Marshal(absent) = (%s, %v)", b, err)
	}
}

func TestFilterPresent(t *testing.T) {
	tags := []NullableTag{
		{Tag: TagI32, Present: true},
		{Present: false},
		{Tag: TagI64, Present: true},
	}
	got := FilterPresent(tags)
	if len(got) != 2 || got[0] != TagI32 || got[1] != TagI64 {
		t.Fatalf("FilterPresent = %v, want [I32 I64]", got)
	}
}

func TestValid(t *testing.T) {
	for _, tag := range []Tag{TagI32, TagI64, TagF32, TagF64} {
		if !Valid(tag) {
			t.Fatalf("Valid(%v) = false, want true", tag)
		}
	}
	if Valid(Tag("bogus")) {
		t.Fatalf("Valid(bogus) = true, want false")
	}
}
