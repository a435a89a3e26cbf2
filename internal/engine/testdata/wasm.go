// Package testdata holds hand-assembled minimal Wasm binaries exercising
// the exact signatures spec.md §8's S1/S2 scenarios call for, ported from
// this project's Rust ancestor's wasm/sum and wasm/fibonacci fixtures
// (original_source/wasm/*.rs, compiled to .wasm there; assembled directly
// to bytes here since there is no wat2wasm toolchain step in this repo).
package testdata

var (
	magic = []byte{0x00, 0x61, 0x73, 0x6D} // "\0asm"
	ver   = []byte{0x01, 0x00, 0x00, 0x00}
)

// Sum is `(func (export "sum") (param i32 i32) (result i32)
// local.get 0 local.get 1 i32.add)`, the S1 fixture: sum(2, 3) == 5.
var Sum = concat(
	magic, ver,
	// type section: (i32, i32) -> i32
	[]byte{0x01, 0x07, 0x01, 0x60, 0x02, 0x7F, 0x7F, 0x01, 0x7F},
	// function section: func 0 uses type 0
	[]byte{0x03, 0x02, 0x01, 0x00},
	// export section: export func 0 as "sum"
	[]byte{0x07, 0x07, 0x01, 0x03, 0x73, 0x75, 0x6D, 0x00, 0x00},
	// code section: local.get 0; local.get 1; i32.add; end
	[]byte{0x0A, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6A, 0x0B},
)

// Fib is an iterative `(func (export "fib") (param i32) (result i64))`
// computing the nth Fibonacci number with a running pair (a, b) seeded at
// (0, 1), the S2 fixture: fib(10) == 55.
var Fib = concat(
	magic, ver,
	// type section: (i32) -> i64
	[]byte{0x01, 0x06, 0x01, 0x60, 0x01, 0x7F, 0x01, 0x7E},
	// function section: func 0 uses type 0
	[]byte{0x03, 0x02, 0x01, 0x00},
	// export section: export func 0 as "fib"
	[]byte{0x07, 0x07, 0x01, 0x03, 0x66, 0x69, 0x62, 0x00, 0x00},
	// code section: locals a,b,t (i64 x3) beyond the i32 param n;
	// a,b = 0,1; while n != 0 { t = a+b; a = b; b = t; n -= 1 }; return a
	[]byte{
		0x0A, 0x33, // section id, size
		0x01,             // 1 code entry
		0x31,             // body size
		0x01, 0x03, 0x7E, // 1 local decl group: 3 x i64
		0x42, 0x00, 0x21, 0x01, // i64.const 0; local.set 1 (a=0)
		0x42, 0x01, 0x21, 0x02, // i64.const 1; local.set 2 (b=1)
		0x02, 0x40, // block
		0x03, 0x40, // loop
		0x20, 0x00, // local.get 0 (n)
		0x45,       // i32.eqz
		0x0D, 0x01, // br_if 1 (exit block when n == 0)
		0x20, 0x01, // local.get 1 (a)
		0x20, 0x02, // local.get 2 (b)
		0x7C,       // i64.add
		0x21, 0x03, // local.set 3 (t = a+b)
		0x20, 0x02, // local.get 2 (b)
		0x21, 0x01, // local.set 1 (a = b)
		0x20, 0x03, // local.get 3 (t)
		0x21, 0x02, // local.set 2 (b = t)
		0x20, 0x00, // local.get 0 (n)
		0x41, 0x01, // i32.const 1
		0x6B,       // i32.sub
		0x21, 0x00, // local.set 0 (n -= 1)
		0x0C, 0x00, // br 0 (continue loop)
		0x0B,       // end (loop)
		0x0B,       // end (block)
		0x20, 0x01, // local.get 1 (a)
		0x0B, // end (function)
	},
)

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Invalid is not a well-formed Wasm module (bad magic), used to exercise
// QuickValidate/Compile failure paths.
var Invalid = []byte{0xDE, 0xAD, 0xBE, 0xEF}
