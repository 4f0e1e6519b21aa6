// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package a1335

// reg16 stages a 2-byte register value for wire transfer. The integer and
// its bytes are two views of the same value, composed with explicit shifts
// and masks so a mutation through either view is visible through the other.
type reg16 uint16

// byteMS returns byte n counting from the most significant byte, so index 0
// is the first byte on the wire. n is clamped to [0, 1]; out-of-range
// callers get the nearest edge byte rather than a panic.
func (v reg16) byteMS(n int) byte {
	return byte(v >> (8 * (1 - clampIndex(n, 1))))
}

// byteLS returns byte n counting from the least significant byte. n is
// clamped to [0, 1].
func (v reg16) byteLS(n int) byte {
	return byte(v >> (8 * clampIndex(n, 1)))
}

// setByteMS replaces byte n, counting from the most significant byte. n is
// clamped to [0, 1].
func (v *reg16) setByteMS(n int, b byte) {
	shift := 8 * (1 - clampIndex(n, 1))
	*v = *v&^(0xff<<shift) | reg16(b)<<shift
}

// setByteLS replaces byte n, counting from the least significant byte. n is
// clamped to [0, 1].
func (v *reg16) setByteLS(n int, b byte) {
	shift := 8 * clampIndex(n, 1)
	*v = *v&^(0xff<<shift) | reg16(b)<<shift
}

// reg32 stages a 4-byte extended register value for wire transfer. Same
// contract as reg16 with indices clamped to [0, 3].
type reg32 uint32

func (v reg32) byteMS(n int) byte {
	return byte(v >> (8 * (3 - clampIndex(n, 3))))
}

func (v reg32) byteLS(n int) byte {
	return byte(v >> (8 * clampIndex(n, 3)))
}

func (v *reg32) setByteMS(n int, b byte) {
	shift := 8 * (3 - clampIndex(n, 3))
	*v = *v&^(0xff<<shift) | reg32(b)<<shift
}

func (v *reg32) setByteLS(n int, b byte) {
	shift := 8 * clampIndex(n, 3)
	*v = *v&^(0xff<<shift) | reg32(b)<<shift
}

func clampIndex(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
