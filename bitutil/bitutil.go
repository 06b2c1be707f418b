// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bitutil provides helpers for the LSB bit-packed validity and
// boolean buffers of the Arrow format.
package bitutil

import "math/bits"

var (
	// BitMask selects the i-th bit within a byte.
	BitMask = [8]byte{1, 2, 4, 8, 16, 32, 64, 128}
	// FlippedBitMask clears the i-th bit within a byte.
	FlippedBitMask = [8]byte{254, 253, 251, 247, 239, 223, 191, 127}
)

// BitIsSet reports whether the i-th bit of buf is set, LSB ordering.
func BitIsSet(buf []byte, i int) bool { return (buf[uint(i)/8] & BitMask[byte(i)%8]) != 0 }

// SetBit sets the i-th bit of buf.
func SetBit(buf []byte, i int) { buf[uint(i)/8] |= BitMask[byte(i)%8] }

// ClearBit clears the i-th bit of buf.
func ClearBit(buf []byte, i int) { buf[uint(i)/8] &= FlippedBitMask[byte(i)%8] }

// SetBitTo sets the i-th bit of buf to val.
func SetBitTo(buf []byte, i int, val bool) {
	if val {
		SetBit(buf, i)
	} else {
		ClearBit(buf, i)
	}
}

// BytesForBits returns the number of bytes needed to hold n bits.
func BytesForBits(n int64) int64 { return (n + 7) >> 3 }

// CeilByte rounds size up to the next multiple of 8.
func CeilByte(size int) int { return (size + 7) &^ 7 }

// CountSetBits counts the set bits in buf within [offset, offset+n).
func CountSetBits(buf []byte, offset, n int) int {
	if offset > 0 {
		return countSetBitsWithOffset(buf, offset, n)
	}

	count := 0
	uintBytes := n / 8
	for _, b := range buf[:uintBytes] {
		count += bits.OnesCount8(b)
	}
	for i := uintBytes * 8; i < n; i++ {
		if BitIsSet(buf, i) {
			count++
		}
	}
	return count
}

func countSetBitsWithOffset(buf []byte, offset, n int) int {
	count := 0
	for i := offset; i < offset+n; i++ {
		if BitIsSet(buf, i) {
			count++
		}
	}
	return count
}
