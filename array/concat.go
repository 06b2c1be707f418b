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

package array

import (
	"encoding/binary"

	"github.com/JohnCGriffin/overflow"
	"golang.org/x/xerrors"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/bitutil"
	"github.com/columnlab/arrowcol/memory"
)

// Concat appends b after a, producing a new Data owning freshly allocated
// buffers. It supports the value families delta dictionaries are built from:
// booleans, fixed-width primitives and variable-width binary/utf8. Nested
// value types are not concatenable.
func Concat(a, b *Data, mem memory.Allocator) (*Data, error) {
	if !arrowcol.TypeEqual(a.dtype, b.dtype) {
		return nil, xerrors.Errorf("array: concat of %v with %v", a.dtype, b.dtype)
	}
	length, ok := overflow.Add(a.length, b.length)
	if !ok {
		return nil, xerrors.New("array: concat length overflows int")
	}

	if _, ok := a.dtype.(arrowcol.NestedType); ok {
		return nil, xerrors.Errorf("array: cannot concat nested %v values", a.dtype)
	}

	switch dt := a.dtype.(type) {
	case *arrowcol.BooleanType:
		values := concatBitmaps(mem, a.buffers[1], a.length, b.buffers[1], b.length)
		return concatenated(a, b, length, []*memory.Buffer{concatValidity(mem, a, b), values}), nil

	case arrowcol.FixedWidthDataType:
		w := dt.BitWidth() / 8
		values := memory.NewResizableBuffer(mem)
		values.Resize(length * w)
		copy(values.Bytes(), a.buffers[1].Bytes()[:a.length*w])
		copy(values.Bytes()[a.length*w:], b.buffers[1].Bytes()[:b.length*w])
		return concatenated(a, b, length, []*memory.Buffer{concatValidity(mem, a, b), values}), nil

	case arrowcol.OffsetsDataType:
		offsets, values, err := concatVarWidth(mem, a, b, dt.OffsetByteWidth())
		if err != nil {
			return nil, err
		}
		return concatenated(a, b, length, []*memory.Buffer{concatValidity(mem, a, b), offsets, values}), nil
	}

	return nil, xerrors.Errorf("array: cannot concat %v values", a.dtype)
}

func concatenated(a, b *Data, length int, buffers []*memory.Buffer) *Data {
	out := NewData(a.dtype, length, buffers, nil, a.nulls+b.nulls)
	for _, buf := range buffers {
		if buf != nil {
			buf.Release()
		}
	}
	return out
}

// concatValidity merges two validity bitmaps, or returns nil when both
// inputs are fully valid.
func concatValidity(mem memory.Allocator, a, b *Data) *memory.Buffer {
	if a.nulls == 0 && b.nulls == 0 {
		return nil
	}
	return concatBitmaps(mem, a.buffers[0], a.length, b.buffers[0], b.length)
}

func concatBitmaps(mem memory.Allocator, left *memory.Buffer, nleft int, right *memory.Buffer, nright int) *memory.Buffer {
	out := memory.NewResizableBuffer(mem)
	out.Resize(int(bitutil.BytesForBits(int64(nleft + nright))))
	dst := out.Bytes()
	for i := 0; i < nleft; i++ {
		bitutil.SetBitTo(dst, i, bitmapBit(left, i))
	}
	for i := 0; i < nright; i++ {
		bitutil.SetBitTo(dst, nleft+i, bitmapBit(right, i))
	}
	return out
}

// bitmapBit reads bit i, treating an absent bitmap as all-set.
func bitmapBit(buf *memory.Buffer, i int) bool {
	if buf == nil || buf.Len() == 0 {
		return true
	}
	return bitutil.BitIsSet(buf.Bytes(), i)
}

func concatVarWidth(mem memory.Allocator, a, b *Data, offW int) (*memory.Buffer, *memory.Buffer, error) {
	aOff, bOff := a.buffers[1].Bytes(), b.buffers[1].Bytes()
	aEnd := readOffset(aOff, a.length, offW)
	bStart := readOffset(bOff, 0, offW)
	bLen := readOffset(bOff, b.length, offW) - bStart

	dataLen, ok := overflow.Add64(aEnd, bLen)
	if !ok || (offW == 4 && dataLen > int64(1)<<31-1) {
		return nil, nil, xerrors.New("array: concat offsets overflow")
	}

	offsets := memory.NewResizableBuffer(mem)
	offsets.Resize((a.length + b.length + 1) * offW)
	dst := offsets.Bytes()
	for i := 0; i <= a.length; i++ {
		writeOffset(dst, i, offW, readOffset(aOff, i, offW))
	}
	for i := 1; i <= b.length; i++ {
		writeOffset(dst, a.length+i, offW, aEnd+readOffset(bOff, i, offW)-bStart)
	}

	values := memory.NewResizableBuffer(mem)
	values.Resize(int(dataLen))
	copy(values.Bytes(), a.buffers[2].Bytes()[:aEnd])
	copy(values.Bytes()[aEnd:], b.buffers[2].Bytes()[bStart:bStart+bLen])
	return offsets, values, nil
}

func readOffset(b []byte, i, w int) int64 {
	if w == 4 {
		return int64(int32(binary.LittleEndian.Uint32(b[4*i:])))
	}
	return int64(binary.LittleEndian.Uint64(b[8*i:]))
}

func writeOffset(b []byte, i, w int, v int64) {
	if w == 4 {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(v))
		return
	}
	binary.LittleEndian.PutUint64(b[8*i:], uint64(v))
}
