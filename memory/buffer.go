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

package memory

import "sync/atomic"

// Buffer is a reference-counted slice of memory. A Buffer either owns its
// bytes through an Allocator, or is a non-owning view over bytes whose
// lifetime is tied to a parent Buffer or to the caller.
type Buffer struct {
	refCount int64
	buf      []byte
	length   int
	mutable  bool
	mem      Allocator

	parent *Buffer
}

// NewBufferBytes creates a fixed-size, non-owning buffer over data. The
// caller keeps data alive for the lifetime of the buffer.
func NewBufferBytes(data []byte) *Buffer {
	return &Buffer{refCount: 1, buf: data, length: len(data)}
}

// NewResizableBuffer creates a mutable, resizable buffer with an initial
// size of 0, backed by mem.
func NewResizableBuffer(mem Allocator) *Buffer {
	return &Buffer{refCount: 1, mutable: true, mem: mem}
}

// SliceBuffer returns a non-owning view of length l starting at offset into
// buf. The returned buffer retains buf and releases it when its own
// reference count drops to zero.
func SliceBuffer(buf *Buffer, offset, length int) *Buffer {
	buf.Retain()
	return &Buffer{
		refCount: 1,
		buf:      buf.Bytes()[offset : offset+length : offset+length],
		length:   length,
		parent:   buf,
	}
}

// Parent returns the buffer this view was sliced from, or nil.
func (b *Buffer) Parent() *Buffer { return b.parent }

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (b *Buffer) Retain() {
	if b.mem != nil || b.parent != nil {
		atomic.AddInt64(&b.refCount, 1)
	}
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
// Release may be called simultaneously from multiple goroutines.
func (b *Buffer) Release() {
	if b.mem == nil && b.parent == nil {
		return
	}

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		if b.mem != nil {
			b.mem.Free(b.buf)
		} else {
			b.parent.Release()
			b.parent = nil
		}
		b.buf, b.length = nil, 0
	}
}

// Reset makes the buffer a non-owning view over data, dropping any bytes it
// previously held.
func (b *Buffer) Reset(data []byte) {
	if b.mem != nil {
		b.mem.Free(b.buf)
		b.mem = nil
	}
	b.buf = data
	b.length = len(data)
}

// Buf returns the full backing slice, including any capacity beyond Len.
func (b *Buffer) Buf() []byte { return b.buf }

// Bytes returns the bytes of the buffer up to its length.
func (b *Buffer) Bytes() []byte { return b.buf[:b.length] }

func (b *Buffer) Len() int      { return b.length }
func (b *Buffer) Cap() int      { return len(b.buf) }
func (b *Buffer) Mutable() bool { return b.mutable }

// Resize grows or shrinks a resizable buffer to newSize bytes.
//
// Resize panics if the buffer is not resizable.
func (b *Buffer) Resize(newSize int) {
	b.resize(newSize, true)
}

// ResizeNoShrink grows the buffer to at least newSize bytes without ever
// releasing capacity.
func (b *Buffer) ResizeNoShrink(newSize int) {
	b.resize(newSize, false)
}

func (b *Buffer) resize(newSize int, shrink bool) {
	if !b.mutable {
		panic("memory: not a resizable buffer")
	}

	if !shrink || newSize > b.length {
		b.reserve(newSize)
	} else if newSize < b.length {
		// shrink only when releasing at least half of the capacity
		if newSize == 0 {
			b.mem.Free(b.buf)
			b.buf = nil
		} else if diff := b.length - newSize; diff*2 >= b.Cap() {
			newCap := roundUpToMultipleOf64(newSize)
			b.buf = b.mem.Reallocate(newCap, b.buf)
		}
	}
	b.length = newSize
}

func (b *Buffer) reserve(capacity int) {
	if capacity > len(b.buf) {
		newCap := roundUpToMultipleOf64(capacity)
		if len(b.buf) == 0 {
			b.buf = b.mem.Allocate(newCap)
		} else {
			b.buf = b.mem.Reallocate(newCap, b.buf)
		}
	}
}
