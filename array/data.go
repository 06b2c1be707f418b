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

// Package array holds the decoded, zero-copy column representation produced
// by planning a record batch: Data trees of buffer views, and Column for
// reading logical values out of them.
package array

import (
	"sync/atomic"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/bitutil"
	"github.com/columnlab/arrowcol/internal/debug"
	"github.com/columnlab/arrowcol/memory"
)

// Data is one node of a decoded array: its type, the physical buffers the
// type's layout prescribes (entries may be nil when physically absent), and
// the child nodes of nested types. Buffers are non-owning views into the
// record batch body; Data retains them and the body outlives every view.
type Data struct {
	refCount   int64
	dtype      arrowcol.DataType
	length     int
	nulls      int
	buffers    []*memory.Buffer
	children   []*Data
	dictionary *Data
}

// NewData creates a Data, retaining every non-nil buffer and child.
func NewData(dtype arrowcol.DataType, length int, buffers []*memory.Buffer, children []*Data, nulls int) *Data {
	for _, b := range buffers {
		if b != nil {
			b.Retain()
		}
	}
	for _, child := range children {
		if child != nil {
			child.Retain()
		}
	}
	return &Data{
		refCount: 1,
		dtype:    dtype,
		length:   length,
		nulls:    nulls,
		buffers:  buffers,
		children: children,
	}
}

// Retain increases the reference count by 1.
func (d *Data) Retain() { atomic.AddInt64(&d.refCount, 1) }

// Release decreases the reference count by 1. When it reaches zero all
// buffers, children and the dictionary are released.
func (d *Data) Release() {
	debug.Assert(atomic.LoadInt64(&d.refCount) > 0, "too many releases")

	if atomic.AddInt64(&d.refCount, -1) != 0 {
		return
	}
	for _, b := range d.buffers {
		if b != nil {
			b.Release()
		}
	}
	for _, child := range d.children {
		if child != nil {
			child.Release()
		}
	}
	if d.dictionary != nil {
		d.dictionary.Release()
	}
	d.buffers, d.children, d.dictionary = nil, nil, nil
}

func (d *Data) DataType() arrowcol.DataType { return d.dtype }
func (d *Data) Len() int                    { return d.length }
func (d *Data) NullN() int                  { return d.nulls }
func (d *Data) Buffers() []*memory.Buffer   { return d.buffers }
func (d *Data) Children() []*Data           { return d.children }

// Dictionary returns the resolved dictionary values of a dictionary-encoded
// node, or nil before resolution.
func (d *Data) Dictionary() *Data { return d.dictionary }

// SetDictionary attaches (and retains) the dictionary value array.
func (d *Data) SetDictionary(dict *Data) {
	if d.dictionary != nil {
		d.dictionary.Release()
	}
	if dict != nil {
		dict.Retain()
	}
	d.dictionary = dict
}

// IsNull reports whether value i is null.
func (d *Data) IsNull(i int) bool {
	if _, ok := d.dtype.(*arrowcol.NullType); ok {
		return true
	}
	if d.nulls == 0 {
		return false
	}
	bitmap := d.buffers[0]
	if bitmap == nil || bitmap.Len() == 0 {
		// no validity bitmap: every value is valid
		return false
	}
	return !bitutil.BitIsSet(bitmap.Bytes(), i)
}

// IsValid reports whether value i is non-null.
func (d *Data) IsValid(i int) bool { return !d.IsNull(i) }
