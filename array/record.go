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
	"sync/atomic"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/internal/debug"
)

// Record is one decoded record batch: a schema and one Data tree per
// top-level field, all sharing the batch's row count.
type Record struct {
	refCount int64
	schema   *arrowcol.Schema
	rows     int64
	cols     []*Data
}

// NewRecord creates a Record, retaining every column.
func NewRecord(schema *arrowcol.Schema, rows int64, cols []*Data) *Record {
	for _, c := range cols {
		c.Retain()
	}
	return &Record{refCount: 1, schema: schema, rows: rows, cols: cols}
}

// Retain increases the reference count by 1.
func (r *Record) Retain() { atomic.AddInt64(&r.refCount, 1) }

// Release decreases the reference count by 1. When it reaches zero the
// columns are released.
func (r *Record) Release() {
	debug.Assert(atomic.LoadInt64(&r.refCount) > 0, "too many releases")

	if atomic.AddInt64(&r.refCount, -1) != 0 {
		return
	}
	for _, c := range r.cols {
		c.Release()
	}
	r.cols = nil
}

func (r *Record) Schema() *arrowcol.Schema { return r.schema }
func (r *Record) NumRows() int64           { return r.rows }
func (r *Record) NumCols() int             { return len(r.cols) }
func (r *Record) Columns() []*Data         { return r.cols }

// Column returns the Data tree of field i.
func (r *Record) Column(i int) *Data { return r.cols[i] }

// ColumnName returns the name of field i.
func (r *Record) ColumnName(i int) string { return r.schema.Field(i).Name }
