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

package ipc

import (
	"context"
	"io"
	"sync/atomic"

	"golang.org/x/xerrors"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/array"
	"github.com/columnlab/arrowcol/internal/debug"
)

// Reader reads records from a framed stream. The first message must be the
// schema; dictionary batches may arrive any time before the record batches
// that use them, with base batches replacing and deltas appending.
type Reader struct {
	msgs     *MessageReader
	cfg      *config
	schema   *arrowcol.Schema
	registry *Registry
	planner  *planner

	refCount int64
	rec      *array.Record
	err      error
	done     bool
}

// NewReader returns a stream reader. It reads the schema message eagerly and
// fails with ErrFormat when the stream does not start with one.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	cfg := newConfig(opts...)
	rd := &Reader{
		msgs:     NewMessageReader(r, opts...),
		cfg:      cfg,
		refCount: 1,
	}
	if err := rd.readSchema(); err != nil {
		rd.msgs.Release()
		return nil, err
	}
	return rd, nil
}

func (r *Reader) readSchema() error {
	msg, err := r.msgs.Message()
	if err != nil {
		if err == io.EOF {
			return xerrors.Errorf("stream ended before a schema message: %w", ErrFormat)
		}
		return err
	}
	if msg.Kind() != MessageSchema {
		return xerrors.Errorf("stream opened with a %v message, want schema: %w", msg.Kind(), ErrFormat)
	}
	r.schema = msg.Header().Schema
	r.registry = NewRegistry(r.schema, r.cfg.alloc)
	r.planner = newPlanner(r.schema, r.cfg)
	return nil
}

// Schema returns the schema of the stream.
func (r *Reader) Schema() *arrowcol.Schema { return r.schema }

// Err returns the last error encountered by Next.
func (r *Reader) Err() error { return r.err }

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (r *Reader) Retain() {
	atomic.AddInt64(&r.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, held records and dictionaries are
// released.
func (r *Reader) Release() {
	debug.Assert(atomic.LoadInt64(&r.refCount) > 0, "too many releases")

	if atomic.AddInt64(&r.refCount, -1) == 0 {
		if r.rec != nil {
			r.rec.Release()
			r.rec = nil
		}
		if r.registry != nil {
			r.registry.Release()
		}
		r.msgs.Release()
	}
}

// Next advances to the next record. It returns false at end of stream or on
// error; Err distinguishes the two.
func (r *Reader) Next() bool {
	return r.next(context.Background())
}

func (r *Reader) next(ctx context.Context) bool {
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}
	if r.done || r.err != nil {
		return false
	}

	for {
		msg, err := r.msgs.Message()
		if err != nil {
			if err == io.EOF {
				r.done = true
			} else {
				r.err = err
			}
			return false
		}

		switch msg.Kind() {
		case MessageDictionaryBatch:
			if r.err = r.applyDictionary(ctx, msg); r.err != nil {
				return false
			}

		case MessageRecordBatch:
			rec, err := r.readRecord(ctx, msg)
			if err != nil {
				r.err = err
				return false
			}
			r.rec = rec
			return true

		default:
			r.err = xerrors.Errorf("unexpected %v message mid-stream: %w", msg.Kind(), ErrFormat)
			return false
		}
	}
}

// Record returns the current record. It is valid until the next call to
// Next; call Retain to keep it longer.
func (r *Reader) Record() *array.Record { return r.rec }

// Read returns the next record, or io.EOF at end of stream.
func (r *Reader) Read() (*array.Record, error) {
	if r.Next() {
		return r.rec, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	return nil, io.EOF
}

func (r *Reader) applyDictionary(ctx context.Context, msg *Message) error {
	hdr := msg.Header().Dictionary
	valueType, ok := r.registry.ValueType(hdr.ID)
	if !ok {
		return xerrors.Errorf("dictionary id %d not declared by the schema: %w", hdr.ID, ErrDictionary)
	}
	values, err := r.planner.PlanDictionary(ctx, valueType, hdr.Data, msg.Body())
	if err != nil {
		return err
	}
	defer values.Release()
	return r.registry.Apply(hdr, values)
}

func (r *Reader) readRecord(ctx context.Context, msg *Message) (*array.Record, error) {
	hdr := msg.Header().Record
	cols, err := r.planner.Plan(ctx, hdr, msg.Body())
	if err != nil {
		return nil, err
	}
	for _, col := range cols {
		if err := r.registry.Resolve(col); err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, err
		}
	}
	rec := array.NewRecord(r.schema, hdr.Length, cols)
	for _, col := range cols {
		col.Release()
	}
	return rec, nil
}
