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
	"bytes"
	"io"

	"golang.org/x/xerrors"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/array"
)

// Magic marks the head and tail of a columnar file.
var Magic = []byte("ARROW1")

// FileReader reads the file format sequentially: the magic header followed
// by an embedded stream. The trailing random-access footer is ignored; the
// reader stops at the stream's end-of-stream sentinel.
type FileReader struct {
	stream *Reader
}

// NewFileReader validates the magic header and opens the embedded stream.
func NewFileReader(r io.Reader, opts ...Option) (*FileReader, error) {
	var head [8]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, xerrors.Errorf("not an Arrow file: %w", ErrFormat)
	}
	// magic is padded to 8 bytes before the first frame
	if !bytes.Equal(head[:6], Magic) || head[6] != 0 || head[7] != 0 {
		return nil, xerrors.Errorf("not an Arrow file: %w", ErrFormat)
	}

	stream, err := NewReader(r, opts...)
	if err != nil {
		return nil, err
	}
	return &FileReader{stream: stream}, nil
}

func (f *FileReader) Schema() *arrowcol.Schema { return f.stream.Schema() }
func (f *FileReader) Err() error               { return f.stream.Err() }

// Next advances to the next record, stopping at the end of the embedded
// stream.
func (f *FileReader) Next() bool { return f.stream.Next() }

// Record returns the current record, valid until the next call to Next.
func (f *FileReader) Record() *array.Record { return f.stream.Record() }

// Read returns the next record, or io.EOF past the last one.
func (f *FileReader) Read() (*array.Record, error) { return f.stream.Read() }

func (f *FileReader) Retain()  { f.stream.Retain() }
func (f *FileReader) Release() { f.stream.Release() }

// FileWriter writes the file format: the padded magic header followed by an
// embedded stream, closed by the trailing magic. No random-access footer is
// emitted; readers consume the stream sequentially.
type FileWriter struct {
	w      io.Writer
	stream *Writer
	opened bool
	closed bool
}

// NewFileWriter returns a writer emitting rec batches for the given schema.
// It panics when schema is nil, as NewWriter does.
func NewFileWriter(w io.Writer, schema *arrowcol.Schema, opts ...Option) *FileWriter {
	return &FileWriter{w: w, stream: NewWriter(w, schema, opts...)}
}

func (f *FileWriter) writeMagic() error {
	if f.opened {
		return nil
	}
	if _, err := f.w.Write(Magic); err != nil {
		return err
	}
	if _, err := f.w.Write([]byte{0, 0}); err != nil {
		return err
	}
	f.opened = true
	return nil
}

// Write appends rec to the file. The record's schema must match the writer's.
func (f *FileWriter) Write(rec *array.Record) error {
	if f.closed {
		return xerrors.Errorf("write to a closed file writer: %w", ErrFormat)
	}
	if err := f.writeMagic(); err != nil {
		return err
	}
	return f.stream.Write(rec)
}

// Close terminates the embedded stream and writes the trailing magic.
func (f *FileWriter) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.writeMagic(); err != nil {
		return err
	}
	if err := f.stream.Close(); err != nil {
		return err
	}
	_, err := f.w.Write(Magic)
	return err
}
