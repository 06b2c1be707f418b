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
	"io"
	"sort"

	"golang.org/x/xerrors"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/array"
	"github.com/columnlab/arrowcol/memory"
)

// Writer writes records as a framed stream: the schema message first, then
// the base dictionary batches of the first record, then record batches.
// Close writes the end-of-stream sentinel.
type Writer struct {
	w      io.Writer
	cfg    *config
	schema *arrowcol.Schema

	started    bool
	wroteDicts bool
	closed     bool
}

// NewWriter returns a stream writer for the given schema.
func NewWriter(w io.Writer, schema *arrowcol.Schema, opts ...Option) *Writer {
	if schema == nil {
		panic("arrowcol/ipc: writer with nil schema")
	}
	return &Writer{w: w, cfg: newConfig(opts...), schema: schema}
}

// Write writes one record. The record's schema must equal the writer's.
func (w *Writer) Write(rec *array.Record) error {
	if w.closed {
		return xerrors.Errorf("write on a closed stream: %w", ErrFormat)
	}
	if !rec.Schema().Equal(w.schema) {
		return xerrors.Errorf("record schema does not match the stream schema: %w", ErrFormat)
	}

	if !w.started {
		if err := w.writeSchema(); err != nil {
			return err
		}
		w.started = true
	}
	if !w.wroteDicts {
		if err := w.writeDictionaries(rec); err != nil {
			return err
		}
		w.wroteDicts = true
	}
	return w.writeRecord(rec)
}

// Close writes the end-of-stream sentinel. It does not close the underlying
// io.Writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if !w.started {
		if err := w.writeSchema(); err != nil {
			return err
		}
		w.started = true
	}
	w.closed = true
	_, err := writeEOS(w.w)
	return err
}

func (w *Writer) writeSchema() error {
	return w.writeMessage(&MessageHeader{
		Version: w.cfg.version,
		Kind:    MessageSchema,
		Schema:  w.schema,
	}, nil)
}

func (w *Writer) writeDictionaries(rec *array.Record) error {
	dicts := make(map[int64]*array.Data)
	for _, col := range rec.Columns() {
		collectDictionaries(col, dicts)
	}

	ids := make([]int64, 0, len(w.schema.DictionaryTypes()))
	for id := range w.schema.DictionaryTypes() {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		values, ok := dicts[id]
		if !ok {
			return xerrors.Errorf("record carries no values for dictionary id %d: %w", id, ErrDictionary)
		}
		asm := newAssembler(w.cfg.compression, w.schema.Version())
		if err := asm.visit(values); err != nil {
			return err
		}
		hdr := &MessageHeader{
			Version: w.cfg.version,
			Kind:    MessageDictionaryBatch,
			Dictionary: &DictionaryBatchHeader{
				ID:   id,
				Data: asm.header(int64(values.Len())),
			},
		}
		if err := w.writeMessage(hdr, asm.chunks); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeRecord(rec *array.Record) error {
	asm := newAssembler(w.cfg.compression, w.schema.Version())
	for _, col := range rec.Columns() {
		if err := asm.visit(col); err != nil {
			return err
		}
	}
	hdr := &MessageHeader{
		Version: w.cfg.version,
		Kind:    MessageRecordBatch,
		Record:  asm.header(rec.NumRows()),
	}
	return w.writeMessage(hdr, asm.chunks)
}

func (w *Writer) writeMessage(hdr *MessageHeader, chunks [][]byte) error {
	var bodyLen int64
	for _, c := range chunks {
		bodyLen += int64(paddedTo(len(c), frameAlign))
	}
	hdr.BodyLength = bodyLen

	meta, err := w.cfg.codec.EncodeMessage(hdr)
	if err != nil {
		return err
	}
	if _, err := writeMessageFrame(w.w, meta); err != nil {
		return err
	}
	for _, c := range chunks {
		if _, err := w.w.Write(c); err != nil {
			return err
		}
		if pad := paddedTo(len(c), frameAlign) - len(c); pad > 0 {
			if _, err := w.w.Write(paddingBytes[:pad]); err != nil {
				return err
			}
		}
	}
	return nil
}

func collectDictionaries(data *array.Data, out map[int64]*array.Data) {
	if dt, ok := data.DataType().(*arrowcol.DictionaryType); ok {
		if dict := data.Dictionary(); dict != nil {
			out[dt.DictID] = dict
		}
	}
	for _, child := range data.Children() {
		collectDictionaries(child, out)
	}
}

// assembler flattens a Data tree into the node list, buffer region list and
// body chunks of a record batch, mirroring the planner's consumption order.
type assembler struct {
	compression CompressionType
	version     arrowcol.MetadataVersion

	nodes   []FieldNode
	buffers []BufferRegion
	chunks  [][]byte
	offset  int64
}

func newAssembler(compression CompressionType, version arrowcol.MetadataVersion) *assembler {
	return &assembler{compression: compression, version: version}
}

func (a *assembler) header(length int64) *RecordBatchHeader {
	hdr := &RecordBatchHeader{Length: length, Nodes: a.nodes, Buffers: a.buffers}
	if a.compression != CompressionNone {
		hdr.Compression = &BodyCompression{Codec: a.compression}
	}
	return hdr
}

func (a *assembler) visit(data *array.Data) error {
	a.nodes = append(a.nodes, FieldNode{
		Length:    int64(data.Len()),
		NullCount: int64(data.NullN()),
	})

	layout := data.DataType().Layout().Buffers
	bufs := data.Buffers()

	// unions at pre-V5 versions carry a validity bitmap before the type ids
	if _, ok := data.DataType().(*arrowcol.UnionType); ok && a.version < arrowcol.MetadataV5 {
		var validity *memory.Buffer
		if len(bufs) > len(layout) {
			validity, bufs = bufs[0], bufs[1:]
		}
		if err := a.addBuffer(validity); err != nil {
			return err
		}
	} else if len(bufs) > len(layout) {
		bufs = bufs[1:]
	}

	if len(bufs) != len(layout) {
		return xerrors.Errorf("%v column holds %d buffers, layout has %d: %w",
			data.DataType(), len(bufs), len(layout), ErrLayout)
	}
	for i, spec := range layout {
		if spec.Kind == arrowcol.KindAlwaysNull {
			continue
		}
		if err := a.addBuffer(bufs[i]); err != nil {
			return err
		}
	}

	for _, child := range data.Children() {
		if err := a.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (a *assembler) addBuffer(b *memory.Buffer) error {
	var raw []byte
	if b != nil {
		raw = b.Bytes()
	}
	if len(raw) == 0 {
		a.buffers = append(a.buffers, BufferRegion{Offset: a.offset, Length: 0})
		return nil
	}

	if a.compression != CompressionNone {
		framed, err := compressBuffer(a.compression, raw)
		if err != nil {
			return err
		}
		raw = framed
	}
	a.buffers = append(a.buffers, BufferRegion{Offset: a.offset, Length: int64(len(raw))})
	a.chunks = append(a.chunks, raw)
	a.offset += int64(paddedTo(len(raw), frameAlign))
	return nil
}
