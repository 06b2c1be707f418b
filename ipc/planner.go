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

	"github.com/JohnCGriffin/overflow"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/array"
	"github.com/columnlab/arrowcol/memory"
)

// planner re-associates the flattened node and buffer lists of a record
// batch header with the schema's type tree, producing zero-copy Data views
// into the message body.
//
// Nodes and buffers are consumed in depth-first preorder. Because the
// consumption counts are fully determined by the types, the planner first
// partitions both lists per top-level field and then decodes fields
// concurrently.
type planner struct {
	schema *arrowcol.Schema
	mem    memory.Allocator

	noParallel bool
}

func newPlanner(schema *arrowcol.Schema, cfg *config) *planner {
	return &planner{schema: schema, mem: cfg.alloc, noParallel: cfg.noParallel}
}

// nodeCounts returns how many field nodes and buffer entries a value of
// type dt occupies in a record batch written at the given version.
func nodeCounts(dt arrowcol.DataType, version arrowcol.MetadataVersion) (nodes, bufs int) {
	nodes = 1
	for _, spec := range dt.Layout().Buffers {
		if spec.Kind != arrowcol.KindAlwaysNull {
			bufs++
		}
	}
	// unions written before V5 carry a validity bitmap
	if _, ok := dt.(*arrowcol.UnionType); ok && version < arrowcol.MetadataV5 {
		bufs++
	}
	if nested, ok := dt.(arrowcol.NestedType); ok {
		for _, f := range nested.Fields() {
			n, b := nodeCounts(f.Type, version)
			nodes += n
			bufs += b
		}
	}
	return nodes, bufs
}

// Plan decodes a record batch body into one Data tree per schema field.
func (p *planner) Plan(ctx context.Context, hdr *RecordBatchHeader, body *memory.Buffer) ([]*array.Data, error) {
	if hdr.Length < 0 {
		return nil, xerrors.Errorf("record batch with negative length %d: %w", hdr.Length, ErrLayout)
	}

	fields := p.schema.Fields()
	type span struct{ node, buf, nNodes, nBufs int }
	spans := make([]span, len(fields))

	nodeAt, bufAt := 0, 0
	for i, f := range fields {
		n, b := nodeCounts(f.Type, p.schema.Version())
		spans[i] = span{node: nodeAt, buf: bufAt, nNodes: n, nBufs: b}
		nodeAt += n
		bufAt += b
	}
	if nodeAt != len(hdr.Nodes) {
		return nil, xerrors.Errorf("schema requires %d field nodes, batch has %d: %w",
			nodeAt, len(hdr.Nodes), ErrLayout)
	}
	if bufAt != len(hdr.Buffers) {
		return nil, xerrors.Errorf("schema requires %d buffers, batch has %d: %w",
			bufAt, len(hdr.Buffers), ErrLayout)
	}

	compression := CompressionNone
	if hdr.Compression != nil {
		compression = hdr.Compression.Codec
	}

	cols := make([]*array.Data, len(fields))
	decodeField := func(i int) error {
		dec := &fieldDecoder{
			version:     p.schema.Version(),
			mem:         p.mem,
			compression: compression,
			body:        body,
			nodes:       hdr.Nodes[spans[i].node : spans[i].node+spans[i].nNodes],
			buffers:     hdr.Buffers[spans[i].buf : spans[i].buf+spans[i].nBufs],
		}
		data, err := dec.decode(fields[i].Type)
		if err != nil {
			return err
		}
		if data.Len() != int(hdr.Length) {
			data.Release()
			return xerrors.Errorf("field %q has %d rows, batch has %d: %w",
				fields[i].Name, data.Len(), hdr.Length, ErrLayout)
		}
		cols[i] = data
		return nil
	}

	var err error
	if p.noParallel || len(fields) < 2 {
		for i := range fields {
			if err = decodeField(i); err != nil {
				break
			}
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		for i := range fields {
			i := i
			g.Go(func() error { return decodeField(i) })
		}
		err = g.Wait()
	}
	if err != nil {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
		return nil, err
	}
	return cols, nil
}

// PlanDictionary decodes the single-column payload of a dictionary batch
// into the value array of the given value type.
func (p *planner) PlanDictionary(ctx context.Context, valueType arrowcol.DataType, hdr *RecordBatchHeader, body *memory.Buffer) (*array.Data, error) {
	nNodes, nBufs := nodeCounts(valueType, p.schema.Version())
	if nNodes != len(hdr.Nodes) || nBufs != len(hdr.Buffers) {
		return nil, xerrors.Errorf("dictionary payload needs %d nodes and %d buffers, has %d and %d: %w",
			nNodes, nBufs, len(hdr.Nodes), len(hdr.Buffers), ErrLayout)
	}
	compression := CompressionNone
	if hdr.Compression != nil {
		compression = hdr.Compression.Codec
	}
	dec := &fieldDecoder{
		version:     p.schema.Version(),
		mem:         p.mem,
		compression: compression,
		body:        body,
		nodes:       hdr.Nodes,
		buffers:     hdr.Buffers,
	}
	data, err := dec.decode(valueType)
	if err != nil {
		return nil, err
	}
	if data.Len() != int(hdr.Length) {
		data.Release()
		return nil, xerrors.Errorf("dictionary values have %d rows, batch declares %d: %w",
			data.Len(), hdr.Length, ErrLayout)
	}
	return data, nil
}

// fieldDecoder consumes the node/buffer span of one top-level field.
type fieldDecoder struct {
	version     arrowcol.MetadataVersion
	mem         memory.Allocator
	compression CompressionType
	body        *memory.Buffer

	nodes   []FieldNode
	buffers []BufferRegion
}

func (d *fieldDecoder) nextNode() (FieldNode, error) {
	if len(d.nodes) == 0 {
		return FieldNode{}, xerrors.Errorf("ran out of field nodes: %w", ErrLayout)
	}
	node := d.nodes[0]
	d.nodes = d.nodes[1:]
	if node.Length < 0 || node.NullCount < 0 || node.NullCount > node.Length {
		return FieldNode{}, xerrors.Errorf("field node length=%d null_count=%d: %w",
			node.Length, node.NullCount, ErrLayout)
	}
	return node, nil
}

// nextBuffer consumes a buffer region, validating it against the body and
// decompressing it when the batch is compressed. The returned buffer is
// retained for the caller; a zero-length region yields nil.
func (d *fieldDecoder) nextBuffer() (*memory.Buffer, error) {
	if len(d.buffers) == 0 {
		return nil, xerrors.Errorf("ran out of buffers: %w", ErrLayout)
	}
	region := d.buffers[0]
	d.buffers = d.buffers[1:]

	if region.Offset < 0 || region.Length < 0 {
		return nil, xerrors.Errorf("buffer region offset=%d length=%d: %w",
			region.Offset, region.Length, ErrLayout)
	}
	end, ok := overflow.Add64(region.Offset, region.Length)
	if !ok || end > int64(d.body.Len()) {
		return nil, xerrors.Errorf("buffer region [%d, %d+%d) outside body of %d bytes: %w",
			region.Offset, region.Offset, region.Length, d.body.Len(), ErrLayout)
	}
	if region.Length == 0 {
		return nil, nil
	}
	if d.compression != CompressionNone {
		return decompressBuffer(d.compression, d.body.Bytes()[region.Offset:end], d.mem)
	}
	return memory.SliceBuffer(d.body, int(region.Offset), int(region.Length)), nil
}

func (d *fieldDecoder) decode(dt arrowcol.DataType) (*array.Data, error) {
	node, err := d.nextNode()
	if err != nil {
		return nil, err
	}

	layout := dt.Layout().Buffers
	buffers := make([]*memory.Buffer, 0, len(layout)+1)
	releaseBuffers := func() {
		for _, b := range buffers {
			if b != nil {
				b.Release()
			}
		}
	}

	if _, ok := dt.(*arrowcol.UnionType); ok && d.version < arrowcol.MetadataV5 {
		buf, err := d.nextBuffer()
		if err != nil {
			return nil, err
		}
		buffers = append(buffers, buf)
	}

	for _, spec := range layout {
		if spec.Kind == arrowcol.KindAlwaysNull {
			// never materialized on the wire
			buffers = append(buffers, nil)
			continue
		}
		buf, err := d.nextBuffer()
		if err != nil {
			releaseBuffers()
			return nil, err
		}
		buffers = append(buffers, buf)
	}

	var children []*array.Data
	if nested, ok := dt.(arrowcol.NestedType); ok {
		children = make([]*array.Data, 0, len(nested.Fields()))
		for _, f := range nested.Fields() {
			child, err := d.decode(f.Type)
			if err != nil {
				for _, c := range children {
					c.Release()
				}
				releaseBuffers()
				return nil, err
			}
			children = append(children, child)
		}
	}

	nulls := int(node.NullCount)
	if _, ok := dt.(*arrowcol.NullType); ok {
		nulls = int(node.Length)
	}
	data := array.NewData(dt, int(node.Length), buffers, children, nulls)
	releaseBuffers()
	for _, c := range children {
		c.Release()
	}
	return data, nil
}
