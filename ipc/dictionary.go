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
	"encoding/binary"

	"golang.org/x/exp/maps"
	"golang.org/x/xerrors"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/array"
	"github.com/columnlab/arrowcol/memory"
)

// Registry tracks dictionary value arrays across a stream. Ids are declared
// by the schema; the value arrays arrive later in dictionary batches, where
// a base batch replaces and a delta batch appends.
type Registry struct {
	mem    memory.Allocator
	types  map[int64]arrowcol.DataType
	values map[int64]*array.Data
}

// NewRegistry returns a registry for the dictionary ids the schema declares.
func NewRegistry(schema *arrowcol.Schema, mem memory.Allocator) *Registry {
	return &Registry{
		mem:    mem,
		types:  maps.Clone(schema.DictionaryTypes()),
		values: make(map[int64]*array.Data),
	}
}

// ValueType returns the declared value type of id.
func (r *Registry) ValueType(id int64) (arrowcol.DataType, bool) {
	dt, ok := r.types[id]
	return dt, ok
}

// Values returns the current value array of id, or nil when none arrived.
func (r *Registry) Values(id int64) *array.Data { return r.values[id] }

// NumDelivered reports how many declared ids have received values.
func (r *Registry) NumDelivered() int { return len(r.values) }

// Apply installs the values of one dictionary batch. A base batch replaces
// any previous values; a delta batch appends to them and requires a base to
// have arrived first. Apply retains data.
func (r *Registry) Apply(hdr *DictionaryBatchHeader, data *array.Data) error {
	if _, ok := r.types[hdr.ID]; !ok {
		return xerrors.Errorf("dictionary id %d not declared by the schema: %w", hdr.ID, ErrDictionary)
	}
	if !arrowcol.TypeEqual(r.types[hdr.ID], data.DataType()) {
		return xerrors.Errorf("dictionary id %d delivered %v values, declared %v: %w",
			hdr.ID, data.DataType(), r.types[hdr.ID], ErrDictionary)
	}

	if hdr.IsDelta {
		base, ok := r.values[hdr.ID]
		if !ok {
			return xerrors.Errorf("delta for dictionary id %d before its base: %w", hdr.ID, ErrDictionary)
		}
		merged, err := array.Concat(base, data, r.mem)
		if err != nil {
			return xerrors.Errorf("appending delta for dictionary id %d: %v: %w", hdr.ID, err, ErrDictionary)
		}
		base.Release()
		r.values[hdr.ID] = merged
		return nil
	}

	if prev, ok := r.values[hdr.ID]; ok {
		prev.Release()
	}
	data.Retain()
	r.values[hdr.ID] = data
	return nil
}

// Resolve walks a decoded column and attaches dictionary values to every
// dictionary-encoded node, validating that all ids were delivered and all
// non-null keys are in range.
func (r *Registry) Resolve(data *array.Data) error {
	if dt, ok := data.DataType().(*arrowcol.DictionaryType); ok {
		dict, delivered := r.values[dt.DictID]
		if !delivered {
			return xerrors.Errorf("no values arrived for dictionary id %d: %w", dt.DictID, ErrDictionary)
		}
		if err := validateKeys(data, dt.IndexType, dict.Len()); err != nil {
			return err
		}
		data.SetDictionary(dict)
	}
	for _, child := range data.Children() {
		if err := r.Resolve(child); err != nil {
			return err
		}
	}
	return nil
}

// Release drops every stored value array.
func (r *Registry) Release() {
	for _, v := range r.values {
		v.Release()
	}
	r.values = make(map[int64]*array.Data)
}

func validateKeys(data *array.Data, indexType *arrowcol.IntType, dictLen int) error {
	if data.Len() == 0 {
		return nil
	}
	keys := data.Buffers()[1]
	if keys == nil {
		if data.NullN() != data.Len() {
			return xerrors.Errorf("dictionary keys missing for %d non-null rows: %w",
				data.Len()-data.NullN(), ErrDictionary)
		}
		return nil
	}
	b := keys.Bytes()
	for i := 0; i < data.Len(); i++ {
		if data.IsNull(i) {
			continue
		}
		k := readIndex(indexType, b, i)
		if k < 0 || k >= int64(dictLen) {
			return xerrors.Errorf("dictionary key %d at row %d outside [0, %d): %w",
				k, i, dictLen, ErrDictionary)
		}
	}
	return nil
}

func readIndex(dt *arrowcol.IntType, b []byte, i int) int64 {
	if dt.Signed {
		switch dt.Width {
		case 8:
			return int64(int8(b[i]))
		case 16:
			return int64(int16(binary.LittleEndian.Uint16(b[2*i:])))
		case 32:
			return int64(int32(binary.LittleEndian.Uint32(b[4*i:])))
		default:
			return int64(binary.LittleEndian.Uint64(b[8*i:]))
		}
	}
	switch dt.Width {
	case 8:
		return int64(b[i])
	case 16:
		return int64(binary.LittleEndian.Uint16(b[2*i:]))
	case 32:
		return int64(binary.LittleEndian.Uint32(b[4*i:]))
	default:
		return int64(binary.LittleEndian.Uint64(b[8*i:]))
	}
}
