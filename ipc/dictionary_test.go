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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/array"
	"github.com/columnlab/arrowcol/memory"
)

func stringValues(values ...string) *array.Data {
	offsets := make([]int32, 1, len(values)+1)
	var data []byte
	for _, v := range values {
		data = append(data, v...)
		offsets = append(offsets, int32(len(data)))
	}
	return array.NewData(&arrowcol.StringType{}, len(values),
		[]*memory.Buffer{nil, memory.NewBufferBytes(le32(offsets...)), memory.NewBufferBytes(data)},
		nil, 0)
}

func dictSchema() *arrowcol.Schema {
	return arrowcol.NewSchema([]arrowcol.Field{
		{Name: "color", Type: arrowcol.DictOf(1, &arrowcol.StringType{}), Nullable: true},
	}, nil)
}

func dictKeys(nulls []int, keys ...int32) *array.Data {
	n := len(keys)
	var validity *memory.Buffer
	if len(nulls) > 0 {
		b := make([]byte, (n+7)/8)
		for i := 0; i < n; i++ {
			b[i/8] |= 1 << (i % 8)
		}
		for _, i := range nulls {
			b[i/8] &^= 1 << (i % 8)
		}
		validity = memory.NewBufferBytes(b)
	}
	return array.NewData(arrowcol.DictOf(1, &arrowcol.StringType{}), n,
		[]*memory.Buffer{validity, memory.NewBufferBytes(le32(keys...))},
		nil, len(nulls))
}

func TestRegistryBaseAndDelta(t *testing.T) {
	mem := memory.NewGoAllocator()
	reg := NewRegistry(dictSchema(), mem)
	defer reg.Release()

	base := stringValues("a", "b")
	defer base.Release()
	require.NoError(t, reg.Apply(&DictionaryBatchHeader{ID: 1}, base))
	assert.Equal(t, 1, reg.NumDelivered())
	assert.Equal(t, 2, reg.Values(1).Len())

	delta := stringValues("c")
	defer delta.Release()
	require.NoError(t, reg.Apply(&DictionaryBatchHeader{ID: 1, IsDelta: true}, delta))
	require.Equal(t, 3, reg.Values(1).Len())

	// keys [0 2] resolve against the merged values
	keys := dictKeys(nil, 0, 2)
	defer keys.Release()
	require.NoError(t, reg.Resolve(keys))

	col := array.NewColumn(keys)
	assert.Equal(t, []any{"a", "c"}, col.Values())
}

func TestRegistryBaseReplaces(t *testing.T) {
	mem := memory.NewGoAllocator()
	reg := NewRegistry(dictSchema(), mem)
	defer reg.Release()

	first := stringValues("x", "y")
	defer first.Release()
	require.NoError(t, reg.Apply(&DictionaryBatchHeader{ID: 1}, first))

	second := stringValues("z")
	defer second.Release()
	require.NoError(t, reg.Apply(&DictionaryBatchHeader{ID: 1}, second))

	require.Equal(t, 1, reg.Values(1).Len())

	keys := dictKeys(nil, 0)
	defer keys.Release()
	require.NoError(t, reg.Resolve(keys))
	assert.Equal(t, []any{"z"}, array.NewColumn(keys).Values())
}

func TestRegistryDeltaBeforeBase(t *testing.T) {
	reg := NewRegistry(dictSchema(), memory.NewGoAllocator())
	defer reg.Release()

	delta := stringValues("a")
	defer delta.Release()
	err := reg.Apply(&DictionaryBatchHeader{ID: 1, IsDelta: true}, delta)
	assert.ErrorIs(t, err, ErrDictionary)
}

func TestRegistryUnknownID(t *testing.T) {
	reg := NewRegistry(dictSchema(), memory.NewGoAllocator())
	defer reg.Release()

	values := stringValues("a")
	defer values.Release()
	err := reg.Apply(&DictionaryBatchHeader{ID: 99}, values)
	assert.ErrorIs(t, err, ErrDictionary)
}

func TestRegistryValueTypeMismatch(t *testing.T) {
	reg := NewRegistry(dictSchema(), memory.NewGoAllocator())
	defer reg.Release()

	wrong := array.NewData(arrowcol.PrimitiveTypes.Int32, 1,
		[]*memory.Buffer{nil, memory.NewBufferBytes(le32(1))}, nil, 0)
	defer wrong.Release()
	err := reg.Apply(&DictionaryBatchHeader{ID: 1}, wrong)
	assert.ErrorIs(t, err, ErrDictionary)
}

func TestRegistryResolveUndelivered(t *testing.T) {
	reg := NewRegistry(dictSchema(), memory.NewGoAllocator())
	defer reg.Release()

	keys := dictKeys(nil, 0)
	defer keys.Release()
	err := reg.Resolve(keys)
	assert.ErrorIs(t, err, ErrDictionary)
}

func TestRegistryKeyOutOfRange(t *testing.T) {
	reg := NewRegistry(dictSchema(), memory.NewGoAllocator())
	defer reg.Release()

	values := stringValues("a", "b")
	defer values.Release()
	require.NoError(t, reg.Apply(&DictionaryBatchHeader{ID: 1}, values))

	keys := dictKeys(nil, 0, 5)
	defer keys.Release()
	err := reg.Resolve(keys)
	assert.ErrorIs(t, err, ErrDictionary)
}

func TestRegistryNullKeysSkipped(t *testing.T) {
	reg := NewRegistry(dictSchema(), memory.NewGoAllocator())
	defer reg.Release()

	values := stringValues("a")
	defer values.Release()
	require.NoError(t, reg.Apply(&DictionaryBatchHeader{ID: 1}, values))

	// row 1 is null and carries a garbage key
	keys := dictKeys([]int{1}, 0, 99)
	defer keys.Release()
	require.NoError(t, reg.Resolve(keys))

	assert.Equal(t, []any{"a", nil}, array.NewColumn(keys).Values())
}
