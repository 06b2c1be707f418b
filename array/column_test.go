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

package array_test

import (
	"encoding/binary"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/array"
	"github.com/columnlab/arrowcol/bitutil"
	"github.com/columnlab/arrowcol/memory"
)

func bitmapOf(n int, valid ...int) *memory.Buffer {
	b := make([]byte, bitutil.BytesForBits(int64(n)))
	for _, i := range valid {
		bitutil.SetBit(b, i)
	}
	return memory.NewBufferBytes(b)
}

func int32Buf(vs ...int32) *memory.Buffer {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(v))
	}
	return memory.NewBufferBytes(b)
}

func int64Buf(vs ...int64) *memory.Buffer {
	b := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(b[8*i:], uint64(v))
	}
	return memory.NewBufferBytes(b)
}

func float64Buf(vs ...float64) *memory.Buffer {
	b := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v))
	}
	return memory.NewBufferBytes(b)
}

// stringData builds a utf8 Data from values, with nulls at the given rows.
func stringData(t *testing.T, values []string, nulls ...int) *array.Data {
	t.Helper()
	n := len(values)
	isNull := make(map[int]bool, len(nulls))
	for _, i := range nulls {
		isNull[i] = true
	}

	offsets := make([]int32, 0, n+1)
	offsets = append(offsets, 0)
	var data []byte
	for i, v := range values {
		if !isNull[i] {
			data = append(data, v...)
		}
		offsets = append(offsets, int32(len(data)))
	}

	var validity *memory.Buffer
	if len(nulls) > 0 {
		valid := make([]int, 0, n)
		for i := 0; i < n; i++ {
			if !isNull[i] {
				valid = append(valid, i)
			}
		}
		validity = bitmapOf(n, valid...)
	}
	return array.NewData(&arrowcol.StringType{}, n,
		[]*memory.Buffer{validity, int32Buf(offsets...), memory.NewBufferBytes(data)},
		nil, len(nulls))
}

func TestColumnInt64(t *testing.T) {
	data := array.NewData(arrowcol.PrimitiveTypes.Int64, 4,
		[]*memory.Buffer{bitmapOf(4, 0, 1, 3), int64Buf(10, -20, 0, 40)},
		nil, 1)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, []any{int64(10), int64(-20), nil, int64(40)}, col.Values())
	assert.True(t, col.IsNull(2))
	assert.Equal(t, 1, col.NullN())
}

func TestColumnInt64BigIntCoercion(t *testing.T) {
	data := array.NewData(arrowcol.PrimitiveTypes.Int64, 1,
		[]*memory.Buffer{nil, int64Buf(41)}, nil, 0)
	defer data.Release()

	col := array.NewColumnWithOptions(data, array.CoerceOptions{UseBigInt: true})
	assert.Equal(t, big.NewInt(41), col.Value(0))
}

func TestColumnBool(t *testing.T) {
	values := []byte{0b00000101} // rows 0 and 2 true
	data := array.NewData(&arrowcol.BooleanType{}, 3,
		[]*memory.Buffer{nil, memory.NewBufferBytes(values)}, nil, 0)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, []any{true, false, true}, col.Values())
}

func TestColumnFloat16(t *testing.T) {
	// 1.0 and -2.0 as IEEE half floats
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b[0:], 0x3C00)
	binary.LittleEndian.PutUint16(b[2:], 0xC000)
	data := array.NewData(arrowcol.PrimitiveTypes.Float16, 2,
		[]*memory.Buffer{nil, memory.NewBufferBytes(b)}, nil, 0)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, float32(1.0), col.Value(0))
	assert.Equal(t, float32(-2.0), col.Value(1))
}

func TestColumnFloat64(t *testing.T) {
	data := array.NewData(arrowcol.PrimitiveTypes.Float64, 2,
		[]*memory.Buffer{nil, float64Buf(1.5, -2.25)}, nil, 0)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, []any{1.5, -2.25}, col.Values())
}

func TestColumnDecimal128(t *testing.T) {
	raw := make([]byte, 32)
	raw[0] = 123 // 123 little-endian
	for i := 16; i < 32; i++ {
		raw[i] = 0xFF // -1 in two's complement
	}
	data := array.NewData(&arrowcol.DecimalType{Precision: 10, Scale: 2, Width: 128}, 2,
		[]*memory.Buffer{nil, memory.NewBufferBytes(raw)}, nil, 0)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, 0, big.NewInt(123).Cmp(col.Value(0).(*big.Int)))
	assert.Equal(t, 0, big.NewInt(-1).Cmp(col.Value(1).(*big.Int)))
}

func TestColumnString(t *testing.T) {
	data := stringData(t, []string{"a", "", "bc", "def"}, 1)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, []any{"a", nil, "bc", "def"}, col.Values())
}

func TestColumnTimestampCoercion(t *testing.T) {
	ts := time.Date(2024, 5, 17, 12, 30, 0, 0, time.UTC)
	data := array.NewData(&arrowcol.TimestampType{Unit: arrowcol.Millisecond, TimeZone: "UTC"}, 1,
		[]*memory.Buffer{nil, int64Buf(ts.UnixMilli())}, nil, 0)
	defer data.Release()

	raw := array.NewColumn(data)
	assert.Equal(t, ts.UnixMilli(), raw.Value(0))

	coerced := array.NewColumnWithOptions(data, array.CoerceOptions{UseDate: true})
	assert.Equal(t, ts, coerced.Value(0))
}

func TestColumnDate32Coercion(t *testing.T) {
	data := array.NewData(&arrowcol.DateType{Unit: arrowcol.DateDay}, 1,
		[]*memory.Buffer{nil, int32Buf(19_000)}, nil, 0)
	defer data.Release()

	raw := array.NewColumn(data)
	assert.Equal(t, int32(19_000), raw.Value(0))

	coerced := array.NewColumnWithOptions(data, array.CoerceOptions{UseDate: true})
	assert.Equal(t, time.Unix(19_000*86400, 0).UTC(), coerced.Value(0))
}

func TestColumnList(t *testing.T) {
	child := array.NewData(arrowcol.PrimitiveTypes.Int32, 5,
		[]*memory.Buffer{nil, int32Buf(1, 2, 3, 4, 5)}, nil, 0)
	defer child.Release()

	data := array.NewData(arrowcol.ListOf(arrowcol.PrimitiveTypes.Int32), 3,
		[]*memory.Buffer{bitmapOf(3, 0, 2), int32Buf(0, 2, 2, 5)},
		[]*array.Data{child}, 1)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, []any{int32(1), int32(2)}, col.Value(0))
	assert.Nil(t, col.Value(1))
	assert.Equal(t, []any{int32(3), int32(4), int32(5)}, col.Value(2))
}

func TestColumnFixedSizeList(t *testing.T) {
	child := array.NewData(arrowcol.PrimitiveTypes.Int32, 4,
		[]*memory.Buffer{nil, int32Buf(1, 2, 3, 4)}, nil, 0)
	defer child.Release()

	data := array.NewData(arrowcol.FixedSizeListOf(2, arrowcol.PrimitiveTypes.Int32), 2,
		[]*memory.Buffer{nil}, []*array.Data{child}, 0)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, []any{int32(1), int32(2)}, col.Value(0))
	assert.Equal(t, []any{int32(3), int32(4)}, col.Value(1))
}

func TestColumnStruct(t *testing.T) {
	ints := array.NewData(arrowcol.PrimitiveTypes.Int32, 2,
		[]*memory.Buffer{nil, int32Buf(7, 8)}, nil, 0)
	defer ints.Release()
	names := stringData(t, []string{"x", "y"})
	defer names.Release()

	dt := arrowcol.StructOf(
		arrowcol.Field{Name: "n", Type: arrowcol.PrimitiveTypes.Int32},
		arrowcol.Field{Name: "s", Type: &arrowcol.StringType{}},
	)
	data := array.NewData(dt, 2, []*memory.Buffer{nil}, []*array.Data{ints, names}, 0)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, map[string]any{"n": int32(7), "s": "x"}, col.Value(0))
	assert.Equal(t, map[string]any{"n": int32(8), "s": "y"}, col.Value(1))
}

func TestColumnDenseUnion(t *testing.T) {
	ints := array.NewData(arrowcol.PrimitiveTypes.Int32, 2,
		[]*memory.Buffer{nil, int32Buf(10, 20)}, nil, 0)
	defer ints.Release()
	strs := stringData(t, []string{"a"})
	defer strs.Release()

	dt := arrowcol.DenseUnionOf(
		[]arrowcol.Field{
			{Name: "i", Type: arrowcol.PrimitiveTypes.Int32},
			{Name: "s", Type: &arrowcol.StringType{}},
		},
		[]int8{2, 5},
	)
	typeIDs := memory.NewBufferBytes([]byte{2, 5, 2})
	offsets := int32Buf(0, 0, 1)
	data := array.NewData(dt, 3, []*memory.Buffer{typeIDs, offsets},
		[]*array.Data{ints, strs}, 0)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, []any{int32(10), "a", int32(20)}, col.Values())
}

func TestColumnSparseUnion(t *testing.T) {
	ints := array.NewData(arrowcol.PrimitiveTypes.Int32, 2,
		[]*memory.Buffer{nil, int32Buf(10, 20)}, nil, 0)
	defer ints.Release()
	strs := stringData(t, []string{"a", "b"})
	defer strs.Release()

	dt := arrowcol.SparseUnionOf(
		[]arrowcol.Field{
			{Name: "i", Type: arrowcol.PrimitiveTypes.Int32},
			{Name: "s", Type: &arrowcol.StringType{}},
		},
		nil,
	)
	typeIDs := memory.NewBufferBytes([]byte{0, 1})
	data := array.NewData(dt, 2, []*memory.Buffer{typeIDs},
		[]*array.Data{ints, strs}, 0)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, []any{int32(10), "b"}, col.Values())
}

func TestColumnMap(t *testing.T) {
	keys := stringData(t, []string{"a", "b", "c"})
	defer keys.Release()
	items := array.NewData(arrowcol.PrimitiveTypes.Int32, 3,
		[]*memory.Buffer{nil, int32Buf(1, 2, 3)}, nil, 0)
	defer items.Release()

	dt := arrowcol.MapOf(&arrowcol.StringType{}, arrowcol.PrimitiveTypes.Int32)
	entries := array.NewData(dt.ValueType(), 3, []*memory.Buffer{nil},
		[]*array.Data{keys, items}, 0)
	defer entries.Release()

	data := array.NewData(dt, 2, []*memory.Buffer{nil, int32Buf(0, 1, 3)},
		[]*array.Data{entries}, 0)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, []array.MapEntry{{Key: "a", Value: int32(1)}}, col.Value(0))

	coerced := array.NewColumnWithOptions(data, array.CoerceOptions{UseMap: true})
	assert.Equal(t, map[any]any{"b": int32(2), "c": int32(3)}, coerced.Value(1))
}

func TestColumnDictionary(t *testing.T) {
	dict := stringData(t, []string{"red", "green", "blue"})
	defer dict.Release()

	dt := arrowcol.DictOf(1, &arrowcol.StringType{})
	keys := int32Buf(2, 0, 0, 1)
	data := array.NewData(dt, 4, []*memory.Buffer{bitmapOf(4, 0, 1, 3), keys}, nil, 1)
	defer data.Release()
	data.SetDictionary(dict)

	col := array.NewColumn(data)
	assert.Equal(t, []any{"blue", "red", nil, "green"}, col.Values())
}

func TestColumnNull(t *testing.T) {
	data := array.NewData(arrowcol.Null, 3, []*memory.Buffer{nil}, nil, 3)
	defer data.Release()

	col := array.NewColumn(data)
	require.Equal(t, 3, col.Len())
	assert.Equal(t, []any{nil, nil, nil}, col.Values())
}

func TestColumnInterval(t *testing.T) {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint32(b[0:], uint32(3))         // months
	binary.LittleEndian.PutUint32(b[4:], uint32(11))        // days
	binary.LittleEndian.PutUint64(b[8:], uint64(1_000_000)) // nanos
	data := array.NewData(&arrowcol.IntervalType{Unit: arrowcol.MonthDayNanoInterval}, 1,
		[]*memory.Buffer{nil, memory.NewBufferBytes(b)}, nil, 0)
	defer data.Release()

	col := array.NewColumn(data)
	assert.Equal(t, array.MonthDayNano{Months: 3, Days: 11, Nanoseconds: 1_000_000}, col.Value(0))
}
