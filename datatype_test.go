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

package arrowcol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeTagValues(t *testing.T) {
	// wire values of the type union, stable across releases
	assert.EqualValues(t, -1, DICTIONARY)
	assert.EqualValues(t, 0, NONE)
	assert.EqualValues(t, 1, NULL)
	assert.EqualValues(t, 2, INT)
	assert.EqualValues(t, 3, FLOAT)
	assert.EqualValues(t, 4, BINARY)
	assert.EqualValues(t, 5, UTF8)
	assert.EqualValues(t, 6, BOOL)
	assert.EqualValues(t, 7, DECIMAL)
	assert.EqualValues(t, 8, DATE)
	assert.EqualValues(t, 9, TIME)
	assert.EqualValues(t, 10, TIMESTAMP)
	assert.EqualValues(t, 11, INTERVAL)
	assert.EqualValues(t, 12, LIST)
	assert.EqualValues(t, 13, STRUCT)
	assert.EqualValues(t, 14, UNION)
	assert.EqualValues(t, 15, FIXED_SIZE_BINARY)
	assert.EqualValues(t, 16, FIXED_SIZE_LIST)
	assert.EqualValues(t, 17, MAP)
	assert.EqualValues(t, 18, DURATION)
	assert.EqualValues(t, 19, LARGE_BINARY)
	assert.EqualValues(t, 20, LARGE_UTF8)
	assert.EqualValues(t, 21, LARGE_LIST)
	assert.EqualValues(t, 26, LARGE_LIST_VIEW)
}

func TestLayoutSignatures(t *testing.T) {
	tests := []struct {
		dt   DataType
		want []BufferSpec
	}{
		{Null, []BufferSpec{SpecAlwaysNull()}},
		{&BooleanType{}, []BufferSpec{SpecBitmap(), SpecBitmap()}},
		{PrimitiveTypes.Int32, []BufferSpec{SpecBitmap(), SpecFixedWidth(4)}},
		{PrimitiveTypes.Uint64, []BufferSpec{SpecBitmap(), SpecFixedWidth(8)}},
		{PrimitiveTypes.Float16, []BufferSpec{SpecBitmap(), SpecFixedWidth(2)}},
		{&DecimalType{Precision: 10, Scale: 2, Width: 128}, []BufferSpec{SpecBitmap(), SpecFixedWidth(16)}},
		{&DecimalType{Precision: 40, Scale: 2, Width: 256}, []BufferSpec{SpecBitmap(), SpecFixedWidth(32)}},
		{FixedWidthTypes.Date32, []BufferSpec{SpecBitmap(), SpecFixedWidth(4)}},
		{FixedWidthTypes.Date64, []BufferSpec{SpecBitmap(), SpecFixedWidth(8)}},
		{FixedWidthTypes.MonthDayNanoInterval, []BufferSpec{SpecBitmap(), SpecFixedWidth(16)}},
		{&BinaryType{}, []BufferSpec{SpecBitmap(), SpecFixedWidth(4), SpecVariableWidth()}},
		{&LargeStringType{}, []BufferSpec{SpecBitmap(), SpecFixedWidth(8), SpecVariableWidth()}},
		{&FixedSizeBinaryType{ByteWidth: 9}, []BufferSpec{SpecBitmap(), SpecFixedWidth(9)}},
		{ListOf(PrimitiveTypes.Int8), []BufferSpec{SpecBitmap(), SpecFixedWidth(4)}},
		{LargeListOf(PrimitiveTypes.Int8), []BufferSpec{SpecBitmap(), SpecFixedWidth(8)}},
		{FixedSizeListOf(3, PrimitiveTypes.Int8), []BufferSpec{SpecBitmap()}},
		{StructOf(Field{Name: "a", Type: PrimitiveTypes.Int8}), []BufferSpec{SpecBitmap()}},
		{MapOf(&StringType{}, PrimitiveTypes.Int32), []BufferSpec{SpecBitmap(), SpecFixedWidth(4)}},
		{SparseUnionOf([]Field{{Name: "i", Type: PrimitiveTypes.Int8}}, nil), []BufferSpec{SpecFixedWidth(1)}},
		{DenseUnionOf([]Field{{Name: "i", Type: PrimitiveTypes.Int8}}, nil), []BufferSpec{SpecFixedWidth(1), SpecFixedWidth(4)}},
		{DictOf(7, &StringType{}), []BufferSpec{SpecBitmap(), SpecFixedWidth(4)}},
	}
	for _, tc := range tests {
		t.Run(tc.dt.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.dt.Layout().Buffers)
		})
	}
}

func TestIntTypeValidate(t *testing.T) {
	for _, w := range []int{8, 16, 32, 64} {
		assert.NoError(t, (&IntType{Width: w, Signed: true}).Validate())
	}
	assert.Error(t, (&IntType{Width: 12}).Validate())
	assert.Error(t, (&IntType{Width: 0}).Validate())
}

func TestTimeTypeValidate(t *testing.T) {
	assert.NoError(t, (&TimeType{Unit: Second, Width: 32}).Validate())
	assert.NoError(t, (&TimeType{Unit: Millisecond, Width: 32}).Validate())
	assert.NoError(t, (&TimeType{Unit: Microsecond, Width: 64}).Validate())
	assert.NoError(t, (&TimeType{Unit: Nanosecond, Width: 64}).Validate())

	assert.Error(t, (&TimeType{Unit: Second, Width: 64}).Validate())
	assert.Error(t, (&TimeType{Unit: Nanosecond, Width: 32}).Validate())
}

func TestDecimalTypeValidate(t *testing.T) {
	assert.NoError(t, (&DecimalType{Precision: 38, Scale: 0, Width: 128}).Validate())
	assert.NoError(t, (&DecimalType{Precision: 76, Scale: 10, Width: 256}).Validate())

	assert.Error(t, (&DecimalType{Precision: 39, Width: 128}).Validate())
	assert.Error(t, (&DecimalType{Precision: 77, Width: 256}).Validate())
	assert.Error(t, (&DecimalType{Precision: 0, Width: 128}).Validate())
	assert.Error(t, (&DecimalType{Precision: 10, Width: 100}).Validate())
}

func TestTypeEqual(t *testing.T) {
	assert.True(t, TypeEqual(PrimitiveTypes.Int32, &IntType{Width: 32, Signed: true}))
	assert.False(t, TypeEqual(PrimitiveTypes.Int32, PrimitiveTypes.Uint32))
	assert.False(t, TypeEqual(PrimitiveTypes.Int32, PrimitiveTypes.Int64))

	assert.True(t, TypeEqual(ListOf(&StringType{}), ListOf(&StringType{})))
	assert.False(t, TypeEqual(ListOf(&StringType{}), ListOf(&BinaryType{})))

	assert.True(t, TypeEqual(
		&TimestampType{Unit: Millisecond, TimeZone: "UTC"},
		&TimestampType{Unit: Millisecond, TimeZone: "UTC"},
	))
	assert.False(t, TypeEqual(
		&TimestampType{Unit: Millisecond, TimeZone: "UTC"},
		&TimestampType{Unit: Millisecond, TimeZone: "CET"},
	))

	assert.True(t, TypeEqual(DictOf(1, &StringType{}), DictOf(1, &StringType{})))
	assert.False(t, TypeEqual(DictOf(1, &StringType{}), DictOf(2, &StringType{})))
}

func TestUnionChildIDFromCode(t *testing.T) {
	u := DenseUnionOf(
		[]Field{{Name: "i", Type: PrimitiveTypes.Int32}, {Name: "s", Type: &StringType{}}},
		[]int8{5, 9},
	)
	assert.Equal(t, 0, u.ChildIDFromCode(5))
	assert.Equal(t, 1, u.ChildIDFromCode(9))
	assert.Equal(t, -1, u.ChildIDFromCode(2))
}

func TestMapTypeShape(t *testing.T) {
	m := MapOf(&StringType{}, PrimitiveTypes.Int64)

	entries := m.ValueType()
	require.Len(t, entries.Fields(), 2)
	assert.Equal(t, "key", entries.Field(0).Name)
	assert.False(t, entries.Field(0).Nullable)
	assert.Equal(t, "value", entries.Field(1).Name)
	assert.True(t, entries.Field(1).Nullable)
	assert.Equal(t, "entries", m.ValueField().Name)
	assert.False(t, m.ValueField().Nullable)
}

func TestTimeUnitMultiplier(t *testing.T) {
	assert.EqualValues(t, 1e9, Second.Multiplier())
	assert.EqualValues(t, 1e6, Millisecond.Multiplier())
	assert.EqualValues(t, 1e3, Microsecond.Multiplier())
	assert.EqualValues(t, 1, Nanosecond.Multiplier())
}
