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
	"fmt"
	"strconv"
)

// NullType describes a column of nulls with no physical storage.
type NullType struct{}

func (*NullType) ID() Type              { return NULL }
func (*NullType) Name() string          { return "null" }
func (*NullType) String() string        { return "null" }
func (t *NullType) Fingerprint() string { return typeFingerprint(t) }
func (*NullType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecAlwaysNull()}}
}

// BooleanType is a 1-bit value, LSB bit-packed.
type BooleanType struct{}

func (*BooleanType) ID() Type              { return BOOL }
func (*BooleanType) Name() string          { return "bool" }
func (*BooleanType) String() string        { return "bool" }
func (t *BooleanType) Fingerprint() string { return typeFingerprint(t) }
func (*BooleanType) BitWidth() int         { return 1 }
func (*BooleanType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecBitmap()}}
}

// IntType is a little-endian integer of 8, 16, 32 or 64 bits, signed or not.
type IntType struct {
	Width  int // bits: 8, 16, 32 or 64
	Signed bool
}

func (*IntType) ID() Type        { return INT }
func (*IntType) Name() string    { return "int" }
func (t *IntType) BitWidth() int { return t.Width }

func (t *IntType) String() string {
	if t.Signed {
		return "int" + strconv.Itoa(t.Width)
	}
	return "uint" + strconv.Itoa(t.Width)
}

func (t *IntType) Fingerprint() string {
	s := "u"
	if t.Signed {
		s = "i"
	}
	return typeFingerprint(t) + s + strconv.Itoa(t.Width)
}

func (t *IntType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(t.Width / 8)}}
}

// Validate reports whether the bit width is one of the four legal widths.
func (t *IntType) Validate() error {
	switch t.Width {
	case 8, 16, 32, 64:
		return nil
	}
	return fmt.Errorf("arrowcol: invalid integer bit width %d", t.Width)
}

// FloatType is an IEEE-754 floating point value.
type FloatType struct {
	Precision Precision
}

func (*FloatType) ID() Type     { return FLOAT }
func (*FloatType) Name() string { return "floatingpoint" }

func (t *FloatType) BitWidth() int {
	switch t.Precision {
	case PrecisionHalf:
		return 16
	case PrecisionSingle:
		return 32
	default:
		return 64
	}
}

func (t *FloatType) String() string { return "float" + strconv.Itoa(t.BitWidth()) }
func (t *FloatType) Fingerprint() string {
	return typeFingerprint(t) + strconv.Itoa(t.BitWidth())
}

func (t *FloatType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(t.BitWidth() / 8)}}
}

// DecimalType is a precision- and scale-based decimal stored in 128 or 256
// bits, little-endian, two's complement.
type DecimalType struct {
	Precision int32
	Scale     int32
	Width     int32 // bits: 128 or 256
}

func (*DecimalType) ID() Type        { return DECIMAL }
func (*DecimalType) Name() string    { return "decimal" }
func (t *DecimalType) BitWidth() int { return int(t.Width) }

func (t *DecimalType) String() string {
	return fmt.Sprintf("decimal%d(%d, %d)", t.Width, t.Precision, t.Scale)
}

func (t *DecimalType) Fingerprint() string {
	return fmt.Sprintf("%s[%d,%d,%d]", typeFingerprint(t), t.Width, t.Precision, t.Scale)
}

func (t *DecimalType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(int(t.Width) / 8)}}
}

// Validate checks the width/precision combination.
func (t *DecimalType) Validate() error {
	var maxPrecision int32
	switch t.Width {
	case 128:
		maxPrecision = 38
	case 256:
		maxPrecision = 76
	default:
		return fmt.Errorf("arrowcol: invalid decimal bit width %d", t.Width)
	}
	if t.Precision < 1 || t.Precision > maxPrecision {
		return fmt.Errorf("arrowcol: decimal%d precision out of range: %d", t.Width, t.Precision)
	}
	return nil
}

// Null singleton, analogous to the primitive type catalogs below.
var Null *NullType = &NullType{}

// PrimitiveTypes holds the canonical instances of the parameter-free numeric
// types.
var PrimitiveTypes = struct {
	Int8    DataType
	Int16   DataType
	Int32   DataType
	Int64   DataType
	Uint8   DataType
	Uint16  DataType
	Uint32  DataType
	Uint64  DataType
	Float16 DataType
	Float32 DataType
	Float64 DataType
}{
	Int8:    &IntType{Width: 8, Signed: true},
	Int16:   &IntType{Width: 16, Signed: true},
	Int32:   &IntType{Width: 32, Signed: true},
	Int64:   &IntType{Width: 64, Signed: true},
	Uint8:   &IntType{Width: 8},
	Uint16:  &IntType{Width: 16},
	Uint32:  &IntType{Width: 32},
	Uint64:  &IntType{Width: 64},
	Float16: &FloatType{Precision: PrecisionHalf},
	Float32: &FloatType{Precision: PrecisionSingle},
	Float64: &FloatType{Precision: PrecisionDouble},
}

var (
	_ FixedWidthDataType = (*BooleanType)(nil)
	_ FixedWidthDataType = (*IntType)(nil)
	_ FixedWidthDataType = (*FloatType)(nil)
	_ FixedWidthDataType = (*DecimalType)(nil)
)
