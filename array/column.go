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
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/bitutil"
)

// CoerceOptions governs how Column converts decoded values to host types.
// The zero value keeps raw representations.
type CoerceOptions struct {
	// UseDate converts date and timestamp values to time.Time.
	UseDate bool
	// UseBigInt converts 64-bit integers and decimals to *big.Int.
	// Decimals are *big.Int regardless, being wider than any native integer.
	UseBigInt bool
	// UseMap converts map values to map[any]any instead of []MapEntry.
	UseMap bool
}

// MapEntry is one key/value pair of a map value when UseMap is off.
type MapEntry struct {
	Key   any
	Value any
}

// DayTime is a DAY_TIME interval value.
type DayTime struct {
	Days         int32
	Milliseconds int32
}

// MonthDayNano is a MONTH_DAY_NANO interval value.
type MonthDayNano struct {
	Months      int32
	Days        int32
	Nanoseconds int64
}

// Column is a logical read-only view over a Data tree. Value extraction is
// dynamic: the caller receives `any` and the concrete Go type follows the
// column's DataType and the CoerceOptions.
type Column struct {
	data *Data
	opts CoerceOptions
}

// NewColumn returns a Column with raw (uncoerced) value extraction.
func NewColumn(d *Data) *Column { return &Column{data: d} }

// NewColumnWithOptions returns a Column applying opts during extraction.
func NewColumnWithOptions(d *Data, opts CoerceOptions) *Column {
	return &Column{data: d, opts: opts}
}

func (c *Column) Data() *Data                 { return c.data }
func (c *Column) DataType() arrowcol.DataType { return c.data.dtype }
func (c *Column) Len() int                    { return c.data.length }
func (c *Column) NullN() int                  { return c.data.nulls }
func (c *Column) IsNull(i int) bool           { return c.data.IsNull(i) }
func (c *Column) IsValid(i int) bool          { return c.data.IsValid(i) }

func (c *Column) child(i int) *Column {
	return &Column{data: c.data.children[i], opts: c.opts}
}

// Value returns the logical value at row i, or nil when the row is null.
func (c *Column) Value(i int) any {
	if c.data.IsNull(i) {
		return nil
	}

	d := c.data
	switch dt := d.dtype.(type) {
	case *arrowcol.NullType:
		return nil

	case *arrowcol.BooleanType:
		return bitutil.BitIsSet(d.buffers[1].Bytes(), i)

	case *arrowcol.IntType:
		return c.intValue(dt, d.buffers[1].Bytes(), i)

	case *arrowcol.FloatType:
		b := d.buffers[1].Bytes()
		switch dt.Precision {
		case arrowcol.PrecisionHalf:
			return float16ToFloat32(binary.LittleEndian.Uint16(b[2*i:]))
		case arrowcol.PrecisionSingle:
			return math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		default:
			return math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
		}

	case *arrowcol.DecimalType:
		w := int(dt.Width) / 8
		return decimalToBigInt(d.buffers[1].Bytes()[i*w : (i+1)*w])

	case *arrowcol.DateType:
		b := d.buffers[1].Bytes()
		if dt.Unit == arrowcol.DateDay {
			days := int32(binary.LittleEndian.Uint32(b[4*i:]))
			if c.opts.UseDate {
				return time.Unix(int64(days)*86400, 0).UTC()
			}
			return days
		}
		ms := int64(binary.LittleEndian.Uint64(b[8*i:]))
		if c.opts.UseDate {
			return time.UnixMilli(ms).UTC()
		}
		return ms

	case *arrowcol.TimeType:
		b := d.buffers[1].Bytes()
		if dt.Width == 32 {
			return int32(binary.LittleEndian.Uint32(b[4*i:]))
		}
		return int64(binary.LittleEndian.Uint64(b[8*i:]))

	case *arrowcol.TimestampType:
		v := int64(binary.LittleEndian.Uint64(d.buffers[1].Bytes()[8*i:]))
		if c.opts.UseDate {
			return time.Unix(0, v*int64(dt.Unit.Multiplier())).UTC()
		}
		return v

	case *arrowcol.DurationType:
		return int64(binary.LittleEndian.Uint64(d.buffers[1].Bytes()[8*i:]))

	case *arrowcol.IntervalType:
		b := d.buffers[1].Bytes()
		switch dt.Unit {
		case arrowcol.YearMonthInterval:
			return int32(binary.LittleEndian.Uint32(b[4*i:]))
		case arrowcol.DayTimeInterval:
			return DayTime{
				Days:         int32(binary.LittleEndian.Uint32(b[8*i:])),
				Milliseconds: int32(binary.LittleEndian.Uint32(b[8*i+4:])),
			}
		default:
			return MonthDayNano{
				Months:      int32(binary.LittleEndian.Uint32(b[16*i:])),
				Days:        int32(binary.LittleEndian.Uint32(b[16*i+4:])),
				Nanoseconds: int64(binary.LittleEndian.Uint64(b[16*i+8:])),
			}
		}

	case *arrowcol.BinaryType:
		return c.varBytes(i, 4)
	case *arrowcol.LargeBinaryType:
		return c.varBytes(i, 8)
	case *arrowcol.StringType:
		return string(c.varBytes(i, 4))
	case *arrowcol.LargeStringType:
		return string(c.varBytes(i, 8))

	case *arrowcol.FixedSizeBinaryType:
		w := dt.ByteWidth
		return d.buffers[1].Bytes()[i*w : (i+1)*w]

	case *arrowcol.ListType:
		start, end := c.offsetRange(i, 4)
		return c.rangeValues(c.child(0), start, end)
	case *arrowcol.LargeListType:
		start, end := c.offsetRange(i, 8)
		return c.rangeValues(c.child(0), start, end)
	case *arrowcol.FixedSizeListType:
		n := int(dt.Len())
		return c.rangeValues(c.child(0), i*n, (i+1)*n)

	case *arrowcol.StructType:
		out := make(map[string]any, len(dt.Fields()))
		for j, f := range dt.Fields() {
			out[f.Name] = c.child(j).Value(i)
		}
		return out

	case *arrowcol.MapType:
		start, end := c.offsetRange(i, 4)
		entries := c.child(0)
		keys, items := entries.child(0), entries.child(1)
		if c.opts.UseMap {
			out := make(map[any]any, end-start)
			for j := start; j < end; j++ {
				out[keys.Value(j)] = items.Value(j)
			}
			return out
		}
		out := make([]MapEntry, 0, end-start)
		for j := start; j < end; j++ {
			out = append(out, MapEntry{Key: keys.Value(j), Value: items.Value(j)})
		}
		return out

	case *arrowcol.UnionType:
		return c.unionValue(dt, i)

	case *arrowcol.DictionaryType:
		key := int(asInt64(dt.IndexType, c.keysBuffer(), i))
		dict := &Column{data: d.dictionary, opts: c.opts}
		return dict.Value(key)
	}

	panic(fmt.Sprintf("array: no value extraction for %v", d.dtype))
}

// Values returns every row of the column as a slice.
func (c *Column) Values() []any {
	out := make([]any, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

func (c *Column) intValue(dt *arrowcol.IntType, b []byte, i int) any {
	if dt.Signed {
		switch dt.Width {
		case 8:
			return int8(b[i])
		case 16:
			return int16(binary.LittleEndian.Uint16(b[2*i:]))
		case 32:
			return int32(binary.LittleEndian.Uint32(b[4*i:]))
		default:
			v := int64(binary.LittleEndian.Uint64(b[8*i:]))
			if c.opts.UseBigInt {
				return big.NewInt(v)
			}
			return v
		}
	}
	switch dt.Width {
	case 8:
		return b[i]
	case 16:
		return binary.LittleEndian.Uint16(b[2*i:])
	case 32:
		return binary.LittleEndian.Uint32(b[4*i:])
	default:
		v := binary.LittleEndian.Uint64(b[8*i:])
		if c.opts.UseBigInt {
			return new(big.Int).SetUint64(v)
		}
		return v
	}
}

// keysBuffer returns the key buffer of a dictionary column. The dictionary
// layout stores keys after the validity slot, so this is always buffers[1].
func (c *Column) keysBuffer() []byte {
	return c.data.buffers[1].Bytes()
}

// unionBase returns the index of the typeIds buffer: unions decoded from
// pre-V5 streams carry a leading validity bitmap, current ones do not.
func (c *Column) unionBase() int {
	if len(c.data.buffers) > len(c.data.dtype.Layout().Buffers) {
		return 1
	}
	return 0
}

func (c *Column) unionValue(dt *arrowcol.UnionType, i int) any {
	base := c.unionBase()
	code := int8(c.data.buffers[base].Bytes()[i])
	childID := dt.ChildIDFromCode(code)
	if childID < 0 {
		panic(fmt.Sprintf("array: union value with unknown type code %d", code))
	}
	if dt.Mode() == arrowcol.SparseMode {
		return c.child(childID).Value(i)
	}
	offsets := c.data.buffers[base+1].Bytes()
	off := int(int32(binary.LittleEndian.Uint32(offsets[4*i:])))
	return c.child(childID).Value(off)
}

func (c *Column) offsetRange(i int, width int) (int, int) {
	b := c.data.buffers[1].Bytes()
	if width == 4 {
		return int(int32(binary.LittleEndian.Uint32(b[4*i:]))),
			int(int32(binary.LittleEndian.Uint32(b[4*(i+1):])))
	}
	return int(int64(binary.LittleEndian.Uint64(b[8*i:]))),
		int(int64(binary.LittleEndian.Uint64(b[8*(i+1):])))
}

func (c *Column) varBytes(i int, width int) []byte {
	start, end := c.offsetRange(i, width)
	return c.data.buffers[2].Bytes()[start:end]
}

func (c *Column) rangeValues(child *Column, start, end int) []any {
	out := make([]any, 0, end-start)
	for j := start; j < end; j++ {
		out = append(out, child.Value(j))
	}
	return out
}

func asInt64(dt *arrowcol.IntType, b []byte, i int) int64 {
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

// decimalToBigInt interprets little-endian two's complement bytes.
func decimalToBigInt(le []byte) *big.Int {
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	v := new(big.Int).SetBytes(be)
	if be[0]&0x80 != 0 {
		// negative: subtract 2^(8*len)
		shift := new(big.Int).Lsh(big.NewInt(1), uint(8*len(be)))
		v.Sub(v, shift)
	}
	return v
}

func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	var bits32 uint32
	switch {
	case exp == 0 && frac == 0:
		bits32 = sign << 31
	case exp == 0:
		// subnormal: normalize
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		bits32 = sign<<31 | e<<23 | (frac&0x3ff)<<13
	case exp == 0x1f:
		bits32 = sign<<31 | 0xff<<23 | frac<<13
	default:
		bits32 = sign<<31 | (exp-15+127)<<23 | frac<<13
	}
	return math.Float32frombits(bits32)
}
