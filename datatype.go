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
	"github.com/zeebo/xxh3"
)

// Type is the logical type tag of a DataType. The numeric values are the
// Arrow flatbuffers Type union vocabulary and are stable across versions;
// they must never be renumbered.
type Type int32

// DICTIONARY is an API-only tag: dictionary encoding is a property of a
// field, carried by DictionaryType, and never appears as a concrete entry in
// the wire-level Type union.
const DICTIONARY Type = -1

const (
	// NONE is the absent value of the Type union.
	NONE Type = iota

	// NULL type having no physical storage.
	NULL

	// INT is a signed or unsigned little-endian integer of 8, 16, 32 or 64 bits.
	INT

	// FLOAT is an IEEE-754 floating point value of half, single or double precision.
	FLOAT

	// BINARY is a variable-length byte sequence with 32-bit offsets.
	BINARY

	// UTF8 is a variable-length UTF-8 string with 32-bit offsets.
	UTF8

	// BOOL is a 1-bit value, LSB bit-packed.
	BOOL

	// DECIMAL is a precision- and scale-based decimal of 128 or 256 bits.
	DECIMAL

	// DATE is days (32-bit) or milliseconds (64-bit) since the UNIX epoch.
	DATE

	// TIME is seconds/milliseconds (32-bit) or microseconds/nanoseconds
	// (64-bit) since midnight.
	TIME

	// TIMESTAMP is a 64-bit instant since the UNIX epoch, in a declared unit.
	TIMESTAMP

	// INTERVAL is a calendar interval (YEAR_MONTH, DAY_TIME or MONTH_DAY_NANO).
	INTERVAL

	// LIST is a variable-size sequence of one child type, 32-bit offsets.
	LIST

	// STRUCT is an ordered sequence of named child types.
	STRUCT

	// UNION holds one of several child types per value, sparse or dense.
	UNION

	// FIXED_SIZE_BINARY is a byte sequence of a fixed per-value width.
	FIXED_SIZE_BINARY

	// FIXED_SIZE_LIST is a fixed-size sequence of one child type, no offsets.
	FIXED_SIZE_LIST

	// MAP is a list of non-nullable key / nullable value structs.
	MAP

	// DURATION is a 64-bit elapsed time in a declared unit.
	DURATION

	// LARGE_BINARY is BINARY with 64-bit offsets.
	LARGE_BINARY

	// LARGE_UTF8 is UTF8 with 64-bit offsets.
	LARGE_UTF8

	// LARGE_LIST is LIST with 64-bit offsets.
	LARGE_LIST

	// The remaining tags are reserved vocabulary: they keep the numeric
	// space aligned with the Arrow Type union but carry no buffer-layout
	// signature in this module and are rejected when decoding.
	RUN_END_ENCODED
	BINARY_VIEW
	UTF8_VIEW
	LIST_VIEW
	LARGE_LIST_VIEW
)

var typeNames = map[Type]string{
	DICTIONARY:        "dictionary",
	NONE:              "none",
	NULL:              "null",
	INT:               "int",
	FLOAT:             "floatingpoint",
	BINARY:            "binary",
	UTF8:              "utf8",
	BOOL:              "bool",
	DECIMAL:           "decimal",
	DATE:              "date",
	TIME:              "time",
	TIMESTAMP:         "timestamp",
	INTERVAL:          "interval",
	LIST:              "list",
	STRUCT:            "struct",
	UNION:             "union",
	FIXED_SIZE_BINARY: "fixedsizebinary",
	FIXED_SIZE_LIST:   "fixedsizelist",
	MAP:               "map",
	DURATION:          "duration",
	LARGE_BINARY:      "largebinary",
	LARGE_UTF8:        "largeutf8",
	LARGE_LIST:        "largelist",
	RUN_END_ENCODED:   "runendencoded",
	BINARY_VIEW:       "binaryview",
	UTF8_VIEW:         "utf8view",
	LIST_VIEW:         "listview",
	LARGE_LIST_VIEW:   "largelistview",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

// DataType is the representation of an Arrow logical type. Implementations
// form a closed set: every variant declares its wire-level buffer signature
// via Layout, so a decoder can match the set exhaustively.
type DataType interface {
	ID() Type
	// Name is the canonical lower-case name of the data type.
	Name() string
	String() string
	Fingerprint() string
	// Layout returns the ordered physical buffer signature of the type.
	Layout() DataTypeLayout
}

// FixedWidthDataType is a DataType whose every element occupies the same
// number of bits in memory.
type FixedWidthDataType interface {
	DataType
	// BitWidth returns the number of bits required to store a single element.
	BitWidth() int
}

// BinaryDataType is implemented by the variable-length binary-like types.
type BinaryDataType interface {
	DataType
	IsUtf8() bool
}

// OffsetsDataType is implemented by types carrying an offsets buffer and
// reports the byte width of one offset entry (4 or 8).
type OffsetsDataType interface {
	DataType
	OffsetByteWidth() int
}

// NestedType is a DataType with child fields.
type NestedType interface {
	DataType
	Fields() []Field
}

// BufferKind discriminates the entries of a buffer-layout signature.
type BufferKind int8

const (
	// KindAlwaysNull marks a logical buffer with no physical storage (Null type).
	KindAlwaysNull BufferKind = iota
	// KindBitmap is an LSB bit-packed buffer, one bit per value.
	KindBitmap
	// KindFixedWidth is a buffer of fixed ByteWidth elements.
	KindFixedWidth
	// KindVarWidth is a byte buffer addressed through a sibling offsets buffer.
	KindVarWidth
)

// BufferSpec describes one physical buffer of a type's layout.
type BufferSpec struct {
	Kind      BufferKind
	ByteWidth int // valid for KindFixedWidth only
}

func SpecAlwaysNull() BufferSpec      { return BufferSpec{Kind: KindAlwaysNull} }
func SpecBitmap() BufferSpec          { return BufferSpec{Kind: KindBitmap} }
func SpecFixedWidth(w int) BufferSpec { return BufferSpec{Kind: KindFixedWidth, ByteWidth: w} }
func SpecVariableWidth() BufferSpec   { return BufferSpec{Kind: KindVarWidth} }

// DataTypeLayout describes the ordered physical buffers one value of a type
// occupies, exclusive of child types. The leading validity bitmap, when
// present in the signature, may be physically empty on the wire whenever the
// node's null count is zero.
type DataTypeLayout struct {
	Buffers []BufferSpec
}

// HashType returns a 64-bit hash of the type's fingerprint.
func HashType(dt DataType) uint64 {
	return xxh3.HashString(dt.Fingerprint())
}

func typeIDFingerprint(id Type) string {
	return "@" + string(rune(int(id)+int('A')))
}

func typeFingerprint(typ DataType) string { return typeIDFingerprint(typ.ID()) }

func timeUnitFingerprint(unit TimeUnit) rune {
	switch unit {
	case Second:
		return 's'
	case Millisecond:
		return 'm'
	case Microsecond:
		return 'u'
	case Nanosecond:
		return 'n'
	default:
		return rune(0)
	}
}
