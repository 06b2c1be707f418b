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

import "strconv"

// BinaryType is a variable-length byte sequence with 32-bit offsets.
type BinaryType struct{}

func (*BinaryType) ID() Type              { return BINARY }
func (*BinaryType) Name() string          { return "binary" }
func (*BinaryType) String() string        { return "binary" }
func (t *BinaryType) Fingerprint() string { return typeFingerprint(t) }
func (*BinaryType) IsUtf8() bool          { return false }
func (*BinaryType) OffsetByteWidth() int  { return 4 }
func (*BinaryType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(4), SpecVariableWidth()}}
}

// StringType is a variable-length UTF-8 string with 32-bit offsets.
type StringType struct{}

func (*StringType) ID() Type              { return UTF8 }
func (*StringType) Name() string          { return "utf8" }
func (*StringType) String() string        { return "utf8" }
func (t *StringType) Fingerprint() string { return typeFingerprint(t) }
func (*StringType) IsUtf8() bool          { return true }
func (*StringType) OffsetByteWidth() int  { return 4 }
func (*StringType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(4), SpecVariableWidth()}}
}

// LargeBinaryType is BinaryType with 64-bit offsets.
type LargeBinaryType struct{}

func (*LargeBinaryType) ID() Type              { return LARGE_BINARY }
func (*LargeBinaryType) Name() string          { return "largebinary" }
func (*LargeBinaryType) String() string        { return "large_binary" }
func (t *LargeBinaryType) Fingerprint() string { return typeFingerprint(t) }
func (*LargeBinaryType) IsUtf8() bool          { return false }
func (*LargeBinaryType) OffsetByteWidth() int  { return 8 }
func (*LargeBinaryType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(8), SpecVariableWidth()}}
}

// LargeStringType is StringType with 64-bit offsets.
type LargeStringType struct{}

func (*LargeStringType) ID() Type              { return LARGE_UTF8 }
func (*LargeStringType) Name() string          { return "largeutf8" }
func (*LargeStringType) String() string        { return "large_utf8" }
func (t *LargeStringType) Fingerprint() string { return typeFingerprint(t) }
func (*LargeStringType) IsUtf8() bool          { return true }
func (*LargeStringType) OffsetByteWidth() int  { return 8 }
func (*LargeStringType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(8), SpecVariableWidth()}}
}

// FixedSizeBinaryType is a byte sequence where every value occupies
// ByteWidth bytes, with no offsets buffer.
type FixedSizeBinaryType struct {
	ByteWidth int
}

func (*FixedSizeBinaryType) ID() Type        { return FIXED_SIZE_BINARY }
func (*FixedSizeBinaryType) Name() string    { return "fixedsizebinary" }
func (t *FixedSizeBinaryType) BitWidth() int { return 8 * t.ByteWidth }

func (t *FixedSizeBinaryType) String() string {
	return "fixed_size_binary[" + strconv.Itoa(t.ByteWidth) + "]"
}

func (t *FixedSizeBinaryType) Fingerprint() string {
	return typeFingerprint(t) + "[" + strconv.Itoa(t.ByteWidth) + "]"
}

func (t *FixedSizeBinaryType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(t.ByteWidth)}}
}

// BinaryTypes holds the canonical instances of the variable-length binary
// family.
var BinaryTypes = struct {
	Binary      DataType
	String      DataType
	LargeBinary DataType
	LargeString DataType
}{
	Binary:      &BinaryType{},
	String:      &StringType{},
	LargeBinary: &LargeBinaryType{},
	LargeString: &LargeStringType{},
}

var (
	_ BinaryDataType     = (*BinaryType)(nil)
	_ BinaryDataType     = (*StringType)(nil)
	_ BinaryDataType     = (*LargeBinaryType)(nil)
	_ BinaryDataType     = (*LargeStringType)(nil)
	_ FixedWidthDataType = (*FixedSizeBinaryType)(nil)
)
