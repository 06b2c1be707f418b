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
	"strings"
)

// ListType describes a nested type in which each slot holds a variable-size
// sequence of values of one child type, addressed by 32-bit offsets.
type ListType struct {
	elem Field
}

// ListOf returns the list type with element type t. The element field is
// named "item" and nullable.
//
// ListOf panics if t is nil.
func ListOf(t DataType) *ListType {
	if t == nil {
		panic("arrowcol: nil DataType")
	}
	return &ListType{elem: Field{Name: "item", Type: t, Nullable: true}}
}

// ListOfField returns the list type with the given element field.
func ListOfField(f Field) *ListType {
	if f.Type == nil {
		panic("arrowcol: nil type for list field")
	}
	return &ListType{elem: f}
}

func (*ListType) ID() Type     { return LIST }
func (*ListType) Name() string { return "list" }

func (t *ListType) String() string {
	if t.elem.Nullable {
		return fmt.Sprintf("list<%s: %s, nullable>", t.elem.Name, t.elem.Type)
	}
	return fmt.Sprintf("list<%s: %s>", t.elem.Name, t.elem.Type)
}

func (t *ListType) Fingerprint() string {
	return typeFingerprint(t) + "{" + t.elem.Fingerprint() + "}"
}

// Elem returns the ListType's element type.
func (t *ListType) Elem() DataType     { return t.elem.Type }
func (t *ListType) ElemField() Field   { return t.elem }
func (t *ListType) Fields() []Field    { return []Field{t.elem} }
func (*ListType) OffsetByteWidth() int { return 4 }

func (*ListType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(4)}}
}

// LargeListType is ListType with 64-bit offsets.
type LargeListType struct {
	elem Field
}

// LargeListOf returns the large-list type with element type t.
//
// LargeListOf panics if t is nil.
func LargeListOf(t DataType) *LargeListType {
	if t == nil {
		panic("arrowcol: nil DataType")
	}
	return &LargeListType{elem: Field{Name: "item", Type: t, Nullable: true}}
}

// LargeListOfField returns the large-list type with the given element field.
func LargeListOfField(f Field) *LargeListType {
	if f.Type == nil {
		panic("arrowcol: nil type for list field")
	}
	return &LargeListType{elem: f}
}

func (*LargeListType) ID() Type     { return LARGE_LIST }
func (*LargeListType) Name() string { return "largelist" }

func (t *LargeListType) String() string {
	if t.elem.Nullable {
		return fmt.Sprintf("large_list<%s: %s, nullable>", t.elem.Name, t.elem.Type)
	}
	return fmt.Sprintf("large_list<%s: %s>", t.elem.Name, t.elem.Type)
}

func (t *LargeListType) Fingerprint() string {
	return typeFingerprint(t) + "{" + t.elem.Fingerprint() + "}"
}

func (t *LargeListType) Elem() DataType     { return t.elem.Type }
func (t *LargeListType) ElemField() Field   { return t.elem }
func (t *LargeListType) Fields() []Field    { return []Field{t.elem} }
func (*LargeListType) OffsetByteWidth() int { return 8 }

func (*LargeListType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(8)}}
}

// FixedSizeListType describes a nested type in which each slot holds a
// fixed-size sequence of one child type. There is no offsets buffer: the
// stride is part of the type.
type FixedSizeListType struct {
	n    int32
	elem Field
}

// FixedSizeListOf returns the fixed-size list type with n elements of type t.
//
// FixedSizeListOf panics if t is nil or n <= 0.
func FixedSizeListOf(n int32, t DataType) *FixedSizeListType {
	if t == nil {
		panic("arrowcol: nil DataType")
	}
	if n <= 0 {
		panic("arrowcol: invalid fixed size list length")
	}
	return &FixedSizeListType{n: n, elem: Field{Name: "item", Type: t, Nullable: true}}
}

// FixedSizeListOfField is FixedSizeListOf with an explicit element field.
func FixedSizeListOfField(n int32, f Field) *FixedSizeListType {
	if f.Type == nil {
		panic("arrowcol: nil DataType")
	}
	if n <= 0 {
		panic("arrowcol: invalid fixed size list length")
	}
	return &FixedSizeListType{n: n, elem: f}
}

func (*FixedSizeListType) ID() Type     { return FIXED_SIZE_LIST }
func (*FixedSizeListType) Name() string { return "fixedsizelist" }

func (t *FixedSizeListType) String() string {
	if t.elem.Nullable {
		return fmt.Sprintf("fixed_size_list<%s: %s, nullable>[%d]", t.elem.Name, t.elem.Type, t.n)
	}
	return fmt.Sprintf("fixed_size_list<%s: %s>[%d]", t.elem.Name, t.elem.Type, t.n)
}

func (t *FixedSizeListType) Fingerprint() string {
	return fmt.Sprintf("%s[%d]{%s}", typeFingerprint(t), t.n, t.elem.Fingerprint())
}

func (t *FixedSizeListType) Elem() DataType   { return t.elem.Type }
func (t *FixedSizeListType) ElemField() Field { return t.elem }

// Len returns the fixed number of elements per slot.
func (t *FixedSizeListType) Len() int32      { return t.n }
func (t *FixedSizeListType) Fields() []Field { return []Field{t.elem} }

func (*FixedSizeListType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap()}}
}

// StructType describes a nested type parameterized by an ordered sequence of
// named child fields.
type StructType struct {
	fields []Field
	index  map[string]int
}

// StructOf returns the struct type with fields fs.
//
// StructOf panics if a field has a nil DataType or a duplicated name.
func StructOf(fs ...Field) *StructType {
	n := len(fs)
	if n == 0 {
		return &StructType{}
	}

	t := &StructType{
		fields: make([]Field, n),
		index:  make(map[string]int, n),
	}
	for i, f := range fs {
		if f.Type == nil {
			panic("arrowcol: field with nil DataType")
		}
		t.fields[i] = Field{
			Name:     f.Name,
			Type:     f.Type,
			Nullable: f.Nullable,
			Metadata: f.Metadata.clone(),
		}
		if _, dup := t.index[f.Name]; dup {
			panic(fmt.Errorf("arrowcol: duplicate field with name %q", f.Name))
		}
		t.index[f.Name] = i
	}
	return t
}

func (*StructType) ID() Type     { return STRUCT }
func (*StructType) Name() string { return "struct" }

func (t *StructType) String() string {
	o := new(strings.Builder)
	o.WriteString("struct<")
	for i, f := range t.fields {
		if i > 0 {
			o.WriteString(", ")
		}
		fmt.Fprintf(o, "%s: %v", f.Name, f.Type)
	}
	o.WriteString(">")
	return o.String()
}

func (t *StructType) Fingerprint() string {
	var b strings.Builder
	b.WriteString(typeFingerprint(t))
	b.WriteByte('{')
	for _, f := range t.fields {
		b.WriteString(f.Fingerprint())
		b.WriteByte(';')
	}
	b.WriteByte('}')
	return b.String()
}

func (t *StructType) Fields() []Field   { return t.fields }
func (t *StructType) Field(i int) Field { return t.fields[i] }

func (t *StructType) FieldByName(name string) (Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

func (t *StructType) FieldIdx(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

func (*StructType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap()}}
}

// UnionType holds one of several child types per value. Each value carries
// an int8 type code selecting the child; dense unions additionally carry an
// int32 offset into the selected child. Unions have no validity bitmap at
// MetadataV5 and later.
type UnionType struct {
	children  []Field
	typeCodes []int8
	childIDs  [128]int // type code -> child index, -1 when unused
	mode      UnionMode
}

const invalidUnionChildID = -1

// UnionOf returns the union type with the given mode, children and type
// codes. Codes must be non-negative, unique and parallel to children; when
// nil, codes default to the child indices.
//
// UnionOf panics on invalid codes.
func UnionOf(mode UnionMode, children []Field, codes []int8) *UnionType {
	if codes == nil {
		codes = make([]int8, len(children))
		for i := range codes {
			codes[i] = int8(i)
		}
	}
	if len(codes) != len(children) {
		panic("arrowcol: union type codes and children must have the same length")
	}

	t := &UnionType{
		children:  make([]Field, len(children)),
		typeCodes: make([]int8, len(codes)),
		mode:      mode,
	}
	copy(t.children, children)
	copy(t.typeCodes, codes)
	for i := range t.childIDs {
		t.childIDs[i] = invalidUnionChildID
	}
	for i, c := range codes {
		if c < 0 {
			panic("arrowcol: union type code must be non-negative")
		}
		if t.childIDs[c] != invalidUnionChildID {
			panic(fmt.Errorf("arrowcol: duplicate union type code %d", c))
		}
		t.childIDs[c] = i
	}
	return t
}

// SparseUnionOf is UnionOf with SparseMode.
func SparseUnionOf(children []Field, codes []int8) *UnionType {
	return UnionOf(SparseMode, children, codes)
}

// DenseUnionOf is UnionOf with DenseMode.
func DenseUnionOf(children []Field, codes []int8) *UnionType {
	return UnionOf(DenseMode, children, codes)
}

func (*UnionType) ID() Type { return UNION }

func (t *UnionType) Name() string {
	if t.mode == SparseMode {
		return "sparseunion"
	}
	return "denseunion"
}

func (t *UnionType) String() string {
	o := new(strings.Builder)
	o.WriteString(t.Name())
	o.WriteByte('<')
	for i, f := range t.children {
		if i > 0 {
			o.WriteString(", ")
		}
		fmt.Fprintf(o, "%s: %v=%d", f.Name, f.Type, t.typeCodes[i])
	}
	o.WriteByte('>')
	return o.String()
}

func (t *UnionType) Fingerprint() string {
	var b strings.Builder
	b.WriteString(typeFingerprint(t))
	switch t.mode {
	case SparseMode:
		b.WriteByte('s')
	default:
		b.WriteByte('d')
	}
	b.WriteByte('[')
	for _, c := range t.typeCodes {
		fmt.Fprintf(&b, "%d,", c)
	}
	b.WriteByte(']')
	b.WriteByte('{')
	for _, f := range t.children {
		b.WriteString(f.Fingerprint())
		b.WriteByte(';')
	}
	b.WriteByte('}')
	return b.String()
}

func (t *UnionType) Mode() UnionMode   { return t.mode }
func (t *UnionType) Fields() []Field   { return t.children }
func (t *UnionType) TypeCodes() []int8 { return t.typeCodes }

// ChildIDFromCode maps a wire type code to the child index, or -1 when the
// code is not part of the type.
func (t *UnionType) ChildIDFromCode(code int8) int {
	if code < 0 {
		return invalidUnionChildID
	}
	return t.childIDs[code]
}

func (t *UnionType) Layout() DataTypeLayout {
	if t.mode == SparseMode {
		return DataTypeLayout{Buffers: []BufferSpec{SpecFixedWidth(1)}}
	}
	return DataTypeLayout{Buffers: []BufferSpec{SpecFixedWidth(1), SpecFixedWidth(4)}}
}

// MapType is a list of key/value entry structs. The key field is always
// non-nullable.
type MapType struct {
	value      *ListType
	KeysSorted bool
}

// MapOf returns the map type with the given key and item types.
//
// MapOf panics if either type is nil.
func MapOf(key, item DataType) *MapType {
	if key == nil || item == nil {
		panic("arrowcol: nil key or item type for MapType")
	}
	entries := StructOf(
		Field{Name: "key", Type: key},
		Field{Name: "value", Type: item, Nullable: true},
	)
	return &MapType{value: ListOfField(Field{Name: "entries", Type: entries})}
}

func (*MapType) ID() Type     { return MAP }
func (*MapType) Name() string { return "map" }

func (t *MapType) String() string {
	var o strings.Builder
	fmt.Fprintf(&o, "map<%s, %s", t.KeyType(), t.ItemType())
	if t.KeysSorted {
		o.WriteString(", keys_sorted")
	}
	o.WriteString(">")
	return o.String()
}

func (t *MapType) Fingerprint() string {
	fp := typeFingerprint(t)
	if t.KeysSorted {
		fp += "s"
	}
	return fp + "{" + t.KeyType().Fingerprint() + t.ItemType().Fingerprint() + "}"
}

func (t *MapType) KeyField() Field        { return t.ValueType().Field(0) }
func (t *MapType) KeyType() DataType      { return t.KeyField().Type }
func (t *MapType) ItemField() Field       { return t.ValueType().Field(1) }
func (t *MapType) ItemType() DataType     { return t.ItemField().Type }
func (t *MapType) ValueType() *StructType { return t.value.Elem().(*StructType) }
func (t *MapType) ValueField() Field      { return t.value.ElemField() }
func (t *MapType) Fields() []Field        { return []Field{t.ValueField()} }
func (*MapType) OffsetByteWidth() int     { return 4 }

func (*MapType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(4)}}
}

var (
	_ NestedType = (*ListType)(nil)
	_ NestedType = (*LargeListType)(nil)
	_ NestedType = (*FixedSizeListType)(nil)
	_ NestedType = (*StructType)(nil)
	_ NestedType = (*UnionType)(nil)
	_ NestedType = (*MapType)(nil)

	_ OffsetsDataType = (*ListType)(nil)
	_ OffsetsDataType = (*LargeListType)(nil)
	_ OffsetsDataType = (*MapType)(nil)
)
