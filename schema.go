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
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/xerrors"
)

// Metadata is an ordered sequence of key/value string pairs attached to a
// schema or a field.
type Metadata struct {
	keys   []string
	values []string
}

// NewMetadata returns a Metadata from parallel key and value slices.
//
// NewMetadata panics if the slices have different lengths.
func NewMetadata(keys, values []string) Metadata {
	if len(keys) != len(values) {
		panic("arrowcol: len mismatch")
	}
	n := len(keys)
	if n == 0 {
		return Metadata{}
	}

	md := Metadata{
		keys:   make([]string, n),
		values: make([]string, n),
	}
	copy(md.keys, keys)
	copy(md.values, values)
	return md
}

// MetadataFrom returns a Metadata from a map, with keys sorted for a
// deterministic order.
func MetadataFrom(kv map[string]string) Metadata {
	md := Metadata{
		keys:   make([]string, 0, len(kv)),
		values: make([]string, 0, len(kv)),
	}
	for k := range kv {
		md.keys = append(md.keys, k)
	}
	sort.Strings(md.keys)
	for _, k := range md.keys {
		md.values = append(md.values, kv[k])
	}
	return md
}

func (md Metadata) Len() int         { return len(md.keys) }
func (md Metadata) Keys() []string   { return md.keys }
func (md Metadata) Values() []string { return md.values }

// ToMap returns the metadata as a map.
func (md Metadata) ToMap() map[string]string {
	m := make(map[string]string, len(md.keys))
	for i := range md.keys {
		m[md.keys[i]] = md.values[i]
	}
	return m
}

func (md Metadata) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "[")
	for i := range md.keys {
		if i > 0 {
			fmt.Fprintf(o, ", ")
		}
		fmt.Fprintf(o, "%q: %q", md.keys[i], md.values[i])
	}
	fmt.Fprintf(o, "]")
	return o.String()
}

// FindKey returns the index of the key, or -1 when absent.
func (md Metadata) FindKey(k string) int {
	for i, v := range md.keys {
		if v == k {
			return i
		}
	}
	return -1
}

// GetValue returns the value for a key, reporting whether the key exists.
func (md Metadata) GetValue(k string) (string, bool) {
	i := md.FindKey(k)
	if i < 0 {
		return "", false
	}
	return md.values[i], true
}

func (md Metadata) clone() Metadata {
	if len(md.keys) == 0 {
		return Metadata{}
	}
	return NewMetadata(md.keys, md.values)
}

func (md Metadata) Equal(rhs Metadata) bool {
	if md.Len() != rhs.Len() {
		return false
	}
	for i := range md.keys {
		if md.keys[i] != rhs.keys[i] || md.values[i] != rhs.values[i] {
			return false
		}
	}
	return true
}

// Field is a named, typed, nullable slot of a schema or of a nested type.
type Field struct {
	Name     string
	Type     DataType
	Nullable bool
	Metadata Metadata
}

func (f Field) HasMetadata() bool { return f.Metadata.Len() != 0 }

func (f Field) Fingerprint() string {
	var b strings.Builder
	b.WriteByte('F')
	if f.Nullable {
		b.WriteByte('n')
	} else {
		b.WriteByte('N')
	}
	b.WriteString(f.Name)
	b.WriteByte('{')
	b.WriteString(f.Type.Fingerprint())
	b.WriteByte('}')
	return b.String()
}

func (f Field) Equal(o Field) bool {
	switch {
	case f.Name != o.Name:
		return false
	case f.Nullable != o.Nullable:
		return false
	case !TypeEqual(f.Type, o.Type):
		return false
	case !f.Metadata.Equal(o.Metadata):
		return false
	}
	return true
}

func (f Field) String() string {
	o := new(strings.Builder)
	nullable := ""
	if f.Nullable {
		nullable = ", nullable"
	}
	fmt.Fprintf(o, "%s: type=%v%v", f.Name, f.Type, nullable)
	if f.HasMetadata() {
		fmt.Fprintf(o, "\n%*.smetadata: %v", len(f.Name)+2, "", f.Metadata)
	}
	return o.String()
}

// Schema is the immutable description of one stream or file: its top-level
// fields, metadata, endianness, format version, and the dictionary types
// declared (not populated) by the field tree.
type Schema struct {
	fields     []Field
	index      map[string][]int
	meta       Metadata
	version    MetadataVersion
	endianness Endianness
	dictTypes  map[int64]DataType
}

// NewSchema returns a little-endian schema at the current metadata version.
// metadata may be nil.
//
// NewSchema panics if a field has a nil type or the field tree declares one
// dictionary id with two different value types.
func NewSchema(fields []Field, metadata *Metadata) *Schema {
	return NewSchemaWithVersion(CurrentMetadataVersion, LittleEndian, fields, metadata)
}

// NewSchemaWithEndian is NewSchema with an explicit byte order.
func NewSchemaWithEndian(fields []Field, metadata *Metadata, e Endianness) *Schema {
	return NewSchemaWithVersion(CurrentMetadataVersion, e, fields, metadata)
}

// NewSchemaWithVersion is NewSchema with explicit version and byte order.
func NewSchemaWithVersion(v MetadataVersion, e Endianness, fields []Field, metadata *Metadata) *Schema {
	sc := &Schema{
		fields:     make([]Field, 0, len(fields)),
		index:      make(map[string][]int, len(fields)),
		version:    v,
		endianness: e,
	}
	if metadata != nil {
		sc.meta = metadata.clone()
	}
	for i, f := range fields {
		if f.Type == nil {
			panic("arrowcol: field with nil DataType")
		}
		sc.fields = append(sc.fields, f)
		sc.index[f.Name] = append(sc.index[f.Name], i)
	}

	dict, err := DictionaryTypes(fields)
	if err != nil {
		panic(err)
	}
	sc.dictTypes = dict
	return sc
}

// DictionaryTypes walks a field tree in depth-first order and collects the
// declared dictionary id to value-type mapping. Redeclaring an id with a
// different value type is an error.
func DictionaryTypes(fields []Field) (map[int64]DataType, error) {
	out := make(map[int64]DataType)
	var visit func(dt DataType) error
	visit = func(dt DataType) error {
		if d, ok := dt.(*DictionaryType); ok {
			if prev, exists := out[d.DictID]; exists && !TypeEqual(prev, d.ValueType) {
				return xerrors.Errorf("arrowcol: conflicting value types for dictionary id %d: %v and %v",
					d.DictID, prev, d.ValueType)
			}
			out[d.DictID] = d.ValueType
			// no descendant of a dictionary value type can itself be
			// dictionary encoded.
			return nil
		}
		if n, ok := dt.(NestedType); ok {
			for _, c := range n.Fields() {
				if err := visit(c.Type); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, f := range fields {
		if err := visit(f.Type); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (sc *Schema) Version() MetadataVersion { return sc.version }
func (sc *Schema) Endianness() Endianness   { return sc.endianness }
func (sc *Schema) Metadata() Metadata       { return sc.meta }
func (sc *Schema) Fields() []Field          { return sc.fields }
func (sc *Schema) Field(i int) Field        { return sc.fields[i] }
func (sc *Schema) NumFields() int           { return len(sc.fields) }
func (sc *Schema) HasMetadata() bool        { return sc.meta.Len() > 0 }

// DictionaryTypes returns the declared dictionary id to value-type mapping.
func (sc *Schema) DictionaryTypes() map[int64]DataType { return sc.dictTypes }

// HasDictionaries reports whether any field in the tree is dictionary
// encoded.
func (sc *Schema) HasDictionaries() bool { return len(sc.dictTypes) > 0 }

func (sc *Schema) FieldsByName(n string) ([]Field, bool) {
	indices, ok := sc.index[n]
	if !ok {
		return nil, false
	}
	fields := make([]Field, 0, len(indices))
	for _, v := range indices {
		fields = append(fields, sc.fields[v])
	}
	return fields, true
}

// FieldIndices returns the indices of the named field, or nil.
func (sc *Schema) FieldIndices(n string) []int { return sc.index[n] }
func (sc *Schema) HasField(n string) bool      { return len(sc.FieldIndices(n)) > 0 }

func (sc *Schema) Fingerprint() string {
	var b strings.Builder
	b.WriteString("S{")
	for _, f := range sc.fields {
		b.WriteString(f.Fingerprint())
		b.WriteByte(';')
	}
	b.WriteByte('}')
	if sc.endianness == BigEndian {
		b.WriteByte('B')
	}
	return b.String()
}

// Hash returns a 64-bit hash of the schema's fingerprint.
func (sc *Schema) Hash() uint64 { return xxh3.HashString(sc.Fingerprint()) }

func (sc *Schema) Equal(o *Schema) bool {
	switch {
	case sc == o:
		return true
	case sc == nil || o == nil:
		return false
	case len(sc.fields) != len(o.fields):
		return false
	case sc.endianness != o.endianness:
		return false
	}
	for i := range sc.fields {
		if !sc.fields[i].Equal(o.fields[i]) {
			return false
		}
	}
	return true
}

func (sc *Schema) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "schema:\n  fields: %d\n", sc.NumFields())
	for i, f := range sc.fields {
		if i > 0 {
			o.WriteString("\n")
		}
		fmt.Fprintf(o, "    - %v", f)
	}
	if sc.meta.Len() > 0 {
		fmt.Fprintf(o, "\n  metadata: %v", sc.meta)
	}
	return o.String()
}
