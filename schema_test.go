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

func TestMetadata(t *testing.T) {
	md := NewMetadata([]string{"k1", "k2"}, []string{"v1", "v2"})
	assert.Equal(t, 2, md.Len())
	assert.Equal(t, []string{"k1", "k2"}, md.Keys())
	assert.Equal(t, []string{"v1", "v2"}, md.Values())

	assert.Equal(t, 1, md.FindKey("k2"))
	assert.Equal(t, -1, md.FindKey("nope"))

	v, ok := md.GetValue("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	_, ok = md.GetValue("nope")
	assert.False(t, ok)

	assert.True(t, md.Equal(NewMetadata([]string{"k1", "k2"}, []string{"v1", "v2"})))
	assert.False(t, md.Equal(NewMetadata([]string{"k1"}, []string{"v1"})))

	assert.Panics(t, func() {
		NewMetadata([]string{"k"}, []string{"v1", "v2"})
	})
}

func TestMetadataFrom(t *testing.T) {
	md := MetadataFrom(map[string]string{"b": "2", "a": "1"})
	// sorted by key
	assert.Equal(t, []string{"a", "b"}, md.Keys())
	assert.Equal(t, []string{"1", "2"}, md.Values())
}

func TestSchemaBasics(t *testing.T) {
	md := NewMetadata([]string{"origin"}, []string{"unit-test"})
	s := NewSchema([]Field{
		{Name: "id", Type: PrimitiveTypes.Int64},
		{Name: "name", Type: &StringType{}, Nullable: true},
		{Name: "name", Type: &LargeStringType{}, Nullable: true},
	}, &md)

	assert.Equal(t, 3, s.NumFields())
	assert.Equal(t, CurrentMetadataVersion, s.Version())
	assert.Equal(t, LittleEndian, s.Endianness())
	assert.Equal(t, "unit-test", s.Metadata().Values()[0])

	assert.True(t, s.HasField("id"))
	assert.False(t, s.HasField("nope"))
	assert.Equal(t, []int{1, 2}, s.FieldIndices("name"))
	assert.Nil(t, s.FieldIndices("nope"))

	assert.False(t, s.HasDictionaries())
}

func TestSchemaEqual(t *testing.T) {
	fields := []Field{
		{Name: "id", Type: PrimitiveTypes.Int64},
		{Name: "name", Type: &StringType{}, Nullable: true},
	}
	a := NewSchema(fields, nil)
	b := NewSchema(fields, nil)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Hash(), b.Hash())

	c := NewSchema(fields[:1], nil)
	assert.False(t, a.Equal(c))
}

func TestSchemaDictionaryHarvesting(t *testing.T) {
	s := NewSchema([]Field{
		{Name: "plain", Type: PrimitiveTypes.Int32},
		{Name: "color", Type: DictOf(1, &StringType{}), Nullable: true},
		{Name: "nested", Type: StructOf(
			Field{Name: "tag", Type: DictOf(2, PrimitiveTypes.Int16)},
		)},
	}, nil)

	require.True(t, s.HasDictionaries())
	dicts := s.DictionaryTypes()
	require.Len(t, dicts, 2)
	assert.True(t, TypeEqual(&StringType{}, dicts[1]))
	assert.True(t, TypeEqual(PrimitiveTypes.Int16, dicts[2]))
}

func TestSchemaDictionaryConflict(t *testing.T) {
	// one id, two value types
	fields := []Field{
		{Name: "a", Type: DictOf(7, &StringType{})},
		{Name: "b", Type: DictOf(7, PrimitiveTypes.Int32)},
	}
	_, err := DictionaryTypes(fields)
	assert.Error(t, err)
	assert.Panics(t, func() { NewSchema(fields, nil) })
}

func TestSchemaDictionarySameTypeTwice(t *testing.T) {
	// reusing an id with the same value type is fine
	fields := []Field{
		{Name: "a", Type: DictOf(7, &StringType{})},
		{Name: "b", Type: DictOf(7, &StringType{})},
	}
	dicts, err := DictionaryTypes(fields)
	require.NoError(t, err)
	assert.Len(t, dicts, 1)
}

func TestFieldEqual(t *testing.T) {
	a := Field{Name: "x", Type: PrimitiveTypes.Int8, Nullable: true}
	b := Field{Name: "x", Type: PrimitiveTypes.Int8, Nullable: true}
	assert.True(t, a.Equal(b))

	b.Nullable = false
	assert.False(t, a.Equal(b))

	b = Field{Name: "y", Type: PrimitiveTypes.Int8, Nullable: true}
	assert.False(t, a.Equal(b))
}
