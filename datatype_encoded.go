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

import "fmt"

// DictionaryType is the type of a dictionary-encoded field. Values on the
// wire are integer keys of IndexType; the logical values of ValueType live in
// dictionary batches and are resolved through a dictionary registry, never
// stored inline in a record batch.
type DictionaryType struct {
	// DictID is the dictionary id tying the field to its DictionaryBatch
	// messages. Declared at schema time; values arrive later.
	DictID int64
	// IndexType is the integer type of the stored keys.
	IndexType *IntType
	// ValueType is the logical type of the dictionary values.
	ValueType DataType
	// Ordered reports whether dictionary indices are meaningfully ordered.
	Ordered bool
}

// DictOf returns a dictionary type with the given id, int32 keys and the
// given value type.
//
// DictOf panics if value is nil.
func DictOf(id int64, value DataType) *DictionaryType {
	if value == nil {
		panic("arrowcol: nil dictionary value type")
	}
	return &DictionaryType{
		DictID:    id,
		IndexType: PrimitiveTypes.Int32.(*IntType),
		ValueType: value,
	}
}

func (*DictionaryType) ID() Type     { return DICTIONARY }
func (*DictionaryType) Name() string { return "dictionary" }

func (t *DictionaryType) String() string {
	return fmt.Sprintf("dictionary<values=%v, indices=%v, id=%d, ordered=%v>",
		t.ValueType, t.IndexType, t.DictID, t.Ordered)
}

func (t *DictionaryType) Fingerprint() string {
	ord := "u"
	if t.Ordered {
		ord = "o"
	}
	return fmt.Sprintf("%s%d:%s%s{%s}", typeIDFingerprint(DICTIONARY), t.DictID, ord,
		t.IndexType.Fingerprint(), t.ValueType.Fingerprint())
}

// BitWidth is the width of one stored key.
func (t *DictionaryType) BitWidth() int { return t.IndexType.BitWidth() }

func (t *DictionaryType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(t.IndexType.Width / 8)}}
}
