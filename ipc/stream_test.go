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

package ipc_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/array"
	"github.com/columnlab/arrowcol/arrjson"
	"github.com/columnlab/arrowcol/ipc"
	"github.com/columnlab/arrowcol/memory"
)

func int64Col(values []int64, nulls ...int) *array.Data {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[8*i:], uint64(v))
	}
	return array.NewData(arrowcol.PrimitiveTypes.Int64, len(values),
		[]*memory.Buffer{validityBuf(len(values), nulls), memory.NewBufferBytes(data)},
		nil, len(nulls))
}

func int32Col(values []int32) *array.Data {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(v))
	}
	return array.NewData(arrowcol.PrimitiveTypes.Int32, len(values),
		[]*memory.Buffer{nil, memory.NewBufferBytes(data)}, nil, 0)
}

func stringCol(values []string, nulls ...int) *array.Data {
	offsets := make([]byte, 4*(len(values)+1))
	var data []byte
	for i, v := range values {
		data = append(data, v...)
		binary.LittleEndian.PutUint32(offsets[4*(i+1):], uint32(len(data)))
	}
	return array.NewData(&arrowcol.StringType{}, len(values),
		[]*memory.Buffer{validityBuf(len(values), nulls), memory.NewBufferBytes(offsets), memory.NewBufferBytes(data)},
		nil, len(nulls))
}

func listInt32Col(lists [][]int32) *array.Data {
	offsets := make([]byte, 4*(len(lists)+1))
	var flat []int32
	for i, l := range lists {
		flat = append(flat, l...)
		binary.LittleEndian.PutUint32(offsets[4*(i+1):], uint32(len(flat)))
	}
	child := int32Col(flat)
	defer child.Release()
	return array.NewData(arrowcol.ListOf(arrowcol.PrimitiveTypes.Int32), len(lists),
		[]*memory.Buffer{nil, memory.NewBufferBytes(offsets)},
		[]*array.Data{child}, 0)
}

func validityBuf(n int, nulls []int) *memory.Buffer {
	if len(nulls) == 0 {
		return nil
	}
	b := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		b[i/8] |= 1 << (i % 8)
	}
	for _, i := range nulls {
		b[i/8] &^= 1 << (i % 8)
	}
	return memory.NewBufferBytes(b)
}

func makeRecord(schema *arrowcol.Schema, rows int64, cols ...*array.Data) *array.Record {
	rec := array.NewRecord(schema, rows, cols)
	for _, col := range cols {
		col.Release()
	}
	return rec
}

func streamSchema() *arrowcol.Schema {
	return arrowcol.NewSchema([]arrowcol.Field{
		{Name: "id", Type: arrowcol.PrimitiveTypes.Int64, Nullable: true},
		{Name: "name", Type: &arrowcol.StringType{}, Nullable: true},
		{Name: "tags", Type: arrowcol.ListOf(arrowcol.PrimitiveTypes.Int32)},
	}, nil)
}

func writeStream(t *testing.T, schema *arrowcol.Schema, recs []*array.Record, opts ...ipc.Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, schema, opts...)
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func columnValues(rec *array.Record, i int) []any {
	return array.NewColumn(rec.Column(i)).Values()
}

func TestStreamRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := streamSchema()
	rec1 := makeRecord(schema, 3,
		int64Col([]int64{1, 0, 3}, 1),
		stringCol([]string{"ada", "", "grace"}, 1),
		listInt32Col([][]int32{{1, 2}, {}, {3}}),
	)
	defer rec1.Release()
	rec2 := makeRecord(schema, 1,
		int64Col([]int64{4}),
		stringCol([]string{"edsger"}),
		listInt32Col([][]int32{{4, 5, 6}}),
	)
	defer rec2.Release()

	raw := writeStream(t, schema, []*array.Record{rec1, rec2}, ipc.WithAllocator(mem))

	r, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Release()
	assert.True(t, schema.Equal(r.Schema()))

	require.True(t, r.Next())
	got := r.Record()
	assert.Equal(t, int64(3), got.NumRows())
	assert.Equal(t, []any{int64(1), nil, int64(3)}, columnValues(got, 0))
	assert.Equal(t, []any{"ada", nil, "grace"}, columnValues(got, 1))
	assert.Equal(t, []any{
		[]any{int32(1), int32(2)},
		[]any{},
		[]any{int32(3)},
	}, columnValues(got, 2))

	require.True(t, r.Next())
	assert.Equal(t, []any{"edsger"}, columnValues(r.Record(), 1))

	assert.False(t, r.Next())
	require.NoError(t, r.Err())
}

func TestStreamCompression(t *testing.T) {
	for _, codec := range []ipc.CompressionType{ipc.CompressionLZ4Frame, ipc.CompressionZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			schema := arrowcol.NewSchema([]arrowcol.Field{
				{Name: "text", Type: &arrowcol.StringType{}},
			}, nil)

			// repetitive enough that the codec beats the raw encoding
			values := make([]string, 128)
			for i := range values {
				values[i] = strings.Repeat("abcdefgh", 32)
			}
			rec := makeRecord(schema, int64(len(values)), stringCol(values))
			defer rec.Release()

			raw := writeStream(t, schema, []*array.Record{rec}, ipc.WithCompression(codec))
			plain := writeStream(t, schema, []*array.Record{rec})
			assert.Less(t, len(raw), len(plain))

			r, err := ipc.NewReader(bytes.NewReader(raw))
			require.NoError(t, err)
			defer r.Release()

			require.True(t, r.Next())
			assert.Equal(t, values[7], columnValues(r.Record(), 0)[7])
			assert.False(t, r.Next())
			require.NoError(t, r.Err())
		})
	}
}

func TestStreamDictionaryRoundTrip(t *testing.T) {
	schema := arrowcol.NewSchema([]arrowcol.Field{
		{Name: "color", Type: arrowcol.DictOf(7, &arrowcol.StringType{}), Nullable: true},
	}, nil)

	values := stringCol([]string{"red", "green", "blue"})
	keys := array.NewData(arrowcol.DictOf(7, &arrowcol.StringType{}), 4,
		[]*memory.Buffer{validityBuf(4, []int{2}), memory.NewBufferBytes([]byte{
			2, 0, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
			1, 0, 0, 0,
		})}, nil, 1)
	keys.SetDictionary(values)
	values.Release()

	rec := makeRecord(schema, 4, keys)
	defer rec.Release()

	raw := writeStream(t, schema, []*array.Record{rec})

	r, err := ipc.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Next())
	assert.Equal(t, []any{"blue", "red", nil, "green"}, columnValues(r.Record(), 0))
	assert.False(t, r.Next())
	require.NoError(t, r.Err())
}

func TestStreamJSONCodec(t *testing.T) {
	schema := arrowcol.NewSchema([]arrowcol.Field{
		{Name: "id", Type: arrowcol.PrimitiveTypes.Int64},
	}, nil)
	rec := makeRecord(schema, 2, int64Col([]int64{10, 20}))
	defer rec.Release()

	raw := writeStream(t, schema, []*array.Record{rec},
		ipc.WithMetadataCodec(&arrjson.Codec{}))

	// the metadata is now JSON, so the flatbuffers reader must not accept it
	_, err := ipc.NewReader(bytes.NewReader(raw))
	assert.Error(t, err)

	r, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithMetadataCodec(&arrjson.Codec{}))
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Next())
	assert.Equal(t, []any{int64(10), int64(20)}, columnValues(r.Record(), 0))
	assert.False(t, r.Next())
	require.NoError(t, r.Err())
}

func TestStreamSerialDecode(t *testing.T) {
	schema := streamSchema()
	rec := makeRecord(schema, 2,
		int64Col([]int64{1, 2}),
		stringCol([]string{"a", "b"}),
		listInt32Col([][]int32{{1}, {2, 3}}),
	)
	defer rec.Release()

	raw := writeStream(t, schema, []*array.Record{rec})

	r, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithSerialDecode())
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Next())
	assert.Equal(t, []any{int64(1), int64(2)}, columnValues(r.Record(), 0))
}

func TestStreamSchemaMismatch(t *testing.T) {
	schema := arrowcol.NewSchema([]arrowcol.Field{
		{Name: "id", Type: arrowcol.PrimitiveTypes.Int64},
	}, nil)
	other := arrowcol.NewSchema([]arrowcol.Field{
		{Name: "id", Type: arrowcol.PrimitiveTypes.Int32},
	}, nil)

	rec := makeRecord(other, 1, int32Col([]int32{1}))
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, schema)
	err := w.Write(rec)
	assert.Error(t, err)
}

func TestStreamReaderWantsSchemaFirst(t *testing.T) {
	_, err := ipc.NewReader(bytes.NewReader(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")

	_, err = ipc.NewReader(bytes.NewReader([]byte("not an arrow stream....")))
	assert.ErrorIs(t, err, ipc.ErrFormat)
}

func TestStreamRead(t *testing.T) {
	schema := arrowcol.NewSchema([]arrowcol.Field{
		{Name: "id", Type: arrowcol.PrimitiveTypes.Int64},
	}, nil)
	rec := makeRecord(schema, 1, int64Col([]int64{42}))
	defer rec.Release()

	raw := writeStream(t, schema, []*array.Record{rec})

	r, err := ipc.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer r.Release()

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.NumRows())

	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestFileRoundTrip(t *testing.T) {
	schema := arrowcol.NewSchema([]arrowcol.Field{
		{Name: "id", Type: arrowcol.PrimitiveTypes.Int64},
	}, nil)
	rec := makeRecord(schema, 2, int64Col([]int64{7, 8}))
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewFileWriter(&buf, schema)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
	assert.True(t, bytes.HasPrefix(buf.Bytes(), ipc.Magic))
	assert.True(t, bytes.HasSuffix(buf.Bytes(), ipc.Magic))

	f, err := ipc.NewFileReader(&buf)
	require.NoError(t, err)
	defer f.Release()
	assert.True(t, schema.Equal(f.Schema()))

	require.True(t, f.Next())
	assert.Equal(t, []any{int64(7), int64(8)}, columnValues(f.Record(), 0))
	assert.False(t, f.Next())
	require.NoError(t, f.Err())
}

func TestFileBadMagic(t *testing.T) {
	_, err := ipc.NewFileReader(bytes.NewReader([]byte("NOTARR\x00\x00rest")))
	assert.ErrorIs(t, err, ipc.ErrFormat)

	_, err = ipc.NewFileReader(bytes.NewReader([]byte("AR")))
	assert.ErrorIs(t, err, ipc.ErrFormat)
}
