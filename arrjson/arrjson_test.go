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

package arrjson_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/arrjson"
	"github.com/columnlab/arrowcol/ipc"
)

func TestJSONSchemaRoundTrip(t *testing.T) {
	md := arrowcol.NewMetadata([]string{"source"}, []string{"json-test"})
	schema := arrowcol.NewSchema([]arrowcol.Field{
		{Name: "id", Type: arrowcol.PrimitiveTypes.Int64},
		{Name: "ratio", Type: arrowcol.PrimitiveTypes.Float32, Nullable: true},
		{Name: "label", Type: &arrowcol.StringType{}, Nullable: true},
		{Name: "price", Type: &arrowcol.DecimalType{Precision: 10, Scale: 2, Width: 128}},
		{Name: "when", Type: &arrowcol.TimestampType{Unit: arrowcol.Millisecond, TimeZone: "UTC"}},
		{Name: "tags", Type: arrowcol.ListOf(&arrowcol.StringType{})},
		{Name: "attrs", Type: arrowcol.MapOf(&arrowcol.StringType{}, arrowcol.PrimitiveTypes.Int32)},
		{Name: "color", Type: arrowcol.DictOf(2, &arrowcol.StringType{}), Nullable: true},
	}, &md)

	codec := &arrjson.Codec{}
	meta, err := codec.EncodeMessage(&ipc.MessageHeader{
		Version: arrowcol.CurrentMetadataVersion,
		Kind:    ipc.MessageSchema,
		Schema:  schema,
	})
	require.NoError(t, err)
	assert.True(t, json.Valid(meta))

	hdr, err := codec.DecodeMessage(meta)
	require.NoError(t, err)
	require.Equal(t, ipc.MessageSchema, hdr.Kind)
	assert.True(t, schema.Equal(hdr.Schema), "got %v\nwant %v", hdr.Schema, schema)
	assert.Equal(t, "json-test", hdr.Schema.Metadata().Values()[0])
}

func TestJSONRecordRoundTrip(t *testing.T) {
	in := &ipc.MessageHeader{
		Version:    arrowcol.CurrentMetadataVersion,
		Kind:       ipc.MessageRecordBatch,
		BodyLength: 128,
		Record: &ipc.RecordBatchHeader{
			Length: 2,
			Nodes:  []ipc.FieldNode{{Length: 2, NullCount: 1}},
			Buffers: []ipc.BufferRegion{
				{Offset: 0, Length: 1},
				{Offset: 8, Length: 16},
			},
			Compression: &ipc.BodyCompression{Codec: ipc.CompressionLZ4Frame},
		},
	}

	codec := &arrjson.Codec{}
	meta, err := codec.EncodeMessage(in)
	require.NoError(t, err)

	hdr, err := codec.DecodeMessage(meta)
	require.NoError(t, err)
	assert.Equal(t, in.BodyLength, hdr.BodyLength)
	assert.Equal(t, in.Record, hdr.Record)
}

func TestJSONDictionaryRoundTrip(t *testing.T) {
	in := &ipc.MessageHeader{
		Version:    arrowcol.CurrentMetadataVersion,
		Kind:       ipc.MessageDictionaryBatch,
		BodyLength: 32,
		Dictionary: &ipc.DictionaryBatchHeader{
			ID:      2,
			IsDelta: true,
			Data: &ipc.RecordBatchHeader{
				Length:  1,
				Nodes:   []ipc.FieldNode{{Length: 1}},
				Buffers: []ipc.BufferRegion{{}, {Offset: 0, Length: 8}, {Offset: 8, Length: 3}},
			},
		},
	}

	codec := &arrjson.Codec{}
	meta, err := codec.EncodeMessage(in)
	require.NoError(t, err)

	hdr, err := codec.DecodeMessage(meta)
	require.NoError(t, err)
	require.Equal(t, ipc.MessageDictionaryBatch, hdr.Kind)
	assert.Equal(t, in.Dictionary, hdr.Dictionary)
}

func TestJSONMalformed(t *testing.T) {
	codec := &arrjson.Codec{}

	_, err := codec.DecodeMessage([]byte("{not json"))
	assert.ErrorIs(t, err, ipc.ErrFormat)

	_, err = codec.DecodeMessage([]byte(`{"kind":"schema"}`))
	assert.ErrorIs(t, err, ipc.ErrFormat)

	_, err = codec.DecodeMessage([]byte(`{"kind":"wobble"}`))
	assert.ErrorIs(t, err, ipc.ErrFormat)
}
