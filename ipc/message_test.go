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

package ipc

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/columnlab/arrowcol"
)

func encodeSchemaMeta(t *testing.T) []byte {
	t.Helper()
	codec := &FlatbuffersCodec{}
	meta, err := codec.EncodeMessage(&MessageHeader{
		Version: arrowcol.CurrentMetadataVersion,
		Kind:    MessageSchema,
		Schema: arrowcol.NewSchema([]arrowcol.Field{
			{Name: "v", Type: arrowcol.PrimitiveTypes.Int32},
		}, nil),
	})
	require.NoError(t, err)
	return meta
}

func TestMessageFraming(t *testing.T) {
	meta := encodeSchemaMeta(t)

	var buf bytes.Buffer
	n, err := writeMessageFrame(&buf, meta)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.Zero(t, buf.Len()%frameAlign)

	// continuation marker, then the padded metadata length
	raw := buf.Bytes()
	assert.Equal(t, continuationMarker, binary.LittleEndian.Uint32(raw[:4]))
	metaLen := binary.LittleEndian.Uint32(raw[4:8])
	assert.Zero(t, metaLen%frameAlign)
	assert.GreaterOrEqual(t, int(metaLen), len(meta))

	_, err = writeEOS(&buf)
	require.NoError(t, err)

	r := NewMessageReader(&buf)
	defer r.Release()

	msg, err := r.Message()
	require.NoError(t, err)
	assert.Equal(t, MessageSchema, msg.Kind())
	assert.Zero(t, msg.BodyLen())

	_, err = r.Message()
	assert.Equal(t, io.EOF, err)
}

func TestMessageReaderEOSVariants(t *testing.T) {
	// continuation marker followed by a zero length
	var eos bytes.Buffer
	_, err := writeEOS(&eos)
	require.NoError(t, err)

	r := NewMessageReader(&eos)
	_, err = r.Message()
	assert.Equal(t, io.EOF, err)
	r.Release()

	// bare zero length, the pre-continuation framing
	r = NewMessageReader(bytes.NewReader([]byte{0, 0, 0, 0}))
	_, err = r.Message()
	assert.Equal(t, io.EOF, err)
	r.Release()

	// clean end of input between frames
	r = NewMessageReader(bytes.NewReader(nil))
	_, err = r.Message()
	assert.Equal(t, io.EOF, err)
	r.Release()
}

func TestMessageReaderTruncated(t *testing.T) {
	meta := encodeSchemaMeta(t)

	var buf bytes.Buffer
	_, err := writeMessageFrame(&buf, meta)
	require.NoError(t, err)

	// drop the tail of the metadata
	raw := buf.Bytes()[:buf.Len()-4]
	r := NewMessageReader(bytes.NewReader(raw))
	defer r.Release()

	_, err = r.Message()
	assert.ErrorIs(t, err, ErrFormat)
}

func TestMessageReaderTruncatedPrefix(t *testing.T) {
	r := NewMessageReader(bytes.NewReader([]byte{0xFF, 0xFF}))
	defer r.Release()

	_, err := r.Message()
	assert.ErrorIs(t, err, ErrFormat)
}

func TestMessageReaderTruncatedBody(t *testing.T) {
	codec := &FlatbuffersCodec{}
	meta, err := codec.EncodeMessage(&MessageHeader{
		Version:    arrowcol.CurrentMetadataVersion,
		Kind:       MessageRecordBatch,
		BodyLength: 64,
		Record:     &RecordBatchHeader{Length: 0},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = writeMessageFrame(&buf, meta)
	require.NoError(t, err)
	buf.Write(make([]byte, 8)) // 8 of the 64 announced body bytes

	r := NewMessageReader(&buf)
	defer r.Release()

	_, err = r.Message()
	assert.ErrorIs(t, err, ErrFormat)
}

func TestMessageReaderGarbage(t *testing.T) {
	// a length prefix pointing at garbage metadata
	raw := []byte{16, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	r := NewMessageReader(bytes.NewReader(raw))
	defer r.Release()

	_, err := r.Message()
	assert.ErrorIs(t, err, ErrFormat)
}
