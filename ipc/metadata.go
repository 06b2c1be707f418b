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
	"fmt"

	"github.com/columnlab/arrowcol"
)

// MessageKind discriminates the header payload of a framed message.
type MessageKind byte

const (
	MessageNone MessageKind = iota
	MessageSchema
	MessageDictionaryBatch
	MessageRecordBatch
	MessageTensor
	MessageSparseTensor
)

func (k MessageKind) String() string {
	switch k {
	case MessageNone:
		return "none"
	case MessageSchema:
		return "schema"
	case MessageDictionaryBatch:
		return "dictionary batch"
	case MessageRecordBatch:
		return "record batch"
	case MessageTensor:
		return "tensor"
	case MessageSparseTensor:
		return "sparse tensor"
	}
	return fmt.Sprintf("MessageKind(%d)", int(k))
}

// CompressionType identifies the codec of compressed body buffers.
type CompressionType int8

const (
	CompressionNone CompressionType = iota - 1
	CompressionLZ4Frame
	CompressionZstd
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4Frame:
		return "lz4_frame"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("CompressionType(%d)", int(c))
}

// FieldNode carries the row and null counts of one type node of a record
// batch, in depth-first preorder.
type FieldNode struct {
	Length    int64
	NullCount int64
}

// BufferRegion locates one physical buffer inside the message body.
type BufferRegion struct {
	Offset int64
	Length int64
}

// BodyCompression describes how the body buffers of a batch are compressed.
type BodyCompression struct {
	Codec CompressionType
}

// RecordBatchHeader is the decoded header of a record batch message: the row
// count plus the flattened node and buffer lists the planner re-associates
// with the schema.
type RecordBatchHeader struct {
	Length      int64
	Nodes       []FieldNode
	Buffers     []BufferRegion
	Compression *BodyCompression
}

// DictionaryBatchHeader is the decoded header of a dictionary batch message.
// Data holds the value array as a single-field record batch.
type DictionaryBatchHeader struct {
	ID      int64
	IsDelta bool
	Data    *RecordBatchHeader
}

// MessageHeader is the codec-neutral decoded form of a message's metadata.
// Exactly one of Schema, Record and Dictionary is set, per Kind.
type MessageHeader struct {
	Version    arrowcol.MetadataVersion
	Kind       MessageKind
	BodyLength int64

	Schema     *arrowcol.Schema
	Record     *RecordBatchHeader
	Dictionary *DictionaryBatchHeader
}

// MetadataCodec translates between message metadata bytes and MessageHeader.
// The default is flatbuffers; arrjson provides a JSON rendition for tooling
// and tests.
type MetadataCodec interface {
	Name() string
	DecodeMessage(meta []byte) (*MessageHeader, error)
	EncodeMessage(hdr *MessageHeader) ([]byte, error)
}
