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

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/xerrors"

	"github.com/columnlab/arrowcol/memory"
)

// Compressed body buffers carry an int64 uncompressed-length prefix. A
// prefix of -1 marks a buffer stored raw because compression did not help.
const rawBufferSentinel = int64(-1)

// compressBuffer frames src for a compressed body: length prefix plus the
// codec output, falling back to raw storage when that is smaller.
func compressBuffer(ct CompressionType, src []byte) ([]byte, error) {
	compressed, err := compress(ct, src)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 8, 8+len(compressed))
	if len(compressed) >= len(src) {
		sentinel := rawBufferSentinel
		binary.LittleEndian.PutUint64(out, uint64(sentinel))
		return append(out, src...), nil
	}
	binary.LittleEndian.PutUint64(out, uint64(len(src)))
	return append(out, compressed...), nil
}

func compress(ct CompressionType, src []byte) ([]byte, error) {
	switch ct {
	case CompressionLZ4Frame:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(src); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CompressionZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(src, nil), nil
	}
	return nil, xerrors.Errorf("cannot compress with codec %v: %w", ct, ErrFormat)
}

// decompressBuffer undoes compressBuffer, returning a buffer owned by mem.
func decompressBuffer(ct CompressionType, src []byte, mem memory.Allocator) (*memory.Buffer, error) {
	if len(src) < 8 {
		return nil, xerrors.Errorf("compressed buffer shorter than its length prefix: %w", ErrFormat)
	}
	rawLen := int64(binary.LittleEndian.Uint64(src))
	payload := src[8:]

	out := memory.NewResizableBuffer(mem)
	if rawLen == rawBufferSentinel {
		out.Resize(len(payload))
		copy(out.Bytes(), payload)
		return out, nil
	}
	if rawLen < 0 {
		out.Release()
		return nil, xerrors.Errorf("invalid uncompressed length %d: %w", rawLen, ErrFormat)
	}
	out.Resize(int(rawLen))

	var (
		n   int
		err error
	)
	switch ct {
	case CompressionLZ4Frame:
		zr := lz4.NewReader(bytes.NewReader(payload))
		n, err = io.ReadFull(zr, out.Bytes())
		if err == nil {
			// the frame must not hold more than it declared
			var extra [1]byte
			if k, _ := zr.Read(extra[:]); k != 0 {
				err = xerrors.Errorf("lz4 frame longer than declared: %w", ErrFormat)
			}
		}
	case CompressionZstd:
		var dec *zstd.Decoder
		dec, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err == nil {
			var decoded []byte
			decoded, err = dec.DecodeAll(payload, nil)
			dec.Close()
			n = len(decoded)
			copy(out.Bytes(), decoded)
		}
	default:
		err = xerrors.Errorf("cannot decompress codec %v: %w", ct, ErrFormat)
	}
	if err == nil && n != int(rawLen) {
		err = xerrors.Errorf("decompressed %d bytes, expected %d: %w", n, rawLen, ErrFormat)
	}
	if err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}
