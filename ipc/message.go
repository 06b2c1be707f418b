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
	"encoding/binary"
	"io"
	"sync/atomic"

	"golang.org/x/xerrors"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/internal/debug"
	"github.com/columnlab/arrowcol/memory"
)

const (
	// continuationMarker precedes the metadata length of every frame.
	continuationMarker = uint32(0xFFFFFFFF)

	// alignment every frame section is padded to.
	frameAlign = 8
)

var paddingBytes [frameAlign]byte

func paddedTo(n int, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Message is one framed IPC message: its decoded header plus retained views
// of the raw metadata and body bytes.
type Message struct {
	refCount int64
	hdr      *MessageHeader
	meta     *memory.Buffer
	body     *memory.Buffer
}

// NewMessage creates a Message from raw metadata and body buffers, decoding
// the metadata with codec. NewMessage retains both buffers.
func NewMessage(codec MetadataCodec, meta, body *memory.Buffer) (*Message, error) {
	hdr, err := codec.DecodeMessage(meta.Bytes())
	if err != nil {
		return nil, err
	}
	meta.Retain()
	body.Retain()
	return &Message{refCount: 1, hdr: hdr, meta: meta, body: body}, nil
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (msg *Message) Retain() {
	atomic.AddInt64(&msg.refCount, 1)
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (msg *Message) Release() {
	debug.Assert(atomic.LoadInt64(&msg.refCount) > 0, "too many releases")

	if atomic.AddInt64(&msg.refCount, -1) == 0 {
		msg.meta.Release()
		msg.body.Release()
		msg.hdr = nil
		msg.meta = nil
		msg.body = nil
	}
}

func (msg *Message) Header() *MessageHeader            { return msg.hdr }
func (msg *Message) Kind() MessageKind                 { return msg.hdr.Kind }
func (msg *Message) Version() arrowcol.MetadataVersion { return msg.hdr.Version }
func (msg *Message) BodyLen() int64                    { return msg.hdr.BodyLength }
func (msg *Message) Body() *memory.Buffer              { return msg.body }
func (msg *Message) Meta() *memory.Buffer              { return msg.meta }

// MessageReader reads framed messages off an io.Reader.
type MessageReader struct {
	r     io.Reader
	codec MetadataCodec
	mem   memory.Allocator

	refCount int64
	msg      *Message
}

// NewMessageReader returns a reader of framed messages.
func NewMessageReader(r io.Reader, opts ...Option) *MessageReader {
	cfg := newConfig(opts...)
	return &MessageReader{r: r, codec: cfg.codec, mem: cfg.alloc, refCount: 1}
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (r *MessageReader) Retain() {
	atomic.AddInt64(&r.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the held message is released.
func (r *MessageReader) Release() {
	debug.Assert(atomic.LoadInt64(&r.refCount) > 0, "too many releases")

	if atomic.AddInt64(&r.refCount, -1) == 0 {
		if r.msg != nil {
			r.msg.Release()
			r.msg = nil
		}
	}
}

// Message reads the next message from the stream. It returns io.EOF on a
// clean end-of-stream marker or when the stream ends between frames. The
// returned message is owned by the reader and valid until the next call.
func (r *MessageReader) Message() (*Message, error) {
	if r.msg != nil {
		r.msg.Release()
		r.msg = nil
	}

	var word [4]byte
	if _, err := io.ReadFull(r.r, word[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, xerrors.Errorf("truncated frame prefix: %w", ErrFormat)
		}
		return nil, err
	}

	metaLen := binary.LittleEndian.Uint32(word[:])
	if metaLen == continuationMarker {
		if _, err := io.ReadFull(r.r, word[:]); err != nil {
			return nil, xerrors.Errorf("truncated frame prefix: %w", ErrFormat)
		}
		metaLen = binary.LittleEndian.Uint32(word[:])
	}
	if metaLen == 0 {
		// end-of-stream sentinel
		return nil, io.EOF
	}
	if int32(metaLen) < 0 {
		return nil, xerrors.Errorf("negative metadata length %d: %w", int32(metaLen), ErrFormat)
	}

	meta := memory.NewResizableBuffer(r.mem)
	meta.Resize(int(metaLen))
	defer meta.Release()
	if _, err := io.ReadFull(r.r, meta.Bytes()); err != nil {
		return nil, xerrors.Errorf("truncated metadata (want %d bytes): %w", metaLen, ErrFormat)
	}

	hdr, err := r.codec.DecodeMessage(meta.Bytes())
	if err != nil {
		return nil, err
	}
	if hdr.BodyLength < 0 {
		return nil, xerrors.Errorf("negative body length %d: %w", hdr.BodyLength, ErrFormat)
	}

	body := memory.NewResizableBuffer(r.mem)
	body.Resize(int(hdr.BodyLength))
	defer body.Release()
	if _, err := io.ReadFull(r.r, body.Bytes()); err != nil {
		return nil, xerrors.Errorf("truncated body (want %d bytes): %w", hdr.BodyLength, ErrFormat)
	}

	meta.Retain()
	body.Retain()
	r.msg = &Message{refCount: 1, hdr: hdr, meta: meta, body: body}
	return r.msg, nil
}

// writeMessageFrame writes one framed message: continuation marker, padded
// metadata length, metadata, then the (already padded) body writer runs.
func writeMessageFrame(w io.Writer, meta []byte) (int, error) {
	padded := paddedTo(len(meta)+frameAlign, frameAlign)
	n := 0

	var prefix [8]byte
	binary.LittleEndian.PutUint32(prefix[:4], continuationMarker)
	binary.LittleEndian.PutUint32(prefix[4:], uint32(padded-frameAlign))
	k, err := w.Write(prefix[:])
	n += k
	if err != nil {
		return n, err
	}

	k, err = w.Write(meta)
	n += k
	if err != nil {
		return n, err
	}
	if pad := padded - frameAlign - len(meta); pad > 0 {
		k, err = w.Write(paddingBytes[:pad])
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// writeEOS writes the end-of-stream sentinel.
func writeEOS(w io.Writer) (int, error) {
	var eos [8]byte
	binary.LittleEndian.PutUint32(eos[:4], continuationMarker)
	return w.Write(eos[:])
}
