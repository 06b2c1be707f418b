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

// Package ipc implements the columnar interprocess format: the framed
// message envelope, metadata encoding, record batch body layout planning
// and the dictionary replay protocol.
package ipc

import (
	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/memory"
)

type config struct {
	alloc       memory.Allocator
	codec       MetadataCodec
	compression CompressionType
	version     arrowcol.MetadataVersion
	noParallel  bool
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		alloc:       memory.NewGoAllocator(),
		codec:       &FlatbuffersCodec{},
		compression: CompressionNone,
		version:     arrowcol.CurrentMetadataVersion,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option is a functional option to configure stream readers and writers.
type Option func(*config)

// WithAllocator specifies the memory allocator used for decoded buffers.
func WithAllocator(mem memory.Allocator) Option {
	return func(cfg *config) {
		cfg.alloc = mem
	}
}

// WithMetadataCodec replaces the default flatbuffers metadata codec.
func WithMetadataCodec(codec MetadataCodec) Option {
	return func(cfg *config) {
		cfg.codec = codec
	}
}

// WithCompression makes the writer compress record batch bodies.
func WithCompression(ct CompressionType) Option {
	return func(cfg *config) {
		cfg.compression = ct
	}
}

// WithMetadataVersion overrides the metadata version stamped on written
// messages. Versions before V5 restore the legacy union validity bitmap.
func WithMetadataVersion(v arrowcol.MetadataVersion) Option {
	return func(cfg *config) {
		cfg.version = v
	}
}

// WithSerialDecode disables per-field parallel decoding of record batches.
func WithSerialDecode() Option {
	return func(cfg *config) {
		cfg.noParallel = true
	}
}
