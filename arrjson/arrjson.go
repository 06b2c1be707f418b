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

// Package arrjson renders message metadata as JSON, using the integration
// vocabulary of the columnar format ("int", "floatingpoint", unit names in
// upper case). It plugs into the ipc package as an alternative metadata
// codec for tooling and tests.
package arrjson

import (
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/xerrors"

	"github.com/columnlab/arrowcol"
	"github.com/columnlab/arrowcol/ipc"
)

// Codec is a JSON ipc.MetadataCodec.
type Codec struct{}

func (*Codec) Name() string { return "json" }

type messageJSON struct {
	Version    int16          `json:"version"`
	Kind       string         `json:"kind"`
	BodyLength int64          `json:"bodyLength"`
	Schema     *schemaJSON    `json:"schema,omitempty"`
	Batch      *batchJSON     `json:"batch,omitempty"`
	Dictionary *dictBatchJSON `json:"dictionary,omitempty"`
}

type schemaJSON struct {
	Fields     []fieldJSON `json:"fields"`
	Endianness string      `json:"endianness,omitempty"`
	Metadata   []kvJSON    `json:"metadata,omitempty"`
}

type kvJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type fieldJSON struct {
	Name       string       `json:"name"`
	Type       dataTypeJSON `json:"type"`
	Nullable   bool         `json:"nullable"`
	Children   []fieldJSON  `json:"children"`
	Dictionary *dictEncJSON `json:"dictionary,omitempty"`
	Metadata   []kvJSON     `json:"metadata,omitempty"`
}

type dataTypeJSON struct {
	Name       string `json:"name"`
	Signed     bool   `json:"isSigned,omitempty"`
	BitWidth   int    `json:"bitWidth,omitempty"`
	Precision  any    `json:"precision,omitempty"` // string for floats, number for decimals
	Scale      int32  `json:"scale,omitempty"`
	ByteWidth  int    `json:"byteWidth,omitempty"`
	ListSize   int32  `json:"listSize,omitempty"`
	Unit       string `json:"unit,omitempty"`
	TimeZone   string `json:"timezone,omitempty"`
	Mode       string `json:"mode,omitempty"`
	TypeIDs    []int8 `json:"typeIds,omitempty"`
	KeysSorted bool   `json:"keysSorted,omitempty"`
}

type dictEncJSON struct {
	ID        int64        `json:"id"`
	IndexType dataTypeJSON `json:"indexType"`
	IsOrdered bool         `json:"isOrdered,omitempty"`
}

type batchJSON struct {
	Count       int64           `json:"count"`
	Nodes       []fieldNodeJSON `json:"nodes"`
	Buffers     []bufferJSON    `json:"buffers"`
	Compression string          `json:"compression,omitempty"`
}

type fieldNodeJSON struct {
	Length    int64 `json:"length"`
	NullCount int64 `json:"nullCount"`
}

type bufferJSON struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

type dictBatchJSON struct {
	ID      int64      `json:"id"`
	IsDelta bool       `json:"isDelta,omitempty"`
	Data    *batchJSON `json:"data"`
}

// EncodeMessage renders a header as JSON metadata.
func (c *Codec) EncodeMessage(hdr *ipc.MessageHeader) ([]byte, error) {
	out := messageJSON{
		Version:    int16(hdr.Version),
		BodyLength: hdr.BodyLength,
	}
	switch hdr.Kind {
	case ipc.MessageSchema:
		out.Kind = "schema"
		s, err := schemaToJSON(hdr.Schema)
		if err != nil {
			return nil, err
		}
		out.Schema = s
	case ipc.MessageRecordBatch:
		out.Kind = "record"
		out.Batch = batchToJSON(hdr.Record)
	case ipc.MessageDictionaryBatch:
		out.Kind = "dictionary"
		out.Dictionary = &dictBatchJSON{
			ID:      hdr.Dictionary.ID,
			IsDelta: hdr.Dictionary.IsDelta,
			Data:    batchToJSON(hdr.Dictionary.Data),
		}
	default:
		return nil, xerrors.Errorf("cannot encode %v message: %w", hdr.Kind, ipc.ErrFormat)
	}
	return json.Marshal(out)
}

// DecodeMessage parses JSON metadata into a header.
func (c *Codec) DecodeMessage(meta []byte) (*ipc.MessageHeader, error) {
	var in messageJSON
	if err := json.Unmarshal(meta, &in); err != nil {
		return nil, xerrors.Errorf("malformed json metadata: %v: %w", err, ipc.ErrFormat)
	}

	hdr := &ipc.MessageHeader{
		Version:    arrowcol.MetadataVersion(in.Version),
		BodyLength: in.BodyLength,
	}
	switch in.Kind {
	case "schema":
		if in.Schema == nil {
			return nil, xerrors.Errorf("schema message without schema: %w", ipc.ErrFormat)
		}
		s, err := schemaFromJSON(in.Schema, hdr.Version)
		if err != nil {
			return nil, err
		}
		hdr.Kind = ipc.MessageSchema
		hdr.Schema = s
	case "record":
		if in.Batch == nil {
			return nil, xerrors.Errorf("record message without batch: %w", ipc.ErrFormat)
		}
		rec, err := batchFromJSON(in.Batch)
		if err != nil {
			return nil, err
		}
		hdr.Kind = ipc.MessageRecordBatch
		hdr.Record = rec
	case "dictionary":
		if in.Dictionary == nil || in.Dictionary.Data == nil {
			return nil, xerrors.Errorf("dictionary message without data: %w", ipc.ErrFormat)
		}
		rec, err := batchFromJSON(in.Dictionary.Data)
		if err != nil {
			return nil, err
		}
		hdr.Kind = ipc.MessageDictionaryBatch
		hdr.Dictionary = &ipc.DictionaryBatchHeader{
			ID:      in.Dictionary.ID,
			IsDelta: in.Dictionary.IsDelta,
			Data:    rec,
		}
	default:
		return nil, xerrors.Errorf("unknown message kind %q: %w", in.Kind, ipc.ErrFormat)
	}
	return hdr, nil
}

func schemaToJSON(schema *arrowcol.Schema) (*schemaJSON, error) {
	fields, err := fieldsToJSON(schema.Fields())
	if err != nil {
		return nil, err
	}
	out := &schemaJSON{
		Fields:   fields,
		Metadata: kvsToJSON(schema.Metadata()),
	}
	if schema.Endianness() == arrowcol.BigEndian {
		out.Endianness = "big"
	} else {
		out.Endianness = "little"
	}
	return out, nil
}

func schemaFromJSON(in *schemaJSON, version arrowcol.MetadataVersion) (*arrowcol.Schema, error) {
	fields, err := fieldsFromJSON(in.Fields)
	if err != nil {
		return nil, err
	}
	endianness := arrowcol.LittleEndian
	if in.Endianness == "big" {
		endianness = arrowcol.BigEndian
	}
	if _, err := arrowcol.DictionaryTypes(fields); err != nil {
		return nil, xerrors.Errorf("%v: %w", err, ipc.ErrFormat)
	}
	meta := kvsFromJSON(in.Metadata)
	return arrowcol.NewSchemaWithVersion(version, endianness, fields, &meta), nil
}

func fieldsToJSON(fields []arrowcol.Field) ([]fieldJSON, error) {
	out := make([]fieldJSON, len(fields))
	for i, f := range fields {
		storage := f.Type
		var enc *dictEncJSON
		if dt, ok := f.Type.(*arrowcol.DictionaryType); ok {
			storage = dt.ValueType
			enc = &dictEncJSON{
				ID: dt.DictID,
				IndexType: dataTypeJSON{
					Name:     "int",
					Signed:   dt.IndexType.Signed,
					BitWidth: dt.IndexType.Width,
				},
				IsOrdered: dt.Ordered,
			}
		}
		dtype, err := dtypeToJSON(storage)
		if err != nil {
			return nil, err
		}
		var children []fieldJSON
		if nested, ok := storage.(arrowcol.NestedType); ok {
			children, err = fieldsToJSON(nested.Fields())
			if err != nil {
				return nil, err
			}
		}
		out[i] = fieldJSON{
			Name:       f.Name,
			Type:       dtype,
			Nullable:   f.Nullable,
			Children:   children,
			Dictionary: enc,
			Metadata:   kvsToJSON(f.Metadata),
		}
	}
	return out, nil
}

func fieldsFromJSON(in []fieldJSON) ([]arrowcol.Field, error) {
	out := make([]arrowcol.Field, len(in))
	for i, f := range in {
		children, err := fieldsFromJSON(f.Children)
		if err != nil {
			return nil, err
		}
		dtype, err := dtypeFromJSON(f.Type, children)
		if err != nil {
			return nil, err
		}
		if f.Dictionary != nil {
			indexType := &arrowcol.IntType{
				Width:  f.Dictionary.IndexType.BitWidth,
				Signed: f.Dictionary.IndexType.Signed,
			}
			if err := indexType.Validate(); err != nil {
				return nil, xerrors.Errorf("dictionary index type: %v: %w", err, ipc.ErrFormat)
			}
			dtype = &arrowcol.DictionaryType{
				DictID:    f.Dictionary.ID,
				IndexType: indexType,
				ValueType: dtype,
				Ordered:   f.Dictionary.IsOrdered,
			}
		}
		out[i] = arrowcol.Field{
			Name:     f.Name,
			Type:     dtype,
			Nullable: f.Nullable,
			Metadata: kvsFromJSON(f.Metadata),
		}
	}
	return out, nil
}

func dtypeToJSON(dt arrowcol.DataType) (dataTypeJSON, error) {
	switch dt := dt.(type) {
	case *arrowcol.NullType:
		return dataTypeJSON{Name: "null"}, nil
	case *arrowcol.BooleanType:
		return dataTypeJSON{Name: "bool"}, nil
	case *arrowcol.IntType:
		return dataTypeJSON{Name: "int", Signed: dt.Signed, BitWidth: dt.Width}, nil
	case *arrowcol.FloatType:
		return dataTypeJSON{Name: "floatingpoint", Precision: precisionName(dt.Precision)}, nil
	case *arrowcol.DecimalType:
		return dataTypeJSON{Name: "decimal", Precision: dt.Precision, Scale: dt.Scale, BitWidth: int(dt.Width)}, nil
	case *arrowcol.DateType:
		return dataTypeJSON{Name: "date", Unit: dateUnitName(dt.Unit)}, nil
	case *arrowcol.TimeType:
		return dataTypeJSON{Name: "time", Unit: timeUnitName(dt.Unit), BitWidth: dt.Width}, nil
	case *arrowcol.TimestampType:
		return dataTypeJSON{Name: "timestamp", Unit: timeUnitName(dt.Unit), TimeZone: dt.TimeZone}, nil
	case *arrowcol.DurationType:
		return dataTypeJSON{Name: "duration", Unit: timeUnitName(dt.Unit)}, nil
	case *arrowcol.IntervalType:
		return dataTypeJSON{Name: "interval", Unit: intervalUnitName(dt.Unit)}, nil
	case *arrowcol.BinaryType:
		return dataTypeJSON{Name: "binary"}, nil
	case *arrowcol.StringType:
		return dataTypeJSON{Name: "utf8"}, nil
	case *arrowcol.LargeBinaryType:
		return dataTypeJSON{Name: "largebinary"}, nil
	case *arrowcol.LargeStringType:
		return dataTypeJSON{Name: "largeutf8"}, nil
	case *arrowcol.FixedSizeBinaryType:
		return dataTypeJSON{Name: "fixedsizebinary", ByteWidth: dt.ByteWidth}, nil
	case *arrowcol.ListType:
		return dataTypeJSON{Name: "list"}, nil
	case *arrowcol.LargeListType:
		return dataTypeJSON{Name: "largelist"}, nil
	case *arrowcol.FixedSizeListType:
		return dataTypeJSON{Name: "fixedsizelist", ListSize: dt.Len()}, nil
	case *arrowcol.StructType:
		return dataTypeJSON{Name: "struct"}, nil
	case *arrowcol.UnionType:
		mode := "SPARSE"
		if dt.Mode() == arrowcol.DenseMode {
			mode = "DENSE"
		}
		return dataTypeJSON{Name: "union", Mode: mode, TypeIDs: dt.TypeCodes()}, nil
	case *arrowcol.MapType:
		return dataTypeJSON{Name: "map", KeysSorted: dt.KeysSorted}, nil
	}
	return dataTypeJSON{}, xerrors.Errorf("cannot encode type %v: %w", dt, ipc.ErrFormat)
}

func dtypeFromJSON(in dataTypeJSON, children []arrowcol.Field) (arrowcol.DataType, error) {
	switch in.Name {
	case "null":
		return arrowcol.Null, nil
	case "bool":
		return &arrowcol.BooleanType{}, nil
	case "int":
		dt := &arrowcol.IntType{Width: in.BitWidth, Signed: in.Signed}
		if err := dt.Validate(); err != nil {
			return nil, xerrors.Errorf("%v: %w", err, ipc.ErrFormat)
		}
		return dt, nil
	case "floatingpoint":
		name, _ := in.Precision.(string)
		p, err := precisionFromName(name)
		if err != nil {
			return nil, err
		}
		return &arrowcol.FloatType{Precision: p}, nil
	case "decimal":
		prec, _ := in.Precision.(float64)
		width := int32(in.BitWidth)
		if width == 0 {
			width = 128
		}
		dt := &arrowcol.DecimalType{Precision: int32(prec), Scale: in.Scale, Width: width}
		if err := dt.Validate(); err != nil {
			return nil, xerrors.Errorf("%v: %w", err, ipc.ErrFormat)
		}
		return dt, nil
	case "date":
		if in.Unit == "DAY" {
			return &arrowcol.DateType{Unit: arrowcol.DateDay}, nil
		}
		return &arrowcol.DateType{Unit: arrowcol.DateMillisecond}, nil
	case "time":
		unit, err := timeUnitFromName(in.Unit)
		if err != nil {
			return nil, err
		}
		dt := &arrowcol.TimeType{Unit: unit, Width: in.BitWidth}
		if err := dt.Validate(); err != nil {
			return nil, xerrors.Errorf("%v: %w", err, ipc.ErrFormat)
		}
		return dt, nil
	case "timestamp":
		unit, err := timeUnitFromName(in.Unit)
		if err != nil {
			return nil, err
		}
		return &arrowcol.TimestampType{Unit: unit, TimeZone: in.TimeZone}, nil
	case "duration":
		unit, err := timeUnitFromName(in.Unit)
		if err != nil {
			return nil, err
		}
		return &arrowcol.DurationType{Unit: unit}, nil
	case "interval":
		switch in.Unit {
		case "YEAR_MONTH":
			return &arrowcol.IntervalType{Unit: arrowcol.YearMonthInterval}, nil
		case "DAY_TIME":
			return &arrowcol.IntervalType{Unit: arrowcol.DayTimeInterval}, nil
		case "MONTH_DAY_NANO":
			return &arrowcol.IntervalType{Unit: arrowcol.MonthDayNanoInterval}, nil
		}
		return nil, xerrors.Errorf("unknown interval unit %q: %w", in.Unit, ipc.ErrFormat)
	case "binary":
		return &arrowcol.BinaryType{}, nil
	case "utf8":
		return &arrowcol.StringType{}, nil
	case "largebinary":
		return &arrowcol.LargeBinaryType{}, nil
	case "largeutf8":
		return &arrowcol.LargeStringType{}, nil
	case "fixedsizebinary":
		return &arrowcol.FixedSizeBinaryType{ByteWidth: in.ByteWidth}, nil
	case "list":
		if len(children) != 1 {
			return nil, xerrors.Errorf("list with %d children: %w", len(children), ipc.ErrFormat)
		}
		return arrowcol.ListOfField(children[0]), nil
	case "largelist":
		if len(children) != 1 {
			return nil, xerrors.Errorf("largelist with %d children: %w", len(children), ipc.ErrFormat)
		}
		return arrowcol.LargeListOfField(children[0]), nil
	case "fixedsizelist":
		if len(children) != 1 {
			return nil, xerrors.Errorf("fixedsizelist with %d children: %w", len(children), ipc.ErrFormat)
		}
		return arrowcol.FixedSizeListOfField(in.ListSize, children[0]), nil
	case "struct":
		return arrowcol.StructOf(children...), nil
	case "union":
		mode := arrowcol.SparseMode
		if strings.EqualFold(in.Mode, "DENSE") {
			mode = arrowcol.DenseMode
		}
		return arrowcol.UnionOf(mode, children, in.TypeIDs), nil
	case "map":
		if len(children) != 1 {
			return nil, xerrors.Errorf("map with %d children: %w", len(children), ipc.ErrFormat)
		}
		entries, ok := children[0].Type.(*arrowcol.StructType)
		if !ok || len(entries.Fields()) != 2 {
			return nil, xerrors.Errorf("map entries must be a two-field struct: %w", ipc.ErrFormat)
		}
		dt := arrowcol.MapOf(entries.Field(0).Type, entries.Field(1).Type)
		dt.KeysSorted = in.KeysSorted
		return dt, nil
	}
	return nil, xerrors.Errorf("unknown type name %q: %w", in.Name, ipc.ErrFormat)
}

func batchToJSON(hdr *ipc.RecordBatchHeader) *batchJSON {
	out := &batchJSON{Count: hdr.Length}
	out.Nodes = make([]fieldNodeJSON, len(hdr.Nodes))
	for i, n := range hdr.Nodes {
		out.Nodes[i] = fieldNodeJSON{Length: n.Length, NullCount: n.NullCount}
	}
	out.Buffers = make([]bufferJSON, len(hdr.Buffers))
	for i, b := range hdr.Buffers {
		out.Buffers[i] = bufferJSON{Offset: b.Offset, Length: b.Length}
	}
	if hdr.Compression != nil {
		out.Compression = hdr.Compression.Codec.String()
	}
	return out
}

func batchFromJSON(in *batchJSON) (*ipc.RecordBatchHeader, error) {
	out := &ipc.RecordBatchHeader{Length: in.Count}
	out.Nodes = make([]ipc.FieldNode, len(in.Nodes))
	for i, n := range in.Nodes {
		out.Nodes[i] = ipc.FieldNode{Length: n.Length, NullCount: n.NullCount}
	}
	out.Buffers = make([]ipc.BufferRegion, len(in.Buffers))
	for i, b := range in.Buffers {
		out.Buffers[i] = ipc.BufferRegion{Offset: b.Offset, Length: b.Length}
	}
	switch in.Compression {
	case "":
	case "lz4_frame":
		out.Compression = &ipc.BodyCompression{Codec: ipc.CompressionLZ4Frame}
	case "zstd":
		out.Compression = &ipc.BodyCompression{Codec: ipc.CompressionZstd}
	default:
		return nil, xerrors.Errorf("unknown compression %q: %w", in.Compression, ipc.ErrFormat)
	}
	return out, nil
}

func kvsToJSON(md arrowcol.Metadata) []kvJSON {
	if md.Len() == 0 {
		return nil
	}
	out := make([]kvJSON, md.Len())
	for i := range out {
		out[i] = kvJSON{Key: md.Keys()[i], Value: md.Values()[i]}
	}
	return out
}

func kvsFromJSON(in []kvJSON) arrowcol.Metadata {
	if len(in) == 0 {
		return arrowcol.Metadata{}
	}
	keys := make([]string, len(in))
	values := make([]string, len(in))
	for i, kv := range in {
		keys[i] = kv.Key
		values[i] = kv.Value
	}
	return arrowcol.NewMetadata(keys, values)
}

func precisionName(p arrowcol.Precision) string {
	switch p {
	case arrowcol.PrecisionHalf:
		return "HALF"
	case arrowcol.PrecisionSingle:
		return "SINGLE"
	default:
		return "DOUBLE"
	}
}

func precisionFromName(name string) (arrowcol.Precision, error) {
	switch name {
	case "HALF":
		return arrowcol.PrecisionHalf, nil
	case "SINGLE":
		return arrowcol.PrecisionSingle, nil
	case "DOUBLE":
		return arrowcol.PrecisionDouble, nil
	}
	return 0, xerrors.Errorf("unknown float precision %q: %w", name, ipc.ErrFormat)
}

func timeUnitName(u arrowcol.TimeUnit) string {
	switch u {
	case arrowcol.Second:
		return "SECOND"
	case arrowcol.Millisecond:
		return "MILLISECOND"
	case arrowcol.Microsecond:
		return "MICROSECOND"
	default:
		return "NANOSECOND"
	}
}

func timeUnitFromName(name string) (arrowcol.TimeUnit, error) {
	switch name {
	case "SECOND":
		return arrowcol.Second, nil
	case "MILLISECOND":
		return arrowcol.Millisecond, nil
	case "MICROSECOND":
		return arrowcol.Microsecond, nil
	case "NANOSECOND":
		return arrowcol.Nanosecond, nil
	}
	return 0, xerrors.Errorf("unknown time unit %q: %w", name, ipc.ErrFormat)
}

func dateUnitName(u arrowcol.DateUnit) string {
	if u == arrowcol.DateDay {
		return "DAY"
	}
	return "MILLISECOND"
}

func intervalUnitName(u arrowcol.IntervalUnit) string {
	switch u {
	case arrowcol.YearMonthInterval:
		return "YEAR_MONTH"
	case arrowcol.DayTimeInterval:
		return "DAY_TIME"
	default:
		return "MONTH_DAY_NANO"
	}
}
