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

// MetadataVersion is the Arrow format metadata version. The numeric values
// match the flatbuffers MetadataVersion enum.
type MetadataVersion int16

const (
	MetadataV1 MetadataVersion = iota // Arrow-0.1.0
	MetadataV2                        // Arrow-0.2.0
	MetadataV3                        // Arrow-0.3.0 to 0.7.1
	MetadataV4                        // Arrow-0.8.0 to 0.17.1
	MetadataV5                        // >= Arrow-1.0.0
)

// CurrentMetadataVersion is the version written by this module.
const CurrentMetadataVersion = MetadataV5

func (m MetadataVersion) String() string {
	switch m {
	case MetadataV1:
		return "V1"
	case MetadataV2:
		return "V2"
	case MetadataV3:
		return "V3"
	case MetadataV4:
		return "V4"
	case MetadataV5:
		return "V5"
	}
	return fmt.Sprintf("MetadataVersion(%d)", int16(m))
}

// Endianness of the buffers in a stream. Wire values per the flatbuffers
// Endianness enum.
type Endianness int16

const (
	LittleEndian Endianness = 0
	BigEndian    Endianness = 1
)

func (e Endianness) String() string {
	switch e {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	}
	return fmt.Sprintf("Endianness(%d)", int16(e))
}

// Precision of a floating point type.
type Precision int16

const (
	PrecisionHalf Precision = iota
	PrecisionSingle
	PrecisionDouble
)

func (p Precision) String() string {
	switch p {
	case PrecisionHalf:
		return "HALF"
	case PrecisionSingle:
		return "SINGLE"
	case PrecisionDouble:
		return "DOUBLE"
	}
	return fmt.Sprintf("Precision(%d)", int16(p))
}

// DateUnit is the storage granularity of a Date type.
type DateUnit int16

const (
	DateDay DateUnit = iota
	DateMillisecond
)

func (u DateUnit) String() string {
	switch u {
	case DateDay:
		return "DAY"
	case DateMillisecond:
		return "MILLISECOND"
	}
	return fmt.Sprintf("DateUnit(%d)", int16(u))
}

// TimeUnit is the granularity of Time, Timestamp and Duration types. Note
// the wire ordering: SECOND is 0, NANOSECOND is 3.
type TimeUnit int16

const (
	Second TimeUnit = iota
	Millisecond
	Microsecond
	Nanosecond
)

func (u TimeUnit) String() string {
	return [...]string{"s", "ms", "us", "ns"}[uint(u)&3]
}

// IntervalUnit is the flavor of a calendar interval.
type IntervalUnit int16

const (
	YearMonthInterval IntervalUnit = iota
	DayTimeInterval
	MonthDayNanoInterval
)

func (u IntervalUnit) String() string {
	switch u {
	case YearMonthInterval:
		return "YEAR_MONTH"
	case DayTimeInterval:
		return "DAY_TIME"
	case MonthDayNanoInterval:
		return "MONTH_DAY_NANO"
	}
	return fmt.Sprintf("IntervalUnit(%d)", int16(u))
}

// UnionMode discriminates sparse and dense unions.
type UnionMode int16

const (
	SparseMode UnionMode = 0
	DenseMode  UnionMode = 1
)

func (m UnionMode) String() string {
	switch m {
	case SparseMode:
		return "SPARSE"
	case DenseMode:
		return "DENSE"
	}
	return fmt.Sprintf("UnionMode(%d)", int16(m))
}
