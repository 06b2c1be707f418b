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

import (
	"fmt"
	"strconv"
	"time"
)

// Multiplier converts a TimeUnit to its time.Duration equivalent.
func (u TimeUnit) Multiplier() time.Duration {
	return [...]time.Duration{time.Second, time.Millisecond, time.Microsecond, time.Nanosecond}[uint(u)&3]
}

// DateType is days or milliseconds since the UNIX epoch.
type DateType struct {
	Unit DateUnit
}

func (*DateType) ID() Type     { return DATE }
func (*DateType) Name() string { return "date" }

func (t *DateType) BitWidth() int {
	if t.Unit == DateDay {
		return 32
	}
	return 64
}

func (t *DateType) String() string { return "date" + strconv.Itoa(t.BitWidth()) }
func (t *DateType) Fingerprint() string {
	return typeFingerprint(t) + strconv.Itoa(t.BitWidth())
}

func (t *DateType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(t.BitWidth() / 8)}}
}

// TimeType is time since midnight: 32 bits for second/millisecond units,
// 64 bits for microsecond/nanosecond units.
type TimeType struct {
	Unit  TimeUnit
	Width int // bits: 32 or 64
}

func (*TimeType) ID() Type        { return TIME }
func (*TimeType) Name() string    { return "time" }
func (t *TimeType) BitWidth() int { return t.Width }

func (t *TimeType) String() string {
	return fmt.Sprintf("time%d[%s]", t.Width, t.Unit)
}

func (t *TimeType) Fingerprint() string {
	return typeFingerprint(t) + strconv.Itoa(t.Width) + string(timeUnitFingerprint(t.Unit))
}

func (t *TimeType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(t.Width / 8)}}
}

// Validate checks the unit/width combination.
func (t *TimeType) Validate() error {
	switch {
	case t.Width == 32 && (t.Unit == Second || t.Unit == Millisecond):
		return nil
	case t.Width == 64 && (t.Unit == Microsecond || t.Unit == Nanosecond):
		return nil
	}
	return fmt.Errorf("arrowcol: invalid time type: %d bits with unit %s", t.Width, t.Unit)
}

// TimestampType is a 64-bit instant since the UNIX epoch. An empty TimeZone
// means zone-neutral; "UTC" means an absolute instant.
type TimestampType struct {
	Unit     TimeUnit
	TimeZone string
}

func (*TimestampType) ID() Type      { return TIMESTAMP }
func (*TimestampType) Name() string  { return "timestamp" }
func (*TimestampType) BitWidth() int { return 64 }

func (t *TimestampType) String() string {
	if t.TimeZone == "" {
		return "timestamp[" + t.Unit.String() + "]"
	}
	return "timestamp[" + t.Unit.String() + ", tz=" + t.TimeZone + "]"
}

func (t *TimestampType) Fingerprint() string {
	return fmt.Sprintf("%s%c:%s", typeFingerprint(t), timeUnitFingerprint(t.Unit), t.TimeZone)
}

func (*TimestampType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(8)}}
}

// DurationType is a 64-bit elapsed time with no calendar relation.
type DurationType struct {
	Unit TimeUnit
}

func (*DurationType) ID() Type      { return DURATION }
func (*DurationType) Name() string  { return "duration" }
func (*DurationType) BitWidth() int { return 64 }

func (t *DurationType) String() string { return "duration[" + t.Unit.String() + "]" }
func (t *DurationType) Fingerprint() string {
	return typeFingerprint(t) + string(timeUnitFingerprint(t.Unit))
}

func (*DurationType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(8)}}
}

// IntervalType is a calendar interval. The element width depends on the
// unit: 4 bytes for YEAR_MONTH, 8 for DAY_TIME, 16 for MONTH_DAY_NANO.
type IntervalType struct {
	Unit IntervalUnit
}

func (*IntervalType) ID() Type     { return INTERVAL }
func (*IntervalType) Name() string { return "interval" }

func (t *IntervalType) BitWidth() int {
	switch t.Unit {
	case YearMonthInterval:
		return 32
	case DayTimeInterval:
		return 64
	default:
		return 128
	}
}

func (t *IntervalType) String() string { return "interval[" + t.Unit.String() + "]" }
func (t *IntervalType) Fingerprint() string {
	switch t.Unit {
	case YearMonthInterval:
		return typeFingerprint(t) + "M"
	case DayTimeInterval:
		return typeFingerprint(t) + "d"
	default:
		return typeFingerprint(t) + "N"
	}
}

func (t *IntervalType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(t.BitWidth() / 8)}}
}

// FixedWidthTypes holds canonical instances of the parameterized fixed-width
// types at their common configurations.
var FixedWidthTypes = struct {
	Boolean              DataType
	Date32               DataType
	Date64               DataType
	Time32s              DataType
	Time32ms             DataType
	Time64us             DataType
	Time64ns             DataType
	Timestamp_s          DataType
	Timestamp_ms         DataType
	Timestamp_us         DataType
	Timestamp_ns         DataType
	Duration_s           DataType
	Duration_ms          DataType
	Duration_us          DataType
	Duration_ns          DataType
	MonthInterval        DataType
	DayTimeInterval      DataType
	MonthDayNanoInterval DataType
}{
	Boolean:              &BooleanType{},
	Date32:               &DateType{Unit: DateDay},
	Date64:               &DateType{Unit: DateMillisecond},
	Time32s:              &TimeType{Unit: Second, Width: 32},
	Time32ms:             &TimeType{Unit: Millisecond, Width: 32},
	Time64us:             &TimeType{Unit: Microsecond, Width: 64},
	Time64ns:             &TimeType{Unit: Nanosecond, Width: 64},
	Timestamp_s:          &TimestampType{Unit: Second, TimeZone: "UTC"},
	Timestamp_ms:         &TimestampType{Unit: Millisecond, TimeZone: "UTC"},
	Timestamp_us:         &TimestampType{Unit: Microsecond, TimeZone: "UTC"},
	Timestamp_ns:         &TimestampType{Unit: Nanosecond, TimeZone: "UTC"},
	Duration_s:           &DurationType{Unit: Second},
	Duration_ms:          &DurationType{Unit: Millisecond},
	Duration_us:          &DurationType{Unit: Microsecond},
	Duration_ns:          &DurationType{Unit: Nanosecond},
	MonthInterval:        &IntervalType{Unit: YearMonthInterval},
	DayTimeInterval:      &IntervalType{Unit: DayTimeInterval},
	MonthDayNanoInterval: &IntervalType{Unit: MonthDayNanoInterval},
}

var (
	_ FixedWidthDataType = (*DateType)(nil)
	_ FixedWidthDataType = (*TimeType)(nil)
	_ FixedWidthDataType = (*TimestampType)(nil)
	_ FixedWidthDataType = (*DurationType)(nil)
	_ FixedWidthDataType = (*IntervalType)(nil)
)
