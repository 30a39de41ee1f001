package types

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Float64 wraps a float64 so NaN participates in a total order instead of
// comparing unequal to everything, including itself. NaN sorts after every
// other float, matching the evaluator's requirement for a total order over
// every Value (§3 "Null is comparable and orderable").
type Float64 float64

func (f Float64) IsNaN() bool { return math.IsNaN(float64(f)) }

// compare returns -1, 0, 1 with NaN ordered greatest.
func (f Float64) compare(o Float64) int {
	switch {
	case f.IsNaN() && o.IsNaN():
		return 0
	case f.IsNaN():
		return 1
	case o.IsNaN():
		return -1
	case float64(f) < float64(o):
		return -1
	case float64(f) > float64(o):
		return 1
	default:
		return 0
	}
}

// Date is a calendar date with no time-of-day or zone component.
type Date struct{ time.Time }

// Time is a time-of-day with no date or zone component.
type Time struct{ time.Time }

// DateTime is a civil timestamp with no zone component.
type DateTime struct{ time.Time }

// Timestamp is UTC-anchored; it always carries a zone-independent instant.
type Timestamp struct{ time.Time }

// Interval is a BigQuery-style three-part interval: calendar months, calendar
// days, and a sub-day duration in nanoseconds, kept separate because months
// and days are not fixed-length and must not be folded into nanoseconds.
type Interval struct {
	Months int64
	Days   int64
	Nanos  int64
}

func (iv Interval) Add(o Interval) Interval {
	return Interval{iv.Months + o.Months, iv.Days + o.Days, iv.Nanos + o.Nanos}
}

func (iv Interval) Negate() Interval {
	return Interval{-iv.Months, -iv.Days, -iv.Nanos}
}

func (iv Interval) String() string {
	return fmt.Sprintf("%d-%d %d:%d:%d.%09d", iv.Months/12, iv.Months%12, iv.Days,
		iv.Nanos/int64(time.Hour), (iv.Nanos/int64(time.Minute))%60, iv.Nanos%int64(time.Second))
}

func (iv Interval) compare(o Interval) int {
	// Total order over the triple; not a calendar-accurate comparison (two
	// intervals of different unit composition may be calendar-equal but
	// order differently here), matching the engine's documented lack of a
	// canonical interval normalization.
	if iv.Months != o.Months {
		return cmpInt64(iv.Months, o.Months)
	}
	if iv.Days != o.Days {
		return cmpInt64(iv.Days, o.Days)
	}
	return cmpInt64(iv.Nanos, o.Nanos)
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// RangeValue is a half-open [lower, upper) range over a scalar type; a nil
// bound means unbounded on that side.
type RangeValue struct {
	Lower *Value
	Upper *Value
}

// StructField is one named member of a Struct value.
type StructField struct {
	Name  string
	Value Value
}

// Value is the tagged union described in spec §3. The zero Value is NULL.
type Value struct {
	kind Kind
	data any
}

// Null is the canonical NULL value.
var Null = Value{kind: KindNull}

func NewBool(b bool) Value             { return Value{kind: KindBool, data: b} }
func NewInt64(i int64) Value           { return Value{kind: KindInt64, data: i} }
func NewFloat64(f float64) Value       { return Value{kind: KindFloat64, data: Float64(f)} }
func NewNumeric(d decimal.Decimal) Value    { return Value{kind: KindNumeric, data: d} }
func NewBigNumeric(d decimal.Decimal) Value { return Value{kind: KindBigNumeric, data: d} }
func NewString(s string) Value         { return Value{kind: KindString, data: s} }
func NewBytes(b []byte) Value          { return Value{kind: KindBytes, data: b} }
func NewDate(t time.Time) Value        { return Value{kind: KindDate, data: Date{t}} }
func NewTimeOfDay(t time.Time) Value   { return Value{kind: KindTime, data: Time{t}} }
func NewDateTime(t time.Time) Value    { return Value{kind: KindDateTime, data: DateTime{t}} }
func NewTimestamp(t time.Time) Value   { return Value{kind: KindTimestamp, data: Timestamp{t.UTC()}} }
func NewInterval(iv Interval) Value    { return Value{kind: KindInterval, data: iv} }
func NewJSON(raw string) Value         { return Value{kind: KindJSON, data: raw} }
func NewGeography(wkt string) Value    { return Value{kind: KindGeography, data: wkt} }
func NewRange(r RangeValue) Value      { return Value{kind: KindRange, data: r} }

func NewArray(elemType DataType, vals []Value) Value {
	return Value{kind: KindArray, data: arrayData{elemType: elemType, vals: vals}}
}

func NewStruct(fields []StructField) Value {
	return Value{kind: KindStruct, data: fields}
}

type arrayData struct {
	elemType DataType
	vals     []Value
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == KindNull }
func (v Value) AsBool() bool  { return v.data.(bool) }
func (v Value) AsInt64() int64 { return v.data.(int64) }
func (v Value) AsFloat64() float64 { return float64(v.data.(Float64)) }
func (v Value) AsDecimal() decimal.Decimal { return v.data.(decimal.Decimal) }
func (v Value) AsString() string { return v.data.(string) }
func (v Value) AsBytes() []byte  { return v.data.([]byte) }
func (v Value) AsDate() time.Time      { return v.data.(Date).Time }
func (v Value) AsTimeOfDay() time.Time { return v.data.(Time).Time }
func (v Value) AsDateTime() time.Time  { return v.data.(DateTime).Time }
func (v Value) AsTimestamp() time.Time { return v.data.(Timestamp).Time }
func (v Value) AsInterval() Interval   { return v.data.(Interval) }
func (v Value) AsJSON() string         { return v.data.(string) }
func (v Value) AsGeography() string    { return v.data.(string) }
func (v Value) AsRange() RangeValue    { return v.data.(RangeValue) }
func (v Value) AsArray() []Value       { return v.data.(arrayData).vals }
func (v Value) ArrayElemType() DataType { return v.data.(arrayData).elemType }
func (v Value) AsStruct() []StructField { return v.data.([]StructField) }

// Raw exposes the underlying Go value for kernels that need direct access;
// it returns nil for NULL.
func (v Value) Raw() any {
	if v.IsNull() {
		return nil
	}
	return v.data
}

func (v Value) String() string {
	if v.IsNull() {
		return "NULL"
	}
	switch v.kind {
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindInt64:
		return fmt.Sprintf("%d", v.AsInt64())
	case KindFloat64:
		return fmt.Sprintf("%v", v.AsFloat64())
	case KindNumeric, KindBigNumeric:
		return v.AsDecimal().String()
	case KindString:
		return v.AsString()
	case KindBytes:
		return fmt.Sprintf("%x", v.AsBytes())
	case KindDate:
		return v.AsDate().Format("2006-01-02")
	case KindTime:
		return v.AsTimeOfDay().Format("15:04:05.999999")
	case KindDateTime:
		return v.AsDateTime().Format("2006-01-02T15:04:05.999999")
	case KindTimestamp:
		return v.AsTimestamp().Format(time.RFC3339Nano)
	case KindInterval:
		return v.AsInterval().String()
	case KindJSON:
		return v.AsJSON()
	case KindGeography:
		return v.AsGeography()
	case KindArray:
		parts := make([]string, len(v.AsArray()))
		for i, e := range v.AsArray() {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindStruct:
		parts := make([]string, len(v.AsStruct()))
		for i, f := range v.AsStruct() {
			parts[i] = f.Name + ":" + f.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindRange:
		r := v.AsRange()
		lo, hi := "unbounded", "unbounded"
		if r.Lower != nil {
			lo = r.Lower.String()
		}
		if r.Upper != nil {
			hi = r.Upper.String()
		}
		return fmt.Sprintf("[%s, %s)", lo, hi)
	default:
		return "?"
	}
}

// NullsOrder controls where NULLs sort relative to non-null values.
type NullsOrder int

const (
	NullsFirst NullsOrder = iota
	NullsLast
)

// Compare implements the fixed total order over Values used by Sort, TopN,
// MIN/MAX and DISTINCT. Comparing values of different non-null kinds is
// undefined territory left to callers (the planner rejects it at type-check
// time); within a kind the order is total, including Float64's NaN handling
// and NULL's configurable position.
func Compare(a, b Value, nulls NullsOrder) int {
	if a.IsNull() || b.IsNull() {
		if a.IsNull() && b.IsNull() {
			return 0
		}
		aIsNullFirst := nulls == NullsFirst
		if a.IsNull() {
			if aIsNullFirst {
				return -1
			}
			return 1
		}
		if aIsNullFirst {
			return 1
		}
		return -1
	}
	switch a.kind {
	case KindBool:
		ab, bb := a.AsBool(), b.AsBool()
		if ab == bb {
			return 0
		}
		if !ab {
			return -1
		}
		return 1
	case KindInt64:
		return cmpInt64(a.AsInt64(), b.AsInt64())
	case KindFloat64:
		return a.data.(Float64).compare(b.data.(Float64))
	case KindNumeric, KindBigNumeric:
		return a.AsDecimal().Cmp(b.AsDecimal())
	case KindString:
		return strings.Compare(a.AsString(), b.AsString())
	case KindBytes:
		return compareBytes(a.AsBytes(), b.AsBytes())
	case KindDate:
		return compareTime(a.AsDate(), b.AsDate())
	case KindTime:
		return compareTime(a.AsTimeOfDay(), b.AsTimeOfDay())
	case KindDateTime:
		return compareTime(a.AsDateTime(), b.AsDateTime())
	case KindTimestamp:
		return compareTime(a.AsTimestamp(), b.AsTimestamp())
	case KindInterval:
		return a.AsInterval().compare(b.AsInterval())
	case KindJSON, KindGeography:
		return strings.Compare(a.data.(string), b.data.(string))
	case KindArray:
		return compareArray(a.AsArray(), b.AsArray(), nulls)
	case KindStruct:
		return compareStruct(a.AsStruct(), b.AsStruct(), nulls)
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return cmpInt64(int64(len(a)), int64(len(b)))
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func compareArray(a, b []Value, nulls NullsOrder) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i], nulls); c != 0 {
			return c
		}
	}
	return cmpInt64(int64(len(a)), int64(len(b)))
}

func compareStruct(a, b []StructField, nulls NullsOrder) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i].Value, b[i].Value, nulls); c != 0 {
			return c
		}
	}
	return cmpInt64(int64(len(a)), int64(len(b)))
}

// Equal is Compare == 0 except NULL, which is never equal to anything under
// three-valued logic; use this only where bag/set semantics need a concrete
// bool (DISTINCT, GROUP BY keys), not for SQL `=`.
func Equal(a, b Value) bool {
	if a.IsNull() != b.IsNull() {
		return false
	}
	if a.IsNull() {
		return true
	}
	return Compare(a, b, NullsFirst) == 0
}

// SortValues sorts a slice of Values in place using Compare; exposed for
// ARRAY_AGG ORDER BY finalization and similar small in-memory sorts.
func SortValues(vals []Value, nulls NullsOrder, desc bool) {
	sort.SliceStable(vals, func(i, j int) bool {
		c := Compare(vals[i], vals[j], nulls)
		if desc {
			return c > 0
		}
		return c < 0
	})
}
