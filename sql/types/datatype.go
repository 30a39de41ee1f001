package types

import "fmt"

// DataType is the declared type of a Column or expression result. It is
// deliberately small: the engine's type vocabulary is closed (§3), so a
// single struct plus a Kind discriminant covers every case instead of one
// interface implementation per type.
type DataType struct {
	Kind Kind

	// Numeric/BigNumeric precision/scale; zero means "default".
	Precision int
	Scale     int

	// Array element type; only meaningful when Kind == KindArray.
	Elem *DataType

	// Struct field descriptors; only meaningful when Kind == KindStruct.
	Fields []FieldType
}

// FieldType names one member of a STRUCT type.
type FieldType struct {
	Name string
	Type DataType
}

func (t DataType) String() string {
	switch t.Kind {
	case KindArray:
		if t.Elem != nil {
			return fmt.Sprintf("ARRAY<%s>", t.Elem.String())
		}
		return "ARRAY"
	case KindStruct:
		return "STRUCT"
	case KindNumeric:
		if t.Precision > 0 {
			return fmt.Sprintf("NUMERIC(%d,%d)", t.Precision, t.Scale)
		}
		return "NUMERIC"
	case KindBigNumeric:
		if t.Precision > 0 {
			return fmt.Sprintf("BIGNUMERIC(%d,%d)", t.Precision, t.Scale)
		}
		return "BIGNUMERIC"
	default:
		return t.Kind.String()
	}
}

func (t DataType) Equal(o DataType) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindArray:
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	case KindStruct:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if !equalFoldASCII(t.Fields[i].Name, o.Fields[i].Name) || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// IsNumeric reports participation in the arithmetic coercion ladder (§4.1).
func (t DataType) IsNumeric() bool { return t.Kind.isNumeric() }

var (
	Bool       = DataType{Kind: KindBool}
	Int64      = DataType{Kind: KindInt64}
	Float64Ty  = DataType{Kind: KindFloat64}
	Numeric    = DataType{Kind: KindNumeric, Precision: 38, Scale: 9}
	BigNumeric = DataType{Kind: KindBigNumeric, Precision: 76, Scale: 38}
	String     = DataType{Kind: KindString}
	Bytes      = DataType{Kind: KindBytes}
	Date       = DataType{Kind: KindDate}
	Time       = DataType{Kind: KindTime}
	DateTime   = DataType{Kind: KindDateTime}
	Timestamp  = DataType{Kind: KindTimestamp}
	Interval   = DataType{Kind: KindInterval}
	JSON       = DataType{Kind: KindJSON}
	Geography  = DataType{Kind: KindGeography}
)

func ArrayOf(elem DataType) DataType {
	e := elem
	return DataType{Kind: KindArray, Elem: &e}
}

func StructOf(fields ...FieldType) DataType {
	return DataType{Kind: KindStruct, Fields: fields}
}

func RangeOf(elem DataType) DataType {
	e := elem
	return DataType{Kind: KindRange, Elem: &e}
}

// WidenNumeric applies the §4.1 coercion ladder for a binary operation
// between two numeric types, returning the common type both sides must be
// cast to. Returns ok=false if neither side is numeric or the pair has no
// defined widening (callers fall back to operator-specific error/NULL
// handling).
func WidenNumeric(a, b DataType) (DataType, bool) {
	if a.Equal(b) {
		return a, true
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return DataType{}, false
	}
	rank := func(t DataType) int {
		switch t.Kind {
		case KindInt64:
			return 0
		case KindNumeric:
			return 1
		case KindBigNumeric:
			return 2
		case KindFloat64:
			return 3
		}
		return -1
	}
	if rank(a) >= rank(b) {
		return a, true
	}
	return b, true
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
