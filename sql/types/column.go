package types

// Column is a per-type contiguous buffer paired with a null bitmap (§3, §4.1).
// Int64/Float64 get dedicated slices so arithmetic kernels can run as tight
// loops over primitive memory; every other kind stores fully materialized
// Values (still contiguous, just not primitive-packed) since their payloads
// are variable-width or themselves structured (STRUCT/ARRAY).
type Column struct {
	dt    DataType
	nulls *nullBitmap

	i64 []int64
	f64 []Float64
	b   []bool
	// generic holds every non-primitive kind's materialized Values,
	// including zero-value placeholders at NULL positions.
	generic []Value
}

// NewColumn creates an empty typed column.
func NewColumn(dt DataType) *Column {
	c := &Column{dt: dt, nulls: newNullBitmap(0)}
	switch dt.Kind {
	case KindInt64:
		c.i64 = []int64{}
	case KindFloat64:
		c.f64 = []Float64{}
	case KindBool:
		c.b = []bool{}
	default:
		c.generic = []Value{}
	}
	return c
}

func (c *Column) DataType() DataType { return c.dt }
func (c *Column) Len() int           { return c.nulls.len() }
func (c *Column) IsEmpty() bool      { return c.Len() == 0 }
func (c *Column) CountNull() int     { return c.nulls.countNull() }
func (c *Column) CountValid() int    { return c.nulls.countValid() }
func (c *Column) IsNull(i int) bool  { return c.nulls.isNull(i) }

// Push appends one value, failing if v's kind is incompatible with the
// column's declared type (NULL is always accepted).
func (c *Column) Push(v Value) error {
	if !v.IsNull() && v.Kind() != c.dt.Kind {
		return errKindMismatch(c.dt.Kind, v.Kind())
	}
	c.nulls.grow(1)
	idx := c.nulls.len() - 1
	if v.IsNull() {
		c.nulls.setNull(idx)
		c.pushZero()
		return nil
	}
	switch c.dt.Kind {
	case KindInt64:
		c.i64 = append(c.i64, v.AsInt64())
	case KindFloat64:
		c.f64 = append(c.f64, Float64(v.AsFloat64()))
	case KindBool:
		c.b = append(c.b, v.AsBool())
	default:
		c.generic = append(c.generic, v)
	}
	return nil
}

func (c *Column) pushZero() {
	switch c.dt.Kind {
	case KindInt64:
		c.i64 = append(c.i64, 0)
	case KindFloat64:
		c.f64 = append(c.f64, 0)
	case KindBool:
		c.b = append(c.b, false)
	default:
		c.generic = append(c.generic, Value{})
	}
}

// Get returns a Value (Null when the bitmap marks it).
func (c *Column) Get(i int) Value {
	if c.nulls.isNull(i) {
		return Null
	}
	switch c.dt.Kind {
	case KindInt64:
		return NewInt64(c.i64[i])
	case KindFloat64:
		return NewFloat64(float64(c.f64[i]))
	case KindBool:
		return NewBool(c.b[i])
	default:
		return c.generic[i]
	}
}

// Int64At/Float64At/BoolAt are fast unchecked accessors for kernels that have
// already branched on the null bitmap themselves.
func (c *Column) Int64At(i int) int64     { return c.i64[i] }
func (c *Column) Float64At(i int) Float64 { return c.f64[i] }
func (c *Column) BoolAt(i int) bool       { return c.b[i] }

// FromValues builds a column of dt from a slice of Values.
func FromValues(dt DataType, vals []Value) (*Column, error) {
	c := NewColumn(dt)
	for _, v := range vals {
		if err := c.Push(v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Broadcast builds a column of length n where every position holds v (or is
// NULL, if v is NULL).
func Broadcast(v Value, n int) *Column {
	dt := DataType{Kind: v.Kind()}
	if v.IsNull() {
		dt = DataType{Kind: KindNull}
	}
	c := &Column{dt: dt, nulls: newNullBitmap(0)}
	for i := 0; i < n; i++ {
		_ = c.Push(v)
	}
	return c
}

// IsNullMask/IsNotNullMask produce boolean mask columns (§4.1).
func (c *Column) IsNullMask() *Column {
	out := NewColumn(Bool)
	for i := 0; i < c.Len(); i++ {
		_ = out.Push(NewBool(c.IsNull(i)))
	}
	return out
}

func (c *Column) IsNotNullMask() *Column {
	out := NewColumn(Bool)
	for i := 0; i < c.Len(); i++ {
		_ = out.Push(NewBool(!c.IsNull(i)))
	}
	return out
}

// Slice returns a new column over rows [lo, hi).
func (c *Column) Slice(lo, hi int) *Column {
	out := NewColumn(c.dt)
	for i := lo; i < hi; i++ {
		_ = out.Push(c.Get(i))
	}
	return out
}

// Take gathers rows at the given indices into a new column (used by Sort,
// TopN, Filter/Limit row selection, and set operators).
func (c *Column) Take(indices []int) *Column {
	out := NewColumn(c.dt)
	for _, i := range indices {
		_ = out.Push(c.Get(i))
	}
	return out
}

// Clone deep-copies the column, matching §3's "coercion produces a new
// column" and giving writers copy-on-write snapshots (§5).
func (c *Column) Clone() *Column {
	out := &Column{dt: c.dt, nulls: c.nulls.clone()}
	if c.i64 != nil {
		out.i64 = append([]int64(nil), c.i64...)
	}
	if c.f64 != nil {
		out.f64 = append([]Float64(nil), c.f64...)
	}
	if c.b != nil {
		out.b = append([]bool(nil), c.b...)
	}
	if c.generic != nil {
		out.generic = append([]Value(nil), c.generic...)
	}
	return out
}

func errKindMismatch(want, got Kind) error {
	return &kindMismatchError{want: want, got: got}
}

type kindMismatchError struct {
	want, got Kind
}

func (e *kindMismatchError) Error() string {
	return "cannot push " + e.got.String() + " value into " + e.want.String() + " column"
}
