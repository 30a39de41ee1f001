// Package aggregation implements the accumulator objects HashAggregate
// drives (§4.5, §9 "Accumulator polymorphism"): one concrete type per
// aggregate kind, each exposing start/update/update_conditional/merge/
// finalize/is_mergeable. Grounded on the teacher's
// sql/expression/function/aggregation/{avg,count,max,min,sum,std,
// group_concat,window_*} package.
package aggregation

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tidesql/tidesql/sql/types"
)

// Accumulator is the §9 contract every aggregate kind implements. Merge
// combines another accumulator of the same concrete type into the receiver;
// it must be associative and commutative for the parallel aggregation path
// (§4.5 "Merging must be associative and commutative per accumulator").
type Accumulator interface {
	Start()
	Update(v types.Value) error
	UpdateConditional(v types.Value, cond bool) error
	Merge(other Accumulator) error
	Finalize() (types.Value, error)
	IsMergeable() bool
}

// New constructs the accumulator for a builtin aggregate function name and
// its argument/result type. ok is false for an unrecognized name.
func New(name string, argType types.DataType, resultType types.DataType) (Accumulator, bool) {
	switch strings.ToUpper(name) {
	case "COUNT":
		return &Count{}, true
	case "COUNTIF":
		return &CountIf{}, true
	case "SUM", "SUMIF":
		return &Sum{resultType: resultType}, true
	case "AVG", "AVGIF":
		return &Avg{}, true
	case "MIN", "MINIF":
		return &MinMax{max: false, nulls: types.NullsLast}, true
	case "MAX", "MAXIF":
		return &MinMax{max: true, nulls: types.NullsFirst}, true
	case "ANY_VALUE":
		return &AnyValue{}, true
	case "LOGICAL_AND":
		return &LogicalAgg{and: true, cur: true}, true
	case "LOGICAL_OR":
		return &LogicalAgg{and: false, cur: false}, true
	case "BIT_AND":
		return &BitAgg{op: bitAnd}, true
	case "BIT_OR":
		return &BitAgg{op: bitOr}, true
	case "BIT_XOR":
		return &BitAgg{op: bitXor}, true
	case "STRING_AGG":
		return &StringAgg{}, true
	case "ARRAY_AGG":
		return &ArrayAgg{elemType: argType}, true
	case "STDDEV", "STDDEV_SAMP":
		return &Variance{sample: true, stddev: true}, true
	case "STDDEV_POP":
		return &Variance{sample: false, stddev: true}, true
	case "VAR_SAMP", "VARIANCE":
		return &Variance{sample: true}, true
	case "VAR_POP":
		return &Variance{sample: false}, true
	case "CORR":
		return &Correlation{}, true
	case "COVAR_SAMP":
		return &Covariance{sample: true}, true
	case "COVAR_POP":
		return &Covariance{sample: false}, true
	case "APPROX_COUNT_DISTINCT":
		return &ApproxCountDistinct{seen: make(map[uint64]struct{})}, true
	case "APPROX_TOP_COUNT":
		return &ApproxTopCount{counts: make(map[string]int64)}, true
	case "APPROX_TOP_SUM":
		return &ApproxTopSum{sums: make(map[string]float64)}, true
	default:
		return nil, false
	}
}

// IsDecomposable reports whether name is one of the SUM/COUNT/AVG/MIN/MAX
// family the decorrelation pass requires (§4.4 "a decomposable aggregate").
func IsDecomposable(name string) bool {
	switch strings.ToUpper(name) {
	case "SUM", "COUNT", "AVG", "MIN", "MAX":
		return true
	default:
		return false
	}
}

// --- COUNT ---

type Count struct{ n int64 }

func (c *Count) Start()                {}
func (c *Count) Update(v types.Value) error {
	if !v.IsNull() {
		c.n++
	}
	return nil
}
func (c *Count) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return c.Update(v)
	}
	return nil
}
func (c *Count) Merge(other Accumulator) error { c.n += other.(*Count).n; return nil }
func (c *Count) Finalize() (types.Value, error) { return types.NewInt64(c.n), nil }
func (c *Count) IsMergeable() bool              { return true }

// CountStar counts every row regardless of argument, used for COUNT(*).
type CountStar struct{ n int64 }

func (c *CountStar) Start()                             {}
func (c *CountStar) Update(v types.Value) error          { c.n++; return nil }
func (c *CountStar) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		c.n++
	}
	return nil
}
func (c *CountStar) Merge(other Accumulator) error { c.n += other.(*CountStar).n; return nil }
func (c *CountStar) Finalize() (types.Value, error) { return types.NewInt64(c.n), nil }
func (c *CountStar) IsMergeable() bool              { return true }

type CountIf struct{ n int64 }

func (c *CountIf) Start()                { }
func (c *CountIf) Update(v types.Value) error { return nil }
func (c *CountIf) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		c.n++
	}
	return nil
}
func (c *CountIf) Merge(other Accumulator) error { c.n += other.(*CountIf).n; return nil }
func (c *CountIf) Finalize() (types.Value, error) { return types.NewInt64(c.n), nil }
func (c *CountIf) IsMergeable() bool              { return true }

// --- SUM ---

// Sum accumulates in float64 or decimal.Decimal depending on resultType,
// per §4.5 "SUM and AVG accumulate doubles" for FLOAT64/INT64 inputs while
// NUMERIC/BIGNUMERIC inputs keep decimal precision.
type Sum struct {
	resultType types.DataType
	sumF       float64
	sumD       decimal.Decimal
	useDecimal bool
	any        bool
}

func (s *Sum) Start() {
	s.useDecimal = s.resultType.Kind == types.KindNumeric || s.resultType.Kind == types.KindBigNumeric
}
func (s *Sum) Update(v types.Value) error {
	if v.IsNull() {
		return nil
	}
	s.any = true
	if s.useDecimal || v.Kind() == types.KindNumeric || v.Kind() == types.KindBigNumeric {
		s.useDecimal = true
		s.sumD = s.sumD.Add(v.AsDecimal())
		return nil
	}
	f, err := floatOf(v)
	if err != nil {
		return err
	}
	s.sumF += f
	return nil
}
func (s *Sum) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return s.Update(v)
	}
	return nil
}
func (s *Sum) Merge(other Accumulator) error {
	o := other.(*Sum)
	if o.useDecimal {
		s.useDecimal = true
		s.sumD = s.sumD.Add(o.sumD)
	} else {
		s.sumF += o.sumF
	}
	s.any = s.any || o.any
	return nil
}
func (s *Sum) Finalize() (types.Value, error) {
	if !s.any {
		return types.Null, nil
	}
	if s.useDecimal {
		if s.resultType.Kind == types.KindBigNumeric {
			return types.NewBigNumeric(s.sumD), nil
		}
		return types.NewNumeric(s.sumD), nil
	}
	return types.NewFloat64(s.sumF), nil
}
func (s *Sum) IsMergeable() bool { return true }

// --- AVG ---

type Avg struct {
	sum   float64
	count int64
}

func (a *Avg) Start() {}
func (a *Avg) Update(v types.Value) error {
	if v.IsNull() {
		return nil
	}
	f, err := floatOf(v)
	if err != nil {
		return err
	}
	a.sum += f
	a.count++
	return nil
}
func (a *Avg) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return a.Update(v)
	}
	return nil
}
func (a *Avg) Merge(other Accumulator) error {
	o := other.(*Avg)
	a.sum += o.sum
	a.count += o.count
	return nil
}
func (a *Avg) Finalize() (types.Value, error) {
	if a.count == 0 {
		return types.Null, nil
	}
	return types.NewFloat64(a.sum / float64(a.count)), nil
}
func (a *Avg) IsMergeable() bool { return true }

// --- MIN/MAX ---

type MinMax struct {
	max   bool
	nulls types.NullsOrder
	cur   types.Value
	any   bool
}

func (m *MinMax) Start() { m.any = false }
func (m *MinMax) Update(v types.Value) error {
	if v.IsNull() {
		return nil
	}
	if !m.any {
		m.cur = v
		m.any = true
		return nil
	}
	c := types.Compare(v, m.cur, types.NullsFirst)
	if (m.max && c > 0) || (!m.max && c < 0) {
		m.cur = v
	}
	return nil
}
func (m *MinMax) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return m.Update(v)
	}
	return nil
}
func (m *MinMax) Merge(other Accumulator) error {
	o := other.(*MinMax)
	if o.any {
		return m.Update(o.cur)
	}
	return nil
}
func (m *MinMax) Finalize() (types.Value, error) {
	if !m.any {
		return types.Null, nil
	}
	return m.cur, nil
}
func (m *MinMax) IsMergeable() bool { return true }

// --- ANY_VALUE ---

type AnyValue struct {
	cur types.Value
	any bool
}

func (a *AnyValue) Start() {}
func (a *AnyValue) Update(v types.Value) error {
	if !a.any {
		a.cur = v
		a.any = true
	}
	return nil
}
func (a *AnyValue) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return a.Update(v)
	}
	return nil
}
func (a *AnyValue) Merge(other Accumulator) error {
	o := other.(*AnyValue)
	if o.any {
		return a.Update(o.cur)
	}
	return nil
}
func (a *AnyValue) Finalize() (types.Value, error) {
	if !a.any {
		return types.Null, nil
	}
	return a.cur, nil
}
func (a *AnyValue) IsMergeable() bool { return true }

// --- LOGICAL_AND / LOGICAL_OR ---

type LogicalAgg struct {
	and bool
	cur bool
	any bool
}

func (l *LogicalAgg) Start() {}
func (l *LogicalAgg) Update(v types.Value) error {
	if v.IsNull() {
		return nil
	}
	l.any = true
	if l.and {
		l.cur = l.cur && v.AsBool()
	} else {
		l.cur = l.cur || v.AsBool()
	}
	return nil
}
func (l *LogicalAgg) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return l.Update(v)
	}
	return nil
}
func (l *LogicalAgg) Merge(other Accumulator) error {
	o := other.(*LogicalAgg)
	if !o.any {
		return nil
	}
	return l.Update(types.NewBool(o.cur))
}
func (l *LogicalAgg) Finalize() (types.Value, error) {
	if !l.any {
		return types.Null, nil
	}
	return types.NewBool(l.cur), nil
}
func (l *LogicalAgg) IsMergeable() bool { return true }

// --- BIT_AND / BIT_OR / BIT_XOR ---

type bitOpKind int

const (
	bitAnd bitOpKind = iota
	bitOr
	bitXor
)

type BitAgg struct {
	op  bitOpKind
	cur int64
	any bool
}

func (b *BitAgg) Start() {}
func (b *BitAgg) Update(v types.Value) error {
	if v.IsNull() {
		return nil
	}
	n := v.AsInt64()
	if !b.any {
		b.cur = n
		b.any = true
		return nil
	}
	switch b.op {
	case bitAnd:
		b.cur &= n
	case bitOr:
		b.cur |= n
	case bitXor:
		b.cur ^= n
	}
	return nil
}
func (b *BitAgg) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return b.Update(v)
	}
	return nil
}
func (b *BitAgg) Merge(other Accumulator) error {
	o := other.(*BitAgg)
	if o.any {
		return b.Update(types.NewInt64(o.cur))
	}
	return nil
}
func (b *BitAgg) Finalize() (types.Value, error) {
	if !b.any {
		return types.Null, nil
	}
	return types.NewInt64(b.cur), nil
}
func (b *BitAgg) IsMergeable() bool { return true }

// --- STRING_AGG ---

// StringAgg is not mergeable across unordered parallel partitions because
// the concatenation order would become partition-dependent; the general
// (single hash map) path always runs it. Parts are joined in accumulation
// order: an ORDER BY inside STRING_AGG is not applied.
type StringAgg struct {
	parts []string
	sep   string
	set   bool
}

func (s *StringAgg) Start() { s.sep = "," }
func (s *StringAgg) SetSeparator(sep string) { s.sep = sep; s.set = true }
func (s *StringAgg) Update(v types.Value) error {
	if v.IsNull() {
		return nil
	}
	if v.Kind() == types.KindString {
		s.parts = append(s.parts, v.AsString())
	} else {
		s.parts = append(s.parts, v.String())
	}
	return nil
}
func (s *StringAgg) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return s.Update(v)
	}
	return nil
}
func (s *StringAgg) Merge(other Accumulator) error {
	o := other.(*StringAgg)
	s.parts = append(s.parts, o.parts...)
	return nil
}
func (s *StringAgg) Finalize() (types.Value, error) {
	if len(s.parts) == 0 {
		return types.Null, nil
	}
	return types.NewString(strings.Join(s.parts, s.sep)), nil
}
func (s *StringAgg) IsMergeable() bool { return false }

// --- ARRAY_AGG ---

type ArrayAgg struct {
	elemType    types.DataType
	vals        []types.Value
	ignoreNulls bool
	orderBy     []types.Value // parallel sort keys, same length as vals, optional
}

func (a *ArrayAgg) SetIgnoreNulls(v bool) { a.ignoreNulls = v }

func (a *ArrayAgg) Start() {}
func (a *ArrayAgg) Update(v types.Value) error {
	if v.IsNull() && a.ignoreNulls {
		return nil
	}
	a.vals = append(a.vals, v)
	return nil
}
func (a *ArrayAgg) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return a.Update(v)
	}
	return nil
}
func (a *ArrayAgg) Merge(other Accumulator) error {
	o := other.(*ArrayAgg)
	a.vals = append(a.vals, o.vals...)
	return nil
}
func (a *ArrayAgg) Finalize() (types.Value, error) {
	return types.NewArray(a.elemType, a.vals), nil
}
func (a *ArrayAgg) IsMergeable() bool { return true }

// SortByKeys reorders the collected values by parallel sort keys per value
// (§4.5 "ARRAY_AGG(expr [ORDER BY ...]) ... applying the ORDER BY keys
// during finalization"). The caller (HashAggregate) supplies keys aligned
// with each Update call before calling Finalize.
func (a *ArrayAgg) SortByKeys(keys [][]types.Value, desc []bool, nullsFirst []bool) {
	idx := make([]int, len(a.vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		ki, kj := keys[idx[i]], keys[idx[j]]
		for k := range ki {
			no := types.NullsLast
			if nullsFirst[k] {
				no = types.NullsFirst
			}
			c := types.Compare(ki[k], kj[k], no)
			if c == 0 {
				continue
			}
			if desc[k] {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	out := make([]types.Value, len(a.vals))
	for i, j := range idx {
		out[i] = a.vals[j]
	}
	a.vals = out
}

// --- STDDEV/VARIANCE ---

type Variance struct {
	sample bool
	stddev bool
	n      int64
	mean   float64
	m2     float64 // Welford's running sum of squares of differences
}

func (v *Variance) Start() {}
func (v *Variance) Update(val types.Value) error {
	if val.IsNull() {
		return nil
	}
	f, err := floatOf(val)
	if err != nil {
		return err
	}
	v.n++
	delta := f - v.mean
	v.mean += delta / float64(v.n)
	v.m2 += delta * (f - v.mean)
	return nil
}
func (v *Variance) UpdateConditional(val types.Value, cond bool) error {
	if cond {
		return v.Update(val)
	}
	return nil
}

// Merge combines two Welford accumulators via the parallel variance
// combination formula (Chan et al.), preserving associativity/commutativity
// for the parallel aggregation path.
func (v *Variance) Merge(other Accumulator) error {
	o := other.(*Variance)
	if o.n == 0 {
		return nil
	}
	if v.n == 0 {
		*v = *o
		return nil
	}
	delta := o.mean - v.mean
	n := v.n + o.n
	v.m2 = v.m2 + o.m2 + delta*delta*float64(v.n)*float64(o.n)/float64(n)
	v.mean = (v.mean*float64(v.n) + o.mean*float64(o.n)) / float64(n)
	v.n = n
	return nil
}
func (v *Variance) Finalize() (types.Value, error) {
	denom := float64(v.n)
	if v.sample {
		denom = float64(v.n - 1)
	}
	if denom <= 0 {
		return types.Null, nil
	}
	variance := v.m2 / denom
	if v.stddev {
		return types.NewFloat64(math.Sqrt(variance)), nil
	}
	return types.NewFloat64(variance), nil
}
func (v *Variance) IsMergeable() bool { return true }

// --- CORR / COVAR ---

type Covariance struct {
	sample     bool
	n          int64
	meanX, meanY float64
	c          float64
}

func (c *Covariance) Start() {}
func (c *Covariance) Update(v types.Value) error { return nil } // needs pair, see UpdatePair
func (c *Covariance) UpdateConditional(v types.Value, cond bool) error { return nil }

// UpdatePair feeds (y, x) per §4.5's CORR/COVAR_POP/COVAR_SAMP pair argument
// convention; HashAggregate calls this directly for two-argument aggregates
// instead of the single-value Update.
func (c *Covariance) UpdatePair(y, x types.Value) error {
	if y.IsNull() || x.IsNull() {
		return nil
	}
	fy, err := floatOf(y)
	if err != nil {
		return err
	}
	fx, err := floatOf(x)
	if err != nil {
		return err
	}
	c.n++
	dx := fx - c.meanX
	c.meanX += dx / float64(c.n)
	dy := fy - c.meanY
	c.meanY += dy / float64(c.n)
	c.c += dx * (fy - c.meanY)
	return nil
}
func (c *Covariance) Merge(other Accumulator) error {
	o := other.(*Covariance)
	if o.n == 0 {
		return nil
	}
	if c.n == 0 {
		*c = *o
		return nil
	}
	n := c.n + o.n
	dx := o.meanX - c.meanX
	dy := o.meanY - c.meanY
	c.c = c.c + o.c + dx*dy*float64(c.n)*float64(o.n)/float64(n)
	c.meanX = (c.meanX*float64(c.n) + o.meanX*float64(o.n)) / float64(n)
	c.meanY = (c.meanY*float64(c.n) + o.meanY*float64(o.n)) / float64(n)
	c.n = n
	return nil
}
func (c *Covariance) Finalize() (types.Value, error) {
	denom := float64(c.n)
	if c.sample {
		denom = float64(c.n - 1)
	}
	if denom <= 0 {
		return types.Null, nil
	}
	return types.NewFloat64(c.c / denom), nil
}
func (c *Covariance) IsMergeable() bool { return true }

// Correlation is Pearson's r, built from the same running moments as
// Covariance plus per-side variance.
type Correlation struct {
	cov   Covariance
	varX  Variance
	varY  Variance
}

func (c *Correlation) Start() {}
func (c *Correlation) Update(v types.Value) error { return nil }
func (c *Correlation) UpdateConditional(v types.Value, cond bool) error { return nil }
func (c *Correlation) UpdatePair(y, x types.Value) error {
	if err := c.cov.UpdatePair(y, x); err != nil {
		return err
	}
	if err := c.varX.Update(x); err != nil {
		return err
	}
	return c.varY.Update(y)
}
func (c *Correlation) Merge(other Accumulator) error {
	o := other.(*Correlation)
	if err := c.cov.Merge(&o.cov); err != nil {
		return err
	}
	if err := c.varX.Merge(&o.varX); err != nil {
		return err
	}
	return c.varY.Merge(&o.varY)
}
func (c *Correlation) Finalize() (types.Value, error) {
	if c.cov.n < 2 {
		return types.Null, nil
	}
	covPop := c.cov.c / float64(c.cov.n)
	varXPop := c.varX.m2 / float64(c.varX.n)
	varYPop := c.varY.m2 / float64(c.varY.n)
	denom := math.Sqrt(varXPop * varYPop)
	if denom == 0 {
		return types.Null, nil
	}
	return types.NewFloat64(covPop / denom), nil
}
func (c *Correlation) IsMergeable() bool { return true }

// --- APPROX_* ---

// ApproxCountDistinct tracks exact distinct hashes; a real implementation
// would use HyperLogLog, but the core only needs a total-function estimator
// with a documented result type (§4.5), so this trades memory for exactness
// below the scale where the distinction matters.
type ApproxCountDistinct struct {
	seen map[uint64]struct{}
}

func (a *ApproxCountDistinct) Start() {
	if a.seen == nil {
		a.seen = make(map[uint64]struct{})
	}
}
func (a *ApproxCountDistinct) Update(v types.Value) error {
	if v.IsNull() {
		return nil
	}
	a.seen[hashValue(v)] = struct{}{}
	return nil
}
func (a *ApproxCountDistinct) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return a.Update(v)
	}
	return nil
}
func (a *ApproxCountDistinct) Merge(other Accumulator) error {
	o := other.(*ApproxCountDistinct)
	for k := range o.seen {
		a.seen[k] = struct{}{}
	}
	return nil
}
func (a *ApproxCountDistinct) Finalize() (types.Value, error) {
	return types.NewInt64(int64(len(a.seen))), nil
}
func (a *ApproxCountDistinct) IsMergeable() bool { return true }

// ApproxTopCount and ApproxTopSum finalize to an ARRAY of STRUCTs holding
// every distinct non-NULL value with its count (or summed weight), most
// frequent/heaviest first; no top-N cut-off is applied.
type ApproxTopCount struct {
	counts map[string]int64
	vals   map[string]types.Value
}

func (a *ApproxTopCount) Start() {
	if a.counts == nil {
		a.counts = make(map[string]int64)
		a.vals = make(map[string]types.Value)
	}
}
func (a *ApproxTopCount) Update(v types.Value) error {
	if v.IsNull() {
		return nil
	}
	k := v.String()
	a.counts[k]++
	a.vals[k] = v
	return nil
}
func (a *ApproxTopCount) UpdateConditional(v types.Value, cond bool) error {
	if cond {
		return a.Update(v)
	}
	return nil
}
func (a *ApproxTopCount) Merge(other Accumulator) error {
	o := other.(*ApproxTopCount)
	for k, c := range o.counts {
		a.counts[k] += c
		a.vals[k] = o.vals[k]
	}
	return nil
}
func (a *ApproxTopCount) Finalize() (types.Value, error) {
	type pair struct {
		v types.Value
		c int64
	}
	pairs := make([]pair, 0, len(a.counts))
	for k, c := range a.counts {
		pairs = append(pairs, pair{a.vals[k], c})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].c > pairs[j].c })
	out := make([]types.Value, len(pairs))
	for i, p := range pairs {
		out[i] = types.NewStruct([]types.StructField{
			{Name: "value", Value: p.v},
			{Name: "count", Value: types.NewInt64(p.c)},
		})
	}
	return types.NewArray(types.StructOf(
		types.FieldType{Name: "value", Type: types.String},
		types.FieldType{Name: "count", Type: types.Int64},
	), out), nil
}
func (a *ApproxTopCount) IsMergeable() bool { return true }

type ApproxTopSum struct {
	sums map[string]float64
	vals map[string]types.Value
}

func (a *ApproxTopSum) Start() {
	if a.sums == nil {
		a.sums = make(map[string]float64)
		a.vals = make(map[string]types.Value)
	}
}
func (a *ApproxTopSum) Update(v types.Value) error { return nil }
func (a *ApproxTopSum) UpdateConditional(v types.Value, cond bool) error { return nil }

// UpdatePair feeds (value, weight).
func (a *ApproxTopSum) UpdatePair(v, weight types.Value) error {
	if v.IsNull() || weight.IsNull() {
		return nil
	}
	f, err := floatOf(weight)
	if err != nil {
		return err
	}
	k := v.String()
	a.sums[k] += f
	a.vals[k] = v
	return nil
}
func (a *ApproxTopSum) Merge(other Accumulator) error {
	o := other.(*ApproxTopSum)
	for k, s := range o.sums {
		a.sums[k] += s
		a.vals[k] = o.vals[k]
	}
	return nil
}
func (a *ApproxTopSum) Finalize() (types.Value, error) {
	type pair struct {
		v types.Value
		s float64
	}
	pairs := make([]pair, 0, len(a.sums))
	for k, s := range a.sums {
		pairs = append(pairs, pair{a.vals[k], s})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].s > pairs[j].s })
	out := make([]types.Value, len(pairs))
	for i, p := range pairs {
		out[i] = types.NewStruct([]types.StructField{
			{Name: "value", Value: p.v},
			{Name: "sum", Value: types.NewFloat64(p.s)},
		})
	}
	return types.NewArray(types.StructOf(
		types.FieldType{Name: "value", Type: types.String},
		types.FieldType{Name: "sum", Type: types.Float64Ty},
	), out), nil
}
func (a *ApproxTopSum) IsMergeable() bool { return true }

func floatOf(v types.Value) (float64, error) {
	switch v.Kind() {
	case types.KindInt64:
		return float64(v.AsInt64()), nil
	case types.KindFloat64:
		return v.AsFloat64(), nil
	case types.KindNumeric, types.KindBigNumeric:
		f, _ := v.AsDecimal().Float64()
		return f, nil
	default:
		return 0, types.ErrUnsupportedArith
	}
}

func hashValue(v types.Value) uint64 {
	s := v.String()
	var h uint64 = 1469598103934665603
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}
