// Package hash provides row/value hashing for HashJoin build sides and
// Distinct deduplication, grounded on the teacher's sql/hash package but
// backed by murmur3 instead of its internal sum (§4.5 HashJoin, Distinct).
package hash

import (
	"encoding/binary"
	"math"

	"github.com/spaolacci/murmur3"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/types"
)

// OfRecord hashes the values at the given column positions of rec into a
// single uint64. Two records with equal values at those positions hash
// equal; NULL hashes to a fixed sentinel distinct from every non-null value
// so "NULL keys never match" (§4.5) still holds after a hash-bucket probe
// (HashJoin, Distinct and the set operators separately check Compare/Equal
// to decide an actual match; DISTINCT aggregates track seen argument tuples
// by hash alone).
func OfRecord(rec sql.Record, positions []int) uint64 {
	h := murmur3.New64()
	for _, pos := range positions {
		writeValue(h, rec.Get(pos))
	}
	return h.Sum64()
}

// OfRow is OfRecord's counterpart for materialized Rows (used by Distinct,
// which hashes the whole row).
func OfRow(row sql.Row) uint64 {
	h := murmur3.New64()
	for _, v := range row {
		writeValue(h, v)
	}
	return h.Sum64()
}

func writeValue(h interface{ Write([]byte) (int, error) }, v types.Value) {
	var buf [9]byte
	if v.IsNull() {
		buf[0] = 0xFF
		_, _ = h.Write(buf[:1])
		return
	}
	buf[0] = byte(v.Kind())
	switch v.Kind() {
	case types.KindBool:
		if v.AsBool() {
			buf[1] = 1
		}
		_, _ = h.Write(buf[:2])
	case types.KindInt64:
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.AsInt64()))
		_, _ = h.Write(buf[:])
	case types.KindFloat64:
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v.AsFloat64()))
		_, _ = h.Write(buf[:])
	case types.KindNumeric, types.KindBigNumeric:
		_, _ = h.Write(buf[:1])
		_, _ = h.Write([]byte(v.AsDecimal().String()))
	case types.KindString:
		_, _ = h.Write(buf[:1])
		_, _ = h.Write([]byte(v.AsString()))
	case types.KindBytes:
		_, _ = h.Write(buf[:1])
		_, _ = h.Write(v.AsBytes())
	default:
		_, _ = h.Write(buf[:1])
		_, _ = h.Write([]byte(v.String()))
	}
}
