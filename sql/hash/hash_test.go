package hash_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/hash"
	"github.com/tidesql/tidesql/sql/types"
)

func TestOfRowStableAndDistinguishesValues(t *testing.T) {
	a := sql.NewRow(types.NewInt64(1), types.NewString("x"))
	b := sql.NewRow(types.NewInt64(1), types.NewString("x"))
	c := sql.NewRow(types.NewInt64(2), types.NewString("x"))

	require.Equal(t, hash.OfRow(a), hash.OfRow(b))
	require.NotEqual(t, hash.OfRow(a), hash.OfRow(c))
}

func TestOfRowNullDistinctFromZeroValue(t *testing.T) {
	withNull := sql.NewRow(types.Null)
	withZero := sql.NewRow(types.NewInt64(0))
	require.NotEqual(t, hash.OfRow(withNull), hash.OfRow(withZero))
}
