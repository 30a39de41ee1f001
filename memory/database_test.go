package memory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidesql/tidesql/memory"
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/types"
)

func schema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: types.Int64},
		{Name: "name", Type: types.String, Nullable: true},
	}
}

func TestCreateAndFetchTable(t *testing.T) {
	db := memory.NewDatabase("test")
	_, err := db.CreateTable("widgets", schema())
	require.NoError(t, err)

	tbl, ok := db.GetTable("WIDGETS")
	require.True(t, ok, "lookup is case-insensitive")
	require.Equal(t, "widgets", tbl.Name())
}

func TestCreateTableTwiceFails(t *testing.T) {
	db := memory.NewDatabase("test")
	_, err := db.CreateTable("widgets", schema())
	require.NoError(t, err)
	_, err = db.CreateTable("widgets", schema())
	require.Error(t, err)
}

func TestInsertSnapshotIsolation(t *testing.T) {
	db := memory.NewDatabase("test")
	st, _ := db.CreateTable("widgets", schema())
	tbl := st.(*memory.Table)
	ctx := sql.NewEmptyContext()

	before := tbl.Snapshot()
	require.Equal(t, 0, before.RowCount())

	require.NoError(t, tbl.Insert(ctx, []sql.Row{
		sql.NewRow(types.NewInt64(1), types.NewString("a")),
	}))

	// the snapshot taken before Insert must still read zero rows: readers
	// already holding a reference observe a stable snapshot (§5).
	require.Equal(t, 0, before.RowCount())
	require.Equal(t, 1, tbl.Snapshot().RowCount())
}

func TestProviderDatabaseRegistry(t *testing.T) {
	p := memory.NewProvider(memory.NewDatabase("a"), memory.NewDatabase("b"))
	_, ok := p.GetDatabase("A")
	require.True(t, ok)
	require.ElementsMatch(t, []string{"a", "b"}, p.DatabaseNames())

	_, err := p.CreateDatabase("a")
	require.Error(t, err)
}
