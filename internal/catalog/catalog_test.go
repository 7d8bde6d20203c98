package catalog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bambangdb/bambangdb/internal/bptree"
	"github.com/bambangdb/bambangdb/internal/page"
	"github.com/bambangdb/bambangdb/internal/pager"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "catalog-*.db")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	p := pager.Open(f, 0, nil)
	root := p.Allocate(page.TypeLeafTable)
	require.NoError(t, p.Write(root))
	tree := bptree.New(p, root.PageID, nil)
	return Open(tree)
}

func TestCreateTableAndLoadAll(t *testing.T) {
	r := require.New(t)
	c := newTestCatalog(t)

	def := TableDef{
		Name:     "widgets",
		RootPage: 2,
		SQL:      "CREATE TABLE widgets (id INTEGER, name TEXT)",
		Columns: []ColumnDef{
			{Name: "id", Position: 0, DataType: "INTEGER", PrimaryKey: true},
			{Name: "name", Position: 1, DataType: "TEXT", Nullable: true},
		},
	}
	r.NoError(c.CreateTable(def))

	root, ok := c.Directory.Get("widgets")
	r.True(ok)
	r.Equal(uint64(2), root)

	loaded, err := c.LoadAll()
	r.NoError(err)
	r.Len(loaded, 1)
	r.Equal("widgets", loaded[0].Name)
	r.Equal(uint64(2), loaded[0].RootPage)
	r.Len(loaded[0].Columns, 2)
}

func TestUpdateTableRootRewritesCatalogRow(t *testing.T) {
	r := require.New(t)
	c := newTestCatalog(t)
	r.NoError(c.CreateTable(TableDef{Name: "t", RootPage: 2, SQL: "CREATE TABLE t (a INTEGER)"}))

	r.NoError(c.UpdateTableRoot("t", 55))

	root, ok := c.Directory.Get("t")
	r.True(ok)
	r.Equal(uint64(55), root)

	loaded, err := c.LoadAll()
	r.NoError(err)
	r.Len(loaded, 1)
	r.Equal(uint64(55), loaded[0].RootPage)
}

func TestCreateTableRejectsDuplicate(t *testing.T) {
	r := require.New(t)
	c := newTestCatalog(t)
	r.NoError(c.CreateTable(TableDef{Name: "dup", RootPage: 2}))
	err := c.CreateTable(TableDef{Name: "dup", RootPage: 3})
	r.Error(err)
}
