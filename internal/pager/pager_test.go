package pager

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bambangdb/bambangdb/internal/page"
)

func tempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "pager-*.db")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestAllocateWriteRead(t *testing.T) {
	r := require.New(t)
	f := tempFile(t)
	p := Open(f, 1, nil)

	pg := p.Allocate(page.TypeLeafTable)
	r.Equal(uint64(2), pg.PageID)
	_, err := pg.InsertCell([]byte("payload"))
	r.NoError(err)
	r.NoError(p.Write(pg))

	p.Flush()
	got, err := p.Read(pg.PageID)
	r.NoError(err)
	r.Equal(pg.PageID, got.PageID)
	cell, err := got.GetCell(0)
	r.NoError(err)
	r.Equal([]byte("payload"), cell)
}

func TestReadMetadataDoesNotLoadCellData(t *testing.T) {
	r := require.New(t)
	f := tempFile(t)
	p := Open(f, 1, nil)

	pg := p.Allocate(page.TypeLeafTable)
	_, err := pg.InsertCell([]byte("abc"))
	r.NoError(err)
	pg.NextLeafPageID = 99
	r.NoError(p.Write(pg))
	p.Flush()

	meta, err := p.ReadMetadata(pg.PageID)
	r.NoError(err)
	r.True(meta.IsMetadataOnly())
	r.Equal(uint64(99), meta.NextLeafPageID)
	r.Equal(1, meta.CellCount())
}
