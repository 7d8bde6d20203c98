package scanner

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bambangdb/bambangdb/internal/bptree"
	"github.com/bambangdb/bambangdb/internal/page"
	"github.com/bambangdb/bambangdb/internal/pager"
	"github.com/bambangdb/bambangdb/internal/value"
)

func newScanTree(t *testing.T, n int) *bptree.Tree {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "scanner-*.db")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	p := pager.Open(f, 0, nil)
	root := p.Allocate(page.TypeLeafTable)
	require.NoError(t, p.Write(root))
	tree := bptree.New(p, root.PageID, nil)

	for i := 0; i < n; i++ {
		row := value.Row{
			HasRowID: true,
			RowID:    value.RowID(i),
			Values:   []value.Value{value.Integer(int64(i)), value.Text(fmt.Sprintf("row-%04d-padding-padding", i))},
		}
		_, err := tree.Insert(row)
		require.NoError(t, err)
	}
	return tree
}

func TestScannerVisitsAllRowsInOrder(t *testing.T) {
	r := require.New(t)
	tree := newScanTree(t, 250)
	s, err := New(tree, nil)
	r.NoError(err)

	var all []value.Row
	for {
		batch, err := s.Next()
		r.NoError(err)
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
	}
	r.Len(all, 250)
	for i, row := range all {
		r.Equal(int64(i), row.Values[0].Integer)
	}
}

func TestScannerRespectsBatchSize(t *testing.T) {
	r := require.New(t)
	tree := newScanTree(t, 10)
	s, err := New(tree, nil, WithBatchSize(3))
	r.NoError(err)

	batch, err := s.Next()
	r.NoError(err)
	r.Len(batch, 3)
}

func TestScannerResetRewinds(t *testing.T) {
	r := require.New(t)
	tree := newScanTree(t, 20)
	s, err := New(tree, nil, WithBatchSize(100))
	r.NoError(err)

	first, err := s.Next()
	r.NoError(err)
	r.Len(first, 20)

	r.NoError(s.Reset())
	second, err := s.Next()
	r.NoError(err)
	r.Equal(first[0].RowID, second[0].RowID)
}
