package bptree

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bambangdb/bambangdb/internal/page"
	"github.com/bambangdb/bambangdb/internal/pager"
	"github.com/bambangdb/bambangdb/internal/value"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "bptree-*.db")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	p := pager.Open(f, 0, nil)
	root := p.Allocate(page.TypeLeafTable)
	require.NoError(t, p.Write(root))
	return New(p, root.PageID, nil)
}

func rowWithID(id uint64, text string) value.Row {
	return value.Row{HasRowID: true, RowID: value.RowID(id), Values: []value.Value{value.Integer(int64(id)), value.Text(text)}}
}

func TestInsertAndGetSingleRow(t *testing.T) {
	r := require.New(t)
	tree := newTestTree(t)
	row := rowWithID(1, "alpha")
	newRoot, err := tree.Insert(row)
	r.NoError(err)
	r.Equal(tree.RootPageID, newRoot)

	got, ok, err := tree.Get(value.Integer(1))
	r.NoError(err)
	r.True(ok)
	r.Equal("alpha", got.Values[1].Text)
}

func TestInsertManyCausesSplitAndRootGrowth(t *testing.T) {
	r := require.New(t)
	tree := newTestTree(t)
	initialRoot := tree.RootPageID

	const n = 400
	for i := 0; i < n; i++ {
		_, err := tree.Insert(rowWithID(uint64(i), fmt.Sprintf("row-%04d-with-some-padding-to-force-splits", i)))
		r.NoError(err)
	}
	r.NotEqual(initialRoot, tree.RootPageID, "root should have grown after enough inserts")

	for _, i := range []int{0, 1, n / 2, n - 1} {
		got, ok, err := tree.Get(value.Integer(int64(i)))
		r.NoError(err)
		r.True(ok, "row %d should be found", i)
		r.Equal(fmt.Sprintf("row-%04d-with-some-padding-to-force-splits", i), got.Values[1].Text)
	}
}

func TestLeftmostLeafAndLeafChainCoversAllRows(t *testing.T) {
	r := require.New(t)
	tree := newTestTree(t)
	const n = 200
	for i := 0; i < n; i++ {
		_, err := tree.Insert(rowWithID(uint64(i), fmt.Sprintf("v%d-padding-padding-padding", i)))
		r.NoError(err)
	}

	leafID, err := tree.LeftmostLeaf(tree.RootPageID)
	r.NoError(err)

	seen := map[int64]bool{}
	for leafID != 0 {
		pg, err := tree.Pager.Read(leafID)
		r.NoError(err)
		for i := range pg.Slots {
			if pg.Slots[i].Length == 0 && pg.Slots[i].Offset == 0 {
				continue
			}
			payload, err := tree.ReadLeafCell(pg, i)
			r.NoError(err)
			row, err := value.DecodeRow(payload)
			r.NoError(err)
			seen[row.Values[0].Integer] = true
		}
		if pg.NextLeafPageID == ^uint64(0) {
			break
		}
		leafID = pg.NextLeafPageID
	}
	r.Len(seen, n)
}

// TestOrderingFollowsFirstValueNotRowID plants rows whose row ids run in
// the opposite order from their first (key) value, and checks that a
// full leaf-chain walk still comes back in ascending key order — proving
// the row id plays no part in tree ordering.
func TestOrderingFollowsFirstValueNotRowID(t *testing.T) {
	r := require.New(t)
	tree := newTestTree(t)
	const n = 50
	for i := 0; i < n; i++ {
		row := value.Row{
			HasRowID: true,
			RowID:    value.RowID(n - i), // descending row id
			Values:   []value.Value{value.Integer(int64(i))},
		}
		_, err := tree.Insert(row)
		r.NoError(err)
	}

	leafID, err := tree.LeftmostLeaf(tree.RootPageID)
	r.NoError(err)
	var keys []int64
	for leafID != 0 {
		pg, err := tree.Pager.Read(leafID)
		r.NoError(err)
		for i := range pg.Slots {
			if pg.Slots[i].IsSlotDeleted() {
				continue
			}
			payload, err := tree.ReadLeafCell(pg, i)
			r.NoError(err)
			row, err := value.DecodeRow(payload)
			r.NoError(err)
			keys = append(keys, row.Values[0].Integer)
		}
		if pg.NextLeafPageID == ^uint64(0) {
			break
		}
		leafID = pg.NextLeafPageID
	}

	r.Len(keys, n)
	for i := 1; i < len(keys); i++ {
		r.LessOrEqual(keys[i-1], keys[i], "keys should be in ascending order regardless of row id")
	}
}

func TestOverflowPageForLargePayload(t *testing.T) {
	r := require.New(t)
	tree := newTestTree(t)
	big := make([]byte, page.Size/2)
	for i := range big {
		big[i] = byte(i)
	}
	row := value.Row{HasRowID: true, RowID: 1, Values: []value.Value{value.Blob(big)}}
	_, err := tree.Insert(row)
	r.NoError(err)

	got, ok, err := tree.Get(value.Blob(big))
	r.NoError(err)
	r.True(ok)
	r.Equal(big, got.Values[0].Blob)
}

func TestUpdateRowInPlace(t *testing.T) {
	r := require.New(t)
	tree := newTestTree(t)
	_, err := tree.Insert(rowWithID(5, "before"))
	r.NoError(err)

	updated := rowWithID(5, "after")
	r.NoError(tree.UpdateRow(value.RowID(5), updated))

	got, ok, err := tree.Get(value.Integer(5))
	r.NoError(err)
	r.True(ok)
	r.Equal("after", got.Values[1].Text)
}
