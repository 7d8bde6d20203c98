package bptree

import (
	"github.com/bambangdb/bambangdb/internal/page"
	"github.com/bambangdb/bambangdb/internal/value"
)

// Get descends to the leaf that would hold key and linearly scans it for
// a row whose key matches exactly. Returns ok=false if no such row
// exists. Exact-match lookup is not the primary access path (the
// scanner's sequential walk is), and the catalog does not use it: its
// rows share their key, so it walks the leaf chain instead.
func (t *Tree) Get(key value.Value) (row value.Row, ok bool, err error) {
	leafID, err := t.descendToLeaf(t.RootPageID, key)
	if err != nil {
		return value.Row{}, false, err
	}
	pg, err := t.Pager.Read(leafID)
	if err != nil {
		return value.Row{}, false, err
	}
	for i := range pg.Slots {
		if pg.Slots[i].Length == 0 && pg.Slots[i].Offset == 0 {
			continue
		}
		payload, err := t.ReadLeafCell(pg, i)
		if err != nil {
			return value.Row{}, false, err
		}
		r, err := value.DecodeRow(payload)
		if err != nil {
			return value.Row{}, false, err
		}
		rKey, err := rowKey(r)
		if err != nil {
			return value.Row{}, false, err
		}
		if value.Compare(rKey, key) == value.Equal {
			return r, true, nil
		}
	}
	return value.Row{}, false, nil
}

func (t *Tree) descendToLeaf(pageID uint64, key value.Value) (uint64, error) {
	for {
		pg, err := t.Pager.Read(pageID)
		if err != nil {
			return 0, err
		}
		if pg.Type == page.TypeLeafTable {
			return pg.PageID, nil
		}
		childID, err := t.findChildForKey(pg, key)
		if err != nil {
			return 0, err
		}
		pageID = childID
	}
}
