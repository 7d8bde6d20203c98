package bptree

import (
	"github.com/bambangdb/bambangdb/internal/dberr"
	"github.com/bambangdb/bambangdb/internal/value"
)

// UpdateRow rewrites the row identified by rowID in place. This is not a
// general tree-level update operation (the engine exposes no SQL UPDATE
// statement); it exists solely so the storage manager can keep a
// catalog row's root-page column in sync after a split, without
// resorting to a stale duplicate insert.
//
// Catalog rows routinely share an ordering key (every table row keys on
// the literal "table" tag), so identifying the row to rewrite walks the
// full leaf chain and matches on row id rather than descending to a
// single leaf by key.
func (t *Tree) UpdateRow(rowID value.RowID, row value.Row) error {
	leafID, err := t.LeftmostLeaf(t.RootPageID)
	if err != nil {
		return err
	}
	for leafID != 0 {
		pg, err := t.Pager.Read(leafID)
		if err != nil {
			return err
		}
		for i := range pg.Slots {
			if pg.Slots[i].Length == 0 && pg.Slots[i].Offset == 0 {
				continue
			}
			payload, err := t.ReadLeafCell(pg, i)
			if err != nil {
				return err
			}
			existing, err := value.DecodeRow(payload)
			if err != nil {
				return err
			}
			if !existing.HasRowID || existing.RowID != rowID {
				continue
			}
			cell, err := t.encodeLeafCell(row.Encode())
			if err != nil {
				return err
			}
			if _, err := pg.UpdateCell(i, cell); err != nil {
				return err
			}
			return t.Pager.Write(pg)
		}
		if pg.NextLeafPageID == ^uint64(0) {
			break
		}
		leafID = pg.NextLeafPageID
	}
	return dberr.New(dberr.KindInvalidData, "row not found for update")
}
