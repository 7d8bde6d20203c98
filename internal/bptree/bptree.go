// Package bptree implements the on-disk B+-tree used for both the
// catalog and every user table: InteriorTable/LeafTable pages linked by
// next_leaf_page_id, split on overflow, with promote-only interior
// splits and an overflow page for oversized payloads.
package bptree

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/bambangdb/bambangdb/internal/dberr"
	"github.com/bambangdb/bambangdb/internal/page"
	"github.com/bambangdb/bambangdb/internal/pager"
	"github.com/bambangdb/bambangdb/internal/value"
)

// Tree is a handle to one B+-tree rooted at RootPageID. Every table
// (including the catalog) gets its own Tree sharing the database's
// single Pager.
type Tree struct {
	Pager      *pager.Pager
	RootPageID uint64
	log        *logrus.Entry
}

func New(p *pager.Pager, rootPageID uint64, log *logrus.Entry) *Tree {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Tree{Pager: p, RootPageID: rootPageID, log: log}
}

// keyed pairs a row's ordering key with its encoded row bytes, used
// while gathering cells for a split.
type keyed struct {
	key     value.Value
	payload []byte
}

// rowKey extracts a row's B+-tree ordering key: its first value. Row
// identity for ordering purposes is never the row id — two rows may
// share a key, and the tree tolerates duplicates (a leaf chain scan,
// not a unique lookup, is how the catalog reads all of its rows back).
func rowKey(row value.Row) (value.Value, error) {
	if len(row.Values) == 0 {
		return value.Value{}, dberr.CorruptedDatabase("row has no values to key on")
	}
	return row.Values[0], nil
}

// splitResult is returned up the recursion when a child page split,
// carrying the separator key and the new right-hand sibling's id.
type splitResult struct {
	separator   value.Value
	rightPageID uint64
}

// Insert adds row to the tree, keyed by its first value (row.Values[0]
// is the tree's sort key — row.RowID is carried in the encoded payload
// but plays no part in ordering). It returns the tree's root page id
// after the insert, which callers must compare against the root id
// they had cached, since a root split changes it.
func (t *Tree) Insert(row value.Row) (newRoot uint64, err error) {
	key, err := rowKey(row)
	if err != nil {
		return 0, err
	}
	payload := row.Encode()

	split, err := t.insertInto(t.RootPageID, key, payload)
	if err != nil {
		return 0, err
	}
	if split == nil {
		return t.RootPageID, nil
	}

	// Root split: grow the tree by one level.
	oldRoot, err := t.Pager.Read(t.RootPageID)
	if err != nil {
		return 0, err
	}
	newRootPage := t.Pager.Allocate(page.TypeInteriorTable)
	leftEntry := interiorEntry(oldRoot.PageID, split.separator)
	rightEntry := interiorEntry(split.rightPageID, value.Null())
	if _, err := newRootPage.InsertCell(leftEntry); err != nil {
		return 0, err
	}
	if _, err := newRootPage.InsertCell(rightEntry); err != nil {
		return 0, err
	}
	if err := t.Pager.Write(newRootPage); err != nil {
		return 0, err
	}
	t.log.WithField("new_root", newRootPage.PageID).Info("grew tree root")
	t.RootPageID = newRootPage.PageID
	return t.RootPageID, nil
}

func (t *Tree) insertInto(pageID uint64, key value.Value, payload []byte) (*splitResult, error) {
	pg, err := t.Pager.Read(pageID)
	if err != nil {
		return nil, err
	}
	switch pg.Type {
	case page.TypeLeafTable:
		return t.insertIntoLeaf(pg, key, payload)
	case page.TypeInteriorTable:
		return t.insertIntoInterior(pg, key, payload)
	default:
		return nil, dberr.CorruptedPage(pg.PageID, "unexpected page type during insert")
	}
}

func (t *Tree) insertIntoLeaf(pg *page.Page, key value.Value, payload []byte) (*splitResult, error) {
	cell, err := t.encodeLeafCell(payload)
	if err != nil {
		return nil, err
	}
	if pg.CanFit(len(cell)) {
		if _, err := pg.InsertCell(cell); err != nil {
			return nil, err
		}
		return nil, t.Pager.Write(pg)
	}
	// Try compaction before accepting a split.
	pg.Compact()
	if pg.CanFit(len(cell)) {
		if _, err := pg.InsertCell(cell); err != nil {
			return nil, err
		}
		return nil, t.Pager.Write(pg)
	}
	return t.splitLeaf(pg, key, cell)
}

// encodeLeafCell stores payload inline, or — when it exceeds a quarter
// of the page size — allocates an overflow page and stores a 12-byte
// pointer cell instead.
func (t *Tree) encodeLeafCell(payload []byte) ([]byte, error) {
	if !page.NeedsOverflow(len(payload)) {
		return payload, nil
	}
	overflow := t.Pager.Allocate(page.TypeOverflow)
	if _, err := overflow.InsertCell(payload); err != nil {
		return nil, err
	}
	if err := t.Pager.Write(overflow); err != nil {
		return nil, err
	}
	ptr := page.OverflowPointer{OverflowPageID: overflow.PageID, TotalSize: uint32(len(payload))}
	return ptr.Encode(), nil
}

// ReadLeafCell resolves a leaf slot's bytes to their logical payload,
// transparently following an overflow pointer when present.
func (t *Tree) ReadLeafCell(pg *page.Page, slotIndex int) ([]byte, error) {
	raw, err := pg.GetCell(slotIndex)
	if err != nil {
		return nil, err
	}
	return t.resolveCell(pg.Slots[slotIndex], raw)
}

// ReadLeafCellAt resolves a slot's payload via a direct positional read
// of exactly slot.Length bytes at pageID's cell-data offset, without
// loading the page's full 4096-byte body. Used by the scanner, which
// only ever needs a leaf page's metadata (header + slot directory) plus
// the handful of cells it is about to return.
func (t *Tree) ReadLeafCellAt(pageID uint64, slot page.Slot) ([]byte, error) {
	raw, err := t.Pager.ReadCellBytes(pageID, slot)
	if err != nil {
		return nil, err
	}
	return t.resolveCell(slot, raw)
}

func (t *Tree) resolveCell(slot page.Slot, raw []byte) ([]byte, error) {
	if slot.IsOverflowPointer() {
		ptr := page.DecodeOverflowPointer(raw)
		ovf, err := t.Pager.Read(ptr.OverflowPageID)
		if err != nil {
			return nil, err
		}
		return ovf.GetCell(0)
	}
	return raw, nil
}

func (t *Tree) splitLeaf(pg *page.Page, incomingKey value.Value, incomingCell []byte) (*splitResult, error) {
	items, err := t.gatherLeafCells(pg)
	if err != nil {
		return nil, err
	}
	items = append(items, keyed{key: incomingKey, payload: incomingCell})
	sort.SliceStable(items, func(i, j int) bool { return value.LessThan(items[i].key, items[j].key) })

	mid := len(items) / 2
	leftItems, rightItems := items[:mid], items[mid:]

	rightPage := t.Pager.Allocate(page.TypeLeafTable)
	rightPage.NextLeafPageID = pg.NextLeafPageID

	leftPage := page.New(pg.PageID, page.TypeLeafTable)
	leftPage.NextLeafPageID = rightPage.PageID
	leftPage.ParentPageID = pg.ParentPageID

	for _, it := range leftItems {
		if _, err := leftPage.InsertCell(it.payload); err != nil {
			return nil, err
		}
	}
	for _, it := range rightItems {
		if _, err := rightPage.InsertCell(it.payload); err != nil {
			return nil, err
		}
	}
	if err := t.Pager.Write(leftPage); err != nil {
		return nil, err
	}
	if err := t.Pager.Write(rightPage); err != nil {
		return nil, err
	}
	t.log.WithFields(logrus.Fields{"left": leftPage.PageID, "right": rightPage.PageID}).Info("split leaf page")
	return &splitResult{separator: rightItems[0].key, rightPageID: rightPage.PageID}, nil
}

func (t *Tree) gatherLeafCells(pg *page.Page) ([]keyed, error) {
	out := make([]keyed, 0, pg.CellCount())
	for i := range pg.Slots {
		if pg.Slots[i].Length == 0 && pg.Slots[i].Offset == 0 {
			continue
		}
		payload, err := t.ReadLeafCell(pg, i)
		if err != nil {
			return nil, err
		}
		row, err := value.DecodeRow(payload)
		if err != nil {
			return nil, err
		}
		key, err := rowKey(row)
		if err != nil {
			return nil, err
		}
		raw, err := pg.GetCell(i)
		if err != nil {
			return nil, err
		}
		out = append(out, keyed{key: key, payload: raw})
	}
	return out, nil
}

func (t *Tree) insertIntoInterior(pg *page.Page, key value.Value, payload []byte) (*splitResult, error) {
	childPageID, err := t.findChildForKey(pg, key)
	if err != nil {
		return nil, err
	}

	childSplit, err := t.insertInto(childPageID, key, payload)
	if err != nil {
		return nil, err
	}
	if childSplit == nil {
		return nil, nil
	}

	entry := interiorEntry(childSplit.rightPageID, childSplit.separator)
	if pg.CanFit(len(entry)) {
		if _, err := pg.InsertCell(entry); err != nil {
			return nil, err
		}
		return nil, t.Pager.Write(pg)
	}
	return t.splitInterior(pg, childSplit.separator, entry)
}

// findChildForKey descends an interior page per the spec's routing
// rule: scan entries in slot order, route to the first whose key is
// >= the search key, falling through to the last (rightmost) entry.
func (t *Tree) findChildForKey(pg *page.Page, key value.Value) (uint64, error) {
	n := pg.CellCount()
	if n == 0 {
		return 0, dberr.CorruptedPage(pg.PageID, "interior page has no entries")
	}
	for i := 0; i < n-1; i++ {
		raw, err := pg.GetCell(i)
		if err != nil {
			return 0, err
		}
		childID, entryKey, err := parseInteriorEntry(raw)
		if err != nil {
			return 0, err
		}
		if value.Compare(key, entryKey) != value.Greater {
			return childID, nil
		}
	}
	raw, err := pg.GetCell(n - 1)
	if err != nil {
		return 0, err
	}
	childID, _, err := parseInteriorEntry(raw)
	return childID, err
}

func (t *Tree) splitInterior(pg *page.Page, incomingKey value.Value, incomingEntry []byte) (*splitResult, error) {
	type entry struct {
		key     value.Value
		payload []byte
	}
	items := make([]entry, 0, pg.CellCount()+1)
	for i := 0; i < pg.CellCount(); i++ {
		raw, err := pg.GetCell(i)
		if err != nil {
			return nil, err
		}
		_, key, err := parseInteriorEntry(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, entry{key: key, payload: raw})
	}
	items = append(items, entry{key: incomingKey, payload: incomingEntry})
	// The fallback (rightmost) entry carries a Null key that means
	// "catch-all", not "less than everything" — sort it last rather
	// than letting Null's normal ordering (below every other kind)
	// put it first.
	sort.SliceStable(items, func(i, j int) bool { return interiorKeyLess(items[i].key, items[j].key) })

	mid := len(items) / 2
	// Promote-only: the middle entry's key is removed from both sides;
	// its child becomes the rightmost (fallback) child of the left page.
	promoted := items[mid]
	leftItems := items[:mid]
	rightItems := items[mid+1:]

	leftPage := page.New(pg.PageID, page.TypeInteriorTable)
	leftPage.ParentPageID = pg.ParentPageID
	for _, it := range leftItems {
		if _, err := leftPage.InsertCell(it.payload); err != nil {
			return nil, err
		}
	}
	promotedChildID, _, err := parseInteriorEntry(promoted.payload)
	if err != nil {
		return nil, err
	}
	if _, err := leftPage.InsertCell(interiorEntry(promotedChildID, value.Null())); err != nil {
		return nil, err
	}

	rightPage := t.Pager.Allocate(page.TypeInteriorTable)
	for _, it := range rightItems {
		if _, err := rightPage.InsertCell(it.payload); err != nil {
			return nil, err
		}
	}
	if err := t.Pager.Write(leftPage); err != nil {
		return nil, err
	}
	if err := t.Pager.Write(rightPage); err != nil {
		return nil, err
	}
	t.log.WithFields(logrus.Fields{"left": leftPage.PageID, "right": rightPage.PageID}).Info("split interior page")
	return &splitResult{separator: promoted.key, rightPageID: rightPage.PageID}, nil
}

// interiorKeyLess orders interior entries for a split, treating a Null
// key as the catch-all fallback entry (sorts last) rather than as the
// ordinary "smaller than everything" Null.
func interiorKeyLess(a, b value.Value) bool {
	aNull, bNull := a.IsNull(), b.IsNull()
	switch {
	case aNull && bNull:
		return false
	case aNull:
		return false
	case bNull:
		return true
	default:
		return value.LessThan(a, b)
	}
}

func interiorEntry(childPageID uint64, key value.Value) []byte {
	keyBytes := value.Encode(nil, key)
	buf := make([]byte, 0, 12+len(keyBytes))
	buf = appendU64(buf, childPageID)
	buf = appendU32(buf, uint32(len(keyBytes)))
	buf = append(buf, keyBytes...)
	return buf
}

func parseInteriorEntry(buf []byte) (childPageID uint64, key value.Value, err error) {
	if len(buf) < 12 {
		return 0, value.Value{}, dberr.SerializationError("truncated interior entry")
	}
	childPageID = readU64(buf[0:8])
	keyLen := readU32(buf[8:12])
	if len(buf) < 12+int(keyLen) {
		return 0, value.Value{}, dberr.SerializationError("truncated interior entry key")
	}
	key, _, err = value.Decode(buf[12 : 12+int(keyLen)])
	return childPageID, key, err
}

func appendU64(buf []byte, v uint64) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func readU64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

func readU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// LeftmostLeaf descends from the given page (typically the root) via
// each interior level's first child, returning the leftmost leaf's page
// id. Used by the scanner to begin a full scan.
func (t *Tree) LeftmostLeaf(pageID uint64) (uint64, error) {
	for {
		pg, err := t.Pager.Read(pageID)
		if err != nil {
			return 0, err
		}
		if pg.Type == page.TypeLeafTable {
			return pg.PageID, nil
		}
		if pg.CellCount() == 0 {
			return 0, dberr.CorruptedPage(pg.PageID, "interior page has no entries")
		}
		raw, err := pg.GetCell(0)
		if err != nil {
			return 0, err
		}
		childID, _, err := parseInteriorEntry(raw)
		if err != nil {
			return 0, err
		}
		pageID = childID
	}
}
