// Package catalog implements the page-1 B+-tree that records every
// table's schema, and the in-memory directory mapping table names to
// their current root page.
package catalog

import (
	"fmt"

	"github.com/armon/go-radix"

	"github.com/bambangdb/bambangdb/internal/bptree"
	"github.com/bambangdb/bambangdb/internal/dberr"
	"github.com/bambangdb/bambangdb/internal/value"
)

// ColumnDef describes one column of a table, reconstructed from the
// catalog's column rows.
type ColumnDef struct {
	Name       string
	Position   int
	DataType   string
	Nullable   bool
	Default    string // "NULL" if absent
	PrimaryKey bool
	Unique     bool
}

// TableDef is a table's full schema, as reconstructed from the catalog.
type TableDef struct {
	Name       string
	RootPage   uint64
	SQL        string
	Columns    []ColumnDef
}

// CatalogRootPage is the page the catalog's own B+-tree starts at:
// every database file's page 1 is the catalog's first leaf. Once the
// catalog's tree grows a new root, the current root id is kept in the
// file header's LargestRootBTreePage field instead.
const CatalogRootPage = 1

// Directory maps table names to their current root page, backed by a
// radix tree so that Names comes back in sorted order. It offers no
// prefix lookup.
type Directory struct {
	tree *radix.Tree
}

func NewDirectory() *Directory {
	return &Directory{tree: radix.New()}
}

func (d *Directory) Set(tableName string, rootPage uint64) {
	d.tree.Insert(tableName, rootPage)
}

func (d *Directory) Get(tableName string) (uint64, bool) {
	v, ok := d.tree.Get(tableName)
	if !ok {
		return 0, false
	}
	return v.(uint64), true
}

// Names returns every known table name in sorted (radix) order.
func (d *Directory) Names() []string {
	var out []string
	d.tree.Walk(func(k string, v interface{}) bool {
		out = append(out, k)
		return false
	})
	return out
}

// Catalog wraps the page-1 B+-tree plus a next-row-id counter shared by
// every catalog row (table and column rows alike).
type Catalog struct {
	Tree      *bptree.Tree
	Directory *Directory
	nextRowID uint64
}

func Open(tree *bptree.Tree) *Catalog {
	return &Catalog{Tree: tree, Directory: NewDirectory()}
}

func (c *Catalog) allocateRowID() uint64 {
	c.nextRowID++
	return c.nextRowID
}

// tableRow builds the catalog row shape for a table entry:
// (Text "table", Text name, Text table_name, Integer root_page, Text sql)
func tableRow(rowID uint64, name string, rootPage uint64, sql string) value.Row {
	return value.Row{
		HasRowID: true,
		RowID:    value.RowID(rowID),
		Values: []value.Value{
			value.Text("table"),
			value.Text(name),
			value.Text(name),
			value.Integer(int64(rootPage)),
			value.Text(sql),
		},
	}
}

// columnRow builds the catalog row shape for a column entry:
// (Text "column", Text column_name, Text table_name, Integer position,
// Text data_type, Integer nullable, Text default, Integer primary_key,
// Integer unique)
func columnRow(rowID uint64, tableName string, col ColumnDef) value.Row {
	def := col.Default
	if def == "" {
		def = "NULL"
	}
	return value.Row{
		HasRowID: true,
		RowID:    value.RowID(rowID),
		Values: []value.Value{
			value.Text("column"),
			value.Text(col.Name),
			value.Text(tableName),
			value.Integer(int64(col.Position)),
			value.Text(col.DataType),
			value.Integer(boolToInt(col.Nullable)),
			value.Text(def),
			value.Integer(boolToInt(col.PrimaryKey)),
			value.Integer(boolToInt(col.Unique)),
		},
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// CreateTable inserts the table row and every column row for a new
// table into the catalog, and records the table in the in-memory
// Directory.
func (c *Catalog) CreateTable(def TableDef) error {
	if _, ok := c.Directory.Get(def.Name); ok {
		return dberr.New(dberr.KindInvalidData, fmt.Sprintf("table %q already exists", def.Name))
	}
	tRow := tableRow(c.allocateRowID(), def.Name, def.RootPage, def.SQL)
	if err := c.insertAndTrackRoot(tRow); err != nil {
		return err
	}
	for _, col := range def.Columns {
		cRow := columnRow(c.allocateRowID(), def.Name, col)
		if err := c.insertAndTrackRoot(cRow); err != nil {
			return err
		}
	}
	c.Directory.Set(def.Name, def.RootPage)
	return nil
}

func (c *Catalog) insertAndTrackRoot(row value.Row) error {
	_, err := c.Tree.Insert(row)
	return err
}

// UpdateTableRoot rewrites a table's catalog row with its new root
// page, after a split has moved that table's own tree root. This is the
// fix for the known staleness gap: without it, a reopened database
// would still find the table's *old* root page in the catalog.
func (c *Catalog) UpdateTableRoot(tableName string, newRoot uint64) error {
	row, ok, err := c.findTableRow(tableName)
	if err != nil {
		return err
	}
	if !ok {
		return dberr.TableNotFound(tableName)
	}
	row.Values[3] = value.Integer(int64(newRoot))
	if err := c.Tree.UpdateRow(row.RowID, row); err != nil {
		return err
	}
	c.Directory.Set(tableName, newRoot)
	return nil
}

// findTableRow scans the catalog for the ("table", name, ...) row,
// since every table row shares the ordering key "table" and so cannot
// be found by descending on its name.
func (c *Catalog) findTableRow(tableName string) (value.Row, bool, error) {
	leafID, err := c.Tree.LeftmostLeaf(c.Tree.RootPageID)
	if err != nil {
		return value.Row{}, false, err
	}
	for leafID != 0 {
		pg, err := c.Tree.Pager.Read(leafID)
		if err != nil {
			return value.Row{}, false, err
		}
		for i := range pg.Slots {
			if pg.Slots[i].Length == 0 && pg.Slots[i].Offset == 0 {
				continue
			}
			payload, err := c.Tree.ReadLeafCell(pg, i)
			if err != nil {
				return value.Row{}, false, err
			}
			row, err := value.DecodeRow(payload)
			if err != nil {
				return value.Row{}, false, err
			}
			if len(row.Values) >= 2 && row.Values[0].Text == "table" && row.Values[1].Text == tableName {
				return row, true, nil
			}
		}
		if pg.NextLeafPageID == noPage {
			break
		}
		leafID = pg.NextLeafPageID
	}
	return value.Row{}, false, nil
}

const noPage = ^uint64(0)

// LoadAll reconstructs every TableDef from the catalog's rows, called
// once when an existing database file is opened.
func (c *Catalog) LoadAll() ([]TableDef, error) {
	tables := map[string]*TableDef{}
	order := []string{}
	var maxRowID uint64

	leafID, err := c.Tree.LeftmostLeaf(c.Tree.RootPageID)
	if err != nil {
		return nil, err
	}
	for leafID != 0 {
		pg, err := c.Tree.Pager.Read(leafID)
		if err != nil {
			return nil, err
		}
		for i := range pg.Slots {
			if pg.Slots[i].Length == 0 && pg.Slots[i].Offset == 0 {
				continue
			}
			payload, err := c.Tree.ReadLeafCell(pg, i)
			if err != nil {
				return nil, err
			}
			row, err := value.DecodeRow(payload)
			if err != nil {
				return nil, err
			}
			if row.HasRowID && uint64(row.RowID) > maxRowID {
				maxRowID = uint64(row.RowID)
			}
			if len(row.Values) == 0 {
				continue
			}
			switch row.Values[0].Text {
			case "table":
				name := row.Values[1].Text
				td, ok := tables[name]
				if !ok {
					td = &TableDef{}
					tables[name] = td
					order = append(order, name)
				}
				td.Name = name
				td.RootPage = uint64(row.Values[3].Integer)
				td.SQL = row.Values[4].Text
			case "column":
				name := row.Values[2].Text
				td, ok := tables[name]
				if !ok {
					td = &TableDef{Name: name}
					tables[name] = td
					order = append(order, name)
				}
				td.Columns = append(td.Columns, ColumnDef{
					Name:       row.Values[1].Text,
					Position:   int(row.Values[3].Integer),
					DataType:   row.Values[4].Text,
					Nullable:   row.Values[5].Integer != 0,
					Default:    row.Values[6].Text,
					PrimaryKey: row.Values[7].Integer != 0,
					Unique:     row.Values[8].Integer != 0,
				})
			}
		}
		if pg.NextLeafPageID == noPage {
			break
		}
		leafID = pg.NextLeafPageID
	}

	c.nextRowID = maxRowID
	out := make([]TableDef, 0, len(order))
	for _, name := range order {
		td := tables[name]
		c.Directory.Set(td.Name, td.RootPage)
		out = append(out, *td)
	}
	return out, nil
}
