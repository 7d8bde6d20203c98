// Package storage implements the Storage Manager: opening and creating
// database files, bootstrapping the catalog, creating tables, and
// inserting rows while keeping the catalog's root-page bookkeeping
// current across splits.
package storage

import (
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bambangdb/bambangdb/internal/bptree"
	"github.com/bambangdb/bambangdb/internal/catalog"
	"github.com/bambangdb/bambangdb/internal/dberr"
	"github.com/bambangdb/bambangdb/internal/fileheader"
	"github.com/bambangdb/bambangdb/internal/page"
	"github.com/bambangdb/bambangdb/internal/pager"
	"github.com/bambangdb/bambangdb/internal/value"
)

// Manager is the top-level handle to one open database file.
type Manager struct {
	file    *os.File
	header  fileheader.Header
	pager   *pager.Pager
	catalog *catalog.Catalog
	trees   map[string]*bptree.Tree
	sessID  string
	log     *logrus.Entry
}

// Create makes a brand new database file at path, writes the file
// header, and bootstraps an empty catalog on page 1.
func Create(path string, log *logrus.Logger) (*Manager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, dberr.IO("creating database file", err)
	}
	h := fileheader.New()
	if _, err := f.WriteAt(h.ToBytes(), 0); err != nil {
		f.Close()
		return nil, dberr.IO("writing file header", err)
	}

	m := newManager(f, h, log, 0)
	root := m.pager.Allocate(page.TypeLeafTable)
	if root.PageID != catalog.CatalogRootPage {
		f.Close()
		return nil, dberr.CorruptedDatabase("catalog must be the first allocated page")
	}
	if err := m.pager.Write(root); err != nil {
		f.Close()
		return nil, err
	}
	tree := bptree.New(m.pager, root.PageID, m.log)
	m.catalog = catalog.Open(tree)
	m.trees[catalogTreeKey] = tree
	m.header.LargestRootBTreePage = uint32(root.PageID)
	if err := m.syncHeaderPageCount(); err != nil {
		f.Close()
		return nil, err
	}
	m.log.Info("created new database")
	return m, nil
}

const catalogTreeKey = "\x00catalog"

// Open opens an existing database file, validating the header and
// reconstructing every table's schema and root page from the catalog.
func Open(path string, log *logrus.Logger) (*Manager, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, dberr.IO("opening database file", err)
	}
	headerBuf := make([]byte, fileheader.Size)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		f.Close()
		return nil, dberr.IO("reading file header", err)
	}
	h, err := fileheader.Parse(headerBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, dberr.IO("stat database file", err)
	}
	expectedSize := fileheader.PageOffset(uint64(h.DatabaseSizePages) + 1)
	if info.Size() != expectedSize {
		f.Close()
		return nil, dberr.CorruptedDatabase("file size does not match header page count")
	}

	m := newManager(f, h, log, uint64(h.DatabaseSizePages))
	catalogRoot := uint64(h.LargestRootBTreePage)
	if catalogRoot == 0 {
		catalogRoot = catalog.CatalogRootPage
	}
	tree := bptree.New(m.pager, catalogRoot, m.log)
	m.catalog = catalog.Open(tree)
	m.trees[catalogTreeKey] = tree

	defs, err := m.catalog.LoadAll()
	if err != nil {
		f.Close()
		return nil, err
	}
	for _, def := range defs {
		m.trees[def.Name] = bptree.New(m.pager, def.RootPage, m.log)
	}
	m.log.WithField("tables", len(defs)).Info("opened existing database")
	return m, nil
}

func newManager(f *os.File, h fileheader.Header, log *logrus.Logger, allocatedPages uint64) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	sessID := uuid.New().String()
	entry := log.WithField("session", sessID)
	return &Manager{
		file:   f,
		header: h,
		pager:  pager.Open(f, allocatedPages, entry),
		trees:  make(map[string]*bptree.Tree),
		sessID: sessID,
		log:    entry,
	}
}

func (m *Manager) syncHeaderPageCount() error {
	m.header.DatabaseSizePages = uint32(m.pager.PageCount())
	if _, err := m.file.WriteAt(m.header.ToBytes(), 0); err != nil {
		return dberr.IO("writing file header", err)
	}
	return m.file.Sync()
}

// Close flushes the header and closes the underlying file.
func (m *Manager) Close() error {
	if err := m.syncHeaderPageCount(); err != nil {
		return err
	}
	return m.file.Close()
}

// CreateTable allocates a new empty table tree and records its schema
// in the catalog.
func (m *Manager) CreateTable(name string, sql string, columns []catalog.ColumnDef) error {
	if _, ok := m.trees[name]; ok {
		return dberr.New(dberr.KindInvalidData, "table already exists")
	}
	root := m.pager.Allocate(page.TypeLeafTable)
	if err := m.pager.Write(root); err != nil {
		return err
	}
	catalogTree := m.trees[catalogTreeKey]
	oldCatalogRoot := catalogTree.RootPageID
	if err := m.catalog.CreateTable(catalog.TableDef{
		Name:     name,
		RootPage: root.PageID,
		SQL:      sql,
		Columns:  columns,
	}); err != nil {
		return err
	}
	if catalogTree.RootPageID != oldCatalogRoot {
		m.header.LargestRootBTreePage = uint32(catalogTree.RootPageID)
		m.log.WithField("new_root", catalogTree.RootPageID).Info("catalog tree root moved")
	}
	m.trees[name] = bptree.New(m.pager, root.PageID, m.log)
	if err := m.syncHeaderPageCount(); err != nil {
		return err
	}
	m.log.WithField("table", name).Info("created table")
	return nil
}

// InsertRow inserts values as a new row of table under the caller's
// rowID. If the insert causes the table's tree root to
// change, the catalog's row for that table is rewritten so a later
// Open sees the current root rather than a stale one.
func (m *Manager) InsertRow(table string, rowID value.RowID, values []value.Value) error {
	tree, ok := m.trees[table]
	if !ok {
		return dberr.TableNotFound(table)
	}
	oldRoot := tree.RootPageID
	row := value.Row{HasRowID: true, RowID: rowID, Values: values}
	newRoot, err := tree.Insert(row)
	if err != nil {
		return err
	}
	if newRoot != oldRoot {
		if err := m.catalog.UpdateTableRoot(table, newRoot); err != nil {
			return err
		}
		m.log.WithField("table", table).WithField("new_root", newRoot).Info("rewrote catalog root after split")
	}
	if err := m.syncHeaderPageCount(); err != nil {
		return err
	}
	return nil
}

// Tree returns the B+-tree backing a table, for the scanner to walk.
func (m *Manager) Tree(table string) (*bptree.Tree, error) {
	tree, ok := m.trees[table]
	if !ok {
		return nil, dberr.TableNotFound(table)
	}
	return tree, nil
}

// TableDef returns a table's reconstructed schema.
func (m *Manager) TableDef(table string) (catalog.TableDef, error) {
	defs, err := m.catalog.LoadAll()
	if err != nil {
		return catalog.TableDef{}, err
	}
	for _, d := range defs {
		if d.Name == table {
			return d, nil
		}
	}
	return catalog.TableDef{}, dberr.TableNotFound(table)
}

// Stat is a read-only introspection probe: it reads a database file's
// header and page count without opening it for writes.
func Stat(path string) (fileheader.Header, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileheader.Header{}, 0, dberr.IO("opening database file for stat", err)
	}
	defer f.Close()
	buf := make([]byte, fileheader.Size)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return fileheader.Header{}, 0, dberr.IO("reading file header", err)
	}
	h, err := fileheader.Parse(buf)
	if err != nil {
		return fileheader.Header{}, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return fileheader.Header{}, 0, dberr.IO("stat database file", err)
	}
	return h, info.Size(), nil
}
