// Package bambangdb is the public façade over the storage engine: open
// or create a database file, create tables, insert rows, and scan them
// back in key order. It wires the catalog, B+-tree, and scanner
// packages together behind a small surface, the way engine.Engine does
// for the teacher's SQL layer.
package bambangdb

import (
	"github.com/sirupsen/logrus"

	"github.com/bambangdb/bambangdb/internal/catalog"
	"github.com/bambangdb/bambangdb/internal/scanner"
	"github.com/bambangdb/bambangdb/internal/schema"
	"github.com/bambangdb/bambangdb/internal/storage"
	"github.com/bambangdb/bambangdb/internal/value"
)

// Value and Row re-exports: callers of this package never need to
// import internal/value directly.
type Value = value.Value
type Row = value.Row
type ColumnDef = catalog.ColumnDef
type TableDef = catalog.TableDef

var (
	NullValue      = value.Null
	IntegerValue   = value.Integer
	RealValue      = value.Real
	TextValue      = value.Text
	BlobValue      = value.Blob
	BooleanValue   = value.Boolean
	TimestampValue = value.Timestamp
)

const (
	KindNull      = value.KindNull
	KindInteger   = value.KindInteger
	KindReal      = value.KindReal
	KindText      = value.KindText
	KindBlob      = value.KindBlob
	KindBoolean   = value.KindBoolean
	KindTimestamp = value.KindTimestamp
)

// Config controls the engine's operational knobs. Zero value is valid
// and uses the documented defaults.
type Config struct {
	ScanBatchSize    int `yaml:"scan_batch_size"`
	ScanPrefetchSize int `yaml:"scan_prefetch_size"`
}

// DB is an open database file.
type DB struct {
	mgr    *storage.Manager
	config Config
	log    *logrus.Logger
}

// Create makes a new database file at path.
func Create(path string, cfg Config, log *logrus.Logger) (*DB, error) {
	log = orDefaultLogger(log)
	mgr, err := storage.Create(path, log)
	if err != nil {
		return nil, err
	}
	return &DB{mgr: mgr, config: cfg, log: log}, nil
}

// Open opens an existing database file, reconstructing its schema from
// the catalog.
func Open(path string, cfg Config, log *logrus.Logger) (*DB, error) {
	log = orDefaultLogger(log)
	mgr, err := storage.Open(path, log)
	if err != nil {
		return nil, err
	}
	return &DB{mgr: mgr, config: cfg, log: log}, nil
}

func orDefaultLogger(log *logrus.Logger) *logrus.Logger {
	if log != nil {
		return log
	}
	return logrus.StandardLogger()
}

func (db *DB) Close() error { return db.mgr.Close() }

// CreateTable defines a new table with the given columns. sql is stored
// verbatim in the catalog as the table's defining statement, matching
// the "table_name -> CREATE SQL" shape a real engine's schema table
// carries, even though this engine parses no SQL itself.
func (db *DB) CreateTable(name, sql string, columns []ColumnDef) error {
	return db.mgr.CreateTable(name, sql, columns)
}

// Insert validates values against table's schema and inserts them as
// one row under rowID. values must already be complete and in column
// order: no column defaults are applied.
func (db *DB) Insert(table string, rowID uint64, values []Value) error {
	def, err := db.mgr.TableDef(table)
	if err != nil {
		return err
	}
	if err := schema.Validate(def, values); err != nil {
		return err
	}
	return db.mgr.InsertRow(table, value.RowID(rowID), values)
}

// Scanner returns a fresh sequential scanner over table, positioned at
// its first row.
func (db *DB) Scanner(table string) (*scanner.Scanner, error) {
	tree, err := db.mgr.Tree(table)
	if err != nil {
		return nil, err
	}
	var opts []scanner.Option
	if db.config.ScanBatchSize > 0 {
		opts = append(opts, scanner.WithBatchSize(db.config.ScanBatchSize))
	}
	if db.config.ScanPrefetchSize > 0 {
		opts = append(opts, scanner.WithPrefetchDepth(db.config.ScanPrefetchSize))
	}
	return scanner.New(tree, db.log.WithField("table", table), opts...)
}

// TableDef returns a table's reconstructed schema.
func (db *DB) TableDef(table string) (TableDef, error) {
	return db.mgr.TableDef(table)
}

// Stat is a read-only probe of a database file's header, usable without
// opening it for writes.
func Stat(path string) (pages uint32, sizeBytes int64, err error) {
	h, size, err := storage.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	return h.DatabaseSizePages, size, nil
}
