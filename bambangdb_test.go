package bambangdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEndToEndCreateInsertScanReopen(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "e2e.db")

	db, err := Create(path, Config{}, nil)
	r.NoError(err)
	r.NoError(db.CreateTable("accounts", "CREATE TABLE accounts (id INTEGER, name TEXT, balance REAL)", []ColumnDef{
		{Name: "id", Position: 0, DataType: "INTEGER"},
		{Name: "name", Position: 1, DataType: "TEXT"},
		{Name: "balance", Position: 2, DataType: "REAL"},
	}))

	for i := 0; i < 50; i++ {
		err := db.Insert("accounts", uint64(i), []Value{
			IntegerValue(int64(i)),
			TextValue("account"),
			RealValue(float64(i) * 1.5),
		})
		r.NoError(err)
	}
	r.NoError(db.Close())

	reopened, err := Open(path, Config{}, nil)
	r.NoError(err)
	defer reopened.Close()

	s, err := reopened.Scanner("accounts")
	r.NoError(err)
	var total int
	for {
		batch, err := s.Next()
		r.NoError(err)
		if len(batch) == 0 {
			break
		}
		total += len(batch)
	}
	r.Equal(50, total)
}

func TestInsertRejectsInvalidValue(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "invalid.db")
	db, err := Create(path, Config{}, nil)
	r.NoError(err)
	defer db.Close()
	r.NoError(db.CreateTable("t", "CREATE TABLE t (id INTEGER)", []ColumnDef{
		{Name: "id", Position: 0, DataType: "INTEGER"},
	}))

	err = db.Insert("t", 1, []Value{TextValue("not an integer")})
	r.Error(err)
}

func TestStatWithoutOpening(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "stat.db")
	db, err := Create(path, Config{}, nil)
	r.NoError(err)
	r.NoError(db.Close())

	pages, size, err := Stat(path)
	r.NoError(err)
	r.Equal(uint32(1), pages)
	r.Greater(size, int64(0))
}
