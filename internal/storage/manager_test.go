package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bambangdb/bambangdb/internal/catalog"
	"github.com/bambangdb/bambangdb/internal/scanner"
	"github.com/bambangdb/bambangdb/internal/value"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func TestCreateAndInsertAndReopen(t *testing.T) {
	r := require.New(t)
	path := tempDBPath(t)

	m, err := Create(path, nil)
	r.NoError(err)
	r.NoError(m.CreateTable("widgets", "CREATE TABLE widgets (id INTEGER, name TEXT)", []catalog.ColumnDef{
		{Name: "id", Position: 0, DataType: "INTEGER"},
		{Name: "name", Position: 1, DataType: "TEXT"},
	}))

	const n = 300
	for i := 0; i < n; i++ {
		err := m.InsertRow("widgets", value.RowID(i), []value.Value{
			value.Integer(int64(i)),
			value.Text(fmt.Sprintf("widget-%04d-with-enough-padding-to-split-pages", i)),
		})
		r.NoError(err)
	}
	r.NoError(m.Close())

	reopened, err := Open(path, nil)
	r.NoError(err)
	defer reopened.Close()

	tree, err := reopened.Tree("widgets")
	r.NoError(err)

	s, err := scanner.New(tree, nil, scanner.WithBatchSize(64))
	r.NoError(err)
	var count int
	for {
		batch, err := s.Next()
		r.NoError(err)
		if len(batch) == 0 {
			break
		}
		count += len(batch)
	}
	r.Equal(n, count)
}

func TestCreateRejectsExistingFile(t *testing.T) {
	r := require.New(t)
	path := tempDBPath(t)
	m, err := Create(path, nil)
	r.NoError(err)
	r.NoError(m.Close())

	_, err = Create(path, nil)
	r.Error(err)
}

func TestOpenRejectsCorruptHeader(t *testing.T) {
	r := require.New(t)
	path := tempDBPath(t)
	r.NoError(os.WriteFile(path, make([]byte, 200), 0644))
	_, err := Open(path, nil)
	r.Error(err)
}

func TestStatReadsHeaderWithoutLocking(t *testing.T) {
	r := require.New(t)
	path := tempDBPath(t)
	m, err := Create(path, nil)
	r.NoError(err)
	r.NoError(m.Close())

	h, size, err := Stat(path)
	r.NoError(err)
	r.Greater(size, int64(0))
	r.Equal(uint32(1), h.DatabaseSizePages)
}
