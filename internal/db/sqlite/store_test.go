// Package sqlite loads source tables for assimilation from SQLite databases.
package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/thebtf/assimilator/pkg/assimilate"
	"github.com/thebtf/assimilator/pkg/table"
)

// StoreSuite is a test suite for Store operations.
type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

// SetupTest creates a fresh in-memory database before each test.
func (s *StoreSuite) SetupTest() {
	var err error
	s.ctx = context.Background()
	s.store, err = NewStore(StoreConfig{Path: ":memory:", MaxConns: 1})
	s.Require().NoError(err)

	_, err = s.store.ExecContext(s.ctx, `
		CREATE TABLE animals (
			name   TEXT,
			legs   INTEGER,
			weight REAL,
			note   TEXT
		)`)
	s.Require().NoError(err)
	_, err = s.store.ExecContext(s.ctx, `
		INSERT INTO animals (name, legs, weight, note) VALUES
			('cat', 4, 4.5, NULL),
			('bat', 2, 0.1, 'flies'),
			('zebra', 4, 300, 'stripes')`)
	s.Require().NoError(err)
}

// TearDownTest cleans up after each test.
func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.NoError(s.store.Close())
	}
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

// TestLoadTable tests conversion of a result set into a table.
func (s *StoreSuite) TestLoadTable() {
	tbl, err := s.store.LoadTable(s.ctx, "SELECT name, legs, weight, note FROM animals ORDER BY rowid")
	s.Require().NoError(err)

	s.Equal([]string{"name", "legs", "weight", "note"}, tbl.Columns())
	s.Equal([]table.Row{
		{"cat", "4", "4.5", ""},
		{"bat", "2", "0.1", "flies"},
		{"zebra", "4", "300", "stripes"},
	}, tbl.Rows())
}

// TestLoadTable_Args tests parameterized queries.
func (s *StoreSuite) TestLoadTable_Args() {
	tbl, err := s.store.LoadTable(s.ctx, "SELECT name FROM animals WHERE legs = ? ORDER BY name", 4)
	s.Require().NoError(err)

	names, err := tbl.ColumnValues("name")
	s.Require().NoError(err)
	s.Equal([]string{"cat", "zebra"}, names)
}

// TestLoadTable_Empty tests a query matching nothing.
func (s *StoreSuite) TestLoadTable_Empty() {
	tbl, err := s.store.LoadTable(s.ctx, "SELECT name, legs FROM animals WHERE legs > 100")
	s.Require().NoError(err)
	s.Equal(0, tbl.Len())
	s.Equal([]string{"name", "legs"}, tbl.Columns())
}

// TestLoadTable_InvalidQuery tests error propagation.
func (s *StoreSuite) TestLoadTable_InvalidQuery() {
	_, err := s.store.LoadTable(s.ctx, "SELECT * FROM nonexistent_table")
	s.Error(err)
}

// TestLoadColumns tests the column selection helper.
func (s *StoreSuite) TestLoadColumns() {
	tbl, err := s.store.LoadColumns(s.ctx, "animals", "name", "legs")
	s.Require().NoError(err)
	s.Equal([]string{"name", "legs"}, tbl.Columns())
	s.Equal(3, tbl.Len())

	all, err := s.store.LoadColumns(s.ctx, "animals")
	s.Require().NoError(err)
	s.Len(all.Columns(), 4)
}

// TestAssimilateFromDatabase tests the full path from a query to a projection.
func (s *StoreSuite) TestAssimilateFromDatabase() {
	tbl, err := s.store.LoadColumns(s.ctx, "animals", "name", "legs")
	s.Require().NoError(err)

	f, err := assimilate.New(tbl, "name", assimilate.WithDefaultThreshold(2))
	s.Require().NoError(err)

	projected, variants, err := f.ProjectFullyReferenced()
	s.Require().NoError(err)
	s.Equal(map[string][]string{"cat": {"zebra"}}, variants)
	s.Equal(2, projected.Len())
}

func TestNewStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.db")

	store, err := NewStore(StoreConfig{Path: path})
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store.DB())
	_, err = store.ExecContext(context.Background(), "CREATE TABLE t (k TEXT)")
	assert.NoError(t, err)
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"name", `"name"`},
		{`we"ird`, `"we""ird"`},
		{"", `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quoteIdent(tt.in))
	}
	assert.Equal(t, `"a", "b"`, quoteList([]string{"a", "b"}))
}
