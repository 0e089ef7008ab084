// Package assimilate deduplicates near-duplicate values of one table column.
//
// A Formatter owns a key-sorted copy of a source table. Projecting it runs
// the edit-distance clustering from package similarity and keeps only the
// rows whose key survived as a canonical value; the accompanying mapping
// lists the raw variants each canonical value absorbed. The same mapping
// can then be applied to correct another table carrying the same kind of
// raw values.
//
// A Formatter caches the most recent projection and is not safe for
// concurrent use.
package assimilate

import (
	"fmt"

	"github.com/thebtf/assimilator/pkg/similarity"
	"github.com/thebtf/assimilator/pkg/table"
)

// Formatter clusters the values of a key column and derives assimilated
// and corrected tables from the result.
type Formatter struct {
	table     *table.Table
	distance  similarity.DistanceFunc
	last      *Snapshot
	key       string
	threshold int
}

// Option configures a Formatter at construction time.
type Option func(*Formatter)

// WithDefaultThreshold sets the threshold used when a projection does not
// supply one. Default similarity.DefaultThreshold.
func WithDefaultThreshold(n int) Option {
	return func(f *Formatter) {
		f.threshold = n
	}
}

// WithDistance replaces the edit-distance primitive. A nil fn is ignored.
func WithDistance(fn similarity.DistanceFunc) Option {
	return func(f *Formatter) {
		if fn != nil {
			f.distance = fn
		}
	}
}

// New creates a Formatter over t keyed by the named column. The table is
// copied and sorted ascending by key; t itself is left untouched.
func New(t *table.Table, key string, opts ...Option) (*Formatter, error) {
	f := &Formatter{
		key:       key,
		threshold: similarity.DefaultThreshold,
		distance:  similarity.Levenshtein,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.threshold < 0 {
		return nil, similarity.ErrNegativeThreshold
	}

	if !t.HasColumn(key) {
		return nil, fmt.Errorf("%w: %s", similarity.ErrColumnNotFound, key)
	}
	sorted, err := t.SortBy(key)
	if err != nil {
		return nil, err
	}
	f.table = sorted
	return f, nil
}

// Key returns the name of the clustered column.
func (f *Formatter) Key() string {
	return f.key
}

// DefaultThreshold returns the threshold used when none is supplied.
func (f *Formatter) DefaultThreshold() int {
	return f.threshold
}

// Table returns the key-sorted source table.
func (f *Formatter) Table() *table.Table {
	return f.table
}

// ReferenceColumns returns every column except the key column, in
// declaration order.
func (f *Formatter) ReferenceColumns() []string {
	columns := f.table.Columns()
	refs := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != f.key {
			refs = append(refs, c)
		}
	}
	return refs
}
