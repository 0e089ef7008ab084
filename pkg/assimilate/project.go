package assimilate

import (
	"github.com/rs/zerolog/log"

	"github.com/thebtf/assimilator/pkg/similarity"
	"github.com/thebtf/assimilator/pkg/table"
)

// ProjectOptions holds the per-call clustering parameters.
//
//   - Threshold: merge cutoff; defaults to the Formatter's default threshold.
//   - References: columns that must agree before two rows are compared.
//     Empty means unconstrained.
type ProjectOptions struct {
	Threshold  int
	References []string
}

// ProjectOption represents a functional option for Cluster and Project.
type ProjectOption func(*ProjectOptions)

// Threshold overrides the Formatter's default threshold for one call.
func Threshold(n int) ProjectOption {
	return func(o *ProjectOptions) {
		o.Threshold = n
	}
}

// References sets the reference columns for one call.
func References(columns ...string) ProjectOption {
	return func(o *ProjectOptions) {
		o.References = append([]string(nil), columns...)
	}
}

// Snapshot is the most recent projection computed by a Formatter.
type Snapshot struct {
	Table      *table.Table
	Variants   map[string][]string
	References []string
	Threshold  int
}

func (f *Formatter) resolve(opts []ProjectOption) ProjectOptions {
	o := ProjectOptions{Threshold: f.threshold}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Cluster runs the edit-distance clustering over the key-sorted table.
// It has no side effects on the Formatter.
func (f *Formatter) Cluster(opts ...ProjectOption) (similarity.Result, error) {
	return f.cluster(f.resolve(opts))
}

func (f *Formatter) cluster(o ProjectOptions) (similarity.Result, error) {
	return similarity.Cluster(f.table, f.key,
		similarity.WithThreshold(o.Threshold),
		similarity.WithReferences(o.References...),
		similarity.WithDistance(f.distance),
	)
}

// Project clusters the table and returns the assimilated table, holding
// only rows whose key is canonical, sorted by key, together with the
// canonical -> variants mapping.
//
// The result replaces the Formatter's cached Snapshot.
func (f *Formatter) Project(opts ...ProjectOption) (*table.Table, map[string][]string, error) {
	o := f.resolve(opts)

	res, err := f.cluster(o)
	if err != nil {
		return nil, nil, err
	}

	keyIdx, _ := f.table.ColumnIndex(f.key)
	keep := make(map[string]bool, len(res.Canonical))
	for _, k := range res.Canonical {
		keep[k] = true
	}
	filtered := f.table.Filter(func(r table.Row) bool {
		return keep[r[keyIdx]]
	})
	projected, err := filtered.SortBy(f.key)
	if err != nil {
		return nil, nil, err
	}

	log.Debug().
		Str("key", f.key).
		Int("threshold", o.Threshold).
		Strs("references", o.References).
		Int("rows", f.table.Len()).
		Int("clusters", len(res.Canonical)).
		Int("comparisons", res.Comparisons).
		Msg("Projected assimilated table")

	f.last = &Snapshot{
		Threshold:  o.Threshold,
		References: o.References,
		Table:      projected,
		Variants:   res.Variants,
	}
	return projected, res.Variants, nil
}

// ProjectFullyReferenced projects with every non-key column as a reference
// column and the default threshold, so two rows only merge when all their
// other cells agree.
func (f *Formatter) ProjectFullyReferenced() (*table.Table, map[string][]string, error) {
	return f.Project(References(f.ReferenceColumns()...))
}

// Last returns the most recent projection, if any.
func (f *Formatter) Last() (Snapshot, bool) {
	if f.last == nil {
		return Snapshot{}, false
	}
	return *f.last, true
}
