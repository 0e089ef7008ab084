package assimilate

import (
	"github.com/rs/zerolog/log"

	"github.com/thebtf/assimilator/pkg/similarity"
	"github.com/thebtf/assimilator/pkg/table"
)

// Correct rewrites the key column of in to canonical values and drops rows
// whose key was already emitted.
//
// The mapping comes from a fully referenced projection of the Formatter's
// own table. Rows of in are scanned in order: a key already emitted is
// dropped, a known variant is replaced by its canonical key, and a row
// whose rewritten key was already emitted is dropped as well. The result
// is sorted by key.
//
// If in has no key column it is returned unchanged.
func (f *Formatter) Correct(in *table.Table) (*table.Table, error) {
	keyIdx, ok := in.ColumnIndex(f.key)
	if !ok {
		return in, nil
	}

	_, variants, err := f.ProjectFullyReferenced()
	if err != nil {
		return nil, err
	}
	owners := similarity.ReverseIndex(variants)

	history := make(map[string]bool, in.Len())
	rows := make([]table.Row, 0, in.Len())
	rewritten := 0
	for _, row := range in.Rows() {
		value := row[keyIdx]
		if history[value] {
			continue
		}
		if canonical, ok := owners[value]; ok {
			row[keyIdx] = canonical
			value = canonical
			rewritten++
		}
		if history[value] {
			continue
		}
		history[value] = true
		rows = append(rows, row)
	}

	out, err := table.New(in.Columns(), rows...)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("key", f.key).
		Int("input_rows", in.Len()).
		Int("output_rows", out.Len()).
		Int("rewritten", rewritten).
		Msg("Corrected table")

	return out.SortBy(f.key)
}
