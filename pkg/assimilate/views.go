package assimilate

import (
	"github.com/rs/zerolog/log"

	"github.com/thebtf/assimilator/pkg/table"
)

// String renders the fully referenced projection as plain columnar text.
// It returns the empty string if the projection fails.
func (f *Formatter) String() string {
	projected, _, err := f.ProjectFullyReferenced()
	if err != nil {
		log.Error().Err(err).Str("key", f.key).Msg("Failed to render assimilated table")
		return ""
	}
	return projected.String()
}

// Equal reports whether both formatters render the same text.
func (f *Formatter) Equal(other *Formatter) bool {
	if other == nil {
		return false
	}
	return f.String() == other.String()
}

// EqualTable wraps t in a Formatter over the same key column, default
// threshold and distance, and compares the rendered text. A table without
// the key column is never equal.
func (f *Formatter) EqualTable(t *table.Table) bool {
	if t == nil || !t.HasColumn(f.key) {
		return false
	}
	other, err := New(t, f.key, WithDefaultThreshold(f.threshold), WithDistance(f.distance))
	if err != nil {
		return false
	}
	return f.Equal(other)
}

// Len returns the number of clusters in the fully referenced projection,
// or 0 if the projection fails.
func (f *Formatter) Len() int {
	projected, _, err := f.ProjectFullyReferenced()
	if err != nil {
		log.Error().Err(err).Str("key", f.key).Msg("Failed to size assimilated table")
		return 0
	}
	return projected.Len()
}
