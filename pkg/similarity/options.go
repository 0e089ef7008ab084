package similarity

import (
	"errors"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the edit-distance cutoff used when none is supplied.
const DefaultThreshold = 25

var (
	// ErrColumnNotFound is returned when the key column or a reference
	// column is missing from the table being clustered.
	ErrColumnNotFound = errors.New("similarity: column not found")

	// ErrNegativeThreshold is returned for a threshold below zero.
	ErrNegativeThreshold = errors.New("similarity: threshold must be non-negative")
)

// DistanceFunc returns the edit distance between two strings.
type DistanceFunc func(a, b string) int

// Levenshtein is the default DistanceFunc: the minimum number of
// single-rune insertions, deletions and substitutions turning a into b.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Options configures Cluster.
//
//   - Threshold: pairs merge when their distance is strictly greater than
//     this value. Must be >= 0. Default DefaultThreshold.
//   - References: columns that must hold identical values on both rows for
//     the pair to be compared at all. Empty means unconstrained.
//   - Distance: edit-distance primitive. Default Levenshtein.
type Options struct {
	Threshold  int
	References []string
	Distance   DistanceFunc
}

// DefaultOptions returns the unconstrained configuration with the default
// threshold and Levenshtein distance.
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Distance:  Levenshtein,
	}
}

// Option represents a functional option for configuring Cluster.
type Option func(*Options)

// WithThreshold sets the merge threshold.
func WithThreshold(n int) Option {
	return func(o *Options) {
		o.Threshold = n
	}
}

// WithReferences restricts comparisons to rows that agree on every listed
// column. Calling it with no columns leaves clustering unconstrained.
func WithReferences(columns ...string) Option {
	return func(o *Options) {
		o.References = append([]string(nil), columns...)
	}
}

// WithDistance replaces the edit-distance primitive. A nil fn is ignored.
func WithDistance(fn DistanceFunc) Option {
	return func(o *Options) {
		if fn != nil {
			o.Distance = fn
		}
	}
}
