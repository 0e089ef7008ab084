// Package similarity provides edit-distance clustering of the values of a
// single table column.
package similarity

import (
	"fmt"

	"github.com/thebtf/assimilator/pkg/table"
)

// Result is the outcome of one clustering pass.
type Result struct {
	// Canonical lists the keys that were never absorbed, distinct, in the
	// order they were first met while scanning.
	Canonical []string
	// Variants maps a canonical key to the keys it absorbed, in row order.
	// Canonical keys that absorbed nothing have no entry.
	Variants map[string][]string
	// Comparisons counts distance evaluations performed.
	Comparisons int
}

// Flatten returns every absorbed key across all clusters.
func (r Result) Flatten() []string {
	var out []string
	for _, canonical := range r.Canonical {
		out = append(out, r.Variants[canonical]...)
	}
	return out
}

// Reverse returns a variant -> canonical index of the result.
func (r Result) Reverse() map[string]string {
	return ReverseIndex(r.Variants)
}

// ReverseIndex inverts a canonical -> variants mapping into a
// variant -> canonical lookup.
func ReverseIndex(variants map[string][]string) map[string]string {
	owners := make(map[string]string)
	for canonical, absorbed := range variants {
		for _, v := range absorbed {
			owners[v] = canonical
		}
	}
	return owners
}

// Cluster partitions the values of the key column into clusters.
//
// Rows are scanned in table order; callers pass a table sorted ascending by
// key so that the canonical key of every cluster is the smallest key among
// its members. Each row whose key has not been absorbed yet heads a scan
// over all later rows: a later row is absorbed into the head's cluster when
// both rows agree on every reference column and
//
//	distance(head, later) > threshold
//
// Membership is decided against the head only. Clustering is not
// transitive and no second pass is made.
//
// Complexity: O(n²) distance evaluations in the worst case.
func Cluster(t *table.Table, key string, opts ...Option) (Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Threshold < 0 {
		return Result{}, ErrNegativeThreshold
	}

	keyIdx, ok := t.ColumnIndex(key)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrColumnNotFound, key)
	}
	refIdx := make([]int, 0, len(o.References))
	for _, ref := range o.References {
		idx, ok := t.ColumnIndex(ref)
		if !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrColumnNotFound, ref)
		}
		refIdx = append(refIdx, idx)
	}

	rows := t.Rows()
	result := Result{Variants: make(map[string][]string)}

	// Track which key values are already taken, by value rather than by
	// row, so repeated keys follow the first decision made for them.
	absorbed := make(map[string]bool)
	canonical := make(map[string]bool)

	for i := range rows {
		head := rows[i][keyIdx]
		if absorbed[head] {
			continue
		}
		if !canonical[head] {
			canonical[head] = true
			result.Canonical = append(result.Canonical, head)
		}

		for j := i + 1; j < len(rows); j++ {
			other := rows[j][keyIdx]
			if absorbed[other] || canonical[other] {
				continue
			}
			if !sameReferences(rows[i], rows[j], refIdx) {
				continue
			}

			result.Comparisons++
			if o.Distance(head, other) > o.Threshold {
				absorbed[other] = true
				result.Variants[head] = append(result.Variants[head], other)
			}
		}
	}

	return result, nil
}

// sameReferences reports whether a and b hold identical values in every
// reference column.
func sameReferences(a, b table.Row, refIdx []int) bool {
	for _, idx := range refIdx {
		if a[idx] != b[idx] {
			return false
		}
	}
	return true
}
