// Package popularity defines the view counter that backs popularity ranking.
//
// The counter is an ordered member → score structure kept outside the
// relational store. It is a ranking cache, not a source of truth: increments
// may be lost or observed out of order relative to relational writes.
package popularity

import (
	"context"
	"sort"
	"strconv"
)

// ViewsNamespace is the fixed namespace under which place views are counted.
const ViewsNamespace = "views"

// Entry is a single member of a namespace with its current score.
type Entry struct {
	Member string
	Score  float64
}

// Counter is an incrementing, ordered score store.
type Counter interface {
	// Increment adds 1 to member's score, creating it at 1 when absent.
	Increment(ctx context.Context, namespace, member string) error

	// Score returns member's score. ok is false when the member was never incremented.
	Score(ctx context.Context, namespace, member string) (score float64, ok bool, err error)

	// TopK returns up to k entries by descending score. Equal scores are
	// ordered by member ascending (see Less).
	TopK(ctx context.Context, namespace string, k int) ([]Entry, error)

	// Remove drops members from the namespace. Missing members are ignored.
	Remove(ctx context.Context, namespace string, members ...string) error
}

// Less orders entries by descending score, then by member ascending.
// Integer members compare numerically so "9" sorts before "10", and sort
// ahead of members that are not integers.
func Less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return memberLess(a.Member, b.Member)
}

// SortEntries sorts entries in place using Less.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Less(entries[i], entries[j])
	})
}

// memberLess puts integer members before all others, numerically, and
// compares the rest lexically. The order stays total when ghost members
// that are not ids share a score with real ones.
func memberLess(a, b string) bool {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return ai < bi
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
