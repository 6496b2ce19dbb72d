// Package reconcile computes and applies the edits that bring an owner's
// child collection (tags, image URLs) in line with a desired label set.
//
// Children are matched by label, never by identity, using exact string
// equality. Removal is expected to be a logical delete; the package itself
// only reports which children to drop.
//
// Callers must hold a consistent snapshot of the owner's live children for
// the duration of one Sync, typically by locking the owner row.
package reconcile

import (
	"context"
	"fmt"
)

// Result is the set of edits produced by Diff.
type Result[C any] struct {
	// ToAdd holds desired labels with no live child, in desired order.
	ToAdd []string
	// ToRemove holds live children whose label is no longer desired.
	ToRemove []C
}

// IsEmpty reports whether applying the result would change nothing.
func (r Result[C]) IsEmpty() bool {
	return len(r.ToAdd) == 0 && len(r.ToRemove) == 0
}

// Diff compares desired labels against the current live children.
// A label listed twice in desired is added once.
func Diff[C any](desired []string, current []C, label func(C) string) Result[C] {
	existing := make(map[string]struct{}, len(current))
	for _, c := range current {
		existing[label(c)] = struct{}{}
	}

	wanted := make(map[string]struct{}, len(desired))
	var res Result[C]
	for _, l := range desired {
		if _, dup := wanted[l]; dup {
			continue
		}
		wanted[l] = struct{}{}
		if _, ok := existing[l]; !ok {
			res.ToAdd = append(res.ToAdd, l)
		}
	}

	for _, c := range current {
		if _, ok := wanted[label(c)]; !ok {
			res.ToRemove = append(res.ToRemove, c)
		}
	}

	return res
}

// Applier persists the edits of a Result for one owner.
type Applier[C any] interface {
	// Insert creates a live child with the given label.
	Insert(ctx context.Context, label string) error
	// Remove logically deletes the child.
	Remove(ctx context.Context, child C) error
}

// Funcs adapts a pair of functions to Applier.
type Funcs[C any] struct {
	InsertFn func(ctx context.Context, label string) error
	RemoveFn func(ctx context.Context, child C) error
}

// Insert calls InsertFn.
func (f Funcs[C]) Insert(ctx context.Context, label string) error {
	return f.InsertFn(ctx, label)
}

// Remove calls RemoveFn.
func (f Funcs[C]) Remove(ctx context.Context, child C) error {
	return f.RemoveFn(ctx, child)
}

// Apply inserts then removes. It stops at the first failure; the caller's
// transaction decides whether partial edits survive.
func Apply[C any](ctx context.Context, res Result[C], a Applier[C]) error {
	for _, l := range res.ToAdd {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.Insert(ctx, l); err != nil {
			return fmt.Errorf("reconcile: insert %q: %w", l, err)
		}
	}
	for _, c := range res.ToRemove {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.Remove(ctx, c); err != nil {
			return fmt.Errorf("reconcile: remove: %w", err)
		}
	}
	return nil
}

// Sync diffs and applies in one call and returns the applied edits.
func Sync[C any](ctx context.Context, desired []string, current []C, label func(C) string, a Applier[C]) (Result[C], error) {
	res := Diff(desired, current, label)
	if res.IsEmpty() {
		return res, nil
	}
	return res, Apply(ctx, res, a)
}
