package ecs

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelEach1 runs fn once per group on up to workers goroutines and waits
// for all of them. Each call owns its group's arrays exclusively, and all
// calls have returned before ParallelEach1 does, so no work outlives the tick.
func ParallelEach1[A any](ctx context.Context, db *EntityDB, workers int, groups []GroupID, fn func(context.Context, Rows1[A]) error) error {
	rows, err := Query1[A](db, uniqueGroups(groups)...)
	if err != nil {
		return err
	}
	eg, ctx := newGroup(ctx, workers)
	for _, r := range rows {
		eg.Go(func() error { return fn(ctx, r) })
	}
	return eg.Wait()
}

// ParallelEach2 is ParallelEach1 for two components.
func ParallelEach2[A, B any](ctx context.Context, db *EntityDB, workers int, groups []GroupID, fn func(context.Context, Rows2[A, B]) error) error {
	rows, err := Query2[A, B](db, uniqueGroups(groups)...)
	if err != nil {
		return err
	}
	eg, ctx := newGroup(ctx, workers)
	for _, r := range rows {
		eg.Go(func() error { return fn(ctx, r) })
	}
	return eg.Wait()
}

func newGroup(ctx context.Context, workers int) (*errgroup.Group, context.Context) {
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	return eg, ctx
}

// a group listed twice would hand the same arrays to two workers
func uniqueGroups(groups []GroupID) []GroupID {
	seen := make(map[GroupID]bool, len(groups))
	out := make([]GroupID, 0, len(groups))
	for _, g := range groups {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}
