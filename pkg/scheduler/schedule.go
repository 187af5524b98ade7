package scheduler

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ExecuteMany runs every transaction in txs against state, honoring the
// dependency ordering their submission order and mutual conflicts imply,
// and returns one Result per transaction in the same order as txs.
//
// Independent trees run in parallel with each other. Each tree links a
// transaction only to its nearest earlier conflicting transaction, so trees
// are disjoint in address sets only when no transaction conflicts with an
// older one outside that chain (see the package doc); within a tree, rows run
// breadth-first from the root and the transactions within a row run in
// parallel across a worker pool sized to the host's CPU count.
func ExecuteMany(ctx context.Context, state State, cache Cache, txs []Transaction, exec Execution, metrics *Metrics) ([]Result, error) {
	schedule := NewSchedule(txs, state)
	metrics.observeBatch(len(txs), len(schedule.roots))

	rowConcurrency := runtime.GOMAXPROCS(0)
	if rowConcurrency < 1 {
		rowConcurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	perTree := make([][]Result, len(schedule.roots))

	for i, root := range schedule.roots {
		i, root := i, root
		g.Go(func() error {
			perTree[i] = schedule.runTree(gctx, root, state, cache, exec, rowConcurrency, metrics)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil && err != context.Canceled {
		return nil, err
	}

	flat := make([]Result, 0, len(txs))
	for _, rs := range perTree {
		flat = append(flat, rs...)
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].Index < flat[j].Index })

	return flat, nil
}

// runTree drives one independent tree to completion row by row. A
// transaction that errors contributes no diff to acc, but later rows in
// this same tree still execute and see acc as it stood before the error;
// errors never abort sibling trees or later rows, and are surfaced to the
// caller at their original index.
func (s *Schedule) runTree(ctx context.Context, root *txNode, base State, cache Cache, exec Execution, rowConcurrency int, metrics *Metrics) []Result {
	rows := newBfsRows(s.graph, root)
	acc := StateDiff{}
	var results []Result

	for {
		select {
		case <-ctx.Done():
			return results
		default:
		}

		row := rows.next()
		if row == nil {
			return results
		}

		type item struct {
			tx    Transaction
			index int
		}
		items := make([]item, 0, len(row))
		for _, n := range row {
			tx, idx, ok := n.slot.take()
			if !ok {
				// The BFS rowizer visits every node exactly once; a second
				// take is an unrecoverable traversal bug, not a condition to
				// tolerate.
				panic(ErrSlotAlreadyTaken)
			}
			items = append(items, item{tx: tx, index: idx})
		}

		overlay := NewOverlayed(base, acc)
		rowResults := make([]Result, len(items))

		sem := make(chan struct{}, rowConcurrency)
		var wg sync.WaitGroup
		for i, it := range items {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, it item) {
				defer wg.Done()
				defer func() { <-sem }()

				diff, err := exec.Execute(ctx, it.tx, overlay, cache)
				if err != nil {
					metrics.incFailed("execute")
					err = &ExecutionError{Index: it.index, Err: err}
				}
				rowResults[i] = Result{Index: it.index, Diff: diff, Err: err}
			}(i, it)
		}
		wg.Wait()

		for _, r := range rowResults {
			if r.Err == nil {
				acc = r.Diff.Apply(acc)
			}
			results = append(results, r)
		}
	}
}
