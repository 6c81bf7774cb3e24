// Package utils contains the worker fan-out shared by the parallel reprojection strategies.
package utils

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the calculated number of groups.
	BeforeParallelGroupWorkFunc func(numGroups int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int)
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel parallelizes the given size of work over multiple workers.
//
// The range [0, totalSize) is split into contiguous, disjoint [from, to) ranges, one per
// group, before any worker starts; every work number belongs to exactly one group. A panic
// in a worker is returned as an error. The context is checked before each group starts.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	if totalSize <= 0 {
		if before != nil {
			before(0)
		}
		return nil
	}

	numGroups := ParallelFactor
	if numGroups > totalSize {
		numGroups = totalSize
	}
	if numGroups < 1 {
		numGroups = 1
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	if before != nil {
		before(numGroups)
	}

	group, ctx := errgroup.WithContext(ctx)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNum := groupNum // per-iteration copy; go directive is 1.21 (pre-1.22 loopvar semantics)
		from := groupSize * groupNum
		to := groupSize * (groupNum + 1)
		if groupNum == numGroups-1 {
			to += extra
		}
		group.Go(func() (err error) {
			defer func() {
				if thePanic := recover(); thePanic != nil {
					err = errors.Errorf("got panic running group %d in parallel: %v", groupNum, thePanic)
				}
			}()
			if err := ctx.Err(); err != nil {
				return err
			}
			memberWork, groupWorkDone := groupWork(groupNum, to-from, from, to)
			if memberWork != nil {
				memberNum := 0
				for workNum := from; workNum < to; workNum++ {
					memberWork(memberNum, workNum)
					memberNum++
				}
			}
			if groupWorkDone != nil {
				groupWorkDone()
			}
			return nil
		})
	}
	return group.Wait()
}
