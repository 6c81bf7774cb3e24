package utils

import (
	"context"
	"errors"
	"testing"

	"go.viam.com/test"
)

func withParallelFactor(t *testing.T, factor int) {
	t.Helper()
	prev := ParallelFactor
	ParallelFactor = factor
	t.Cleanup(func() { ParallelFactor = prev })
}

func TestGroupWorkParallel(t *testing.T) {
	for _, factor := range []int{1, 3, 8} {
		for _, size := range []int{0, 1, 2, 7, 1000} {
			withParallelFactor(t, factor)

			seen := make([]int, size)
			misplaced := make([]int, factor)
			groupsDone := make([]bool, factor)
			var numGroups int
			err := GroupWorkParallel(
				context.Background(),
				size,
				func(n int) { numGroups = n },
				func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
					if to-from != groupSize {
						misplaced[groupNum]++
					}
					return func(memberNum, workNum int) {
							if workNum != from+memberNum {
								misplaced[groupNum]++
							}
							seen[workNum]++
						}, func() {
							groupsDone[groupNum] = true
						}
				},
			)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, misplaced, test.ShouldResemble, make([]int, factor))

			expectedGroups := factor
			if size < factor {
				expectedGroups = size
			}
			test.That(t, numGroups, test.ShouldEqual, expectedGroups)
			for i := 0; i < expectedGroups; i++ {
				test.That(t, groupsDone[i], test.ShouldBeTrue)
			}
			for i, count := range seen {
				if count != 1 {
					t.Fatalf("factor %d size %d: work %d ran %d times", factor, size, i, count)
				}
			}
		}
	}
}

func TestGroupWorkParallelNilFuncs(t *testing.T) {
	withParallelFactor(t, 4)
	ranges := make([][2]int, 4)
	err := GroupWorkParallel(context.Background(), 10, nil,
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			ranges[groupNum] = [2]int{from, to}
			return nil, nil
		})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ranges, test.ShouldResemble, [][2]int{{0, 2}, {2, 4}, {4, 6}, {6, 10}})
}

func TestGroupWorkParallelPanic(t *testing.T) {
	withParallelFactor(t, 2)
	err := GroupWorkParallel(context.Background(), 4, nil,
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				if workNum == 3 {
					panic("bad pixel")
				}
			}, nil
		})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bad pixel")
}

func TestGroupWorkParallelCanceled(t *testing.T) {
	withParallelFactor(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := GroupWorkParallel(ctx, 4, nil,
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			ran = true
			return nil, nil
		})
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, ran, test.ShouldBeFalse)
}
