package utils

import (
	"context"
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallel(t *testing.T) {
	for _, totalSize := range []int{0, 1, 3, ParallelFactor, ParallelFactor*3 + 2} {
		visited := make([]int32, totalSize)
		var groups int
		err := GroupWorkParallel(
			context.Background(),
			totalSize,
			func(numGroups int) { groups = numGroups },
			func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
				return func(memberNum, workNum int) {
					atomic.AddInt32(&visited[workNum], 1)
				}, nil
			},
		)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, groups, test.ShouldBeLessThanOrEqualTo, ParallelFactor)
		for _, v := range visited {
			test.That(t, v, test.ShouldEqual, 1)
		}
	}
}

func TestGroupWorkParallelCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran int32
	err := GroupWorkParallel(ctx, 10, nil, func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
		atomic.AddInt32(&ran, 1)
		return nil, nil
	})
	test.That(t, err, test.ShouldEqual, context.Canceled)
	test.That(t, ran, test.ShouldEqual, 0)
}

func TestGroupWorkParallelPanic(t *testing.T) {
	var finished int32
	err := GroupWorkParallel(context.Background(), 10, nil, func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
		work := func(memberNum, workNum int) {
			if workNum == 0 {
				panic("boom")
			}
		}
		done := func() {
			atomic.AddInt32(&finished, 1)
		}
		return work, done
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "group 0 panicked: boom")
	numGroups := ParallelFactor
	if numGroups > 10 {
		numGroups = 10
	}
	test.That(t, atomic.LoadInt32(&finished), test.ShouldEqual, numGroups-1)
}
