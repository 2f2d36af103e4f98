package spectracam

/*
 * Deterministic scheduler for tests.  Timers are kept with absolute
 * fire times and released by advancing a virtual clock; idle sources
 * are run on demand.  Post runs inline since tests are single
 * threaded anyway.
 */

import (
	"sort"
)

type testTimer struct {
	at uint
	ms uint
	fn func() bool
}

type testSched struct {
	now    uint
	timers []*testTimer
	idles  []func() bool
}

func newTestSched() *testSched {
	return &testSched{}
}

func (ts *testSched) TimeoutAdd(ms uint, fn func() bool) {
	ts.timers = append(ts.timers, &testTimer{at: ts.now + ms, ms: ms, fn: fn})
}

func (ts *testSched) IdleAdd(fn func() bool) {
	ts.idles = append(ts.idles, fn)
}

func (ts *testSched) Post(fn func()) {
	fn()
}

/* Run every idle source once; drop the ones that are done.  Sources
 * added during the sweep run on the next sweep. */

func (ts *testSched) runIdle() {
	var current = ts.idles
	ts.idles = nil

	var kept []func() bool
	for _, fn := range current {
		if fn() {
			kept = append(kept, fn)
		}
	}
	ts.idles = append(kept, ts.idles...)
}

/* Fire times of all pending timers, relative to now, sorted. */

func (ts *testSched) pendingTimeouts() []uint {
	var due []uint
	for _, t := range ts.timers {
		due = append(due, t.at-ts.now)
	}
	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })
	return due
}

/* Advance the clock, firing due timers in time order.  Repeating
 * timers re-arm themselves. */

func (ts *testSched) advance(ms uint) {
	var target = ts.now + ms

	for {
		var next *testTimer
		var nextIdx = -1
		for i, t := range ts.timers {
			if t.at <= target && (next == nil || t.at < next.at) {
				next = t
				nextIdx = i
			}
		}
		if next == nil {
			break
		}

		ts.now = next.at
		ts.timers = append(ts.timers[:nextIdx], ts.timers[nextIdx+1:]...)

		if next.fn() {
			ts.timers = append(ts.timers, &testTimer{at: ts.now + next.ms, ms: next.ms, fn: next.fn})
		}
	}

	ts.now = target
}

/*
 * Recording fakes for the focus chain.
 */

type fakeActuator struct {
	writes []int
	err    error
}

func (fa *fakeActuator) SetFocus(index int) error {
	if fa.err != nil {
		return fa.err
	}
	fa.writes = append(fa.writes, index)
	return nil
}

type fakeGate struct {
	achievedCount int
	scanning      bool
	timeoutMS     uint
}

func (fg *fakeGate) focusAchieved() {
	fg.achievedCount++
}

func (fg *fakeGate) setScanning(scanning bool, timeoutMS uint) {
	fg.scanning = scanning
	fg.timeoutMS = timeoutMS
}

/* An error sink that records instead of exiting. */

type sinkRecorder struct {
	errs []error
}

func (sr *sinkRecorder) sink() *ErrorSink {
	return NewErrorSink(func(err error) {
		sr.errs = append(sr.errs, err)
	})
}
