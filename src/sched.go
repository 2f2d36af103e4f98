package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Cooperative event loop for the whole application.
 *
 * Description:	The original ran inside the GLib main loop of the
 *		camera host: everything was a timeout source, an idle
 *		source, or an I/O watch, and exactly one callback ran
 *		at a time.
 *
 *		Here the loop is a single goroutine draining a queue
 *		of functions.  Hardware goroutines (the serial reader,
 *		the GPIO event handler) never touch shared state
 *		directly; they Post closures onto the loop, so the
 *		single-threaded ordering of the original is preserved.
 *
 *		Timer and idle callbacks keep the GSource convention:
 *		return true to stay armed, false to be removed.
 *
 *---------------------------------------------------------------*/

import (
	"sync"
	"time"
)

// Scheduler is the subset of the loop that components register against.
// Tests substitute a deterministic implementation.
type Scheduler interface {

	/* One-shot-by-default timer.  fn returning true re-arms it. */
	TimeoutAdd(ms uint, fn func() bool)

	/* Runs when the loop is otherwise empty.  fn returning true keeps it. */
	IdleAdd(fn func() bool)

	/* Funnel work from another goroutine onto the loop. */
	Post(fn func())
}

type MainLoop struct {
	mu  sync.Mutex
	ops []func()

	wake chan struct{}
	quit chan struct{}

	idle []func() bool /* Touched only from the loop goroutine. */
}

func NewMainLoop() *MainLoop {
	return &MainLoop{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
}

/* The queue is unbounded so Post never blocks, even from a callback
 * running on the loop itself. */

func (loop *MainLoop) Post(fn func()) {
	loop.mu.Lock()
	loop.ops = append(loop.ops, fn)
	loop.mu.Unlock()

	select {
	case loop.wake <- struct{}{}:
	default:
	}
}

func (loop *MainLoop) TimeoutAdd(ms uint, fn func() bool) {
	var d = time.Duration(ms) * time.Millisecond

	time.AfterFunc(d, func() {
		loop.Post(func() {
			if fn() {
				loop.TimeoutAdd(ms, fn)
			}
		})
	})
}

func (loop *MainLoop) IdleAdd(fn func() bool) {
	loop.Post(func() {
		loop.idle = append(loop.idle, fn)
	})
}

func (loop *MainLoop) next() (func(), bool) {
	loop.mu.Lock()
	defer loop.mu.Unlock()

	if len(loop.ops) == 0 {
		return nil, false
	}
	var fn = loop.ops[0]
	loop.ops = loop.ops[1:]
	return fn, true
}

/*-------------------------------------------------------------------
 *
 * Name:	Run
 *
 * Purpose:	Drive the loop until Quit.
 *
 * Description:	Queued work always wins over idle sources.  When the
 *		queue is empty each idle source runs once; sources
 *		that return false are dropped.  With no idle sources
 *		left the loop sleeps until new work arrives.
 *
 *--------------------------------------------------------------------*/

func (loop *MainLoop) Run() {
	for {
		select {
		case <-loop.quit:
			return
		default:
		}

		if fn, ok := loop.next(); ok {
			fn()
			continue
		}

		if len(loop.idle) > 0 {
			var current = loop.idle
			loop.idle = nil

			var kept []func() bool
			for _, fn := range current {
				if fn() {
					kept = append(kept, fn)
				}
			}
			/* Idle sources added during the sweep run after the
			 * survivors. */
			loop.idle = append(kept, loop.idle...)
			continue
		}

		select {
		case <-loop.quit:
			return
		case <-loop.wake:
		}
	}
}

func (loop *MainLoop) Quit() {
	select {
	case <-loop.quit:
	default:
		close(loop.quit)
	}
}
