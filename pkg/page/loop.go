package page

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

var ErrLoopClosed = errors.New("page: loop closed")

// Loop runs tasks one at a time on a single goroutine, in the order they were
// queued. Everything that touches a Page goes through its Loop.
//
// Do must not be called from a task: the loop would wait on itself.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func NewLoop() *Loop {
	l := Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()

	return &l
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLoopClosed
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()

	return nil
}

// Do queues fn and waits until it has run.
func (l *Loop) Do(fn func()) error {
	ran := make(chan struct{})
	err := l.Post(func() {
		defer close(ran)
		fn()
	})
	if err != nil {
		return err
	}
	<-ran

	return nil
}

// Close stops accepting tasks, runs the ones already queued and waits for the
// loop goroutine to exit.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		l.cond.Signal()
	}
	l.mu.Unlock()

	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			log.Debug("[loop] closed, exiting")
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.runTask(fn)
	}
}

// runTask keeps the loop alive when a task panics.
func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[loop] task panicked: %v", r)
		}
	}()
	fn()
}
