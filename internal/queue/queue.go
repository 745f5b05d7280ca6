// Package queue serializes server-mutating requests so at most one is in flight.
//
// Tasks run one at a time on a single drain goroutine. Priority tasks run before
// any waiting normal task and keep submission order among themselves. A failed
// or panicking task only fails its own caller.
package queue

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Task is one unit of queued work.
type Task func(ctx context.Context) (any, error)

// Pending is the deferred outcome of an enqueued task.
type Pending struct {
	done   chan struct{}
	result any
	err    error
}

// Done is closed once the task has settled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the task settles or ctx ends. A ctx ending here does not
// stop the task.
func (p *Pending) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pending) settle(result any, err error) {
	p.result, p.err = result, err
	close(p.done)
}

type item struct {
	ctx     context.Context
	task    Task
	pending *Pending
	seq     uint64
}

// Queue is a two-lane FIFO drained by one goroutine at a time.
type Queue struct {
	mu       sync.Mutex
	priority []*item
	normal   []*item
	running  bool
	seq      uint64
	idle     *sync.Cond
	logger   *log.Entry
}

// New creates an empty queue. A nil logger uses the standard logrus logger.
func New(logger *log.Entry) *Queue {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	q := &Queue{logger: logger.WithField("component", "queue")}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a task and returns its pending outcome. If ctx is already done
// when the task's turn comes, the task is rejected with ctx.Err() without running.
func (q *Queue) Enqueue(ctx context.Context, task Task, priority bool) *Pending {
	p := &Pending{done: make(chan struct{})}

	q.mu.Lock()
	q.seq++
	it := &item{ctx: ctx, task: task, pending: p, seq: q.seq}
	if priority {
		q.priority = append(q.priority, it)
	} else {
		q.normal = append(q.normal, it)
	}
	start := !q.running
	q.running = true
	q.mu.Unlock()

	if start {
		go q.drain()
	}
	return p
}

// Len returns the number of tasks waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.priority) + len(q.normal)
}

// WaitIdle blocks until no task is queued or running.
func (q *Queue) WaitIdle() {
	q.mu.Lock()
	for q.running {
		q.idle.Wait()
	}
	q.mu.Unlock()
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		var it *item
		switch {
		case len(q.priority) > 0:
			it, q.priority = q.priority[0], q.priority[1:]
		case len(q.normal) > 0:
			it, q.normal = q.normal[0], q.normal[1:]
		default:
			q.running = false
			q.idle.Broadcast()
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		q.run(it)
	}
}

func (q *Queue) run(it *item) {
	if err := it.ctx.Err(); err != nil {
		q.logger.WithField("seq", it.seq).Debug("task cancelled before start")
		it.pending.settle(nil, err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.WithFields(log.Fields{"seq": it.seq, "panic": r}).Error("queued task panicked")
			it.pending.settle(nil, fmt.Errorf("queued task panicked: %v", r))
		}
	}()

	q.logger.WithField("seq", it.seq).Debug("task started")
	result, err := it.task(context.WithoutCancel(it.ctx))
	it.pending.settle(result, err)
}

// Do enqueues task and waits for its typed result.
func Do[T any](ctx context.Context, q *Queue, priority bool, task func(ctx context.Context) (T, error)) (T, error) {
	p := q.Enqueue(ctx, func(ctx context.Context) (any, error) {
		return task(ctx)
	}, priority)

	var zero T
	v, err := p.Wait(ctx)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok && v != nil {
		return zero, fmt.Errorf("queued task returned %T", v)
	}
	return out, nil
}
