// Package worker schedules generation calls onto a bounded, elastic pool of
// workers. Users are served round-robin so one user's burst cannot starve
// the others, and a full queue is reported instead of blocking callers.
package worker

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrDispatcherBusy   = errors.New("generation queue is full")
	ErrDispatcherClosed = errors.New("generation dispatcher is closed")
	ErrJobCanceled      = errors.New("generation job canceled")
)

// Backend is the generation client the dispatcher fronts.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, system, user string) (string, error)
}

type Config struct {
	MinWorkers  int
	MaxWorkers  int
	QueueSize   int
	IdleTimeout time.Duration
}

type userQueue struct {
	jobs     []Job
	enqueued bool
}

type Dispatcher struct {
	backend  Backend
	pool     *jobChannelPool
	jobQueue chan Job
	log      *zap.Logger

	// pending counts accepted jobs not yet handed to a worker, including
	// the one the run loop holds while waiting for a free worker.
	pending  atomic.Int64
	capacity int64

	mu        sync.Mutex
	queues    map[int64]*userQueue
	ready     *list.List // user ids waiting for a turn, round-robin
	positions map[int64]*list.Element

	quit      chan struct{}
	closeOnce sync.Once
}

func NewDispatcher(backend Backend, cfg Config, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	d := &Dispatcher{
		backend:   backend,
		pool:      newJobChannelPool(cfg.MinWorkers, cfg.MaxWorkers, cfg.IdleTimeout),
		jobQueue:  make(chan Job, cfg.QueueSize),
		log:       log,
		capacity:  int64(cfg.QueueSize),
		queues:    make(map[int64]*userQueue),
		ready:     list.New(),
		positions: make(map[int64]*list.Element),
		quit:      make(chan struct{}),
	}
	for i := 0; i < cfg.MinWorkers; i++ {
		d.pool.spawnWorker()
	}
	go d.run()
	return d
}

// Generate runs backend.Generate on a pool worker.
func (d *Dispatcher) Generate(ctx context.Context, prompt string) (string, error) {
	return d.do(ctx, func(ctx context.Context) (string, error) {
		return d.backend.Generate(ctx, prompt)
	})
}

// Chat runs backend.Chat on a pool worker.
func (d *Dispatcher) Chat(ctx context.Context, system, user string) (string, error) {
	return d.do(ctx, func(ctx context.Context) (string, error) {
		return d.backend.Chat(ctx, system, user)
	})
}

func (d *Dispatcher) do(ctx context.Context, run func(context.Context) (string, error)) (string, error) {
	job := Job{
		kind:   jobRun,
		userID: userFrom(ctx),
		ctx:    ctx,
		run:    run,
		result: make(chan jobResult, 1),
	}
	if err := d.submit(job); err != nil {
		return "", err
	}
	select {
	case res := <-job.result:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *Dispatcher) submit(job Job) error {
	select {
	case <-d.quit:
		return ErrDispatcherClosed
	default:
	}
	if d.pending.Add(1) > d.capacity {
		d.pending.Add(-1)
		d.log.Warn("generation queue full", zap.Int64("user_id", job.userID))
		return ErrDispatcherBusy
	}
	select {
	case d.jobQueue <- job:
		return nil
	default:
		d.pending.Add(-1)
		d.log.Warn("generation queue full", zap.Int64("user_id", job.userID))
		return ErrDispatcherBusy
	}
}

// CancelUser drops the user's queued jobs. Jobs already running finish.
func (d *Dispatcher) CancelUser(userID int64) {
	d.mu.Lock()
	var dropped []Job
	if q, ok := d.queues[userID]; ok {
		dropped = q.jobs
		delete(d.queues, userID)
	}
	if elem, ok := d.positions[userID]; ok {
		d.ready.Remove(elem)
		delete(d.positions, userID)
	}
	d.mu.Unlock()

	d.pending.Add(-int64(len(dropped)))
	for _, job := range dropped {
		job.finish("", ErrJobCanceled)
	}
}

// Close stops accepting jobs and shuts the pool down. Queued jobs fail with
// ErrDispatcherClosed.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.quit)
		d.pool.close()

		d.mu.Lock()
		var pending []Job
		for _, q := range d.queues {
			pending = append(pending, q.jobs...)
		}
		d.queues = make(map[int64]*userQueue)
		d.ready.Init()
		d.positions = make(map[int64]*list.Element)
		d.mu.Unlock()

		d.pending.Add(-int64(len(pending)))
		for _, job := range pending {
			job.finish("", ErrDispatcherClosed)
		}
		for {
			select {
			case job := <-d.jobQueue:
				d.pending.Add(-1)
				job.finish("", ErrDispatcherClosed)
			default:
				return
			}
		}
	})
}

func (d *Dispatcher) run() {
	for {
		if !d.dispatchOne() {
			select {
			case job := <-d.jobQueue:
				d.enqueueJob(job)
			case <-d.quit:
				return
			}
			continue
		}
		select {
		case job := <-d.jobQueue:
			d.enqueueJob(job)
		case <-d.quit:
			return
		default:
		}
	}
}

func (d *Dispatcher) enqueueJob(job Job) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := d.queues[job.userID]
	if q == nil {
		q = &userQueue{}
		d.queues[job.userID] = q
	}
	q.jobs = append(q.jobs, job)
	if q.enqueued {
		return
	}
	q.enqueued = true
	d.positions[job.userID] = d.ready.PushBack(job.userID)
}

// dispatchOne hands the next job to a worker, blocking while every worker
// is busy.
func (d *Dispatcher) dispatchOne() bool {
	job, ok := d.next()
	if !ok {
		return false
	}
	ch := d.pool.acquire()
	d.pending.Add(-1)
	if ch == nil {
		job.finish("", ErrDispatcherClosed)
		return false
	}
	d.log.Debug("dispatching generation job", zap.Int64("user_id", job.userID))
	ch <- job
	return true
}

// next pops a job from the user at the front of the ready list and moves
// that user to the back.
func (d *Dispatcher) next() (Job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	elem := d.ready.Front()
	if elem == nil {
		return Job{}, false
	}
	userID := elem.Value.(int64)
	q := d.queues[userID]
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	if len(q.jobs) == 0 {
		d.ready.Remove(elem)
		delete(d.positions, userID)
		delete(d.queues, userID)
	} else {
		d.ready.MoveToBack(elem)
	}
	return job, true
}
