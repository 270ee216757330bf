// Package poller runs the recurring quote refresh loops on a shared cron
// scheduler and resolves out-of-order tick responses.
package poller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"FinDesk/internal/model"
)

// TickFunc is invoked on every tick with the task context and the tick's
// sequence number. The context is cancelled once the task is cancelled.
type TickFunc func(ctx context.Context, seq uint64)

// Scheduler owns the cron instance every polling task is registered on.
type Scheduler struct {
	cron  *cron.Cron
	chain cron.Chain

	mu    sync.Mutex
	tasks map[cron.EntryID]*Task
}

// NewScheduler creates a scheduler. Panics inside a tick are recovered and
// logged; they never stop the loop.
func NewScheduler() *Scheduler {
	chain := cron.NewChain(cron.Recover(cron.PrintfLogger(&log.Logger)))
	return &Scheduler{
		cron:  cron.New(),
		chain: chain,
		tasks: make(map[cron.EntryID]*Task),
	}
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop cancels every task and waits for running ticks to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()
	for _, t := range tasks {
		t.Cancel()
	}
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// Len is the number of registered tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// StartTask registers fn to run every interval. The first tick fires
// immediately. interval must be one of model.Intervals.
func (s *Scheduler) StartTask(name string, interval time.Duration, fn TickFunc) (*Task, error) {
	if !model.ValidInterval(interval) {
		return nil, fmt.Errorf("start %s: interval %s not allowed", name, interval)
	}
	return s.schedule(name, interval, fn), nil
}

func (s *Scheduler) schedule(name string, interval time.Duration, fn TickFunc) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		Name:     name,
		Interval: interval,
		sched:    s,
		fn:       fn,
		ctx:      ctx,
		cancel:   cancel,
	}
	job := s.chain.Then(cron.FuncJob(t.tick))

	s.mu.Lock()
	t.id = s.cron.Schedule(cron.Every(interval), job)
	s.tasks[t.id] = t
	s.mu.Unlock()

	log.Debug().Str("task", name).Dur("interval", interval).Msg("poll task started")
	go job.Run()
	return t
}

// Task is one registered polling loop.
type Task struct {
	Name     string
	Interval time.Duration

	id     cron.EntryID
	sched  *Scheduler
	fn     TickFunc
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	seq    atomic.Uint64
}

func (t *Task) tick() {
	if t.ctx.Err() != nil {
		return
	}
	t.fn(t.ctx, t.seq.Add(1))
}

// Cancel removes the task from the scheduler and cancels its context.
// Calling it more than once is a no-op.
func (t *Task) Cancel() {
	t.once.Do(func() {
		t.cancel()
		t.sched.mu.Lock()
		t.sched.cron.Remove(t.id)
		delete(t.sched.tasks, t.id)
		t.sched.mu.Unlock()
		log.Debug().Str("task", t.Name).Msg("poll task cancelled")
	})
}

// Done is closed once the task is cancelled.
func (t *Task) Done() <-chan struct{} { return t.ctx.Done() }

// Ticks is the number of ticks issued so far.
func (t *Task) Ticks() uint64 { return t.seq.Load() }
