package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/dineflow/reserva-backend/utils"
)

// JobScheduler is the narrow scheduling contract business logic depends on.
// Jobs must be idempotent: execution is at-least-once and a failed run is
// retried with a short fixed backoff before being abandoned.
type JobScheduler interface {
	// ScheduleAt runs fn once at the given time. Re-scheduling the same key
	// replaces the pending job.
	ScheduleAt(key string, at time.Time, fn func() error) error
	// Cancel drops a pending one-shot job. Unknown keys are a no-op.
	Cancel(key string)
	// Every runs fn repeatedly on a fixed interval, starting one interval
	// from now.
	Every(name string, interval time.Duration, fn func() error) error
	// Daily runs fn every day at the given hour/minute.
	Daily(name string, hour, minute int, fn func() error) error
}

const (
	jobRetryDelay  = time.Minute
	jobMaxAttempts = 3
)

// CronScheduler backs JobScheduler with an in-process gocron scheduler. Its
// lifecycle (Start/Stop) is owned by the process entry point; services only
// see the interface.
type CronScheduler struct {
	sched gocron.Scheduler
	mu    sync.Mutex
	jobs  map[string]uuid.UUID
}

func NewCronScheduler() (*CronScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &CronScheduler{
		sched: s,
		jobs:  make(map[string]uuid.UUID),
	}, nil
}

func (c *CronScheduler) Start() { c.sched.Start() }

func (c *CronScheduler) Stop() {
	if err := c.sched.Shutdown(); err != nil {
		utils.ErrorLogger.Printf("scheduler shutdown: %v", err)
	}
}

func (c *CronScheduler) ScheduleAt(key string, at time.Time, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.jobs[key]; ok {
		if err := c.sched.RemoveJob(old); err != nil {
			utils.ErrorLogger.Printf("scheduler: replacing job %s: %v", key, err)
		}
		delete(c.jobs, key)
	}

	j, err := c.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(withRetry(key, fn)),
		gocron.WithName(key),
	)
	if err != nil {
		return err
	}
	c.jobs[key] = j.ID()
	utils.InfoLogger.Printf("scheduled job %s at %s", key, at.Format(time.RFC3339))
	return nil
}

func (c *CronScheduler) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.jobs[key]
	if !ok {
		return
	}
	delete(c.jobs, key)
	if err := c.sched.RemoveJob(id); err != nil {
		utils.ErrorLogger.Printf("scheduler: cancel %s: %v", key, err)
		return
	}
	utils.InfoLogger.Printf("cancelled job %s", key)
}

func (c *CronScheduler) Every(name string, interval time.Duration, fn func() error) error {
	_, err := c.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(withRetry(name, fn)),
		gocron.WithName(name),
	)
	return err
}

func (c *CronScheduler) Daily(name string, hour, minute int, fn func() error) error {
	_, err := c.sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0))),
		gocron.NewTask(withRetry(name, fn)),
		gocron.WithName(name),
	)
	return err
}

// withRetry wraps a job so one bad run never kills the scheduler: errors and
// panics are logged, the job re-runs after a fixed delay, and after
// jobMaxAttempts it is abandoned with an error log. No user is waiting on a
// background job, so failures are never surfaced beyond the logs.
func withRetry(name string, fn func() error) func() {
	return func() {
		for attempt := 1; attempt <= jobMaxAttempts; attempt++ {
			err := runJob(fn)
			if err == nil {
				return
			}
			utils.ErrorLogger.Printf("job %s attempt %d failed: %v", name, attempt, err)
			if attempt < jobMaxAttempts {
				time.Sleep(jobRetryDelay)
			}
		}
		utils.ErrorLogger.Printf("job %s abandoned after %d attempts", name, jobMaxAttempts)
	}
}

func runJob(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
