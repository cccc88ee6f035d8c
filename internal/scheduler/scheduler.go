// Package scheduler runs a recurring job on a fixed cadence.
package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs one named job at a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	name      string
	interval  time.Duration
	job       func()
}

// New creates a new Scheduler. The job is not scheduled until Start.
func New(name string, interval time.Duration, job func()) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		name:      name,
		interval:  interval,
		job:       job,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	secs := int(s.interval.Seconds())
	if secs <= 0 {
		secs = 1
	}

	_, err := s.scheduler.Every(secs).Seconds().Do(s.job)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("scheduler: %s job running every %ds", s.name, secs)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
