package report

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
)

// Checkpointer periodically persists engine state so a restart resumes
// the day/week/month/year aggregates instead of starting them over.
type Checkpointer struct {
	path    string
	cron    *cron.Cron
	stateFn func() ([]byte, error)
}

// NewCheckpointer schedules state saves on the given cron schedule.
// Descriptors such as "@every 5m" are accepted alongside standard
// five-field expressions.
func NewCheckpointer(path, schedule string, stateFn func() ([]byte, error)) (*Checkpointer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}

	c := &Checkpointer{
		path:    path,
		cron:    cron.New(),
		stateFn: stateFn,
	}
	if _, err := c.cron.AddFunc(schedule, c.save); err != nil {
		return nil, fmt.Errorf("checkpoint schedule %q: %w", schedule, err)
	}
	return c, nil
}

// Load returns the saved state, or nil when no checkpoint exists yet.
func (c *Checkpointer) Load() ([]byte, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return data, nil
}

// Start begins the schedule in its own goroutine.
func (c *Checkpointer) Start() {
	c.cron.Start()
}

// Stop halts the schedule, waits for an in-flight save, and writes a
// final checkpoint.
func (c *Checkpointer) Stop() {
	<-c.cron.Stop().Done()
	c.save()
}

func (c *Checkpointer) save() {
	data, err := c.stateFn()
	if err != nil {
		log.Printf("report: checkpoint state: %v", err)
		return
	}
	if err := writeFileAtomic(c.path, data, 0o644); err != nil {
		log.Printf("report: checkpoint write: %v", err)
	}
}
