// Package engine schedules and runs the registered checks. It owns the
// trigger goroutines, isolates failures per check, and exposes the
// manual invocation paths.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/checks"
	"github.com/rentwatch/rentwatch/internal/schedule"
	"github.com/rentwatch/rentwatch/internal/types"
)

// entry binds one check to its schedule. The mutex serializes every
// execution path of this check: scheduled triggers skip an occurrence
// when the previous one is still running, manual runs queue behind it.
type entry struct {
	name  string
	spec  schedule.Spec
	check checks.Check
	mu    sync.Mutex
}

// Engine runs registered checks on their schedules.
type Engine struct {
	log     zerolog.Logger
	loc     *time.Location
	mu      sync.Mutex
	entries []*entry
	byName  map[string]*entry
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status reports whether the engine is running and how many triggers
// are registered.
type Status struct {
	Running   bool `json:"running"`
	TaskCount int  `json:"task_count"`
}

// Report is the outcome of one check invocation.
type Report struct {
	Result   types.RunResult `json:"result"`
	Duration time.Duration   `json:"duration_ns"`
	Error    string          `json:"error,omitempty"`
}

// New creates an engine scheduling in the given location.
func New(log zerolog.Logger, loc *time.Location) *Engine {
	return &Engine{
		log:    log.With().Str("component", "engine").Logger(),
		loc:    loc,
		byName: make(map[string]*entry),
	}
}

// Register binds a check to a schedule. Names must be unique.
func (e *Engine) Register(spec schedule.Spec, c checks.Check) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("cannot register %q while running", c.Name())
	}
	if _, dup := e.byName[c.Name()]; dup {
		return fmt.Errorf("check %q already registered", c.Name())
	}

	en := &entry{name: c.Name(), spec: spec, check: c}
	e.entries = append(e.entries, en)
	e.byName[en.name] = en
	return nil
}

// Start activates all triggers.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("engine already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running = true

	for _, en := range e.entries {
		e.wg.Add(1)
		go e.loop(ctx, en)
	}

	e.log.Info().Int("task_count", len(e.entries)).Msg("scheduler started")
	return nil
}

// Stop prevents new trigger firings and waits for in-flight runs to
// finish. Runs are never aborted mid-write.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	e.log.Info().Msg("scheduler stopped")
}

// Status reports the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{Running: e.running, TaskCount: len(e.entries)}
}

// loop is one trigger: wait for the next occurrence, run, reschedule.
func (e *Engine) loop(ctx context.Context, en *entry) {
	defer e.wg.Done()

	timer := time.NewTimer(time.Until(en.spec.Next(time.Now(), e.loc)))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if en.mu.TryLock() {
			e.runLocked(ctx, en, time.Now())
			en.mu.Unlock()
		} else {
			e.log.Warn().
				Str("check", en.name).
				Time("trigger_time", time.Now()).
				Msg("previous run still in progress, skipping occurrence")
		}

		timer.Reset(time.Until(en.spec.Next(time.Now(), e.loc)))
	}
}

// runLocked executes a check whose entry mutex is held and logs the
// outcome. A panic inside the check is contained here; the trigger
// stays alive and the next occurrence still fires.
func (e *Engine) runLocked(ctx context.Context, en *entry, now time.Time) Report {
	start := time.Now()
	result, err := runChecked(ctx, en.check, now)
	report := Report{Result: result, Duration: time.Since(start)}

	if err != nil {
		report.Error = err.Error()
		e.log.Error().
			Err(err).
			Str("check", en.name).
			Time("trigger_time", now).
			Msg("check run failed")
		return report
	}

	e.log.Info().
		Str("check", en.name).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("resolved", result.Resolved).
		Int("skipped", result.Skipped).
		Int("deleted", result.Deleted).
		Dur("duration", report.Duration).
		Msg("check run complete")
	return report
}

func runChecked(ctx context.Context, c checks.Check, now time.Time) (result types.RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check panicked: %v", r)
		}
	}()
	return c.Run(ctx, now)
}

// RunAll invokes every registered check once and returns a per-check
// report. A failing check is reported, never propagated: the sweep
// always covers every check.
func (e *Engine) RunAll(ctx context.Context) map[string]Report {
	e.mu.Lock()
	entries := make([]*entry, len(e.entries))
	copy(entries, e.entries)
	e.mu.Unlock()

	reports := make(map[string]Report, len(entries))
	total := 0
	for _, en := range entries {
		en.mu.Lock()
		report := e.runLocked(ctx, en, time.Now())
		en.mu.Unlock()
		reports[en.name] = report
		total += report.Result.Total()
	}

	e.log.Info().
		Int("checks", len(reports)).
		Int("alerts_touched", total).
		Msg("sweep complete")
	return reports
}

// RunCheck invokes a single check by name.
func (e *Engine) RunCheck(ctx context.Context, name string) (Report, error) {
	e.mu.Lock()
	en, ok := e.byName[name]
	e.mu.Unlock()
	if !ok {
		return Report{}, fmt.Errorf("unknown check %q", name)
	}

	en.mu.Lock()
	defer en.mu.Unlock()
	return e.runLocked(ctx, en, time.Now()), nil
}

// Names returns the registered check names in registration order.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.entries))
	for i, en := range e.entries {
		names[i] = en.name
	}
	return names
}
