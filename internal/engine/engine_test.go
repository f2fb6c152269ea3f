package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/schedule"
	"github.com/rentwatch/rentwatch/internal/types"
)

var testLog = zerolog.Nop()

type stubCheck struct {
	name   string
	result types.RunResult
	err    error
	panics bool
	onRun  func()
}

func (s *stubCheck) Name() string { return s.name }

func (s *stubCheck) Run(ctx context.Context, now time.Time) (types.RunResult, error) {
	if s.onRun != nil {
		s.onRun()
	}
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(testLog, time.UTC)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	e := newEngine(t)
	if err := e.Register(schedule.Every(time.Hour), &stubCheck{name: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := e.Register(schedule.Every(time.Hour), &stubCheck{name: "a"}); err == nil {
		t.Fatal("duplicate Register succeeded, want error")
	}
}

func TestStartStopStatus(t *testing.T) {
	e := newEngine(t)
	if err := e.Register(schedule.Every(time.Hour), &stubCheck{name: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := e.Register(schedule.Daily(3, 30), &stubCheck{name: "b"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	st := e.Status()
	if st.Running || st.TaskCount != 2 {
		t.Fatalf("Status before start = %+v", st)
	}

	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Start(); err == nil {
		t.Fatal("second Start succeeded, want error")
	}
	if st := e.Status(); !st.Running {
		t.Fatal("Status.Running = false after Start")
	}

	e.Stop()
	if st := e.Status(); st.Running {
		t.Fatal("Status.Running = true after Stop")
	}
	// Stop is idempotent.
	e.Stop()
}

func TestRunAllIsolatesFailures(t *testing.T) {
	e := newEngine(t)
	ok := &stubCheck{name: "healthy", result: types.RunResult{Created: 2}}
	failing := &stubCheck{name: "broken", err: errors.New("db unreachable")}
	panicking := &stubCheck{name: "wild", panics: true}

	for _, c := range []*stubCheck{ok, failing, panicking} {
		if err := e.Register(schedule.Every(time.Hour), c); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	reports := e.RunAll(context.Background())
	if len(reports) != 3 {
		t.Fatalf("reports = %d, want one per check", len(reports))
	}
	if reports["healthy"].Error != "" || reports["healthy"].Result.Created != 2 {
		t.Errorf("healthy report = %+v", reports["healthy"])
	}
	if reports["broken"].Error == "" {
		t.Error("broken check has no error marker")
	}
	if reports["wild"].Error == "" {
		t.Error("panicking check has no error marker")
	}
}

func TestRunCheckUnknown(t *testing.T) {
	e := newEngine(t)
	if _, err := e.RunCheck(context.Background(), "nope"); err == nil {
		t.Fatal("RunCheck on unknown name succeeded, want error")
	}
}

func TestSameCheckNeverRunsConcurrently(t *testing.T) {
	e := newEngine(t)

	var inFlight, maxInFlight int32
	slow := &stubCheck{name: "slow", onRun: func() {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			max := atomic.LoadInt32(&maxInFlight)
			if n <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}}
	if err := e.Register(schedule.Every(time.Hour), slow); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.RunCheck(context.Background(), "slow"); err != nil {
				t.Errorf("RunCheck: %v", err)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.RunAll(context.Background())
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&maxInFlight) != 1 {
		t.Fatalf("max concurrent executions = %d, want 1", maxInFlight)
	}
}

func TestNamesPreserveRegistrationOrder(t *testing.T) {
	e := newEngine(t)
	for _, name := range []string{"c", "a", "b"} {
		if err := e.Register(schedule.Every(time.Hour), &stubCheck{name: name}); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	names := e.Names()
	if len(names) != 3 || names[0] != "c" || names[1] != "a" || names[2] != "b" {
		t.Fatalf("Names = %v, want registration order", names)
	}
}
