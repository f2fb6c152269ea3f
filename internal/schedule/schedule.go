// Package schedule parses schedule specifications and computes trigger
// occurrences. Specs are parsed once at registration; an invalid spec
// is a configuration error, not a runtime one.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type kind int

const (
	kindDaily kind = iota
	kindEvery
)

// Spec is a parsed schedule: either a fixed daily wall-clock time or a
// fixed interval.
type Spec struct {
	kind     kind
	hour     int
	minute   int
	interval time.Duration
}

// Daily returns a spec firing once per day at the given wall-clock time.
func Daily(hour, minute int) Spec {
	return Spec{kind: kindDaily, hour: hour, minute: minute}
}

// Every returns a spec firing at a fixed interval.
func Every(interval time.Duration) Spec {
	return Spec{kind: kindEvery, interval: interval}
}

// Parse parses a schedule spec string. Two forms are accepted:
//
//	daily HH:MM    fires once per day at HH:MM
//	every <dur>    fires at a fixed interval, e.g. "every 4h" (minimum 1m)
func Parse(s string) (Spec, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return Spec{}, fmt.Errorf("invalid schedule %q: expected \"daily HH:MM\" or \"every <duration>\"", s)
	}

	switch fields[0] {
	case "daily":
		hh, mm, ok := strings.Cut(fields[1], ":")
		if !ok {
			return Spec{}, fmt.Errorf("invalid schedule %q: time must be HH:MM", s)
		}
		hour, err := strconv.Atoi(hh)
		if err != nil || hour < 0 || hour > 23 {
			return Spec{}, fmt.Errorf("invalid schedule %q: hour out of range", s)
		}
		minute, err := strconv.Atoi(mm)
		if err != nil || minute < 0 || minute > 59 {
			return Spec{}, fmt.Errorf("invalid schedule %q: minute out of range", s)
		}
		return Daily(hour, minute), nil

	case "every":
		d, err := time.ParseDuration(fields[1])
		if err != nil {
			return Spec{}, fmt.Errorf("invalid schedule %q: %w", s, err)
		}
		if d < time.Minute {
			return Spec{}, fmt.Errorf("invalid schedule %q: interval must be at least 1m", s)
		}
		return Every(d), nil

	default:
		return Spec{}, fmt.Errorf("invalid schedule %q: unknown form %q", s, fields[0])
	}
}

// Next returns the first occurrence strictly after the given time, in
// the given location for daily specs.
func (sp Spec) Next(after time.Time, loc *time.Location) time.Time {
	switch sp.kind {
	case kindDaily:
		local := after.In(loc)
		next := time.Date(local.Year(), local.Month(), local.Day(), sp.hour, sp.minute, 0, 0, loc)
		if !next.After(after) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	default:
		return after.Add(sp.interval)
	}
}

// String renders the spec back in its configuration form.
func (sp Spec) String() string {
	if sp.kind == kindDaily {
		return fmt.Sprintf("daily %02d:%02d", sp.hour, sp.minute)
	}
	return fmt.Sprintf("every %s", sp.interval)
}
