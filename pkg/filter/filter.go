// Package filter implements the sliding-window de-flapper described in
// spec §4.2: a keyed counter of recent report timestamps, with an
// active-alert view that only surfaces keys that have been reported
// often enough recently, and periodic garbage collection.
//
// Grounded on original_source/simplomon.hh's AlertFilter
// (std::set<time_t> + erase_if + lower_bound window count), translated
// to a mutex-guarded map the same way pkg/probe/probe.go in the
// teacher repo guards its probes/results/alerts maps.
package filter

import (
	"sort"
	"sync"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// DefaultRetention is the GC floor from spec §3: timestamps older than
// this (or the largest configured failureWindow, whichever is bigger)
// are pruned after every cycle.
const DefaultRetention = 300 * time.Second

// Filter is the sliding-window failure counter, keyed by
// (probe identity, subject, reason). Safe for concurrent Report calls;
// ActiveAlerts must only be called from the single coordinator goroutine
// between cycles (spec §4.2 "Concurrency").
type Filter struct {
	mu        sync.Mutex
	records   map[model.AlertKey][]time.Time
	retention time.Duration
}

// New creates an empty filter. retention is the GC floor; pass 0 to use
// DefaultRetention.
func New(retention time.Duration) *Filter {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Filter{
		records:   map[model.AlertKey][]time.Time{},
		retention: retention,
	}
}

// Report inserts a reported-failure timestamp for the given key.
// Duplicate timestamps at a key collapse per spec's "ordered set
// semantics": a timestamp equal to the key's most recent one is not
// appended again (only the most recent entry is compared).
func (f *Filter) Report(probeID, subject, reason string, t time.Time) {
	key := model.AlertKey{ProbeID: probeID, Subject: subject, Reason: reason}

	f.mu.Lock()
	defer f.mu.Unlock()

	times := f.records[key]
	if n := len(times); n > 0 && times[n-1].Equal(t) {
		return
	}
	f.records[key] = append(times, t)
}

// SensitivityLookup resolves a probe's (minFailures, failureWindow) pair
// by probe identity. ActiveAlerts needs this per-probe, since different
// probes keep different windows.
type SensitivityLookup func(probeID string) (minFailures int, failureWindowSeconds int, ok bool)

// ActiveAlerts renders every key whose in-window timestamp count meets
// or exceeds its probe's minFailures, then runs maintenance (spec §4.2).
// kindOf renders the "<kind>" part of the display string for a probe id.
func (f *Filter) ActiveAlerts(now time.Time, sensitivity SensitivityLookup, kindOf func(probeID string) string) []model.ActiveAlert {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.ActiveAlert
	maxWindow := f.retention

	for key, times := range f.records {
		minFailures, windowSeconds, ok := sensitivity(key.ProbeID)
		if !ok {
			continue
		}
		window := time.Duration(windowSeconds) * time.Second
		if window > maxWindow {
			maxWindow = window
		}

		cutoff := now.Add(-window)
		count := 0
		for _, t := range times {
			if !t.Before(cutoff) {
				count++
			}
		}
		if count >= minFailures {
			out = append(out, model.ActiveAlert{
				ProbeID: key.ProbeID,
				Display: model.DisplayString(kindOf(key.ProbeID), key.Subject, key.Reason),
			})
		}
	}

	f.gc(now, maxWindow)

	sort.Slice(out, func(i, j int) bool { return out[i].Display < out[j].Display })
	return out
}

// EarliestInWindow returns the oldest timestamp within [now-window, now]
// for a key, used by the status surface to render alert age (spec §4.5).
func (f *Filter) EarliestInWindow(probeID, subject, reason string, now time.Time, windowSeconds int) (time.Time, bool) {
	key := model.AlertKey{ProbeID: probeID, Subject: subject, Reason: reason}
	window := time.Duration(windowSeconds) * time.Second
	cutoff := now.Add(-window)

	f.mu.Lock()
	defer f.mu.Unlock()

	times, ok := f.records[key]
	if !ok {
		return time.Time{}, false
	}
	var earliest time.Time
	found := false
	for _, t := range times {
		if t.Before(cutoff) {
			continue
		}
		if !found || t.Before(earliest) {
			earliest = t
			found = true
		}
	}
	return earliest, found
}

// gc erases timestamps older than now-retention (or the widest
// configured failure window, whichever is larger), then removes any
// key left with an empty timestamp set. Must be called with mu held.
func (f *Filter) gc(now time.Time, retention time.Duration) {
	if retention < f.retention {
		retention = f.retention
	}
	cutoff := now.Add(-retention)

	for key, times := range f.records {
		kept := times[:0:0]
		for _, t := range times {
			if !t.Before(cutoff) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(f.records, key)
		} else {
			f.records[key] = kept
		}
	}
}
