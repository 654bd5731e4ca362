// Package runner implements the periodic worker-pool cycle driver
// described in spec §4.1: one pass over every registered probe per
// interval, feeding the failure filter and measurement sink, then
// running the correlator and notifier dispatch, then publishing the
// status snapshot. Grounded on
// pkg/services/health_checker.go's ticker + context.Context +
// sync.WaitGroup loop shape from the teacher repo, generalized from a
// fixed single-purpose health check into a bounded worker pool over an
// arbitrary probe registry.
package runner

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/berthubert/go-simplomon/pkg/correlator"
	"github.com/berthubert/go-simplomon/pkg/filter"
	"github.com/berthubert/go-simplomon/pkg/model"
	"github.com/berthubert/go-simplomon/pkg/notify"
	"github.com/berthubert/go-simplomon/pkg/probe"
	"github.com/berthubert/go-simplomon/pkg/sink"
	"github.com/berthubert/go-simplomon/pkg/status"
)

// Runner wires the registry to the filter, sink, correlator, dispatcher,
// and status surface, and drives them one cycle per interval.
type Runner struct {
	registry   *probe.Registry
	filter     *filter.Filter
	correlator *correlator.Correlator
	dispatcher *notify.Dispatcher
	sink       *sink.Sink
	status     *status.Surface

	maxWorkers int
}

func New(registry *probe.Registry, f *filter.Filter, c *correlator.Correlator, d *notify.Dispatcher, sk *sink.Sink, st *status.Surface, maxWorkers int) *Runner {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Runner{
		registry:   registry,
		filter:     f,
		correlator: c,
		dispatcher: d,
		sink:       sk,
		status:     st,
		maxWorkers: maxWorkers,
	}
}

// RunForever drives cycles until ctx is cancelled. workerCount is the
// starting worker pool size; it self-adapts upward (capped at
// maxWorkers) whenever a cycle overruns interval (spec §4.1 item 6).
func (r *Runner) RunForever(ctx context.Context, interval time.Duration, workerCount int) {
	if workerCount <= 0 {
		workerCount = 1
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		t0 := time.Now()
		r.runCycle(workerCount)
		elapsed := time.Since(t0)

		if elapsed < interval {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval - elapsed):
			}
		} else if workerCount < r.maxWorkers {
			workerCount++
			log.Printf("⏱ cycle took %s, over the %s interval; raising worker count to %d", elapsed, interval, workerCount)
		}
	}
}

// cycleOutcome pairs a probe's config with the result of one invocation,
// used to build both the filter/sink feed and the status snapshot's
// checker state.
type cycleOutcome struct {
	cfg     *probe.Config
	outcome model.ProbeOutcome
}

func (r *Runner) runCycle(workerCount int) {
	configs := r.registry.All()
	jobs := make(chan *probe.Config, len(configs))
	results := make(chan cycleOutcome, len(configs))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cfg := range jobs {
				results <- cycleOutcome{cfg: cfg, outcome: runOne(cfg)}
			}
		}()
	}
	for _, cfg := range configs {
		jobs <- cfg
	}
	close(jobs)
	wg.Wait()
	close(results)

	now := time.Now()
	states := map[string][]status.CheckerState{}

	for res := range results {
		r.ingest(res, now)

		cs := status.CheckerState{
			Kind:        res.cfg.Kind,
			Description: res.cfg.Description,
			Attributes:  res.cfg.Probe.Attributes(),
			Results:     res.outcome.Measurements,
			Reasons:     res.outcome.Reasons,
		}
		states[res.cfg.Kind] = append(states[res.cfg.Kind], cs)
	}

	active := r.filter.ActiveAlerts(now, r.registry.Sensitivity, r.registry.Kind)
	newAlerts, resolved := r.correlator.Diff(active)
	for _, a := range newAlerts {
		log.Printf("🔔 new alert: %s", a.Display)
	}
	for _, a := range resolved {
		log.Printf("✅ resolved: %s", a.Display)
	}

	r.dispatcher.Dispatch(now, active)
	r.publishStatus(active, states, now)
}

// runOne invokes a single probe, converting any panic into the
// standard exception reason under subject "" (spec §3, §4.1 item 3).
func runOne(cfg *probe.Config) (outcome model.ProbeOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = model.ExceptionOutcome(rec)
		}
	}()
	return cfg.Probe.Run()
}

// ingest feeds one probe's outcome into the filter (unless muted) and
// the sink (always), per spec §4.1 item 4.
func (r *Runner) ingest(res cycleOutcome, now time.Time) {
	cfg := res.cfg
	attrs := cfg.Probe.Attributes()

	for subject, metrics := range res.outcome.Measurements {
		r.sink.WriteMeasurement(cfg.Kind, subject, attrs, metrics, now)
	}

	for subject, reasons := range res.outcome.Reasons {
		for _, reason := range reasons {
			r.sink.WriteReport(cfg.Kind, subject, reason, attrs, now)
			if !cfg.Sensitivity.Mute {
				r.filter.Report(cfg.ID, subject, reason, now)
			}
		}
	}
}

// publishStatus builds and publishes this cycle's snapshot (spec §4.5).
// Alert ages come from the earliest in-window timestamp for each key.
func (r *Runner) publishStatus(active []model.ActiveAlert, states map[string][]status.CheckerState, now time.Time) {
	lines := make([]string, 0, len(active))
	for _, a := range active {
		age := r.ageOf(a, now)
		lines = append(lines, status.FormatAlertLine(age, a.Display))
	}

	r.status.Publish(status.Snapshot{
		Alerts:        lines,
		CheckerStates: states,
	})
}

// ageOf finds the oldest in-window report backing an active alert: it
// looks up the probe's failure window in the registry, recovers subject
// and reason by parsing the display string with splitDisplay, and asks
// the filter for the earliest timestamp of that key within the window.
func (r *Runner) ageOf(a model.ActiveAlert, now time.Time) time.Duration {
	_, window, ok := r.registry.Sensitivity(a.ProbeID)
	if !ok {
		return 0
	}
	subject, reason, ok := splitDisplay(a.Display)
	if !ok {
		return 0
	}
	earliest, found := r.filter.EarliestInWindow(a.ProbeID, subject, reason, now, window)
	if !found {
		return 0
	}
	return now.Sub(earliest)
}

// splitDisplay reverses model.DisplayString's "<kind>: [<subject>]
// <reason>" format to recover subject and reason.
func splitDisplay(display string) (subject, reason string, ok bool) {
	open := indexByte(display, '[')
	shut := indexByte(display, ']')
	if open < 0 || shut < open {
		return "", "", false
	}
	subject = display[open+1 : shut]
	rest := display[shut+1:]
	if len(rest) > 1 {
		reason = rest[1:] // drop the leading space
	}
	return subject, reason, true
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
