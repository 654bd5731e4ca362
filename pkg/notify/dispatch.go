package notify

import (
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// Dispatcher fans each cycle's active alerts out to the notifiers bound
// to their probe, then runs every notifier's BulkDone so it can detect
// alerts that silently dropped out of the active set (spec §4.4).
type Dispatcher struct {
	all      []*Notifier
	bindings map[string][]*Notifier // probeID -> notifiers
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{bindings: map[string][]*Notifier{}}
}

// Register binds a notifier to a probe. A probe may be bound to many
// notifiers; a notifier may be bound to many probes but exists once
// (spec invariant: every probe has >=1 notifier, always including the
// sink and web status notifiers — callers are expected to bind those
// to every probe at registration time, see pkg/probe/registry.go).
func (d *Dispatcher) Register(probeID string, n *Notifier) {
	if _, seen := d.bindings[probeID]; !seen {
		d.bindings[probeID] = nil
	}
	d.bindings[probeID] = append(d.bindings[probeID], n)
	for _, existing := range d.all {
		if existing == n {
			return
		}
	}
	d.all = append(d.all, n)
}

// Dispatch runs one cycle of the pipeline described in spec §4.4: every
// currently active alert is streamed to its probe's notifiers via
// BulkAlert, then every known notifier runs BulkDone so resolutions
// (alerts that silently stopped being streamed) are detected too.
func (d *Dispatcher) Dispatch(now time.Time, active []model.ActiveAlert) {
	for _, a := range active {
		for _, n := range d.bindings[a.ProbeID] {
			n.BulkAlert(a.Display)
		}
	}
	for _, n := range d.all {
		n.BulkDone(now)
	}
}
