// Package correlator implements the per-cycle new/resolved change
// detection described in spec §4.3: a plain set diff between this
// cycle's active alerts and the previous cycle's, with the current set
// retained as next cycle's baseline.
package correlator

import (
	"sync"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// key identifies an active alert for set-membership purposes. Two
// ActiveAlerts with the same ProbeID and Display are the same alert.
type key struct {
	probeID string
	display string
}

func toKey(a model.ActiveAlert) key { return key{probeID: a.ProbeID, display: a.Display} }

// Correlator holds the previous cycle's active-alert set and produces
// new/resolved diffs against each new cycle's set.
type Correlator struct {
	mu       sync.Mutex
	previous map[key]model.ActiveAlert
}

func New() *Correlator {
	return &Correlator{previous: map[key]model.ActiveAlert{}}
}

// Diff computes new and resolved alerts for this cycle, then retains
// current as the baseline for the next call.
func (c *Correlator) Diff(current []model.ActiveAlert) (newAlerts, resolved []model.ActiveAlert) {
	c.mu.Lock()
	defer c.mu.Unlock()

	currentSet := make(map[key]model.ActiveAlert, len(current))
	for _, a := range current {
		currentSet[toKey(a)] = a
	}

	for k, a := range currentSet {
		if _, ok := c.previous[k]; !ok {
			newAlerts = append(newAlerts, a)
		}
	}
	for k, a := range c.previous {
		if _, ok := currentSet[k]; !ok {
			resolved = append(resolved, a)
		}
	}

	c.previous = currentSet
	return newAlerts, resolved
}
