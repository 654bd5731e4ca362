// Package notify implements the notifier contract and the per-notifier
// minimum-age gate from spec §4.4, ported line-for-line in semantics
// from original_source/notifiers.hh/.cc's bulkAlert/bulkDone state
// machine (d_reported/d_prevReported/d_times/d_oldEnough/d_prevOldEnough).
package notify

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// Transport is the capability every concrete notifier implements: send
// one already-formatted alert line to wherever it goes. A transport
// error is logged by the caller and never propagated (spec §7
// "Notifier-delivery").
type Transport interface {
	Name() string
	Send(text string) error
}

// Notifier wraps a Transport with the bulk-report / minimum-age gate
// state machine. One Notifier exists per configured notifier channel
// for the whole process lifetime.
type Notifier struct {
	transport  Transport
	minMinutes int

	mu             sync.Mutex
	reported       map[string]struct{}
	prevReported   map[string]struct{}
	firstSeen      map[string]time.Time
	prevOldEnough  map[string]struct{}
}

// New builds a Notifier around a transport with the given minimum-age
// gate in minutes (0 = deliver as soon as the alert is filtered in).
func New(transport Transport, minMinutes int) *Notifier {
	return &Notifier{
		transport:     transport,
		minMinutes:    minMinutes,
		reported:      map[string]struct{}{},
		prevReported:  map[string]struct{}{},
		firstSeen:     map[string]time.Time{},
		prevOldEnough: map[string]struct{}{},
	}
}

func (n *Notifier) Name() string { return n.transport.Name() }

// BulkAlert records one currently-active display-string as reported
// this cycle (spec §4.4 step 1). Call once per active alert the
// dispatcher routes to this notifier, before calling BulkDone.
func (n *Notifier) BulkAlert(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reported[text] = struct{}{}
}

// BulkDone runs the minimum-age gate transition for this cycle (spec
// §4.4 step 2a-g) and emits Alert() calls for strings that just ripened
// or just resolved.
func (n *Notifier) BulkDone(now time.Time) {
	n.mu.Lock()
	reported := n.reported
	prevReported := n.prevReported
	n.reported = map[string]struct{}{}

	for text := range reported {
		if _, existed := prevReported[text]; !existed {
			n.firstSeen[text] = now
		}
	}

	resolvedFirstSeen := map[string]time.Time{}
	for text := range prevReported {
		if _, stillThere := reported[text]; !stillThere {
			resolvedFirstSeen[text] = n.firstSeen[text]
			delete(n.firstSeen, text)
		}
	}

	n.prevReported = reported

	oldEnough := map[string]struct{}{}
	threshold := now.Add(-time.Duration(n.minMinutes) * time.Minute)
	for text := range reported {
		if fs, ok := n.firstSeen[text]; ok && !fs.After(threshold) {
			oldEnough[text] = struct{}{}
		}
	}

	var toAlert, toResolve []string
	for text := range oldEnough {
		if _, already := n.prevOldEnough[text]; !already {
			toAlert = append(toAlert, text)
		}
	}
	for text := range n.prevOldEnough {
		if _, still := oldEnough[text]; !still {
			toResolve = append(toResolve, text)
		}
	}
	n.prevOldEnough = oldEnough
	n.mu.Unlock()

	for _, text := range toAlert {
		msg := text
		if n.minMinutes > 0 {
			msg = fmt.Sprintf("(%s already) %s", model.FormatAge(time.Duration(n.minMinutes)*time.Minute), text)
		}
		n.emit(msg)
	}
	for _, text := range toResolve {
		age := now.Sub(resolvedFirstSeen[text])
		n.emit(fmt.Sprintf("🎉 after %s, the following alert is over: %s", model.FormatAge(age), text))
	}
}

// emit sends a single line through the transport, logging (never
// propagating) transport failures.
func (n *Notifier) emit(text string) {
	if err := n.transport.Send(text); err != nil {
		log.Printf("📣 notifier %s: delivery failed: %v", n.transport.Name(), err)
	}
}

