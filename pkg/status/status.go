package status

import (
	"sync"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// CheckerState is the last-cycle snapshot for one probe, grounded on
// original_source's ProbeMonitor::GetStatus().
type CheckerState struct {
	Kind        string                          `json:"kind"`
	Description string                          `json:"description"`
	Attributes  map[string]model.Scalar         `json:"attributes"`
	Results     map[string]map[string]model.Scalar `json:"results"`
	Reasons     map[string][]string             `json:"reasons"`
}

// Snapshot is the thread-safe, atomically-swapped status surface
// described in spec §4.5.
type Snapshot struct {
	Alerts        []string                  `json:"alerts"`
	CheckerStates map[string][]CheckerState `json:"checkerStates"`
	GeneratedAt   time.Time                 `json:"generatedAt"`
}

// Surface holds the current snapshot behind a RWMutex. Writes come
// from the runner's coordinator goroutine only; reads come from HTTP
// handlers.
type Surface struct {
	mu   sync.RWMutex
	snap Snapshot
}

func New() *Surface {
	return &Surface{snap: Snapshot{CheckerStates: map[string][]CheckerState{}}}
}

// Publish swaps in a freshly built snapshot. Readers never observe a
// half-populated snapshot: the new Snapshot value is fully built by
// the caller before this call.
func (s *Surface) Publish(snap Snapshot) {
	snap.GeneratedAt = time.Now()
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func (s *Surface) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// FormatAlertLine renders one status-surface alert line, per spec
// §4.5: "<age>: <display-string>".
func FormatAlertLine(age time.Duration, display string) string {
	return model.FormatAge(age) + ": " + display
}
