package probe

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// Registry is the append-only probe list built once at startup (spec
// §4.6, §9 "construct a World value at startup and pass it explicitly").
// The runner reads it every cycle; the status surface does not hold it
// and only receives the snapshots the runner publishes.
type Registry struct {
	configs []*Config
	byID    map[string]*Config
}

func NewRegistry() *Registry {
	return &Registry{byID: map[string]*Config{}}
}

// alwaysOnNotifierIDs are bound to every probe implicitly: the
// measurement sink and the internal web status notifier (spec §3
// invariant, §4.6).
var alwaysOnNotifierIDs = []string{"sink", "web"}

// Register adds a probe with its explicitly-configured extra notifiers.
// The sink and web notifiers are always appended. A probe with no extra
// notifiers is legal but logged as a warning (spec §4.6).
func (r *Registry) Register(kind, description string, sensitivity ConfigSensitivity, extraNotifierIDs []string, p Probe) *Config {
	id := uuid.NewString()
	notifiers := append([]string{}, alwaysOnNotifierIDs...)
	notifiers = append(notifiers, extraNotifierIDs...)

	cfg := &Config{
		ID:          id,
		Kind:        kind,
		Description: description,
		Sensitivity: sensitivity.toModel(),
		NotifierIDs: notifiers,
		Probe:       p,
	}
	r.configs = append(r.configs, cfg)
	r.byID[id] = cfg

	if len(extraNotifierIDs) == 0 {
		log.Printf("⚠️  probe %s (%s) has no notifiers beyond the sink and web status surface", id, kind)
	}
	return cfg
}

// All returns every registered probe, in registration order.
func (r *Registry) All() []*Config {
	out := make([]*Config, len(r.configs))
	copy(out, r.configs)
	return out
}

// Get looks a probe config up by id.
func (r *Registry) Get(id string) (*Config, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Kind returns the "<kind>" tag for a probe id, used by the filter to
// render display strings without coupling it to the registry type.
func (r *Registry) Kind(id string) string {
	if c, ok := r.byID[id]; ok {
		return c.Kind
	}
	return "unknown"
}

// Sensitivity exposes a probe's de-flap knobs by id, matching
// filter.SensitivityLookup's shape.
func (r *Registry) Sensitivity(id string) (minFailures, failureWindowSeconds int, ok bool) {
	c, found := r.byID[id]
	if !found {
		return 0, 0, false
	}
	return c.Sensitivity.MinFailures, c.Sensitivity.FailureWindow, true
}

// ConfigSensitivity is the YAML/struct-literal-friendly form of
// model.Sensitivity accepted at registration time.
type ConfigSensitivity struct {
	MinFailures   int
	FailureWindow int
	Mute          bool
}

func (c ConfigSensitivity) toModel() (out model.Sensitivity) {
	out.MinFailures = c.MinFailures
	if out.MinFailures <= 0 {
		out.MinFailures = 1
	}
	out.FailureWindow = c.FailureWindow
	if out.FailureWindow <= 0 {
		out.FailureWindow = 60
	}
	out.Mute = c.Mute
	return out
}

// String renders a config for debugging/log lines.
func (c *Config) String() string {
	return fmt.Sprintf("%s[%s]", c.Kind, c.ID)
}
