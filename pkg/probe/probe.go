// Package probe defines the probe contract (spec §6) and the concrete
// probe kinds listed there. Each probe is a stateless-per-invocation
// capability set — Run/Kind/Description/Attributes — rather than a
// virtual-dispatch class hierarchy, per spec §9's "capability set"
// redesign note. Grounded on
// other_examples/eef01cbd_hkjn-prober__prober.go.go's Prober shape and
// generalized from pkg/probe/probe.go's http/tcp/icmp trio in the
// teacher repo to the full spec §6 kind table.
package probe

import (
	"github.com/berthubert/go-simplomon/pkg/model"
)

// Probe is the contract every concrete probe kind implements.
type Probe interface {
	Run() model.ProbeOutcome
	Kind() string
	Description() string
	Attributes() map[string]model.Scalar
}

// Config is a registered probe's identity, sensitivity knobs, and
// notifier bindings — the ProbeConfig of spec §3. Kind-specific
// parameters live on the concrete Probe value itself, not here, per
// spec §6 ("kind-specific parsing lives in the probe, not the core").
type Config struct {
	ID          string
	Kind        string
	Description string
	Sensitivity model.Sensitivity
	NotifierIDs []string
	Probe       Probe
}
