package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berthubert/go-simplomon/pkg/correlator"
	"github.com/berthubert/go-simplomon/pkg/filter"
	"github.com/berthubert/go-simplomon/pkg/model"
	"github.com/berthubert/go-simplomon/pkg/notify"
	"github.com/berthubert/go-simplomon/pkg/probe"
	"github.com/berthubert/go-simplomon/pkg/sink"
	"github.com/berthubert/go-simplomon/pkg/status"
)

func TestSplitDisplayRoundTrip(t *testing.T) {
	display := model.DisplayString("https", "ipv4", "certificate expires soon")
	subject, reason, ok := splitDisplay(display)
	require.True(t, ok)
	assert.Equal(t, "ipv4", subject)
	assert.Equal(t, "certificate expires soon", reason)
}

func TestSplitDisplayEmptySubject(t *testing.T) {
	display := model.DisplayString("dailychime", "", "instance is alive")
	subject, reason, ok := splitDisplay(display)
	require.True(t, ok)
	assert.Equal(t, "", subject)
	assert.Equal(t, "instance is alive", reason)
}

func TestSplitDisplayMalformed(t *testing.T) {
	_, _, ok := splitDisplay("not a display string")
	assert.False(t, ok)
}

type failingProbe struct{ reason string }

func (p failingProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()
	out.AddReason("", p.reason)
	return out
}
func (p failingProbe) Kind() string                        { return "stub" }
func (p failingProbe) Description() string                 { return "a stub probe" }
func (p failingProbe) Attributes() map[string]model.Scalar { return nil }

type panickingProbe struct{}

func (panickingProbe) Run() model.ProbeOutcome {
	panic("boom")
}
func (panickingProbe) Kind() string                        { return "stub" }
func (panickingProbe) Description() string                 { return "a panicking probe" }
func (panickingProbe) Attributes() map[string]model.Scalar { return nil }

func newTestRunner(t *testing.T) (*Runner, *probe.Registry) {
	t.Helper()
	sk, err := sink.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sk.Close() })

	registry := probe.NewRegistry()
	f := filter.New(time.Hour)
	c := correlator.New()
	d := notify.NewDispatcher()
	st := status.New()

	r := New(registry, f, c, d, sk, st, 4)
	return r, registry
}

func TestRunOneRecoversFromPanic(t *testing.T) {
	cfg := &probe.Config{ID: "p1", Kind: "stub", Probe: panickingProbe{}}
	outcome := runOne(cfg)
	require.True(t, outcome.Failed())
	assert.Contains(t, outcome.Reasons[""][0], "boom")
}

func TestRunCycleFeedsFilterAndStatus(t *testing.T) {
	r, registry := newTestRunner(t)
	registry.Register("stub", "always fails", probe.ConfigSensitivity{MinFailures: 1, FailureWindow: 60}, nil, failingProbe{reason: "broken"})

	r.runCycle(2)

	snap := r.status.Current()
	require.Len(t, snap.Alerts, 1)
	assert.Contains(t, snap.Alerts[0], "stub: [] broken")
	require.Contains(t, snap.CheckerStates, "stub")
}

func TestRunCycleMutedProbeNeverReachesFilter(t *testing.T) {
	r, registry := newTestRunner(t)
	registry.Register("stub", "muted", probe.ConfigSensitivity{MinFailures: 1, FailureWindow: 60, Mute: true}, nil, failingProbe{reason: "broken"})

	r.runCycle(2)

	snap := r.status.Current()
	assert.Empty(t, snap.Alerts, "a muted probe's reports must never surface as an active alert")
}

func TestRunCyclePanicBecomesExceptionAlert(t *testing.T) {
	r, registry := newTestRunner(t)
	registry.Register("stub", "panics", probe.ConfigSensitivity{MinFailures: 1, FailureWindow: 60}, nil, panickingProbe{})

	r.runCycle(2)

	snap := r.status.Current()
	require.Len(t, snap.Alerts, 1)
	assert.Contains(t, snap.Alerts[0], "Exception caught")
}
