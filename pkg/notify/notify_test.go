package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berthubert/go-simplomon/pkg/filter"
)

type fakeTransport struct {
	name string
	sent []string
}

func (f *fakeTransport) Name() string { return f.name }
func (f *fakeTransport) Send(text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func TestScenario1_SingleFlapBelowThresholdNoEscalation(t *testing.T) {
	tr := &fakeTransport{name: "n"}
	n := New(tr, 0)
	f := filter.New(0)
	sensitivity := func(string) (int, int, bool) { return 2, 60, true }
	kindOf := func(string) string { return "P" }
	now := time.Unix(0, 0)

	// Cycle C1 at t=0: reason active once; minFailures=2 keeps it out of
	// the filter's output, so nothing reaches the notifier.
	f.Report("P", "", "r", now)
	for _, a := range f.ActiveAlerts(now, sensitivity, kindOf) {
		n.BulkAlert(a.Display)
	}
	n.BulkDone(now)
	// Cycle C2 at t=30: success, nothing reported.
	for _, a := range f.ActiveAlerts(now.Add(30*time.Second), sensitivity, kindOf) {
		n.BulkAlert(a.Display)
	}
	n.BulkDone(now.Add(30 * time.Second))

	assert.Empty(t, tr.sent)
}

func TestScenario2_ConfirmedAlertRipensAndResolves(t *testing.T) {
	tr := &fakeTransport{name: "n"}
	n := New(tr, 0)
	base := time.Unix(0, 0)

	n.BulkAlert("P: [] r")
	n.BulkDone(base) // t=0, delivered at once with minMinutes=0
	n.BulkAlert("P: [] r")
	n.BulkDone(base.Add(15 * time.Second)) // t=15, still active, not delivered again

	require.Len(t, tr.sent, 1)
	assert.Equal(t, "P: [] r", tr.sent[0])

	// t=30 resolves.
	n.BulkDone(base.Add(30 * time.Second))
	require.Len(t, tr.sent, 2)
	assert.Contains(t, tr.sent[1], "🎉")
	assert.Contains(t, tr.sent[1], "P: [] r")
}

func TestScenario3_MinimumAgeGateSuppressesShortAlert(t *testing.T) {
	tr := &fakeTransport{name: "n"}
	n := New(tr, 10)
	base := time.Unix(0, 0)

	for _, secs := range []int{0, 60, 120} {
		n.BulkAlert("P: [] r")
		n.BulkDone(base.Add(time.Duration(secs) * time.Second))
	}
	// resolved at t=180, never reached 600s of age.
	n.BulkDone(base.Add(180 * time.Second))

	assert.Empty(t, tr.sent, "alert never aged past the 10-minute gate")
}

func TestScenario4_MinimumAgeGateEmitsAfterTenMinutes(t *testing.T) {
	tr := &fakeTransport{name: "n"}
	n := New(tr, 10)
	base := time.Unix(0, 0)

	for secs := 0; secs <= 600; secs += 60 {
		n.BulkAlert("P: [] r")
		n.BulkDone(base.Add(time.Duration(secs) * time.Second))
	}

	require.Len(t, tr.sent, 1)
	assert.Contains(t, tr.sent[0], "(10 minutes already)")
	assert.Contains(t, tr.sent[0], "P: [] r")

	// resolves at t=900 (15 minutes after firstSeen at t=0).
	n.BulkDone(base.Add(900 * time.Second))
	require.Len(t, tr.sent, 2)
	assert.Contains(t, tr.sent[1], "15 minutes")
}

func TestResolvedBeforeRipeIsSilent(t *testing.T) {
	tr := &fakeTransport{name: "n"}
	n := New(tr, 5)
	base := time.Unix(0, 0)

	n.BulkAlert("P: [] r")
	n.BulkDone(base) // t=0, not yet ripe (needs 5 minutes)
	// resolves immediately without ever ripening.
	n.BulkDone(base.Add(30 * time.Second))

	assert.Empty(t, tr.sent, "an alert resolved before entering oldEnough emits nothing")
}

func TestAtMostOneAlertEventPerRipening(t *testing.T) {
	tr := &fakeTransport{name: "n"}
	n := New(tr, 0)
	base := time.Unix(0, 0)

	for i := 0; i < 5; i++ {
		n.BulkAlert("P: [] r")
		n.BulkDone(base.Add(time.Duration(i) * time.Second))
	}

	require.Len(t, tr.sent, 1, "a steady-state active alert triggers exactly one alert event")
}
