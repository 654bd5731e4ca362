package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSurfaceStartsEmpty(t *testing.T) {
	s := New()
	snap := s.Current()
	assert.Empty(t, snap.Alerts)
	assert.NotNil(t, snap.CheckerStates)
}

func TestPublishAndCurrentRoundtrip(t *testing.T) {
	s := New()
	s.Publish(Snapshot{
		Alerts: []string{"https: [] down"},
		CheckerStates: map[string][]CheckerState{
			"probe1": {{Kind: "https", Description: "main site"}},
		},
	})

	snap := s.Current()
	assert.Equal(t, []string{"https: [] down"}, snap.Alerts)
	assert.False(t, snap.GeneratedAt.IsZero(), "Publish must stamp GeneratedAt")
	assert.Equal(t, "https", snap.CheckerStates["probe1"][0].Kind)
}

func TestFormatAlertLine(t *testing.T) {
	line := FormatAlertLine(10*time.Minute, "https: [] down")
	assert.Equal(t, "10 minutes: https: [] down", line)
}
