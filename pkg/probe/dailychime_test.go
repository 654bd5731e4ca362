package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyChimeFiresOnceAtConfiguredHour(t *testing.T) {
	hour := time.Now().UTC().Hour()
	p := NewDailyChimeProbe("testbox", hour)

	out := p.Run()
	require.True(t, out.Failed())
	assert.Contains(t, out.Reasons[""][0], "Your daily chime from testbox for")
	assert.Contains(t, out.Reasons[""][0], "This is not an alert.")

	// a second call within the same UTC day must not fire again.
	out2 := p.Run()
	assert.False(t, out2.Failed())
}

func TestDailyChimeSilentOutsideConfiguredHour(t *testing.T) {
	hour := (time.Now().UTC().Hour() + 12) % 24
	p := NewDailyChimeProbe("testbox", hour)

	out := p.Run()
	assert.False(t, out.Failed())
}
