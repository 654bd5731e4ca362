package probe

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalProbeSuccess(t *testing.T) {
	p := NewExternalProbe("echo hello")
	p.WantRC = 0
	p.Regex = regexp.MustCompile("hello")

	out := p.Run()
	assert.False(t, out.Failed())
	assert.Equal(t, int64(0), out.Measurements[""]["rc"].Value())
}

func TestExternalProbeWrongExitCode(t *testing.T) {
	p := NewExternalProbe("exit 3")
	p.WantRC = 0

	out := p.Run()
	require.True(t, out.Failed())
	assert.Contains(t, out.Reasons[""][0], "exited 3, wanted 0")
}

func TestExternalProbeRegexMismatch(t *testing.T) {
	p := NewExternalProbe("echo goodbye")
	p.WantRC = 0
	p.Regex = regexp.MustCompile("hello")

	out := p.Run()
	require.True(t, out.Failed())
	assert.Contains(t, out.Reasons[""][0], "did not match")
}

func TestExternalProbeWantsNonZeroRC(t *testing.T) {
	p := NewExternalProbe("exit 2")
	p.WantRC = 2

	out := p.Run()
	assert.False(t, out.Failed())
}
