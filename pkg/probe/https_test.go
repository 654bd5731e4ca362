package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPSProbeDefaults(t *testing.T) {
	p := NewHTTPSProbe("https://example.com/")
	assert.Equal(t, 14, p.MinCertDays)
	assert.Equal(t, "GET", p.Method)
}

func TestHTTPSProbeInvalidURL(t *testing.T) {
	p := NewHTTPSProbe("://not-a-url")
	out := p.Run()
	require.True(t, out.Failed())
	assert.Contains(t, out.Reasons[""][0], "invalid url")
}

func TestResolveUsesServerIPOverride(t *testing.T) {
	p := NewHTTPSProbe("https://example.com/")
	p.ServerIP = "203.0.113.9"

	ip, err := p.resolve("example.com", "tcp4")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", ip)
}

func TestResolveFailsForUnresolvableHost(t *testing.T) {
	p := NewHTTPSProbe("https://invalid.invalid/")
	_, err := p.resolve("invalid.invalid", "tcp4")
	assert.Error(t, err)
}
