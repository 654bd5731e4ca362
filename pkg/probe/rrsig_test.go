package probe

import (
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestRRSIGExpiryFutureWithinCycle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expiration := uint32(now.Add(30 * 24 * time.Hour).Unix())

	expiry := rrsigExpiry(&dns.RRSIG{Expiration: expiration}, now)
	assert.WithinDuration(t, now.Add(30*24*time.Hour), expiry, time.Second)
}

func TestRRSIGExpiryAlreadyPastStaysInPast(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// one day in the past: in serial arithmetic a value slightly behind
	// now is earlier, not "almost a full 2^32 seconds in the future".
	expiration := uint32(now.Add(-24 * time.Hour).Unix())

	expiry := rrsigExpiry(&dns.RRSIG{Expiration: expiration}, now)
	assert.WithinDuration(t, now.Add(-24*time.Hour), expiry, time.Second, "an expired signature must not appear to be in the future")
}

func TestNewRRSIGProbeDefaults(t *testing.T) {
	p := NewRRSIGProbe("1.1.1.1", "example.com", "", 0)
	assert.Equal(t, "SOA", p.QType)
	assert.Equal(t, 7, p.MinDays)
	assert.Equal(t, "1.1.1.1:53", p.Server)
}

func TestRRSIGProbeUnsupportedQType(t *testing.T) {
	p := NewRRSIGProbe("127.0.0.1", "example.com", "BOGUS", 5)
	out := p.Run()
	assert.True(t, out.Failed())
}
