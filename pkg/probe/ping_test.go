package probe

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPingProbeClampsTimeoutAndSize(t *testing.T) {
	p := NewPingProbe([]string{"1.2.3.4"}, "", 0, -5, false)
	assert.Equal(t, 2*time.Second, p.Timeout)
	assert.Equal(t, 0, p.Size)

	p2 := NewPingProbe([]string{"1.2.3.4"}, "", time.Minute, 1_000_000, false)
	assert.Equal(t, 2*time.Second, p2.Timeout)
	assert.Equal(t, 65500, p2.Size)
}

func TestICMPChecksumAllOnesForZeroedPacket(t *testing.T) {
	packet := make([]byte, 8)
	sum := icmpChecksum(packet)
	// the one's complement of an all-zero buffer is all ones.
	assert.Equal(t, uint16(0xffff), sum)
}

func TestICMPChecksumOddLength(t *testing.T) {
	packet := []byte{0x01, 0x02, 0x03}
	// must not panic on odd-length input, and must be deterministic.
	sum1 := icmpChecksum(packet)
	sum2 := icmpChecksum(packet)
	assert.Equal(t, sum1, sum2)
}

func TestBuildICMPEchoHeaderFields(t *testing.T) {
	payload := []byte("ping")
	packet := buildICMPEcho(7, 1, payload)

	require.Len(t, packet, 8+len(payload))
	assert.Equal(t, byte(8), packet[0], "type must be echo request")
	assert.Equal(t, byte(0), packet[1], "code must be zero")
	assert.Equal(t, []byte("ping"), packet[8:])
}

func TestPingProbeFallsBackToTCPWhenICMPUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	host, _, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	p := NewPingProbe([]string{host}, "", time.Second, 0, false)
	msec, ttl, err := p.tcpFallback(host)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, msec, float64(0))
	assert.Equal(t, 0, ttl)
}

func TestPingProbeReportsFailureForUnreachableHost(t *testing.T) {
	p := NewPingProbe([]string{"203.0.113.1"}, "", 200*time.Millisecond, 0, false)
	out := p.Run()
	assert.True(t, out.Failed())
}
