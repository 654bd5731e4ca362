package probe

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPPortProbeWantOpenSucceedsWhenOpen(t *testing.T) {
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

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	p := NewTCPPortProbe([]string{host}, []int{port}, true)
	out := p.Run()
	assert.False(t, out.Failed())
}

func TestTCPPortProbeWantOpenFailsWhenClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	ln.Close() // nothing listening now

	p := NewTCPPortProbe([]string{host}, []int{port}, true)
	out := p.Run()
	require.True(t, out.Failed())
	assert.Contains(t, out.Reasons[net.JoinHostPort(host, portStr)][0], "wanted open")
}

func TestTCPPortProbeWantClosedSucceedsWhenClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	ln.Close()

	p := NewTCPPortProbe([]string{host}, []int{port}, false)
	out := p.Run()
	assert.False(t, out.Failed())
}

func TestStateWord(t *testing.T) {
	assert.Equal(t, "open", stateWord(true))
	assert.Equal(t, "closed", stateWord(false))
}
