package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSinkWriter struct {
	messages []string
}

func (f *fakeSinkWriter) WriteNotification(message string, t time.Time) {
	f.messages = append(f.messages, message)
}

func TestSinkTransportWritesThroughToSink(t *testing.T) {
	writer := &fakeSinkWriter{}
	tr := NewSinkTransport(writer)

	assert.Equal(t, "sink", tr.Name())
	require.NoError(t, tr.Send("https: [] down"))
	assert.Equal(t, []string{"https: [] down"}, writer.messages)
}

func TestWebTransportIsANoOp(t *testing.T) {
	tr := NewWebTransport()
	assert.Equal(t, "web", tr.Name())
	assert.NoError(t, tr.Send("anything"))
}
