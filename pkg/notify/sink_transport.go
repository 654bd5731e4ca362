package notify

import "time"

// SinkWriter is the narrow slice of *sink.Sink the notifications
// transport needs; kept as an interface here so pkg/notify never
// imports pkg/sink directly (avoids a dependency edge the rest of the
// package doesn't otherwise need).
type SinkWriter interface {
	WriteNotification(message string, t time.Time)
}

// SinkTransport is the always-on notifier that persists every delivered
// alert text into the measurement sink's notifications table (spec §6
// "a notifications table receives (tstamp, message)"), overriding the
// usual external-transport Send with a local write.
type SinkTransport struct {
	writer SinkWriter
}

func NewSinkTransport(writer SinkWriter) *SinkTransport {
	return &SinkTransport{writer: writer}
}

func (s *SinkTransport) Name() string { return "sink" }

func (s *SinkTransport) Send(text string) error {
	s.writer.WriteNotification(text, time.Now())
	return nil
}
