package notify

// WebTransport is the always-on internal notifier that backs the status
// HTTP surface (spec §4.5/§4.6: "the internal web status notifier").
// Its Send is a deliberate no-op: the status snapshot's alert list is
// populated directly from the failure filter by pkg/runner each cycle
// (spec §4.5 — age is derived from the filter's earliest in-window
// timestamp, not from notifier delivery state), so this transport only
// exists to satisfy the "every probe has an implicitly-bound web
// notifier" registration invariant from spec §4.6.
type WebTransport struct{}

func NewWebTransport() *WebTransport { return &WebTransport{} }

func (WebTransport) Name() string        { return "web" }
func (WebTransport) Send(string) error   { return nil }
