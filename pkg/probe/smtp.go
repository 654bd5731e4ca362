package probe

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// sentinelSubject is the marker subject line the smtp probe plants and
// the imap probe searches for. Matches the original C++ checkers so a
// simplomon SMTP+IMAP pair can interoperate with a non-Go installation
// watching the same mailbox.
const sentinelSubject = "A simplomon test message"

// SMTPProbe connects to a mail server, upgrades to TLS via STARTTLS,
// and checks certificate freshness; when From/To are both set it also
// plants a sentinel test message end-to-end for the imap probe to find.
// Grounded on original_source/mailmon.cc's SMTPChecker, using stdlib
// net/smtp and crypto/tls (no third-party SMTP client appears anywhere
// in the pack).
type SMTPProbe struct {
	Server      string // host:port, port defaults to 25
	ServerName  string // expected cert CN/SAN, defaults to the server's hostname
	From        string
	To          string
	MinCertDays int
	Timeout     time.Duration
}

func NewSMTPProbe(server string) *SMTPProbe {
	return &SMTPProbe{Server: withDefaultPort(server, "25"), MinCertDays: 14, Timeout: 10 * time.Second}
}

func (p *SMTPProbe) Kind() string        { return "smtp" }
func (p *SMTPProbe) Description() string { return fmt.Sprintf("SMTP+STARTTLS health of %s", p.Server) }

func (p *SMTPProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{"server": model.StringScalar(p.Server)}
}

func (p *SMTPProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()

	host, _, _ := net.SplitHostPort(p.Server)
	serverName := p.ServerName
	if serverName == "" {
		serverName = host
	}

	conn, err := net.DialTimeout("tcp", p.Server, p.Timeout)
	if err != nil {
		out.AddReason("", fmt.Sprintf("could not connect to %s: %v", p.Server, err))
		return out
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(p.Timeout))

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		out.AddReason("", fmt.Sprintf("SMTP handshake with %s failed: %v", p.Server, err))
		return out
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); !ok {
		out.AddReason("", fmt.Sprintf("%s does not advertise STARTTLS", p.Server))
		return out
	}

	tlsConfig := &tls.Config{ServerName: serverName}
	if err := client.StartTLS(tlsConfig); err != nil {
		out.AddReason("", fmt.Sprintf("STARTTLS with %s failed: %v", p.Server, err))
		return out
	}

	state, ok := client.TLSConnectionState()
	if !ok || len(state.PeerCertificates) == 0 {
		out.AddReason("", fmt.Sprintf("no certificate presented by %s after STARTTLS", p.Server))
		return out
	}
	cert := state.PeerCertificates[0]
	daysLeft := int(time.Until(cert.NotAfter).Hours() / 24)
	out.AddMeasurement("", "tlsMinExpDays", model.IntScalar(int64(daysLeft)))

	minDays := p.MinCertDays
	if minDays <= 0 {
		minDays = 14
	}
	if daysLeft < minDays {
		out.AddReason("", fmt.Sprintf("certificate for %s expires in %d days, below the minimum of %d", p.Server, daysLeft, minDays))
	}

	if p.From != "" && p.To != "" {
		if err := client.Mail(p.From); err != nil {
			out.AddReason("", fmt.Sprintf("MAIL FROM rejected by %s: %v", p.Server, err))
			return out
		}
		if err := client.Rcpt(p.To); err != nil {
			out.AddReason("", fmt.Sprintf("RCPT TO rejected by %s: %v", p.Server, err))
			return out
		}

		wc, err := client.Data()
		if err != nil {
			out.AddReason("", fmt.Sprintf("DATA rejected by %s: %v", p.Server, err))
			return out
		}
		msg := buildSentinelMessage(p.From, p.To, serverName, time.Now())
		if _, err := io.WriteString(wc, msg); err != nil {
			out.AddReason("", fmt.Sprintf("writing sentinel message to %s failed: %v", p.Server, err))
			return out
		}
		if err := wc.Close(); err != nil {
			out.AddReason("", fmt.Sprintf("completing DATA to %s failed: %v", p.Server, err))
			return out
		}
	}

	client.Quit()
	return out
}

// buildSentinelMessage formats the plant message an imap probe later
// searches for: a fixed subject line and a body whose first line is the
// unix timestamp of when it was sent, so the reader can judge freshness.
func buildSentinelMessage(from, to, serverName string, now time.Time) string {
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMessage-Id: <%d@simplomon.%s>\r\nDate: %s\r\n\r\n%d\r\n%s!\r\n",
		from, to, sentinelSubject, now.Unix(), serverName, now.Format(time.RFC1123Z), now.Unix(), sentinelSubject,
	)
}
