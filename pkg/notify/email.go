package notify

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"
)

// Email delivers alerts over SMTP, optionally with STARTTLS, mirroring
// the mail-loop shape grounded on
// other_examples/5ce7db42_bokitgw-mymailexporter__mailexporter.go.go's
// net/smtp usage.
type Email struct {
	Server string // host:port
	From   string
	To     string
	Dialer func(network, addr string) (net.Conn, error)
}

func NewEmail(server, from, to string) *Email {
	return &Email{Server: server, From: from, To: to, Dialer: (&net.Dialer{Timeout: 10 * time.Second}).Dial}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(text string) error {
	host, _, err := net.SplitHostPort(e.Server)
	if err != nil {
		return fmt.Errorf("email: invalid server address %q: %w", e.Server, err)
	}

	conn, err := e.Dialer("tcp", e.Server)
	if err != nil {
		return fmt.Errorf("email: dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("email: smtp handshake failed: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("email: starttls failed: %w", err)
		}
	}

	if err := client.Mail(e.From); err != nil {
		return fmt.Errorf("email: MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(e.To); err != nil {
		return fmt.Errorf("email: RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("email: DATA failed: %w", err)
	}
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: simplomon alert\r\n\r\n%s\r\n", e.From, e.To, text)
	if _, err := w.Write([]byte(body)); err != nil {
		return fmt.Errorf("email: body write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("email: body close failed: %w", err)
	}

	return client.Quit()
}
