package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// HTTPSProbe fetches a URL over one or both IP families and checks
// content, size, and certificate freshness, per spec §6's https kind.
// Grounded on the teacher's executeHTTPProbe, with certificate
// inspection adapted from pkg/acme/client.go's NotAfter handling.
type HTTPSProbe struct {
	URL         string
	MaxAge      time.Duration // 0 = unchecked
	MinBytes    int
	MinCertDays int
	ServerIP    string
	LocalIP4    string
	LocalIP6    string
	Resolvers   []string
	Method      string // GET or HEAD
	Regex       *regexp.Regexp
	PubkeyPin   string
	Timeout     time.Duration
}

func NewHTTPSProbe(rawURL string) *HTTPSProbe {
	return &HTTPSProbe{
		URL:         rawURL,
		MinCertDays: 14,
		Method:      http.MethodGet,
		Timeout:     10 * time.Second,
	}
}

func (p *HTTPSProbe) Kind() string        { return "https" }
func (p *HTTPSProbe) Description() string { return fmt.Sprintf("HTTPS content and certificate health of %s", p.URL) }

func (p *HTTPSProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{"url": model.StringScalar(p.URL)}
}

func (p *HTTPSProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()

	u, err := url.Parse(p.URL)
	if err != nil {
		out.AddReason("", fmt.Sprintf("invalid url %q: %v", p.URL, err))
		return out
	}

	families := []struct {
		subject string
		network string
		localIP string
	}{
		{"ipv4", "tcp4", p.LocalIP4},
		{"ipv6", "tcp6", p.LocalIP6},
	}

	for _, fam := range families {
		p.checkFamily(out, u, fam.subject, fam.network, fam.localIP)
	}
	return out
}

func (p *HTTPSProbe) checkFamily(out model.ProbeOutcome, u *url.URL, subject, network, localIP string) {
	host := u.Hostname()

	resolveStart := time.Now()
	ip, err := p.resolve(host, network)
	dnsMsec := time.Since(resolveStart).Milliseconds()
	if err != nil {
		// Address family unavailable for this host; not every site has AAAA.
		return
	}
	out.AddMeasurement(subject, "dns-msec", model.FloatScalar(float64(dnsMsec)))
	out.AddMeasurement(subject, "server-ip", model.StringScalar(ip))

	dialer := &net.Dialer{Timeout: p.Timeout}
	if localIP != "" {
		dialer.LocalAddr = &net.TCPAddr{IP: net.ParseIP(localIP)}
	}

	var tlsState *tls.ConnectionState
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			_, port, _ := net.SplitHostPort(addr)
			return dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
		},
		DialTLSContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			_, port, _ := net.SplitHostPort(addr)
			conn, err := tls.DialWithDialer(dialer, network, net.JoinHostPort(ip, port), &tls.Config{ServerName: host})
			if err != nil {
				return nil, err
			}
			state := conn.ConnectionState()
			tlsState = &state
			return conn, nil
		},
	}
	client := &http.Client{Transport: transport, Timeout: p.Timeout}

	method := p.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequest(method, u.String(), nil)
	if err != nil {
		out.AddReason(subject, fmt.Sprintf("could not build request: %v", err))
		return
	}

	start := time.Now()
	resp, err := client.Do(req)
	httpMsec := time.Since(start).Milliseconds()
	if err != nil {
		out.AddReason(subject, fmt.Sprintf("request to %s over %s failed: %v", u, subject, err))
		return
	}
	defer resp.Body.Close()

	out.AddMeasurement(subject, "http-msec", model.FloatScalar(float64(httpMsec)))
	out.AddMeasurement(subject, "msec", model.FloatScalar(float64(dnsMsec+httpMsec)))
	out.AddMeasurement(subject, "http-code", model.IntScalar(int64(resp.StatusCode)))

	if resp.StatusCode >= 400 {
		out.AddReason(subject, fmt.Sprintf("got HTTP status %d from %s", resp.StatusCode, u))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		out.AddReason(subject, fmt.Sprintf("could not read body: %v", err))
		return
	}
	out.AddMeasurement(subject, "bodySize", model.IntScalar(int64(len(body))))

	if p.MinBytes > 0 && len(body) < p.MinBytes {
		out.AddReason(subject, fmt.Sprintf("body was %d bytes, wanted at least %d", len(body), p.MinBytes))
	}
	if p.Regex != nil && !p.Regex.Match(body) {
		out.AddReason(subject, fmt.Sprintf("body did not match %s", p.Regex.String()))
	}

	if tlsState != nil && len(tlsState.PeerCertificates) > 0 {
		cert := tlsState.PeerCertificates[0]
		daysLeft := int(time.Until(cert.NotAfter).Hours() / 24)
		out.AddMeasurement(subject, "tlsMinExpDays", model.IntScalar(int64(daysLeft)))

		minDays := p.MinCertDays
		if minDays <= 0 {
			minDays = 14
		}
		if daysLeft < minDays {
			out.AddReason(subject, fmt.Sprintf("certificate for %s expires in %d days, below the minimum of %d", host, daysLeft, minDays))
		}
		if p.PubkeyPin != "" && pubkeyFingerprint(cert) != p.PubkeyPin {
			out.AddReason(subject, fmt.Sprintf("certificate public key for %s does not match the pinned value", host))
		}
	}
}

func (p *HTTPSProbe) resolve(host, network string) (string, error) {
	if p.ServerIP != "" {
		return p.ServerIP, nil
	}
	resolver := net.DefaultResolver
	if len(p.Resolvers) > 0 {
		resolver = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, netw, _ string) (net.Conn, error) {
				return (&net.Dialer{Timeout: p.Timeout}).DialContext(ctx, netw, net.JoinHostPort(p.Resolvers[0], "53"))
			},
		}
	}
	ipNetwork := "ip4"
	if network == "tcp6" {
		ipNetwork = "ip6"
	}
	ips, err := resolver.LookupIP(context.Background(), ipNetwork, host)
	if err != nil || len(ips) == 0 {
		return "", fmt.Errorf("no %s address for %s", ipNetwork, host)
	}
	return ips[0].String(), nil
}
