package probe

import (
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// DNSProbe issues one query against one nameserver and checks the
// response against an acceptable-answer set, grounded on
// original_source/simplomon.hh's DNSChecker and implemented with
// github.com/miekg/dns (promoted from an indirect teacher dependency).
type DNSProbe struct {
	Server     string // host:port, port defaults to 53
	QName      string
	QType      string
	Acceptable map[string]struct{} // empty = any non-empty NOERROR answer is acceptable
	RD         bool
	LocalIP    string
	Timeout    time.Duration
}

func NewDNSProbe(server, qname, qtype string, acceptable []string, rd bool, localIP string) *DNSProbe {
	acc := map[string]struct{}{}
	for _, a := range acceptable {
		acc[a] = struct{}{}
	}
	return &DNSProbe{
		Server:     withDefaultPort(server, "53"),
		QName:      dns.Fqdn(qname),
		QType:      qtype,
		Acceptable: acc,
		RD:         rd,
		LocalIP:    localIP,
		Timeout:    5 * time.Second,
	}
}

func (p *DNSProbe) Kind() string { return "dns" }

func (p *DNSProbe) Description() string {
	return fmt.Sprintf("DNS %s %s against %s", p.QType, p.QName, p.Server)
}

func (p *DNSProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{
		"server": model.StringScalar(p.Server),
		"qname":  model.StringScalar(p.QName),
		"qtype":  model.StringScalar(p.QType),
	}
}

func (p *DNSProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()

	qtype, ok := dns.StringToType[p.QType]
	if !ok {
		out.AddReason("", fmt.Sprintf("unsupported qtype %q", p.QType))
		return out
	}

	m := new(dns.Msg)
	m.SetQuestion(p.QName, qtype)
	m.RecursionDesired = p.RD

	client := &dns.Client{Timeout: p.Timeout}
	if p.LocalIP != "" {
		client.Dialer = &net.Dialer{Timeout: p.Timeout, LocalAddr: &net.UDPAddr{IP: net.ParseIP(p.LocalIP)}}
	}

	start := time.Now()
	resp, _, err := client.Exchange(m, p.Server)
	msec := time.Since(start).Milliseconds()

	if err != nil {
		out.AddReason("", fmt.Sprintf("query to %s failed: %v", p.Server, err))
		return out
	}
	out.AddMeasurement("", "msec", model.FloatScalar(float64(msec)))
	out.AddMeasurement("", "finals", model.IntScalar(int64(len(resp.Answer))))

	if resp.Rcode != dns.RcodeSuccess {
		out.AddReason("", fmt.Sprintf("got rcode %s from %s", dns.RcodeToString[resp.Rcode], p.Server))
		return out
	}

	if len(p.Acceptable) == 0 {
		if len(resp.Answer) == 0 {
			out.AddReason("", fmt.Sprintf("got no answers for %s %s from %s", p.QType, p.QName, p.Server))
		}
		return out
	}

	for _, rr := range resp.Answer {
		value := rrValue(rr)
		if _, ok := p.Acceptable[value]; ok {
			return out
		}
	}
	out.AddReason("", fmt.Sprintf("none of the answers for %s %s from %s were in the acceptable set", p.QType, p.QName, p.Server))
	return out
}

func rrValue(rr dns.RR) string {
	switch v := rr.(type) {
	case *dns.A:
		return v.A.String()
	case *dns.AAAA:
		return v.AAAA.String()
	case *dns.CNAME:
		return v.Target
	case *dns.TXT:
		if len(v.Txt) > 0 {
			return v.Txt[0]
		}
		return ""
	default:
		return rr.String()
	}
}

func withDefaultPort(hostport, defaultPort string) string {
	if _, _, err := net.SplitHostPort(hostport); err == nil {
		return hostport
	}
	return net.JoinHostPort(hostport, defaultPort)
}
