package probe

import (
	"fmt"
	"time"

	"github.com/miekg/dns"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// DNSSOAProbe checks that every authoritative server for a domain
// returns the same SOA serial, grounded on
// original_source/simplomon.hh's DNSSOAChecker.
type DNSSOAProbe struct {
	Domain  string
	Servers []string
	Timeout time.Duration
}

func NewDNSSOAProbe(domain string, servers []string) *DNSSOAProbe {
	return &DNSSOAProbe{Domain: dns.Fqdn(domain), Servers: servers, Timeout: 5 * time.Second}
}

func (p *DNSSOAProbe) Kind() string        { return "dnssoa" }
func (p *DNSSOAProbe) Description() string { return fmt.Sprintf("SOA consistency for %s", p.Domain) }

func (p *DNSSOAProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{"domain": model.StringScalar(p.Domain)}
}

func (p *DNSSOAProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()
	client := &dns.Client{Timeout: p.Timeout}

	var firstSerial uint32
	haveFirst := false

	for _, server := range p.Servers {
		addr := withDefaultPort(server, "53")
		m := new(dns.Msg)
		m.SetQuestion(p.Domain, dns.TypeSOA)

		resp, _, err := client.Exchange(m, addr)
		if err != nil {
			out.AddReason(server, fmt.Sprintf("SOA query to %s failed: %v", addr, err))
			continue
		}
		if resp.Rcode != dns.RcodeSuccess || len(resp.Answer) == 0 {
			out.AddReason(server, fmt.Sprintf("no SOA answer from %s", addr))
			continue
		}
		soa, ok := resp.Answer[0].(*dns.SOA)
		if !ok {
			out.AddReason(server, fmt.Sprintf("non-SOA answer from %s", addr))
			continue
		}
		out.AddMeasurement(server, "serial", model.IntScalar(int64(soa.Serial)))

		if !haveFirst {
			firstSerial = soa.Serial
			haveFirst = true
			continue
		}
		if soa.Serial != firstSerial {
			out.AddReason(server, fmt.Sprintf("serial %d from %s disagrees with %d from the first responding server", soa.Serial, addr, firstSerial))
		}
	}
	return out
}
