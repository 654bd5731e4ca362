package probe

import (
	"fmt"
	"time"

	"github.com/miekg/dns"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// RRSIGProbe checks DNSSEC signature freshness: every RRSIG in the
// response must have at least minDays left before expiry. Grounded on
// original_source/simplomon.hh's RRSIGChecker.
type RRSIGProbe struct {
	Server  string
	QName   string
	QType   string // defaults to SOA
	MinDays int    // defaults to 7
	Timeout time.Duration
}

func NewRRSIGProbe(server, qname, qtype string, minDays int) *RRSIGProbe {
	if qtype == "" {
		qtype = "SOA"
	}
	if minDays <= 0 {
		minDays = 7
	}
	return &RRSIGProbe{
		Server:  withDefaultPort(server, "53"),
		QName:   dns.Fqdn(qname),
		QType:   qtype,
		MinDays: minDays,
		Timeout: 5 * time.Second,
	}
}

func (p *RRSIGProbe) Kind() string { return "rrsig" }

func (p *RRSIGProbe) Description() string {
	return fmt.Sprintf("RRSIG freshness for %s %s on %s", p.QType, p.QName, p.Server)
}

func (p *RRSIGProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{
		"server": model.StringScalar(p.Server),
		"qname":  model.StringScalar(p.QName),
		"qtype":  model.StringScalar(p.QType),
	}
}

func (p *RRSIGProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()

	qtype, ok := dns.StringToType[p.QType]
	if !ok {
		out.AddReason("", fmt.Sprintf("unsupported qtype %q", p.QType))
		return out
	}

	m := new(dns.Msg)
	m.SetQuestion(p.QName, qtype)
	m.SetEdns0(4096, true) // DO bit, request DNSSEC records

	client := &dns.Client{Timeout: p.Timeout}
	resp, _, err := client.Exchange(m, p.Server)
	if err != nil {
		out.AddReason("", fmt.Sprintf("query to %s failed: %v", p.Server, err))
		return out
	}

	var sigs []*dns.RRSIG
	for _, rr := range resp.Answer {
		if sig, ok := rr.(*dns.RRSIG); ok {
			sigs = append(sigs, sig)
		}
	}
	if len(sigs) == 0 {
		out.AddReason("", fmt.Sprintf("no RRSIG records returned for %s %s from %s", p.QType, p.QName, p.Server))
		return out
	}

	now := time.Now()
	minDaysLeft := -1
	for _, sig := range sigs {
		expiry := rrsigExpiry(sig, now)
		daysLeft := int(expiry.Sub(now).Hours() / 24)
		if minDaysLeft == -1 || daysLeft < minDaysLeft {
			minDaysLeft = daysLeft
		}
	}
	out.AddMeasurement("", "minDaysLeft", model.IntScalar(int64(minDaysLeft)))

	if minDaysLeft < p.MinDays {
		out.AddReason("", fmt.Sprintf("RRSIG for %s %s expires in %d days, below the minimum of %d", p.QType, p.QName, minDaysLeft, p.MinDays))
	}
	return out
}

// rrsigExpiry converts the RRSIG's 32-bit serial-arithmetic expiration
// field to an absolute time relative to now, the way miekg/dns's own
// (*RRSIG).ValidityPeriod does internally.
func rrsigExpiry(sig *dns.RRSIG, now time.Time) time.Time {
	const year68 = 1 << 31
	utc := now.UTC().Unix()
	mod := (int64(sig.Expiration) - utc) / year68
	return time.Unix(int64(sig.Expiration)+mod*year68, 0)
}
