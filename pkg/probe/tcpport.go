package probe

import (
	"fmt"
	"net"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// TCPPortProbe checks whether a set of host:port pairs are open or
// closed, per spec §6's tcpportopen/tcpportclosed kinds. WantOpen
// selects which state is considered success. Grounded on
// pkg/probe/probe.go's executeTCPProbe in the teacher repo.
type TCPPortProbe struct {
	Servers []string
	Ports   []int
	WantOpen bool
	Timeout  time.Duration
}

func NewTCPPortProbe(servers []string, ports []int, wantOpen bool) *TCPPortProbe {
	return &TCPPortProbe{Servers: servers, Ports: ports, WantOpen: wantOpen, Timeout: 5 * time.Second}
}

func (p *TCPPortProbe) Kind() string {
	if p.WantOpen {
		return "tcpportopen"
	}
	return "tcpportclosed"
}

func (p *TCPPortProbe) Description() string {
	return fmt.Sprintf("TCP ports %v on %v should be %s", p.Ports, p.Servers, stateWord(p.WantOpen))
}

func (p *TCPPortProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{"servers": model.StringScalar(fmt.Sprint(p.Servers))}
}

func (p *TCPPortProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()

	for _, server := range p.Servers {
		for _, port := range p.Ports {
			subject := fmt.Sprintf("%s:%d", server, port)
			start := time.Now()
			conn, err := net.DialTimeout("tcp", subject, p.Timeout)
			msec := time.Since(start).Milliseconds()
			out.AddMeasurement(subject, "msec", model.FloatScalar(float64(msec)))

			open := err == nil
			if conn != nil {
				conn.Close()
			}

			if open != p.WantOpen {
				out.AddReason(subject, fmt.Sprintf("port %d on %s was %s, wanted %s", port, server, stateWord(open), stateWord(p.WantOpen)))
			}
		}
	}
	return out
}

func stateWord(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}
