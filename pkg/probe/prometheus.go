package probe

import (
	"bufio"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// promSample is one parsed Prometheus text-exposition line, e.g.
// `node_filesystem_avail_bytes{device="...",mountpoint="/"} 8.65e+10`.
type promSample struct {
	labels map[string]string
	value  float64
}

// promSet indexes scraped samples by metric name, grounded on
// original_source/promon.cc's PrometheusParser. No third-party
// Prometheus text parser appears in the pack (client_golang is used
// there only to expose metrics, never to scrape and parse them), so
// this hand-rolls the small subset of the exposition format simplomon
// needs: bare `metric value` and `metric{k="v",...} value` lines,
// skipping comments.
type promSet map[string][]promSample

func parsePromText(body string) promSet {
	set := promSet{}
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, labels, value, ok := parsePromLine(line)
		if !ok {
			continue
		}
		set[name] = append(set[name], promSample{labels: labels, value: value})
	}
	return set
}

func parsePromLine(line string) (name string, labels map[string]string, value float64, ok bool) {
	labels = map[string]string{}

	rest := line
	if brace := strings.IndexByte(rest, '{'); brace >= 0 {
		name = strings.TrimSpace(rest[:brace])
		end := strings.IndexByte(rest, '}')
		if end < brace {
			return "", nil, 0, false
		}
		for _, kv := range strings.Split(rest[brace+1:end], ",") {
			kv = strings.TrimSpace(kv)
			if kv == "" {
				continue
			}
			eq := strings.IndexByte(kv, '=')
			if eq < 0 {
				continue
			}
			key := strings.TrimSpace(kv[:eq])
			val := strings.Trim(strings.TrimSpace(kv[eq+1:]), `"`)
			labels[key] = val
		}
		rest = strings.TrimSpace(rest[end+1:])
	} else {
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return "", nil, 0, false
		}
		name = fields[0]
		rest = fields[1]
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return "", nil, 0, false
	}
	return name, labels, v, true
}

// PromCheck is one threshold evaluated against a scrape, per spec §6's
// prometheus checks[] entries (DiskFree, AptPending, Bandwidth).
type PromCheck interface {
	Run(out model.ProbeOutcome, samples promSet, url string)
}

// PrometheusProbe scrapes a metrics endpoint and runs a list of
// threshold checks against it, per spec §6's prometheus kind.
type PrometheusProbe struct {
	URL     string
	Checks  []PromCheck
	Timeout time.Duration
}

func NewPrometheusProbe(url string, checks ...PromCheck) *PrometheusProbe {
	return &PrometheusProbe{URL: url, Checks: checks, Timeout: 10 * time.Second}
}

func (p *PrometheusProbe) Kind() string        { return "prometheus" }
func (p *PrometheusProbe) Description() string { return fmt.Sprintf("Prometheus thresholds on %s", p.URL) }

func (p *PrometheusProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{"url": model.StringScalar(p.URL)}
}

func (p *PrometheusProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()

	client := &http.Client{Timeout: p.Timeout}
	resp, err := client.Get(p.URL)
	if err != nil {
		out.AddReason("", fmt.Sprintf("scrape of %s failed: %v", p.URL, err))
		return out
	}
	defer resp.Body.Close()

	buf := new(strings.Builder)
	if _, err := buf.ReadFrom(bufio.NewReader(resp.Body)); err != nil {
		out.AddReason("", fmt.Sprintf("could not read body from %s: %v", p.URL, err))
		return out
	}

	samples := parsePromText(buf.String())
	for _, check := range p.Checks {
		check.Run(out, samples, p.URL)
	}
	return out
}

// DiskFreeCheck fails when the free space on a mountpoint, reported by
// node_exporter's node_filesystem_avail_bytes, drops below gbMin.
type DiskFreeCheck struct {
	Mountpoint string
	GBMin      float64
}

func NewDiskFreeCheck(mountpoint string, gbMin float64) *DiskFreeCheck {
	if mountpoint == "" {
		mountpoint = "/"
	}
	if gbMin <= 0 {
		gbMin = 1
	}
	return &DiskFreeCheck{Mountpoint: mountpoint, GBMin: gbMin}
}

func (c *DiskFreeCheck) Run(out model.ProbeOutcome, samples promSet, url string) {
	for _, s := range samples["node_filesystem_avail_bytes"] {
		if s.labels["mountpoint"] != c.Mountpoint {
			continue
		}
		gbFree := s.value / 1e9
		out.AddMeasurement(c.Mountpoint, "gbDiskFree", model.FloatScalar(gbFree))
		if gbFree < c.GBMin {
			out.AddReason(c.Mountpoint, fmt.Sprintf("on %s, mountpoint %s had less than %.0f gb free: %.0f gb", url, c.Mountpoint, c.GBMin, gbFree))
		}
	}
}

// AptPendingCheck fails when too many apt packages (overall or
// security-only) are pending an upgrade, per apt_upgrades_pending.
type AptPendingCheck struct {
	MaxSecurity int // -1 = unchecked
	MaxTotal    int // -1 = unchecked
}

func NewAptPendingCheck(maxSecurity, maxTotal int) *AptPendingCheck {
	return &AptPendingCheck{MaxSecurity: maxSecurity, MaxTotal: maxTotal}
}

func (c *AptPendingCheck) Run(out model.ProbeOutcome, samples promSet, url string) {
	rows, ok := samples["apt_upgrades_pending"]
	if !ok {
		return
	}
	var totalSecurity, total int
	for _, s := range rows {
		n := int(s.value)
		total += n
		if strings.Contains(s.labels["origin"], "security") {
			totalSecurity += n
		}
	}
	out.AddMeasurement("", "aptPendingTotal", model.IntScalar(int64(total)))
	out.AddMeasurement("", "aptPendingSecurity", model.IntScalar(int64(totalSecurity)))

	if (c.MaxSecurity >= 0 && totalSecurity > c.MaxSecurity) || (c.MaxTotal >= 0 && total > c.MaxTotal) {
		out.AddReason("", fmt.Sprintf("there are %d pending security updates, out of %d total pending updates (%s)", totalSecurity, total, url))
	}
}

// BandwidthCheck fails when the interface rate (computed from a
// counter delta between consecutive runs) exceeds maxMbit or falls
// below minMbit. The first run after startup never fails, since there
// is no previous sample to difference against.
type BandwidthCheck struct {
	MinMbit, MaxMbit float64 // -1 = unchecked
	Device           string  // "" = all devices
	Direction        string  // "in", "out", or "both"

	prevBytes float64
	prevTime  time.Time
}

func NewBandwidthCheck(minMbit, maxMbit float64, device, direction string) *BandwidthCheck {
	if direction == "" {
		direction = "both"
	}
	return &BandwidthCheck{MinMbit: minMbit, MaxMbit: maxMbit, Device: device, Direction: direction}
}

func (c *BandwidthCheck) Run(out model.ProbeOutcome, samples promSet, url string) {
	var metrics []string
	if c.Direction == "both" || c.Direction == "out" {
		metrics = append(metrics, "node_network_transmit_bytes_total")
	}
	if c.Direction == "both" || c.Direction == "in" {
		metrics = append(metrics, "node_network_receive_bytes_total")
	}

	var bytes float64
	for _, m := range metrics {
		rows, ok := samples[m]
		if !ok {
			return
		}
		for _, s := range rows {
			if c.Device == "" || s.labels["device"] == c.Device {
				bytes += s.value
			}
		}
	}

	now := time.Now()
	devSuffix := ""
	if c.Device != "" {
		devSuffix = " on dev " + c.Device
	}
	subject := fmt.Sprintf("bandwidth %s%s", c.Direction, devSuffix)

	if !c.prevTime.IsZero() {
		elapsed := now.Sub(c.prevTime).Seconds()
		if elapsed > 0 {
			mbit := ((bytes - c.prevBytes) * 8.0 / elapsed) / 1e6
			out.AddMeasurement(subject, "Mbit", model.FloatScalar(mbit))
			if c.MaxMbit > 0 && mbit > c.MaxMbit {
				out.AddReason(subject, fmt.Sprintf("from %s, bandwidth%s exceeded limit of %.0f Mbit/s (direction %q)", url, devSuffix, c.MaxMbit, c.Direction))
			}
			if c.MinMbit > 0 && mbit < c.MinMbit {
				out.AddReason(subject, fmt.Sprintf("from %s, bandwidth%s lower than limit of %.0f Mbit/s (direction %q)", url, devSuffix, c.MinMbit, c.Direction))
			}
		}
	}
	c.prevBytes = bytes
	c.prevTime = now
}
