package probe

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// HTTPRedirProbe checks that fromUrl redirects to toUrl, per spec §6's
// httpredir kind. Grounded on the teacher's executeHTTPProbe, stripped
// down to the redirect-only check.
type HTTPRedirProbe struct {
	FromURL string
	ToURL   string
	Timeout time.Duration
}

func NewHTTPRedirProbe(fromURL, toURL string) *HTTPRedirProbe {
	return &HTTPRedirProbe{FromURL: fromURL, ToURL: toURL, Timeout: 10 * time.Second}
}

func (p *HTTPRedirProbe) Kind() string { return "httpredir" }

func (p *HTTPRedirProbe) Description() string {
	return fmt.Sprintf("%s should redirect to %s", p.FromURL, p.ToURL)
}

func (p *HTTPRedirProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{
		"fromUrl": model.StringScalar(p.FromURL),
		"toUrl":   model.StringScalar(p.ToURL),
	}
}

func (p *HTTPRedirProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()

	client := &http.Client{
		Timeout: p.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(p.FromURL)
	if err != nil {
		out.AddReason("", fmt.Sprintf("request to %s failed: %v", p.FromURL, err))
		return out
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		out.AddReason("", fmt.Sprintf("%s returned status %d, not a redirect", p.FromURL, resp.StatusCode))
		return out
	}

	location := resp.Header.Get("Location")
	if location != p.ToURL {
		out.AddReason("", fmt.Sprintf("%s redirected to %q, wanted %q", p.FromURL, location, p.ToURL))
	}
	return out
}
