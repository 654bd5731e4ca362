package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// ExternalProbe runs a shell command and checks its exit code and
// output, per spec §6's external kind. Grounded on
// original_source/simplomon.hh's ExternalChecker.
type ExternalProbe struct {
	Cmd     string
	WantRC  int
	Regex   *regexp.Regexp
	Timeout time.Duration
}

func NewExternalProbe(cmd string) *ExternalProbe {
	return &ExternalProbe{Cmd: cmd, Timeout: 30 * time.Second}
}

func (p *ExternalProbe) Kind() string        { return "external" }
func (p *ExternalProbe) Description() string { return fmt.Sprintf("external command: %s", p.Cmd) }

func (p *ExternalProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{"cmd": model.StringScalar(p.Cmd)}
}

func (p *ExternalProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()

	ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", p.Cmd)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	err := cmd.Run()
	rc := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			rc = exitErr.ExitCode()
		} else {
			out.AddReason("", fmt.Sprintf("could not run %q: %v", p.Cmd, err))
			return out
		}
	}

	output := combined.String()
	out.AddMeasurement("", "rc", model.IntScalar(int64(rc)))
	out.AddMeasurement("", "output", model.StringScalar(output))

	if rc != p.WantRC {
		out.AddReason("", fmt.Sprintf("%q exited %d, wanted %d", p.Cmd, rc, p.WantRC))
	}
	if p.Regex != nil && !p.Regex.MatchString(output) {
		out.AddReason("", fmt.Sprintf("output of %q did not match %s", p.Cmd, p.Regex.String()))
	}
	return out
}
