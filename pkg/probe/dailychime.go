package probe

import (
	"fmt"
	"time"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// DailyChimeProbe fires an informational "I am alive" reason once per
// UTC day at utcHour, so an operator's notifier channel proves the
// daemon is still scheduling cycles even when nothing else ever fails.
// Grounded on original_source/simplomon.hh's DailyChime.
type DailyChimeProbe struct {
	Instance string
	UTCHour  int

	lastFired time.Time // zero until the first chime
}

func NewDailyChimeProbe(instance string, utcHour int) *DailyChimeProbe {
	return &DailyChimeProbe{Instance: instance, UTCHour: utcHour}
}

func (p *DailyChimeProbe) Kind() string        { return "dailychime" }
func (p *DailyChimeProbe) Description() string { return fmt.Sprintf("daily chime for %s at %02d:00 UTC", p.Instance, p.UTCHour) }

func (p *DailyChimeProbe) Attributes() map[string]model.Scalar {
	return map[string]model.Scalar{"instance": model.StringScalar(p.Instance)}
}

func (p *DailyChimeProbe) Run() model.ProbeOutcome {
	out := model.NewProbeOutcome()

	now := time.Now().UTC()
	if now.Hour() != p.UTCHour {
		return out
	}
	today := now.Truncate(24 * time.Hour)
	if p.lastFired.Equal(today) {
		return out
	}
	p.lastFired = today

	out.AddReason("", fmt.Sprintf("Your daily chime from %s for %s. This is not an alert.", p.Instance, now.Format("2006-01-02")))
	return out
}
