package model

import (
	"fmt"
	"time"
)

// AlertKey identifies one (probe, subject, reason) triple. Probe
// identity is an opaque stable id (§9: "an opaque stable id suffices"),
// not a pointer, so the filter can be keyed by value.
type AlertKey struct {
	ProbeID string
	Subject string
	Reason  string
}

// ActiveAlert is one surviving alert from the failure filter for the
// current cycle: the probe identity plus its rendered display string.
type ActiveAlert struct {
	ProbeID string
	Display string
}

// DisplayString renders "<kind>: [<subject>] <reason>" per spec §3.
func DisplayString(kind, subject, reason string) string {
	return fmt.Sprintf("%s: [%s] %s", kind, subject, reason)
}

// FormatAge renders a duration as a short human phrase, e.g. "10 minutes",
// "1 hour 5 minutes", "less than a minute". Used by the notifier minimum-age gate
// to phrase "(<age> already)" / "after <age>, ..." messages.
func FormatAge(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	switch {
	case hours == 0:
		return pluralize(minutes, "minute")
	case minutes == 0:
		return pluralize(hours, "hour")
	default:
		return fmt.Sprintf("%s %s", pluralize(hours, "hour"), pluralize(minutes, "minute"))
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
