package model

import "fmt"

// ProbeOutcome is what a single probe invocation produces. All three
// maps are keyed by subject; the empty subject is used by probes that
// only ever check one target.
type ProbeOutcome struct {
	Attributes   map[string]Scalar
	Measurements map[string]map[string]Scalar
	Reasons      map[string][]string
}

// NewProbeOutcome returns an outcome with initialized, empty maps.
func NewProbeOutcome() ProbeOutcome {
	return ProbeOutcome{
		Attributes:   map[string]Scalar{},
		Measurements: map[string]map[string]Scalar{},
		Reasons:      map[string][]string{},
	}
}

// AddMeasurement records a metric value under the given subject.
func (o *ProbeOutcome) AddMeasurement(subject, metric string, v Scalar) {
	if o.Measurements == nil {
		o.Measurements = map[string]map[string]Scalar{}
	}
	row, ok := o.Measurements[subject]
	if !ok {
		row = map[string]Scalar{}
		o.Measurements[subject] = row
	}
	row[metric] = v
}

// AddReason appends a failure reason under the given subject.
func (o *ProbeOutcome) AddReason(subject, reason string) {
	if o.Reasons == nil {
		o.Reasons = map[string][]string{}
	}
	o.Reasons[subject] = append(o.Reasons[subject], reason)
}

// Failed reports whether the outcome carries any reason at all.
func (o ProbeOutcome) Failed() bool {
	for _, reasons := range o.Reasons {
		if len(reasons) > 0 {
			return true
		}
	}
	return false
}

// ExceptionOutcome converts a caught panic/error into the one-reason,
// empty-subject outcome shape the runner uses for probes that blow up.
func ExceptionOutcome(err any) ProbeOutcome {
	o := NewProbeOutcome()
	o.AddReason("", fmt.Sprintf("Exception caught: %v", err))
	return o
}
