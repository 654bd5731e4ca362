package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProbeOutcomeInitialized(t *testing.T) {
	o := NewProbeOutcome()
	assert.NotNil(t, o.Attributes)
	assert.NotNil(t, o.Measurements)
	assert.NotNil(t, o.Reasons)
	assert.False(t, o.Failed())
}

func TestAddMeasurement(t *testing.T) {
	o := NewProbeOutcome()
	o.AddMeasurement("ipv4", "msec", FloatScalar(12.5))
	o.AddMeasurement("ipv4", "http-code", IntScalar(200))
	o.AddMeasurement("ipv6", "msec", FloatScalar(9.1))

	assert.Equal(t, FloatScalar(12.5), o.Measurements["ipv4"]["msec"])
	assert.Equal(t, IntScalar(200), o.Measurements["ipv4"]["http-code"])
	assert.Equal(t, FloatScalar(9.1), o.Measurements["ipv6"]["msec"])
}

func TestAddMeasurementOnZeroValue(t *testing.T) {
	var o ProbeOutcome
	o.AddMeasurement("", "rc", IntScalar(0))
	assert.Equal(t, IntScalar(0), o.Measurements[""]["rc"])
}

func TestAddReasonAndFailed(t *testing.T) {
	o := NewProbeOutcome()
	assert.False(t, o.Failed())

	o.AddReason("example.com", "timeout")
	assert.True(t, o.Failed())
	assert.Equal(t, []string{"timeout"}, o.Reasons["example.com"])

	o.AddReason("example.com", "connection refused")
	assert.Equal(t, []string{"timeout", "connection refused"}, o.Reasons["example.com"])
}

func TestAddReasonOnZeroValue(t *testing.T) {
	var o ProbeOutcome
	o.AddReason("", "boom")
	assert.True(t, o.Failed())
}

func TestExceptionOutcome(t *testing.T) {
	o := ExceptionOutcome("disk on fire")
	assert.True(t, o.Failed())
	require := o.Reasons[""]
	assert.Len(t, require, 1)
	assert.Contains(t, require[0], "disk on fire")
	assert.Contains(t, require[0], "Exception caught")
}
