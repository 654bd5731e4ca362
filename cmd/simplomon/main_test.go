package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berthubert/go-simplomon/pkg/config"
	"github.com/berthubert/go-simplomon/pkg/probe"
)

func TestParamsStr(t *testing.T) {
	p := params{"server": "1.2.3.4"}
	assert.Equal(t, "1.2.3.4", p.str("server"))
	assert.Equal(t, "", p.str("missing"))
}

func TestParamsBoolean(t *testing.T) {
	p := params{"rd": true}
	assert.True(t, p.boolean("rd"))
	assert.False(t, p.boolean("missing"))
}

func TestParamsIntegerAcrossYAMLDecodeTypes(t *testing.T) {
	assert.Equal(t, 5, params{"n": 5}.integer("n"))
	assert.Equal(t, 5, params{"n": int64(5)}.integer("n"))
	assert.Equal(t, 5, params{"n": float64(5)}.integer("n"))
	assert.Equal(t, 7, params{}.integerOr("n", 7))
}

func TestParamsFloat(t *testing.T) {
	assert.Equal(t, 1.5, params{"f": 1.5}.float("f"))
	assert.Equal(t, 2.0, params{"f": 2}.float("f"))
	assert.Equal(t, 9.0, params{}.floatOr("f", 9))
}

func TestParamsDuration(t *testing.T) {
	p := params{"timeout": "5s"}
	assert.Equal(t, 5*time.Second, p.duration("timeout"))
	assert.Equal(t, time.Duration(0), params{}.duration("missing"))
	assert.Equal(t, time.Duration(0), params{"timeout": "not-a-duration"}.duration("timeout"))
}

func TestParamsStrs(t *testing.T) {
	p := params{"servers": []interface{}{"a", "b"}}
	assert.Equal(t, []string{"a", "b"}, p.strs("servers"))
	assert.Nil(t, params{}.strs("missing"))
}

func TestParamsInts(t *testing.T) {
	p := params{"ports": []interface{}{80, 443}}
	assert.Equal(t, []int{80, 443}, p.ints("ports"))
}

func TestBuildProbeDNS(t *testing.T) {
	pc := config.ProbeConfig{Kind: "dns", Params: map[string]interface{}{
		"server": "1.1.1.1", "qname": "example.com", "qtype": "A", "rd": true,
	}}
	p, err := buildProbe(pc)
	require.NoError(t, err)
	assert.Equal(t, "dns", p.Kind())
}

func TestBuildProbeHTTPSWithRegexAndOverrides(t *testing.T) {
	pc := config.ProbeConfig{Kind: "https", Params: map[string]interface{}{
		"url": "https://example.com/", "minBytes": 100, "minCertDays": 30, "regex": "^OK$",
	}}
	p, err := buildProbe(pc)
	require.NoError(t, err)
	https, ok := p.(*probe.HTTPSProbe)
	require.True(t, ok)
	assert.Equal(t, 100, https.MinBytes)
	assert.Equal(t, 30, https.MinCertDays)
	require.NotNil(t, https.Regex)
}

func TestBuildProbeHTTPSInvalidRegex(t *testing.T) {
	pc := config.ProbeConfig{Kind: "https", Params: map[string]interface{}{
		"url": "https://example.com/", "regex": "(unterminated",
	}}
	_, err := buildProbe(pc)
	assert.Error(t, err)
}

func TestBuildProbeUnknownKind(t *testing.T) {
	_, err := buildProbe(config.ProbeConfig{Kind: "smoke-signal"})
	assert.Error(t, err)
}

func TestBuildPrometheusProbeWithChecks(t *testing.T) {
	pc := config.ProbeConfig{Kind: "prometheus", Params: map[string]interface{}{
		"url": "http://host:9100/metrics",
		"checks": []interface{}{
			map[string]interface{}{"kind": "DiskFree", "mountpoint": "/", "gbMin": 5.0},
			map[string]interface{}{"kind": "AptPending", "maxSec": 0, "maxTot": 10},
		},
	}}
	p, err := buildProbe(pc)
	require.NoError(t, err)
	promProbe, ok := p.(*probe.PrometheusProbe)
	require.True(t, ok)
	assert.Len(t, promProbe.Checks, 2)
}

func TestBuildPrometheusProbeUnknownCheckKind(t *testing.T) {
	pc := config.ProbeConfig{Kind: "prometheus", Params: map[string]interface{}{
		"url": "http://host/metrics",
		"checks": []interface{}{
			map[string]interface{}{"kind": "Bogus"},
		},
	}}
	_, err := buildProbe(pc)
	assert.Error(t, err)
}

func TestBuildTransportUnknownKind(t *testing.T) {
	_, err := buildTransport(config.NotifierConfig{ID: "x", Kind: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestBuildTransportKnownKinds(t *testing.T) {
	for _, kind := range []string{"pushover", "ntfy", "telegram", "email"} {
		tr, err := buildTransport(config.NotifierConfig{Kind: kind, Params: map[string]string{}})
		require.NoError(t, err, kind)
		assert.NotEmpty(t, tr.Name())
	}
}
