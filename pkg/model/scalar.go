// Package model holds the data types shared by the probe, filter,
// correlator, and notifier-dispatch stages: the scalar measurement
// value, a probe's per-cycle outcome, and the alert key/display-string
// shapes the rest of the engine keys off of.
package model

import "encoding/json"

// Scalar is a measurement value: a string, an int64, a float64, or nil.
// Probes populate these directly; the sink marshals them for storage.
type Scalar struct {
	str   string
	i64   int64
	f64   float64
	kind  scalarKind
}

type scalarKind int

const (
	scalarNil scalarKind = iota
	scalarString
	scalarInt
	scalarFloat
)

func NilScalar() Scalar              { return Scalar{kind: scalarNil} }
func StringScalar(s string) Scalar   { return Scalar{kind: scalarString, str: s} }
func IntScalar(i int64) Scalar       { return Scalar{kind: scalarInt, i64: i} }
func FloatScalar(f float64) Scalar   { return Scalar{kind: scalarFloat, f64: f} }

func (s Scalar) IsNil() bool { return s.kind == scalarNil }

// Value returns the scalar as an any, matching the type it was built with.
func (s Scalar) Value() any {
	switch s.kind {
	case scalarString:
		return s.str
	case scalarInt:
		return s.i64
	case scalarFloat:
		return s.f64
	default:
		return nil
	}
}

func (s Scalar) String() string {
	switch s.kind {
	case scalarString:
		return s.str
	case scalarInt:
		return jsonNumber(s.i64)
	case scalarFloat:
		return jsonNumber(s.f64)
	default:
		return ""
	}
}

func jsonNumber(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case scalarString:
		return json.Marshal(s.str)
	case scalarInt:
		return json.Marshal(s.i64)
	case scalarFloat:
		return json.Marshal(s.f64)
	default:
		return json.Marshal(nil)
	}
}
