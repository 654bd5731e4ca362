package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarConstructors(t *testing.T) {
	tests := []struct {
		name      string
		scalar    Scalar
		wantNil   bool
		wantValue any
		wantStr   string
	}{
		{"nil", NilScalar(), true, nil, ""},
		{"string", StringScalar("disk full"), false, "disk full", "disk full"},
		{"int", IntScalar(42), false, int64(42), "42"},
		{"float", FloatScalar(3.5), false, 3.5, "3.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantNil, tt.scalar.IsNil())
			assert.Equal(t, tt.wantValue, tt.scalar.Value())
			assert.Equal(t, tt.wantStr, tt.scalar.String())
		})
	}
}

func TestScalarMarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		scalar Scalar
		want   string
	}{
		{"nil", NilScalar(), "null"},
		{"string", StringScalar("hi"), `"hi"`},
		{"int", IntScalar(7), "7"},
		{"float", FloatScalar(1.25), "1.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.scalar)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestScalarZeroValueIsNil(t *testing.T) {
	var s Scalar
	assert.True(t, s.IsNil())
	assert.Nil(t, s.Value())
}
