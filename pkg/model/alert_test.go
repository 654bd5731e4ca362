package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayString(t *testing.T) {
	got := DisplayString("dns", "example.com", "SOA serial mismatch")
	assert.Equal(t, "dns: [example.com] SOA serial mismatch", got)
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "less than a minute"},
		{"seconds", 45 * time.Second, "less than a minute"},
		{"one minute", time.Minute, "1 minute"},
		{"many minutes", 10 * time.Minute, "10 minutes"},
		{"one hour exact", time.Hour, "1 hour"},
		{"hours no minutes", 2 * time.Hour, "2 hours"},
		{"hour and minute", time.Hour + time.Minute, "1 hour 1 minute"},
		{"hours and minutes", 2*time.Hour + 5*time.Minute, "2 hours 5 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAge(tt.d))
		})
	}
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 minute", pluralize(1, "minute"))
	assert.Equal(t, "0 minutes", pluralize(0, "minute"))
	assert.Equal(t, "2 minutes", pluralize(2, "minute"))
}
