package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{"proportion", 0.30103, "0.301030"},
		{"small difference", -0.00103, "-0.001030"},
		{"zero", 0, "0.000000"},
		{"rounds past six places", 0.1234567, "0.123457"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFloat(tt.input))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{"integer value", 120, "120"},
		{"fraction keeps precision", 0.0032, "0.0032"},
		{"negative", -45.5, "-45.5"},
		{"zero", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNumber(tt.input))
		})
	}
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", formatInt(0))
	assert.Equal(t, "42", formatInt(42))
	assert.Equal(t, "-7", formatInt(-7))
}
