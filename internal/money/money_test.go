package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := map[string]string{
		"₱1,250.50":     "1250.5",
		"PHP 10,000":    "10000",
		"$7.00":         "7",
		" 42 ":          "42",
		"-":             "0",
		"":              "0",
		"n/a":           "0",
		"1,000,000.125": "1000000.125",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Clean(in))
		})
	}
}

func TestPositive(t *testing.T) {
	assert.True(t, Positive("0.01"))
	assert.True(t, Positive("₱1"))
	assert.False(t, Positive("0"))
	assert.False(t, Positive("0.00"))
	assert.False(t, Positive(""))
	assert.False(t, Positive("abc"))
}
