package odometer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseReading(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12345", 12345, true},
		{" 12345 km\n", 12345, true},
		{"12345.6", 12345.6, true},
		{"0", 0, false},
		{"", 0, false},
		{"I cannot see it", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseReading(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNewWithoutKeyIsNone(t *testing.T) {
	r := New(context.Background(), "", "", zap.NewNop())
	km, ok := r(context.Background(), []byte{0xff})
	assert.False(t, ok)
	assert.Zero(t, km)
}
