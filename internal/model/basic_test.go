package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	for _, tc := range []struct {
		in       string
		scale    int
		expected Price
	}{
		{"10.01", 2, 1001},
		{"10", 2, 1000},
		{"0.01", 2, 1},
		{"0.00", 2, 0},
		{"-9.99", 2, -999},
		{"10.019", 2, 1001},   // truncates beyond scale
		{"30000.01", 2, 3000001},
		{"100.10", 0, 100},
	} {
		got, err := ParsePrice(tc.in, tc.scale)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.expected, got, tc.in)
	}
}

func TestParsePriceMalformed(t *testing.T) {
	for _, in := range []string{"", "-", "+", ".", "1.2.3", "1a", "abc"} {
		_, err := ParsePrice(in, 2)
		assert.Error(t, err, in)
	}
}

func TestParsePriceOverflow(t *testing.T) {
	// int64 max is 9223372036854775807
	for _, tc := range []struct {
		in    string
		scale int
	}{
		{"9223372036854775808", 0},
		{"99999999999999999999999999", 0},
		{"92233720368547758.08", 2}, // overflows once scaled
		{"9223372036854775807", 2},
	} {
		_, err := ParsePrice(tc.in, tc.scale)
		assert.Error(t, err, tc.in)
	}

	got, err := ParsePrice("9223372036854775807", 0)
	require.NoError(t, err)
	assert.Equal(t, Price(9223372036854775807), got)
}

func TestPriceString(t *testing.T) {
	assert.Equal(t, "10.01", Price(1001).String(2))
	assert.Equal(t, "0.01", Price(1).String(2))
	assert.Equal(t, "-9.99", Price(-999).String(2))
	assert.Equal(t, "1001", Price(1001).String(0))
	assert.Equal(t, "0.0001", Price(1).String(4))
}

func TestQuantityRoundTrip(t *testing.T) {
	for _, s := range []string{"0.60000000", "1.50000000", "0.00000001"} {
		q, err := ParseQuantity(s, 8)
		require.NoError(t, err)
		assert.Equal(t, s, q.String(8))
	}
}
