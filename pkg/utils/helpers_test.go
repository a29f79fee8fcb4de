package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandInputPath(t *testing.T) {
	date := time.Date(2023, 8, 28, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "/data/consumption_20230828.csv", ExpandInputPath("/data/consumption_{date}.csv", date))
	assert.Equal(t, "/data/fixed.csv", ExpandInputPath("/data/fixed.csv", date))
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{in: "42", want: 42, wantOK: true},
		{in: " 7 ", want: 7, wantOK: true},
		{in: "-3", want: -3, wantOK: true},
		{in: "1,234", want: 1234, wantOK: true},
		{in: "1,234,567", want: 1234567, wantOK: true},
		{in: "-1,200.0", want: -1200, wantOK: true},
		{in: "1,2"},
		{in: "12,34"},
		{in: ",100"},
		{in: "1,000,00"},
		{in: "9223372036854775807", want: 9223372036854775807, wantOK: true},
		{in: "9223372036854775808.0"},
		{in: "-9223372036854775808.0", want: -9223372036854775808, wantOK: true},
		{in: "12.0", want: 12, wantOK: true},
		{in: "12.5"},
		{in: ""},
		{in: "n/a"},
		{in: "NaN"},
		{in: "Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseInt(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseLogicalTime(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	got, err := ParseLogicalTime("", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = ParseLogicalTime("2023-08-28", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 8, 28, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseLogicalTime("2023-08-28T11:50:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 8, 28, 11, 50, 0, 0, time.UTC), got)

	_, err = ParseLogicalTime("yesterday", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid logical time")
}
