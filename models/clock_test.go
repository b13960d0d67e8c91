package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "10:00", want: 600},
		{in: "00:05", want: 5},
		{in: "23:59:00", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "10h", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockTimeAddAndFormat(t *testing.T) {
	start, err := ParseClockTime("10:00")
	require.NoError(t, err)

	end := start.Add(60)
	assert.Equal(t, "11:00", end.String())
	assert.True(t, end.Valid())
	assert.False(t, ClockTime(23*60+30).Add(60).Valid())

	on := end.On(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC), on)
}

func TestClockTimeJSONAndScan(t *testing.T) {
	b, err := json.Marshal(ClockTime(9*60 + 30))
	require.NoError(t, err)
	assert.JSONEq(t, `"09:30"`, string(b))

	var c ClockTime
	require.NoError(t, json.Unmarshal([]byte(`"14:15"`), &c))
	assert.Equal(t, ClockTime(14*60+15), c)

	require.NoError(t, c.Scan([]byte("08:00")))
	assert.Equal(t, ClockTime(480), c)
	assert.Error(t, c.Scan(42))
}
