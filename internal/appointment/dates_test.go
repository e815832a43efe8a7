package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameDay(t *testing.T) {
	utcMidnight := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	west := time.FixedZone("PST", -8*3600)

	assert.True(t, SameDay(utcMidnight, time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)))
	assert.True(t, SameDay(utcMidnight, time.Date(2024, 3, 10, 9, 0, 0, 0, west)))
	assert.False(t, SameDay(utcMidnight, time.Date(2024, 3, 9, 23, 0, 0, 0, west)))
	assert.False(t, SameDay(time.Time{}, time.Time{}))
}

func TestToday(t *testing.T) {
	now := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, day(2024, 3, 10), Today(now, time.UTC))
	assert.Equal(t, day(2024, 3, 9), Today(now, time.FixedZone("EST", -5*3600)))
	assert.Equal(t, day(2024, 3, 10), Today(now, nil))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-03-10", day(2024, 3, 10)},
		{" 2024-03-10 ", day(2024, 3, 10)},
		{"2024-03-10T00:00:00-05:00", day(2024, 3, 10)},
		{"2024-03-10T23:30:00+09:00", day(2024, 3, 10)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := ParseDate("10/03/2024")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	d := day(2024, 3, 10)
	var zero time.Time

	assert.Equal(t, "2024-03-10", FormatDate(&d))
	assert.Equal(t, DateFallback, FormatDate(nil))
	assert.Equal(t, DateFallback, FormatDate(&zero))

	assert.Equal(t, "2024-03-10", FormatDateString("2024-03-10T08:00:00Z"))
	assert.Equal(t, DateFallback, FormatDateString(""))
	assert.Equal(t, DateFallback, FormatDateString("not a date"))
}
