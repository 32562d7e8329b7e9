package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		freq     Frequency
		interval int
		count    int
		days     []time.Weekday
		monthDay int
	}{
		{
			name:     "weekly with days",
			input:    "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=6",
			freq:     Weekly,
			interval: 2,
			count:    6,
			days:     []time.Weekday{time.Monday, time.Wednesday},
		},
		{
			name:     "empty string falls back to weekly",
			input:    "",
			freq:     Weekly,
			interval: 1,
		},
		{
			name:     "unknown frequency falls back to weekly",
			input:    "FREQ=HOURLY;COUNT=3",
			freq:     Weekly,
			interval: 1,
			count:    3,
		},
		{
			name:     "non-numeric interval and count",
			input:    "FREQ=DAILY;INTERVAL=abc;COUNT=x",
			freq:     Daily,
			interval: 1,
		},
		{
			name:     "zero and negative values",
			input:    "FREQ=DAILY;INTERVAL=0;COUNT=-4",
			freq:     Daily,
			interval: 1,
		},
		{
			name:     "huge interval is clamped",
			input:    "FREQ=WEEKLY;BYDAY=MO,TU;INTERVAL=9223372036854775807;COUNT=3",
			freq:     Weekly,
			interval: MaxInterval,
			count:    3,
			days:     []time.Weekday{time.Monday, time.Tuesday},
		},
		{
			name:     "lowercase keys and days, unknown tokens dropped",
			input:    "rrule:freq=weekly;byday=fr,xx,mo,fr",
			freq:     Weekly,
			interval: 1,
			days:     []time.Weekday{time.Friday, time.Monday},
		},
		{
			name:     "monthly with month day",
			input:    "FREQ=MONTHLY;BYMONTHDAY=15;COUNT=4",
			freq:     Monthly,
			interval: 1,
			count:    4,
			monthDay: 15,
		},
		{
			name:     "out of range month day ignored",
			input:    "FREQ=MONTHLY;BYMONTHDAY=40",
			freq:     Monthly,
			interval: 1,
		},
		{
			name:     "garbage segments ignored",
			input:    "FREQ=YEARLY;;=;INTERVAL;COUNT=2",
			freq:     Yearly,
			interval: 1,
			count:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Parse(tt.input)
			assert.Equal(t, tt.freq, r.Freq)
			assert.Equal(t, tt.interval, r.Interval)
			assert.Equal(t, tt.count, r.Count)
			assert.Equal(t, tt.days, r.ByDays)
			assert.Equal(t, tt.monthDay, r.ByMonthDay)
		})
	}
}

func TestParse_Until(t *testing.T) {
	dateOnly := Parse("FREQ=DAILY;UNTIL=20240110")
	require.NotNil(t, dateOnly.Until)
	assert.Equal(t, time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC), *dateOnly.Until)

	instant := Parse("FREQ=DAILY;UNTIL=20240110T235959Z")
	require.NotNil(t, instant.Until)
	assert.True(t, dateOnly.Until.Equal(*instant.Until), "both layouts should resolve to the same instant")

	morning := Parse("FREQ=DAILY;UNTIL=20240110T090000Z")
	require.NotNil(t, morning.Until)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), *morning.Until)

	bad := Parse("FREQ=DAILY;UNTIL=tomorrow")
	assert.Nil(t, bad.Until)
	assert.False(t, bad.Bounded())
}

func TestRule_String(t *testing.T) {
	r := Parse("byday=we,mo;freq=weekly;count=6;interval=2")
	assert.Equal(t, "FREQ=WEEKLY;INTERVAL=2;BYDAY=WE,MO;COUNT=6", r.String())

	withUntil := Parse("FREQ=MONTHLY;BYMONTHDAY=3;UNTIL=20241231")
	assert.Equal(t, "FREQ=MONTHLY;INTERVAL=1;BYMONTHDAY=3;UNTIL=20241231T235959Z", withUntil.String())

	assert.True(t, Equal("FREQ=WEEKLY;BYDAY=MO", "freq=weekly;interval=1;byday=mo"))
	assert.False(t, Equal("FREQ=WEEKLY;BYDAY=MO", "FREQ=WEEKLY;BYDAY=TU"))
}

func TestRule_Matches(t *testing.T) {
	monday := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	r := Parse("FREQ=WEEKLY;BYDAY=MO,WE,FR")
	assert.True(t, r.Matches(monday))
	assert.False(t, r.Matches(tuesday))

	assert.True(t, Parse("FREQ=WEEKLY").Matches(tuesday))
	assert.True(t, Parse("FREQ=DAILY;BYDAY=MO").Matches(tuesday))
}

func TestRule_ShiftDays(t *testing.T) {
	r := Parse("FREQ=WEEKLY;BYDAY=MO,SA;COUNT=4")

	assert.Equal(t, "FREQ=WEEKLY;INTERVAL=1;BYDAY=TU,SU;COUNT=4", r.ShiftDays(1).String())
	assert.Equal(t, "FREQ=WEEKLY;INTERVAL=1;BYDAY=SA,TH;COUNT=4", r.ShiftDays(-2).String())
	assert.Equal(t, r.String(), r.ShiftDays(14).String())
	assert.Equal(t, []time.Weekday{time.Monday, time.Saturday}, r.ByDays, "receiver is unchanged")

	daily := Parse("FREQ=DAILY;COUNT=3")
	assert.Equal(t, daily.String(), daily.ShiftDays(3).String())
}

func TestDayCode(t *testing.T) {
	assert.Equal(t, "SU", DayCode(time.Sunday))
	assert.Equal(t, "SA", DayCode(time.Saturday))
}
