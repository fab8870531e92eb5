package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"01/15/2024", day(2024, 1, 15)},
		{"1/5/2024", day(2024, 1, 5)},
		{"2024-01-15", day(2024, 1, 15)},
		{"2024-01-15 13:45:00", day(2024, 1, 15)},
		{"20240115", day(2024, 1, 15)},
		{"15-Jan-2024", day(2024, 1, 15)},
		{"45306", day(2024, 1, 15)},
		{"45306.75", day(2024, 1, 15)},
		{" 01/15/2024 ", day(2024, 1, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := Parse("")
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = Parse("not a date")
	assert.Error(t, err)
	_, err = Parse("-4")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(time.Time{}))
	assert.Equal(t, "03/05/2024", Format(day(2024, 3, 5)))
	assert.Equal(t, "3/05/2024", FormatLayout(day(2024, 3, 5), AlignmentLayout))
	assert.Equal(t, "01/15/2024", Reformat("2024-01-15"))
	assert.Equal(t, "", Reformat("garbage"))
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"mid month", day(2024, 1, 15), 1, day(2024, 2, 15)},
		{"leap clamp", day(2024, 1, 31), 1, day(2024, 2, 29)},
		{"non-leap clamp", day(2023, 1, 31), 1, day(2023, 2, 28)},
		{"year rollover", day(2024, 12, 31), 1, day(2025, 1, 31)},
		{"thirty day month", day(2024, 3, 31), 1, day(2024, 4, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(AddMonths(tt.in, tt.n)))
		})
	}
	assert.True(t, AddMonths(time.Time{}, 1).IsZero())
}

func TestLater(t *testing.T) {
	a, b := day(2024, 1, 1), day(2024, 2, 1)
	assert.Equal(t, b, Later(a, b))
	assert.Equal(t, b, Later(b, a))
	assert.Equal(t, a, Later(a, time.Time{}))
	assert.Equal(t, a, Later(time.Time{}, a))
	assert.True(t, Later(time.Time{}, time.Time{}).IsZero())
}

func TestSentinels(t *testing.T) {
	for _, v := range []string{"", " ", "0", "NaT", "nan", "None", "00/00/0000", "1970-01-01", "01/01/1970", "25569"} {
		assert.True(t, IsSentinel(v), v)
		assert.Equal(t, "", Valid(v), v)
	}
	assert.False(t, IsSentinel("01/15/2024"))
	assert.Equal(t, "01/15/2024", Valid("2024-01-15"))
	assert.Equal(t, "", Valid("garbage"))
}
