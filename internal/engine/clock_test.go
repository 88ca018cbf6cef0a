package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDate(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		day  time.Weekday
		want string
	}{
		{"wednesday rolls forward", time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC), time.Saturday, "2024-05-04"},
		{"saturday is today", time.Date(2024, 5, 4, 23, 59, 0, 0, time.UTC), time.Saturday, "2024-05-04"},
		{"sunday goes to next week", time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), time.Saturday, "2024-05-11"},
		{"other attendance day", time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC), time.Sunday, "2024-05-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(nil, WithClock(FixedClock(tt.now)), WithAttendanceDay(tt.day))
			assert.Equal(t, tt.want, e.DefaultDate().Format("2006-01-02"))
			assert.Equal(t, tt.day, e.AttendanceDay())
		})
	}
}

func TestSystemClock(t *testing.T) {
	before := time.Now()
	got := SystemClock{}.Now()
	require.False(t, got.Before(before))
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("s-1", "s-2")
	assert.Equal(t, "s-1", gen.Generate())
	assert.Equal(t, "s-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}
