package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 10, 29, 14, 0, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	got, err := Parse("1h30m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-90*time.Minute), got)

	got, err = Parse("2025-10-29T13:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC), got.UTC())

	_, err = Parse("", now)
	assert.EqualError(t, err, "empty time specification")

	_, err = Parse("yesterday", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time specification: yesterday")
}

func TestParseRange(t *testing.T) {
	from, to, err := ParseRange("2h", "1h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-2*time.Hour), from)
	assert.Equal(t, now.Add(-time.Hour), to)

	from, to, err = ParseRange("", "", now)
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	_, _, err = ParseRange("1h", "2h", now)
	assert.EqualError(t, err, "--since must be before --until")

	_, _, err = ParseRange("bad", "", now)
	assert.ErrorContains(t, err, "invalid --since")

	_, _, err = ParseRange("", "bad", now)
	assert.ErrorContains(t, err, "invalid --until")
}
