package utils

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAdmin(t *testing.T) {
	t.Parallel()

	admins := []string{"a1", "a2"}
	assert.True(t, IsAdmin([]string{"x", "a2"}, admins))
	assert.False(t, IsAdmin([]string{"x", "y"}, admins))
	assert.False(t, IsAdmin([]string{"a1"}, nil), "empty admin list locks everyone out")
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("boom")))

	serverErr := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusBadGateway}}
	assert.True(t, IsTransient(serverErr))

	notFound := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	assert.False(t, IsTransient(notFound))
}

func TestWindowStart(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	start, err := WindowStart("last_day", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-24*time.Hour), start)

	_, err = WindowStart("yesterday", now)
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	ts, err := ParseTimestamp("2025-06-01T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 12, ts.Hour())

	ts, err = ParseTimestamp("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.June, ts.Month())

	_, err = ParseTimestamp("not-a-date")
	assert.Error(t, err)
}

func TestSplitLinesPacksWholeLines(t *testing.T) {
	t.Parallel()

	lines := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}
	chunks := splitLines(strings.Join(lines, "\n"), 90)
	require.Len(t, chunks, 2)
	assert.Equal(t, lines[0]+"\n"+lines[1], chunks[0])
	assert.Equal(t, lines[2], chunks[1])
}

func TestSplitLinesHardCutsOversizedLine(t *testing.T) {
	t.Parallel()

	chunks := splitLines(strings.Repeat("x", 25), 10)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
}
