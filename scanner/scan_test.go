package scanner_test

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"verify-bot/scanner"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(id string, joined time.Time) *discordgo.Member {
	return &discordgo.Member{
		User:     &discordgo.User{ID: id, Username: "user-" + id},
		JoinedAt: joined,
	}
}

func webOnly(platforms []string) bool {
	return len(platforms) == 1 && platforms[0] == "web"
}

func TestSweepListsAllMembersAndSuspectsFilters(t *testing.T) {
	t.Parallel()

	now := time.Now()
	botMember := member("b1", now)
	botMember.User.Bot = true

	platforms := map[string][]string{
		"u1": {"web"},
		"u2": {"web", "desktop"},
		"u3": {"desktop"},
		"u4": {"web"},
		"b1": {"web"},
	}
	lookup := func(id string) []string { return platforms[id] }

	rows := scanner.Sweep(
		[]*discordgo.Member{
			member("u1", now), member("u2", now), member("u3", now),
			member("u4", now), member("u5", now), botMember,
		},
		lookup, scanner.Filter{},
	)

	require.Len(t, rows, 5, "every non-bot member is listed")
	assert.Equal(t, "u1", rows[0].UserID)
	assert.Empty(t, rows[4].Platforms, "offline member has no platforms")

	suspects := scanner.Suspects(rows, webOnly)
	require.Len(t, suspects, 2)
	assert.Equal(t, "u1", suspects[0].UserID)
	assert.Equal(t, "u4", suspects[1].UserID, "input order is preserved")
	assert.Equal(t, []string{"web"}, suspects[0].Platforms)
}

func TestSweepJoinWindowBounds(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lookup := func(string) []string { return []string{"web"} }
	filter := scanner.Filter{Start: base, End: base.Add(time.Hour)}

	rows := scanner.Sweep([]*discordgo.Member{
		member("before", base.Add(-time.Second)),
		member("at-start", base),
		member("inside", base.Add(30*time.Minute)),
		member("at-end", base.Add(time.Hour)),
		member("after", base.Add(time.Hour+time.Second)),
		member("unknown-join", time.Time{}),
	}, lookup, filter)

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	assert.Equal(t, []string{"at-start", "inside", "at-end"}, ids)
}

func TestSweepOpenEndedFilter(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lookup := func(string) []string { return []string{"web"} }

	rows := scanner.Sweep([]*discordgo.Member{
		member("old", base.Add(-48*time.Hour)),
		member("new", base),
	}, lookup, scanner.Filter{Start: base.Add(-time.Hour)})

	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].UserID)
}

func TestFormatRow(t *testing.T) {
	t.Parallel()

	row := scanner.MemberRow{
		UserID:      "42",
		Tag:         "alice",
		DisplayName: "Alice",
		Platforms:   []string{"web"},
	}
	assert.Equal(t, "alice | Alice | 42 | <@42> | web", scanner.FormatRow(row))
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	joined := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []scanner.MemberRow{
		{UserID: "1", Tag: "a", DisplayName: `quote "me"`, Platforms: []string{"web"}, JoinedAt: joined},
		{UserID: "2", Tag: "b", DisplayName: "plain", Platforms: []string{"web", "mobile"}},
	}

	path, err := scanner.WriteCSV(dir, rows, joined)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"userId", "tag", "displayName", "platforms", "joinedAt"}, records[0])
	assert.Equal(t, []string{"1", "a", `quote "me"`, "web", "2025-06-01T12:00:00Z"}, records[1])
	assert.Equal(t, []string{"2", "b", "plain", "web|mobile", ""}, records[2])
}
