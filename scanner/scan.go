// Package scanner finds web-only members in the managed guild, either one at
// a time or in bulk sweeps bounded by join time.
package scanner

import (
	"fmt"
	"strings"
	"time"

	"verify-bot/restrict"

	"github.com/bwmarrin/discordgo"
)

// MemberRow is one suspect produced by a sweep.
type MemberRow struct {
	UserID      string
	Tag         string
	DisplayName string
	Platforms   []string
	JoinedAt    time.Time
}

// Filter bounds a sweep by join time. A zero value leaves that side open.
type Filter struct {
	Start time.Time
	End   time.Time
}

func (f Filter) bounded() bool {
	return !f.Start.IsZero() || !f.End.IsZero()
}

// matches reports whether a join time falls inside the filter. The lower
// bound is inclusive; only strictly later joins fall off the upper bound.
func (f Filter) matches(joined time.Time) bool {
	if !f.Start.IsZero() && joined.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && joined.After(f.End) {
		return false
	}
	return true
}

// PlatformsFunc resolves the live client platforms of a member.
type PlatformsFunc func(userID string) []string

// WebOnlyFunc decides whether a platform set counts as web-only.
type WebOnlyFunc func(platforms []string) bool

// Sweep reports every non-bot member inside the join window with their live
// platforms. Input order is preserved. Members without a known join time are
// skipped when the sweep is bounded, since they cannot be placed in the
// window.
func Sweep(members []*discordgo.Member, platforms PlatformsFunc, filter Filter) []MemberRow {
	var rows []MemberRow
	for _, m := range members {
		if m.User == nil || m.User.Bot {
			continue
		}
		if filter.bounded() {
			if m.JoinedAt.IsZero() || !filter.matches(m.JoinedAt) {
				continue
			}
		}
		rows = append(rows, MemberRow{
			UserID:      m.User.ID,
			Tag:         restrict.MemberTag(m),
			DisplayName: restrict.DisplayName(m),
			Platforms:   platforms(m.User.ID),
			JoinedAt:    m.JoinedAt,
		})
	}
	return rows
}

// Suspects narrows sweep rows down to the ones whose platform set is
// web-only.
func Suspects(rows []MemberRow, webOnly WebOnlyFunc) []MemberRow {
	var out []MemberRow
	for _, r := range rows {
		if webOnly(r.Platforms) {
			out = append(out, r)
		}
	}
	return out
}

// Row builds the single-member inspection row.
func Row(m *discordgo.Member, platforms PlatformsFunc) MemberRow {
	return MemberRow{
		UserID:      m.User.ID,
		Tag:         restrict.MemberTag(m),
		DisplayName: restrict.DisplayName(m),
		Platforms:   platforms(m.User.ID),
		JoinedAt:    m.JoinedAt,
	}
}

// FormatRow renders one suspect line for inline reports.
func FormatRow(r MemberRow) string {
	return fmt.Sprintf("%s | %s | %s | <@%s> | %s",
		r.Tag, r.DisplayName, r.UserID, r.UserID, strings.Join(r.Platforms, ", "))
}
