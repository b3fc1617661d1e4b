// Package restrict owns the restricted/unrestricted lifecycle of members.
// The external marker role is the single source of truth; every mutation is
// funneled through the rate-limited action queue.
package restrict

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"verify-bot/model"
	"verify-bot/queue"

	"github.com/bwmarrin/discordgo"
)

// Platform is the narrow slice of the Discord API the manager mutates.
type Platform interface {
	AddMemberRole(guildID, userID, roleID string) error
	RemoveMemberRole(guildID, userID, roleID string) error
	SendMessage(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	DeleteMessage(channelID, messageID string) error
}

// Audit receives the manager's audit trail entries.
type Audit interface {
	Info(module, operation, extraInfo string)
	Error(module, operation, extraInfo string)
}

// Manager applies and lifts restrictions idempotently with respect to the
// external role state.
type Manager struct {
	guildID         string
	verifyChannelID string
	api             Platform
	audit           Audit
	queue           *queue.ActionQueue
	settings        func() *model.GuildSettings

	mu      sync.Mutex
	records map[string]*model.RestrictionRecord
}

// NewManager wires a restriction manager. settings is read per operation so
// admin changes take effect without a restart.
func NewManager(guildID, verifyChannelID string, api Platform, audit Audit, q *queue.ActionQueue, settings func() *model.GuildSettings) *Manager {
	return &Manager{
		guildID:         guildID,
		verifyChannelID: verifyChannelID,
		api:             api,
		audit:           audit,
		queue:           q,
		settings:        settings,
		records:         make(map[string]*model.RestrictionRecord),
	}
}

// HasMarkerRole reports whether the member currently carries the marker role.
func HasMarkerRole(member *discordgo.Member, roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, r := range member.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// Restrict marks the member as restricted. If the marker role is already
// present no platform call is made, but an audit record is still emitted:
// redundant triggers are part of the trail. On success a self-expiring
// mention is posted in the verify channel.
func (m *Manager) Restrict(member *discordgo.Member, platforms []string, reason string) {
	st := m.settings()
	roleID := st.SusRoleID
	if roleID == "" {
		return
	}

	if HasMarkerRole(member, roleID) {
		m.audit.Info("Restrict", "AlreadyRestricted", FormatUserBlock(member, platforms))
		return
	}

	userID := member.User.ID
	m.queue.Enqueue("restrict "+userID, func() error {
		if err := m.api.AddMemberRole(m.guildID, userID, roleID); err != nil {
			return fmt.Errorf("add marker role to %s: %w", userID, err)
		}
		m.recordTransition(userID, true, reason)
		m.audit.Info("Restrict", "RoleAdded", fmt.Sprintf("%s\nReason: %s", FormatUserBlock(member, platforms), reason))
		m.sendExpiringMention(userID)
		return nil
	})
}

// Unrestrict lifts the restriction. A member without the marker role is a
// silent no-op: no platform call, no audit record. actor is the acting
// admin's mention, or empty for system-initiated removals.
func (m *Manager) Unrestrict(member *discordgo.Member, platforms []string, actor, reason string) {
	st := m.settings()
	roleID := st.SusRoleID
	if roleID == "" {
		return
	}

	if !HasMarkerRole(member, roleID) {
		return
	}

	if actor == "" {
		actor = "system"
	}
	userID := member.User.ID
	m.queue.Enqueue("unrestrict "+userID, func() error {
		if err := m.api.RemoveMemberRole(m.guildID, userID, roleID); err != nil {
			return fmt.Errorf("remove marker role from %s: %w", userID, err)
		}
		m.recordTransition(userID, false, reason)
		m.audit.Info("Unrestrict", "RoleRemoved",
			fmt.Sprintf("%s\nAction: %s by %s", FormatUserBlock(member, platforms), reason, actor))
		return nil
	})
}

// Status returns the last transition recorded for the member this session.
func (m *Manager) Status(memberID string) (model.RestrictionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[memberID]
	if !ok {
		return model.RestrictionRecord{}, false
	}
	return *rec, true
}

func (m *Manager) recordTransition(memberID string, restricted bool, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[memberID] = &model.RestrictionRecord{
		MemberID:         memberID,
		IsRestricted:     restricted,
		Reason:           reason,
		LastTransitionAt: time.Now(),
	}
}

// sendExpiringMention posts the one-shot verification nudge and schedules
// its deletion. A non-positive TTL disables the mention entirely.
func (m *Manager) sendExpiringMention(userID string) {
	ttl := m.settings().PeriodicMentionDeleteSeconds
	if ttl <= 0 {
		return
	}

	msg, err := m.api.SendMessage(m.verifyChannelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s> Please complete verification to regain access. Click **Verify** below.", userID),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users: []string{userID},
		},
	})
	if err != nil {
		m.audit.Error("Restrict", "MentionFailed", fmt.Sprintf("Could not mention <@%s>: %v", userID, err))
		return
	}

	channelID := m.verifyChannelID
	time.AfterFunc(time.Duration(ttl)*time.Second, func() {
		// Best effort: the message may already be gone.
		_ = m.api.DeleteMessage(channelID, msg.ID)
	})
}

// FormatUserBlock renders the multi-line member block used in audit entries.
func FormatUserBlock(member *discordgo.Member, platforms []string) string {
	pf := "offline"
	if len(platforms) > 0 {
		pf = strings.Join(platforms, ", ")
	}
	return strings.Join([]string{
		"User: " + MemberTag(member),
		"Server Nickname: " + DisplayName(member),
		"ID: " + member.User.ID,
		"Mention: <@" + member.User.ID + ">",
		"Platform(s): " + pf,
	}, "\n")
}

// MemberTag renders the username, with the legacy discriminator when present.
func MemberTag(member *discordgo.Member) string {
	u := member.User
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// DisplayName prefers the server nickname, then the global display name.
func DisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
