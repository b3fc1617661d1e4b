// Package notifier re-announces outstanding restricted members on a schedule,
// packing their mentions into size-bounded, self-deleting messages.
package notifier

import (
	"fmt"
	"time"

	"verify-bot/model"
	"verify-bot/restrict"

	"github.com/bwmarrin/discordgo"
)

// MessageBudget is the character budget for one packed mention message,
// leaving headroom under the platform's 2000-character limit for the suffix.
const MessageBudget = 1900

const reminderSuffix = " Please complete verification to regain access. Click **Verify** below."

// Channel is the messaging surface the notifier needs.
type Channel interface {
	SendMessage(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	DeleteMessage(channelID, messageID string) error
}

// Audit receives the run summaries.
type Audit interface {
	Info(module, operation, extraInfo string)
	Error(module, operation, extraInfo string)
}

// FetchMembers resolves the full guild membership with presence data.
type FetchMembers func() ([]*discordgo.Member, error)

// Notifier is the scheduled reminder job.
type Notifier struct {
	verifyChannelID string
	api             Channel
	audit           Audit
	fetch           FetchMembers
	settings        func() *model.GuildSettings

	// sleep is swapped in tests to avoid real pacing delays.
	sleep func(time.Duration)
}

// New wires a notifier.
func New(verifyChannelID string, api Channel, audit Audit, fetch FetchMembers, settings func() *model.GuildSettings) *Notifier {
	return &Notifier{
		verifyChannelID: verifyChannelID,
		api:             api,
		audit:           audit,
		fetch:           fetch,
		settings:        settings,
		sleep:           time.Sleep,
	}
}

// Run executes one notifier pass. It is a no-op when disabled, when the
// marker role is unresolved, or when nobody is restricted.
func (n *Notifier) Run() {
	st := n.settings()
	if !st.PeriodicNotifyEnabled || st.SusRoleID == "" {
		return
	}

	members, err := n.fetch()
	if err != nil {
		n.audit.Error("Notifier", "FetchFailed", fmt.Sprintf("Could not fetch members: %v", err))
		return
	}

	var suspects []string
	for _, m := range members {
		if m.User == nil || m.User.Bot {
			continue
		}
		if restrict.HasMarkerRole(m, st.SusRoleID) {
			suspects = append(suspects, m.User.ID)
		}
	}
	if len(suspects) == 0 {
		return
	}

	limit := st.PeriodicNotifyMaxPerRun
	if limit <= 0 {
		limit = len(suspects)
	}
	n.audit.Info("Notifier", "RunStarted",
		fmt.Sprintf("Found %d restricted member(s). Will mention up to %d this run.", len(suspects), limit))

	if len(suspects) > limit {
		suspects = suspects[:limit]
	}

	messages := PackMentions(suspects, MessageBudget)
	ttl := time.Duration(st.PeriodicMentionDeleteSeconds) * time.Second
	pace := time.Duration(st.PeriodicNotifyPaceMs) * time.Millisecond

	for i, body := range messages {
		if i > 0 && pace > 0 {
			n.sleep(pace)
		}
		msg, err := n.api.SendMessage(n.verifyChannelID, &discordgo.MessageSend{
			Content: body + reminderSuffix,
		})
		if err != nil {
			n.audit.Error("Notifier", "SendFailed", fmt.Sprintf("Reminder message failed: %v", err))
			continue
		}
		if ttl > 0 {
			channelID := n.verifyChannelID
			messageID := msg.ID
			time.AfterFunc(ttl, func() {
				_ = n.api.DeleteMessage(channelID, messageID)
			})
		}
	}

	n.audit.Info("Notifier", "RunFinished",
		fmt.Sprintf("Queued %d mention(s) in %d message(s).", len(suspects), len(messages)))
}

// PackMentions greedily packs member mentions into the minimum number of
// space-joined messages that each stay within budget. Input order is kept.
func PackMentions(userIDs []string, budget int) []string {
	var messages []string
	current := ""
	for _, id := range userIDs {
		mention := "<@" + id + ">"
		next := mention
		if current != "" {
			next = current + " " + mention
		}
		if len(next) > budget && current != "" {
			messages = append(messages, current)
			current = mention
		} else {
			current = next
		}
	}
	if current != "" {
		messages = append(messages, current)
	}
	return messages
}
