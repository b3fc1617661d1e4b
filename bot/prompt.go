package bot

import (
	"fmt"
	"log"
	"strings"
	"time"

	"verify-bot/model"
	"verify-bot/utils"

	"github.com/bwmarrin/discordgo"
)

const (
	// clearPageSize and clearMaxPages bound the verify-channel cleanup so a
	// busy channel cannot stall startup indefinitely.
	clearPageSize  = 100
	clearMaxPages  = 5
	clearPauseTime = 120 * time.Millisecond
)

// BuildVerifyPromptText renders the persistent prompt body for the enabled
// method set.
func BuildVerifyPromptText(methods []string) string {
	return strings.Join([]string{
		"**Server Verification** - click **Verify** below to begin",
		"",
		"You were placed into verification. Don't worry, verifying will restore access if this was a mistake.",
		"",
		"Please click **Verify** in this channel and follow the private instructions to regain access.",
		"",
		"Methods enabled: " + strings.Join(methods, ", "),
	}, "\n")
}

// VerifyButtonRow is the component row attached to the persistent prompt.
func VerifyButtonRow() discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Verify",
				Style:    discordgo.PrimaryButton,
				CustomID: "verify_button",
			},
		},
	}
}

// PostPersistentPrompt sends a fresh prompt into the verify channel and
// persists its message id.
func (b *Bot) PostPersistentPrompt() error {
	st := b.Store.Settings()
	var msg *discordgo.Message
	err := utils.WithRetries(func() error {
		var sendErr error
		msg, sendErr = b.Session.ChannelMessageSendComplex(b.Cfg.VerifyChannelID, &discordgo.MessageSend{
			Content:    BuildVerifyPromptText(st.VerificationMethods),
			Components: []discordgo.MessageComponent{VerifyButtonRow()},
		})
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("failed to post verify prompt: %w", err)
	}
	return b.Store.Update(func(g *model.GuildSettings) { g.VerifyMessageID = msg.ID })
}

// ClearVerifyChannel deletes this bot's own messages from the verify channel,
// newest first, paging backwards. Other authors' messages are left alone.
func (b *Bot) ClearVerifyChannel() {
	if b.Session.State == nil || b.Session.State.User == nil {
		return
	}
	botID := b.Session.State.User.ID

	beforeID := ""
	for page := 0; page < clearMaxPages; page++ {
		messages, err := b.Session.ChannelMessages(b.Cfg.VerifyChannelID, clearPageSize, beforeID, "", "")
		if err != nil {
			log.Printf("Error fetching verify channel messages: %v", err)
			return
		}
		if len(messages) == 0 {
			return
		}
		for _, msg := range messages {
			if msg.Author == nil || msg.Author.ID != botID {
				continue
			}
			if err := b.Session.ChannelMessageDelete(b.Cfg.VerifyChannelID, msg.ID); err != nil {
				log.Printf("Could not delete message %s: %v", msg.ID, err)
			}
			time.Sleep(clearPauseTime)
		}
		beforeID = messages[len(messages)-1].ID
		if len(messages) < clearPageSize {
			return
		}
	}
}

// SendAdminSetupPrompt posts the configure-me message mentioning the admin
// roles, with the button that starts the wizard.
func (b *Bot) SendAdminSetupPrompt() {
	var mentions []string
	for _, rid := range b.Cfg.AdminRoleIDs {
		mentions = append(mentions, "<@&"+rid+">")
	}
	mentionText := ""
	if len(mentions) > 0 {
		mentionText = strings.Join(mentions, " ") + " "
	}

	var msg *discordgo.Message
	err := utils.WithRetries(func() error {
		var sendErr error
		msg, sendErr = b.Session.ChannelMessageSendComplex(b.Cfg.VerifyChannelID, &discordgo.MessageSend{
			Content: mentionText + "Please configure verification for this server. Click **Configure Verification** or run `/setupverify` in this channel.",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    "Configure Verification",
							Style:    discordgo.PrimaryButton,
							CustomID: "init_setup",
						},
					},
				},
			},
			AllowedMentions: &discordgo.MessageAllowedMentions{Roles: b.Cfg.AdminRoleIDs},
		})
		return sendErr
	})
	if err != nil {
		log.Printf("Could not send admin setup prompt: %v", err)
		return
	}
	if err := b.Store.Update(func(g *model.GuildSettings) { g.AdminPromptMessageID = msg.ID }); err != nil {
		log.Printf("Could not persist admin prompt id: %v", err)
	}
}

// ReconcilePrompt restores the verify channel to its expected state after a
// restart: re-post the prompt if it vanished, refresh its body if the method
// list changed, or ask the admins to configure when nothing is set up yet.
func (b *Bot) ReconcilePrompt() {
	st := b.Store.Settings()
	if st.VerifyMessageID == "" {
		b.SendAdminSetupPrompt()
		return
	}

	existing, err := b.Session.ChannelMessage(b.Cfg.VerifyChannelID, st.VerifyMessageID)
	if err != nil || existing == nil {
		b.ClearVerifyChannel()
		if err := b.PostPersistentPrompt(); err != nil {
			log.Printf("Could not restore verify prompt: %v", err)
		}
		return
	}

	desired := BuildVerifyPromptText(st.VerificationMethods)
	if existing.Content != desired {
		if _, err := b.Session.ChannelMessageEdit(b.Cfg.VerifyChannelID, existing.ID, desired); err != nil {
			log.Printf("Could not refresh verify prompt: %v", err)
		}
	}
}
