package handlers

import (
	"fmt"
	"log"

	"verify-bot/bot"
	"verify-bot/challenge"
	"verify-bot/model"
	"verify-bot/restrict"
	"verify-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// modalLabelLimit is the platform's cap on text input labels.
const modalLabelLimit = 45

// HandleVerifyButton runs when a member clicks Verify on the persistent
// prompt. Button-only configurations unrestrict on the spot; otherwise a
// private challenge is issued.
func HandleVerifyButton(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Could not defer verify response: %v", err)
		return
	}

	st := b.Store.Settings()
	userID := i.Member.User.ID

	member, err := s.GuildMember(b.Cfg.GuildID, userID)
	if err != nil {
		utils.EditResponse(s, i.Interaction, "Could not fetch your member record.")
		return
	}
	if st.SusRoleID == "" || !restrict.HasMarkerRole(member, st.SusRoleID) {
		utils.EditResponse(s, i.Interaction, "You are not marked for verification.")
		return
	}

	if st.ButtonOnly() {
		b.Restrictor.Unrestrict(member, b.Presence.Platforms(userID), "", "Verified via instant button")
		utils.EditResponse(s, i.Interaction, "You have been verified. ✅")
		return
	}

	kinds := st.ChallengeMethods()
	if len(kinds) == 0 {
		utils.EditResponse(s, i.Interaction, "No verification methods are enabled; contact an admin.")
		return
	}

	ch, err := b.Challenges.Issue(i.GuildID, userID, kinds)
	if err != nil {
		utils.EditResponse(s, i.Interaction, "Could not create a challenge. Please try again.")
		return
	}

	var prompt string
	switch ch.Kind {
	case model.MethodWord:
		prompt = fmt.Sprintf("🔒 **Private challenge** - Type this exact word (private): **%s**", ch.Answer)
	default:
		prompt = fmt.Sprintf("🔒 **Private challenge** - Solve this math problem (private): **%s**", ch.Prompt)
	}
	prompt += "\n\nClick **Submit Answer** to open the secure answer dialog. Your answer will be private and visible only to you."

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Submit Answer",
					Style:    discordgo.PrimaryButton,
					CustomID: "open_verify_modal",
				},
			},
		},
	}
	utils.EditResponseComplex(s, i.Interaction, &discordgo.WebhookEdit{
		Content:    &prompt,
		Components: &components,
	})
}

// HandleOpenVerifyModal shows the answer modal. No defer here; the modal must
// be the interaction's first response.
func HandleOpenVerifyModal(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	ch, ok := b.Challenges.Get(i.GuildID, i.Member.User.ID)
	if !ok {
		utils.SendEphemeralResponse(s, i, "No active challenge found or it expired. Click Verify again to start a new one.")
		return
	}

	label := "Solve: " + ch.Prompt
	if ch.Kind == model.MethodWord {
		label = "Type this exact word: " + ch.Answer
	}
	if len(label) > modalLabelLimit {
		label = label[:modalLabelLimit-3] + "..."
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "verify_modal",
			Title:    "Enter your answer (private)",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "verify_answer",
							Label:       label,
							Style:       discordgo.TextInputShort,
							Placeholder: "Type your answer here",
							Required:    true,
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Printf("Could not open verify modal: %v", err)
	}
}

// HandleVerifyModalSubmit validates the typed answer.
func HandleVerifyModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Could not defer modal response: %v", err)
		return
	}

	answer := extractModalAnswer(i.ModalSubmitData())
	userID := i.Member.User.ID

	switch b.Challenges.Validate(i.GuildID, userID, answer) {
	case challenge.ResultExpired:
		utils.EditResponse(s, i.Interaction, "No active challenge found or it expired. Click Verify again to start a new challenge.")
	case challenge.ResultMismatch:
		utils.EditResponse(s, i.Interaction, "❌ Incorrect answer. Click Verify again to try another challenge.")
	case challenge.ResultOK:
		member, err := s.GuildMember(b.Cfg.GuildID, userID)
		if err != nil {
			utils.EditResponse(s, i.Interaction, "Member not found in guild.")
			return
		}
		st := b.Store.Settings()
		if st.SusRoleID == "" || !restrict.HasMarkerRole(member, st.SusRoleID) {
			utils.EditResponse(s, i.Interaction, "You are not currently marked Sus or are already verified.")
			return
		}
		b.Restrictor.Unrestrict(member, b.Presence.Platforms(userID), "", "Verified via challenge")
		utils.EditResponse(s, i.Interaction, "✅ Correct - you are verified and can now access the server.")
	}
}

func extractModalAnswer(data discordgo.ModalSubmitInteractionData) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range actionsRow.Components {
			if input, ok := c.(*discordgo.TextInput); ok && input.CustomID == "verify_answer" {
				return input.Value
			}
		}
	}
	return ""
}
