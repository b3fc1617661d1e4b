package handlers

import (
	"fmt"
	"log"
	"strings"

	"verify-bot/bot"
	"verify-bot/model"
	"verify-bot/restrict"
	"verify-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// HandleSetupVerifyCommand starts the interactive wizard from the slash
// command.
func HandleSetupVerifyCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if !isAdmin(i, b) {
		utils.SendEphemeralResponse(s, i, "Only configured admins can run setup.")
		return
	}
	if i.ChannelID != b.Cfg.VerifyChannelID {
		utils.SendEphemeralResponse(s, i,
			fmt.Sprintf("Run setup inside the configured verify channel (ID %s).", b.Cfg.VerifyChannelID))
		return
	}
	utils.SendEphemeralResponse(s, i, "Opening interactive setup in the verify channel...")
	startWizard(s, i.Member, b)
}

// HandleInitSetup starts the wizard from the admin prompt button.
func HandleInitSetup(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if !isAdmin(i, b) {
		utils.SendEphemeralResponse(s, i, "You are not allowed to configure verification.")
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Printf("Could not acknowledge init_setup: %v", err)
	}
	startWizard(s, i.Member, b)
}

func startWizard(s *discordgo.Session, invoker *discordgo.Member, b *bot.Bot) {
	msg, err := s.ChannelMessageSendComplex(b.Cfg.VerifyChannelID, &discordgo.MessageSend{
		Content:    restrict.MemberTag(invoker) + ", choose verification method(s) to enable.",
		Components: wizardComponents(),
	})
	if err != nil {
		log.Printf("Could not post setup wizard: %v", err)
		return
	}
	b.Setup.Start(b.Cfg.VerifyChannelID, invoker.User.ID, msg.ID)
}

func wizardComponents() []discordgo.MessageComponent {
	minValues := 1
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    "setup_select_methods",
					Placeholder: "Select verification methods (multi-select)",
					MinValues:   &minValues,
					MaxValues:   3,
					Options: []discordgo.SelectMenuOption{
						{Label: "Quick Verify Button", Value: model.MethodButton, Description: "One-click verify (fast, low security)"},
						{Label: "Per-user typed word", Value: model.MethodWord, Description: "User types the generated word (via modal)"},
						{Label: "Math problem", Value: model.MethodMath, Description: "User solves a short math problem (via modal)"},
					},
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Confirm", Style: discordgo.SuccessButton, CustomID: "setup_confirm"},
				discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: "setup_cancel"},
			},
		},
	}
}

// HandleSetupComponent routes wizard selects and buttons to the owning
// session. Events from anyone but the owner, or for a dead session, are
// dropped without a response.
func HandleSetupComponent(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	sess, ok := b.Setup.Route(i.ChannelID, i.Member.User.ID)
	if !ok {
		return
	}

	switch i.MessageComponentData().CustomID {
	case "setup_select_methods":
		values := i.MessageComponentData().Values
		if err := b.Setup.Select(sess, values); err != nil {
			utils.SendEphemeralResponse(s, i, err.Error())
			return
		}
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    "Selected: " + strings.Join(values, ", ") + ". Click Confirm to apply.",
				Components: wizardComponents(),
			},
		})
		if err != nil {
			log.Printf("Could not update wizard message: %v", err)
		}

	case "setup_confirm":
		methods, err := b.Setup.Confirm(sess)
		if err != nil {
			utils.SendEphemeralResponse(s, i, "Please choose at least one method before confirming.")
			return
		}
		utils.SendEphemeralResponse(s, i, "Applying settings...")
		applyWizardResult(s, i, b, sess.MessageID, methods)

	case "setup_cancel":
		b.Setup.Cancel(sess)
		utils.SendEphemeralResponse(s, i, "Setup cancelled.")
		deleteWizardMessage(s, b, sess.MessageID)
	}
}

func applyWizardResult(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, wizardMessageID string, methods []string) {
	err := b.Store.Update(func(g *model.GuildSettings) {
		g.VerificationMethods = methods
		g.VerifyMessageID = ""
		g.AdminPromptMessageID = ""
	})
	if err != nil {
		log.Printf("Could not persist method selection: %v", err)
	}

	b.ClearVerifyChannel()
	if err := b.EnsureSusRole(); err != nil {
		log.Printf("Could not reconcile marker role during setup: %v", err)
	}
	if err := b.PostPersistentPrompt(); err != nil {
		log.Printf("Could not post verify prompt during setup: %v", err)
	}
	deleteWizardMessage(s, b, wizardMessageID)

	utils.FollowUpEphemeral(s, i.Interaction,
		"Verification configured and previous bot messages removed. New persistent verify message created.")
}

func deleteWizardMessage(s *discordgo.Session, b *bot.Bot, messageID string) {
	if messageID == "" {
		return
	}
	if err := s.ChannelMessageDelete(b.Cfg.VerifyChannelID, messageID); err != nil {
		log.Printf("Could not delete wizard message: %v", err)
	}
}
