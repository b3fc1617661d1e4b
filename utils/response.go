package utils

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// SendEphemeralResponse sends an ephemeral text reply to an interaction.
func SendEphemeralResponse(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error sending ephemeral response: %v", err)
	}
}

// SendComplexEphemeral sends an ephemeral reply with embeds or components.
func SendComplexEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	data.Flags = discordgo.MessageFlagsEphemeral
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Printf("Error sending interaction response: %v", err)
	}
}

// DeferResponse defers an interaction response, optionally making it ephemeral.
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		response.Data = &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		}
	}
	return s.InteractionRespond(i.Interaction, response)
}

// EditResponse edits the original (usually deferred) interaction response.
func EditResponse(s *discordgo.Session, i *discordgo.Interaction, message string) {
	_, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content: &message,
	})
	if err != nil {
		log.Printf("Error editing interaction response: %v", err)
	}
}

// EditResponseComplex edits the original response with embeds or components.
func EditResponseComplex(s *discordgo.Session, i *discordgo.Interaction, edit *discordgo.WebhookEdit) {
	_, err := s.InteractionResponseEdit(i, edit)
	if err != nil {
		log.Printf("Error editing interaction response: %v", err)
	}
}

// FollowUpEphemeral sends an ephemeral follow-up after the initial response.
func FollowUpEphemeral(s *discordgo.Session, i *discordgo.Interaction, message string) {
	_, err := s.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: message,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Printf("Error sending follow-up message: %v", err)
	}
}
