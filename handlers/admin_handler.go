package handlers

import (
	"fmt"

	"verify-bot/bot"
	"verify-bot/model"
	"verify-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// HandleSetLogCommand repoints the audit channel.
func HandleSetLogCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if !isAdmin(i, b) {
		utils.SendEphemeralResponse(s, i, "Only configured admins can run this command.")
		return
	}

	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		utils.SendEphemeralResponse(s, i, "Please provide a valid text channel.")
		return
	}
	ch := opts[0].ChannelValue(s)
	if ch == nil || ch.Type != discordgo.ChannelTypeGuildText {
		utils.SendEphemeralResponse(s, i, "Please provide a valid text channel.")
		return
	}

	if err := b.Store.Update(func(g *model.GuildSettings) { g.LogChannelID = ch.ID }); err != nil {
		utils.SendEphemeralResponse(s, i, "Could not save the log channel.")
		return
	}
	utils.SendEphemeralResponse(s, i, fmt.Sprintf("Log channel set to <#%s>", ch.ID))
}

// HandleAutoScanCommand toggles the daily sweep.
func HandleAutoScanCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if !isAdmin(i, b) {
		utils.SendEphemeralResponse(s, i, "Only configured admins can run this command.")
		return
	}

	enabled := false
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "action" {
			enabled = opt.StringValue() == "on"
		}
	}
	if err := b.Store.Update(func(g *model.GuildSettings) { g.AutoscanEnabled = enabled }); err != nil {
		utils.SendEphemeralResponse(s, i, "Could not save the autoscan setting.")
		return
	}
	state := "DISABLED"
	if enabled {
		state = "ENABLED"
	}
	utils.SendEphemeralResponse(s, i, "Auto-scan is now "+state+".")
}

// HandleVerifyUserCommand lifts a restriction manually.
func HandleVerifyUserCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if !isAdmin(i, b) {
		utils.SendEphemeralResponse(s, i, "Only configured admins can run this command.")
		return
	}

	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		utils.SendEphemeralResponse(s, i, "Member not found.")
		return
	}
	target := opts[0].UserValue(s)
	member, err := s.GuildMember(b.Cfg.GuildID, target.ID)
	if err != nil {
		utils.SendEphemeralResponse(s, i, "Member not found.")
		return
	}

	b.Restrictor.Unrestrict(member, b.Presence.Platforms(target.ID),
		"<@"+i.Member.User.ID+">", "Manual verify via command")
	utils.SendEphemeralResponse(s, i,
		fmt.Sprintf("Removed Sus role (if present) from <@%s>. Logged to the log channel.", member.User.ID))
}
