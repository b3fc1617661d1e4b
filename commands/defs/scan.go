package defs

import "github.com/bwmarrin/discordgo"

var Scan = &discordgo.ApplicationCommand{
	Name:        "scan",
	Description: "Scan members for platform usage. Optionally restrict them as Sus after confirmation.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "member",
			Description: "Check one member only",
			Required:    false,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duration",
			Description: "Quick filter by join time (last_hour|last_day|last_week|last_month)",
			Required:    false,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "last_hour", Value: "last_hour"},
				{Name: "last_day", Value: "last_day"},
				{Name: "last_week", Value: "last_week"},
				{Name: "last_month", Value: "last_month"},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "start",
			Description: "Start ISO timestamp (e.g. 2025-11-01T00:00:00Z)",
			Required:    false,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "end",
			Description: "End ISO timestamp (e.g. 2025-11-03T00:00:00Z)",
			Required:    false,
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "apply_sus",
			Description: "If true, after showing results ask whether to mark suspected users Sus",
			Required:    false,
		},
	},
}

var VerifyUser = &discordgo.ApplicationCommand{
	Name:        "verifyuser",
	Description: "Manually verify (remove Sus role) from a user.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "member",
			Description: "Member to verify",
			Required:    true,
		},
	},
}
