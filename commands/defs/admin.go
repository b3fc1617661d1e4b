package defs

import "github.com/bwmarrin/discordgo"

var SetLog = &discordgo.ApplicationCommand{
	Name:        "setlog",
	Description: "Set the channel where verification & sus logs should be sent.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "channel",
			Description: "Select a text channel to use as the logs channel",
			Required:    true,
			ChannelTypes: []discordgo.ChannelType{
				discordgo.ChannelTypeGuildText,
			},
		},
	},
}

var AutoScan = &discordgo.ApplicationCommand{
	Name:        "autoscan",
	Description: "Enable or disable automatic daily scanning.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "action",
			Description: "on or off",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "on", Value: "on"},
				{Name: "off", Value: "off"},
			},
		},
	},
}

var SetupVerify = &discordgo.ApplicationCommand{
	Name:        "setupverify",
	Description: "Interactive setup for verification flow. Run this in your configured verify channel.",
}

var Status = &discordgo.ApplicationCommand{
	Name:        "status",
	Description: "Display bot and system status information",
}
