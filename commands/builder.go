package commands

import (
	"verify-bot/commands/defs"

	"github.com/bwmarrin/discordgo"
)

// All returns the full per-guild command set in registration order.
func All() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		defs.Scan,
		defs.VerifyUser,
		defs.SetLog,
		defs.AutoScan,
		defs.SetupVerify,
		defs.Status,
	}
}
