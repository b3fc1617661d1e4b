package bot

import (
	"fmt"
	"log"

	"verify-bot/model"

	"github.com/bwmarrin/discordgo"
)

// EnsureSusRole resolves the marker role (stored id, then name, else create)
// and reconciles the channel overwrites: the role is denied ViewChannel
// everywhere except the verify and holding channels, where it may view and
// send.
func (b *Bot) EnsureSusRole() error {
	roles, err := b.Session.GuildRoles(b.Cfg.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list guild roles: %w", err)
	}

	st := b.Store.Settings()
	var role *discordgo.Role
	for _, r := range roles {
		if st.SusRoleID != "" && r.ID == st.SusRoleID {
			role = r
			break
		}
	}
	if role == nil {
		for _, r := range roles {
			if r.Name == b.Cfg.SusRoleName {
				role = r
				break
			}
		}
	}
	if role == nil {
		perms := int64(0)
		role, err = b.Session.GuildRoleCreate(b.Cfg.GuildID, &discordgo.RoleParams{
			Name:        b.Cfg.SusRoleName,
			Permissions: &perms,
		})
		if err != nil {
			return fmt.Errorf("failed to create marker role: %w", err)
		}
		log.Printf("Created marker role %q (%s)", role.Name, role.ID)
	}

	if st.SusRoleID != role.ID {
		if err := b.Store.Update(func(g *model.GuildSettings) { g.SusRoleID = role.ID }); err != nil {
			return fmt.Errorf("failed to persist marker role id: %w", err)
		}
	}

	channels, err := b.Session.GuildChannels(b.Cfg.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list guild channels: %w", err)
	}
	allowed := map[string]bool{
		b.Cfg.VerifyChannelID:  true,
		b.Cfg.SusChatChannelID: true,
	}
	for _, ch := range channels {
		var allow, deny int64
		if allowed[ch.ID] {
			allow = discordgo.PermissionViewChannel
			if ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews {
				allow |= discordgo.PermissionSendMessages
			}
		} else {
			deny = discordgo.PermissionViewChannel
		}
		if err := b.Session.ChannelPermissionSet(ch.ID, role.ID, discordgo.PermissionOverwriteTypeRole, allow, deny); err != nil {
			log.Printf("Could not set overwrite on channel %s: %v", ch.ID, err)
		}
	}
	return nil
}
