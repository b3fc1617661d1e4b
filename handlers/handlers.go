package handlers

import (
	"log"
	"strings"
	"time"

	"verify-bot/bot"
	"verify-bot/presence"
	"verify-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// joinGrace is how long to wait after a member joins before reading their
// presence; the gateway needs a moment to deliver the first presence update.
const joinGrace = 2 * time.Second

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)
	addHandlers(b)
}

func commandHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"scan": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleScanCommand(s, i, b)
		},
		"verifyuser": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleVerifyUserCommand(s, i, b)
		},
		"setlog": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleSetLogCommand(s, i, b)
		},
		"autoscan": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleAutoScanCommand(s, i, b)
		},
		"setupverify": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleSetupVerifyCommand(s, i, b)
		},
		"status": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			HandleStatusCommand(s, i, b)
		},
	}
}

func addHandlers(b *bot.Bot) {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v", s.State.User.Username)
	})

	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Recovered from panic in interaction handler: %v", r)
			}
		}()
		dispatchInteraction(s, i, b)
	})

	b.Session.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		handleMemberJoin(s, m, b)
	})
}

func dispatchInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if h, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
			h(s, i)
		}
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		switch {
		case customID == "verify_button":
			HandleVerifyButton(s, i, b)
		case customID == "open_verify_modal":
			HandleOpenVerifyModal(s, i, b)
		case customID == "init_setup":
			HandleInitSetup(s, i, b)
		case customID == "setup_select_methods", customID == "setup_confirm", customID == "setup_cancel":
			HandleSetupComponent(s, i, b)
		case strings.HasPrefix(customID, "scan_restrict_"), strings.HasPrefix(customID, "scan_ignore_"):
			HandleScanFollowUp(s, i, b)
		case strings.HasPrefix(customID, "apply_sus_confirm"), customID == "apply_sus_cancel":
			HandleApplySusFollowUp(s, i, b)
		}
	case discordgo.InteractionModalSubmit:
		if i.ModalSubmitData().CustomID == "verify_modal" {
			HandleVerifyModalSubmit(s, i, b)
		}
	}
}

// handleMemberJoin waits out the join grace period, re-reads the member and
// restricts them when their presence shows a lone web client.
func handleMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd, b *bot.Bot) {
	if m.GuildID != b.Cfg.GuildID {
		return
	}
	if m.User == nil || m.User.Bot {
		return
	}
	userID := m.User.ID

	time.AfterFunc(joinGrace, func() {
		if b.Store.Settings().SusRoleID == "" {
			if err := b.EnsureSusRole(); err != nil {
				log.Printf("Could not ensure marker role on join: %v", err)
				return
			}
		}
		member, err := s.GuildMember(b.Cfg.GuildID, userID)
		if err != nil {
			log.Printf("Could not fetch joining member %s: %v", userID, err)
			return
		}
		platforms := b.Presence.Platforms(userID)
		if presence.IsWebOnly(platforms) {
			b.Restrictor.Restrict(member, platforms, "Detected web-only on join")
		}
	})
}

// isAdmin checks the invoker against the configured admin roles. An empty
// admin list locks everyone out rather than opening up.
func isAdmin(i *discordgo.InteractionCreate, b *bot.Bot) bool {
	if i.Member == nil {
		return false
	}
	return utils.IsAdmin(i.Member.Roles, b.Cfg.AdminRoleIDs)
}
