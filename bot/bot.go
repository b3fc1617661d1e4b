package bot

import (
	"fmt"
	"log"
	"sync"
	"time"

	"verify-bot/challenge"
	"verify-bot/model"
	"verify-bot/notifier"
	"verify-bot/presence"
	"verify-bot/queue"
	"verify-bot/restrict"
	"verify-bot/setup"
	"verify-bot/storage"
	"verify-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
)

// memberFetchTimeout bounds a full member list request over the gateway.
const memberFetchTimeout = 60 * time.Second

type Bot struct {
	Session *discordgo.Session
	Cfg     *model.Config
	Store   *storage.Store

	Queue      *queue.ActionQueue
	Challenges *challenge.Engine
	Restrictor *restrict.Manager
	Setup      *setup.Registry
	Notifier   *notifier.Notifier
	Presence   *presence.Tracker
	Audit      *utils.AuditLogger

	RegisteredCommands []*discordgo.ApplicationCommand
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)

	cron *cron.Cron
	done chan struct{}
	wg   sync.WaitGroup
}

func New(cfg *model.Config, store *storage.Store) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences | discordgo.IntentsGuildMessages
	dg.StateEnabled = false

	b := &Bot{
		Session:    dg,
		Cfg:        cfg,
		Store:      store,
		Challenges: challenge.NewEngine(time.Now),
		Setup:      setup.NewRegistry(time.Now),
		Presence:   presence.NewTracker(cfg.GuildID),
		done:       make(chan struct{}),
	}

	b.Audit = &utils.AuditLogger{Session: dg, ChannelID: b.logChannelID}
	b.Queue = queue.New(time.Second, utils.IsTransient, b.reportTask)

	api := sessionAPI{dg}
	b.Restrictor = restrict.NewManager(cfg.GuildID, cfg.VerifyChannelID, api, b.Audit, b.Queue, store.Settings)
	b.Notifier = notifier.New(cfg.VerifyChannelID, api, b.Audit, b.FetchMembers, store.Settings)

	b.Presence.Register(dg)
	return b, nil
}

// logChannelID resolves the audit channel: the persisted admin choice wins,
// the env fallback covers first boot.
func (b *Bot) logChannelID() string {
	if id := b.Store.Settings().LogChannelID; id != "" {
		return id
	}
	return b.Cfg.LogChannelID
}

func (b *Bot) reportTask(label string, err error) {
	if err != nil {
		b.Audit.Error("Queue", "TaskFailed", fmt.Sprintf("%s: %v", label, err))
	}
}

// FetchMembers pulls the full member list with presences over the gateway.
func (b *Bot) FetchMembers() ([]*discordgo.Member, error) {
	return b.Presence.Refresh(b.Session, memberFetchTimeout)
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	close(b.done)
	if b.cron != nil {
		b.cron.Stop()
	}
	b.wg.Wait()
	b.Queue.Stop()
	b.Session.Close()
}

// sessionAPI adapts the discordgo session to the narrow interfaces the
// restriction manager and notifier consume. The session's own methods take
// variadic request options, so they cannot satisfy those interfaces directly.
type sessionAPI struct {
	s *discordgo.Session
}

func (a sessionAPI) AddMemberRole(guildID, userID, roleID string) error {
	return a.s.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (a sessionAPI) RemoveMemberRole(guildID, userID, roleID string) error {
	return a.s.GuildMemberRoleRemove(guildID, userID, roleID)
}

func (a sessionAPI) SendMessage(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return a.s.ChannelMessageSendComplex(channelID, data)
}

func (a sessionAPI) DeleteMessage(channelID, messageID string) error {
	return a.s.ChannelMessageDelete(channelID, messageID)
}
