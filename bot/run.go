package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"verify-bot/commands"
)

// Run opens the gateway, reconciles guild state, registers commands, starts
// the scheduler and then blocks until the process is signalled.
func (b *Bot) Run() {
	err := b.Session.Open()
	if err != nil {
		log.Fatalf("Error opening connection: %v", err)
	}

	b.Queue.Start()

	if err := b.EnsureSusRole(); err != nil {
		log.Printf("Could not reconcile marker role: %v", err)
	}

	b.RegisterCommands()
	b.ReconcilePrompt()
	b.startScheduler()

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	b.Audit.Info("System", "Startup", "Bot has started successfully.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
}

// RegisterCommands bulk-overwrites the guild's slash command set so stale
// definitions from previous runs never linger.
func (b *Bot) RegisterCommands() {
	cmds := commands.All()
	log.Printf("Registering %d commands for guild %s...", len(cmds), b.Cfg.GuildID)
	registered, err := b.Session.ApplicationCommandBulkOverwrite(b.Cfg.AppID, b.Cfg.GuildID, cmds)
	if err != nil {
		log.Printf("cannot update commands for guild '%s': %v", b.Cfg.GuildID, err)
		return
	}
	b.RegisteredCommands = registered
}
