package utils

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/discordgo"
)

type LogLevel string

const (
	Info  LogLevel = "INFO"
	Warn  LogLevel = "WARN"
	Error LogLevel = "ERROR"
)

func getColor(level LogLevel) int {
	switch level {
	case Info:
		return 3066993 // Green
	case Warn:
		return 15105570 // Orange
	case Error:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}

// AuditLogger appends audit entries to the configured log channel, falling
// back to console output when no channel is set. The channel id is resolved
// per entry because admins can repoint it at runtime.
type AuditLogger struct {
	Session   *discordgo.Session
	ChannelID func() string
}

func (a *AuditLogger) send(level LogLevel, module, operation, extraInfo string) {
	channelID := a.ChannelID()
	if channelID == "" {
		log.Printf("[%s] %s/%s: %s", level, module, operation, extraInfo)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: string(level) + " Log",
		Color: getColor(level),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Module", Value: module},
			{Name: "Operation", Value: operation},
			{Name: "Details", Value: extraInfo},
		},
	}

	err := WithRetries(func() error {
		_, err := a.Session.ChannelMessageSendEmbed(channelID, embed)
		return err
	})
	if err != nil {
		log.Printf("Failed to send audit log: %v", err)
		log.Printf("[%s] %s/%s: %s", level, module, operation, extraInfo)
	}
}

func (a *AuditLogger) Info(module, operation, extraInfo string) {
	a.send(Info, module, operation, extraInfo)
}

func (a *AuditLogger) Warn(module, operation, extraInfo string) {
	a.send(Warn, module, operation, extraInfo)
}

func (a *AuditLogger) Error(module, operation, extraInfo string) {
	a.send(Error, module, operation, extraInfo)
}

// SendText posts plain content to the log channel, split at the platform's
// message size limit on line boundaries. Console fallback when no channel is
// set.
func (a *AuditLogger) SendText(text string) {
	channelID := a.ChannelID()
	if channelID == "" {
		log.Printf("[LOG] %s", text)
		return
	}

	for _, chunk := range splitLines(text, 1900) {
		body := chunk
		err := WithRetries(func() error {
			_, err := a.Session.ChannelMessageSend(channelID, body)
			return err
		})
		if err != nil {
			log.Printf("Failed to send audit text: %v", err)
			return
		}
	}
}

// splitLines packs whole lines into chunks no longer than limit. A single
// line over the limit is hard-cut.
func splitLines(text string, limit int) []string {
	var chunks []string
	current := ""
	for _, line := range strings.Split(text, "\n") {
		for len(line) > limit {
			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		next := line
		if current != "" {
			next = current + "\n" + line
		}
		if len(next) > limit {
			chunks = append(chunks, current)
			current = line
		} else {
			current = next
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// SendFile posts a text message with a file attachment to the log channel.
// With no channel configured the text is logged and the attachment skipped.
func (a *AuditLogger) SendFile(text, path string) {
	channelID := a.ChannelID()
	if channelID == "" {
		log.Printf("[LOG] %s (attachment %s skipped, no log channel)", text, path)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Printf("Failed to open attachment %s: %v", path, err)
		a.Info("Audit", "Report", text)
		return
	}
	defer f.Close()

	// No retry here: the attachment reader is consumed on the first attempt.
	_, sendErr := a.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: text,
		Files: []*discordgo.File{
			{Name: filepath.Base(path), Reader: f},
		},
	})
	if sendErr != nil {
		log.Printf("Failed to send audit attachment: %v", sendErr)
	}
}
