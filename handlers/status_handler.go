package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"verify-bot/bot"
	"verify-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HandleStatusCommand posts a system and runtime snapshot.
func HandleStatusCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if !isAdmin(i, b) {
		utils.SendEphemeralResponse(s, i, "Only configured admins can run this command.")
		return
	}

	cpuCount, _ := cpu.Counts(true)
	cpuPercent, _ := cpu.Percent(0, false)
	vm, _ := mem.VirtualMemory()
	hostInfo, _ := host.Info()

	cpuUsage := "n/a"
	if len(cpuPercent) > 0 {
		cpuUsage = fmt.Sprintf("%.1f%%", cpuPercent[0])
	}
	memUsage := "n/a"
	if vm != nil {
		memUsage = fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024)
	}
	osVersion := "n/a"
	kernel := "n/a"
	if hostInfo != nil {
		osVersion = fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion)
		kernel = hostInfo.KernelVersion
	}

	var dbSize int64
	if fi, err := os.Stat(filepath.Join(b.Cfg.DataDir, "settings.db")); err == nil {
		dbSize = fi.Size() / 1024
	}

	st := b.Store.Settings()
	autoscan := "off"
	if st.AutoscanEnabled {
		autoscan = "on"
	}

	embed := &discordgo.MessageEmbed{
		Title: "Bot Status",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💻 OS", Value: osVersion, Inline: true},
			{Name: "🔧 Kernel", Value: kernel, Inline: true},
			{Name: "🐹 Go version", Value: runtime.Version(), Inline: true},
			{Name: "🔼 CPUs", Value: fmt.Sprintf("%d", cpuCount), Inline: true},
			{Name: "🔥 CPU usage", Value: cpuUsage, Inline: true},
			{Name: "🧠 Memory", Value: memUsage, Inline: true},
			{Name: "🗃️ Settings DB", Value: fmt.Sprintf("%d KB", dbSize), Inline: true},
			{Name: "⏱️ WebSocket latency", Value: s.HeartbeatLatency().String(), Inline: true},
			{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "📋 Queued actions", Value: fmt.Sprintf("%d", b.Queue.Len()), Inline: true},
			{Name: "🔒 Active challenges", Value: fmt.Sprintf("%d", b.Challenges.Len()), Inline: true},
			{Name: "🔍 Autoscan", Value: autoscan, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Status snapshot at " + time.Now().UTC().Format("15:04 MST"),
		},
	}

	utils.SendComplexEphemeral(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
}
