package handlers

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"verify-bot/bot"
	"verify-bot/presence"
	"verify-bot/scanner"
	"verify-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// pendingTTL is how long scan follow-up buttons stay actionable.
const pendingTTL = 2 * time.Minute

// pendingScan holds the context a scan follow-up button needs. Only the
// invoking admin may consume it, and only in the channel it was issued in.
type pendingScan struct {
	ownerID   string
	channelID string
	member    *discordgo.Member
	suspects  []scanner.MemberRow
	expiresAt time.Time
}

var (
	pendingMu sync.Mutex
	pending   = make(map[string]*pendingScan)
)

func putPending(key string, p *pendingScan) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	now := time.Now()
	for k, v := range pending {
		if now.After(v.expiresAt) {
			delete(pending, k)
		}
	}
	p.expiresAt = now.Add(pendingTTL)
	pending[key] = p
}

// takePending consumes a pending action. A wrong owner leaves the entry in
// place; expiry removes it.
func takePending(key, ownerID, channelID string) (*pendingScan, bool) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	p, ok := pending[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(p.expiresAt) {
		delete(pending, key)
		return nil, false
	}
	if p.ownerID != ownerID || p.channelID != channelID {
		return nil, false
	}
	delete(pending, key)
	return p, true
}

// HandleScanCommand inspects one member or sweeps the guild.
func HandleScanCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if !isAdmin(i, b) {
		utils.SendEphemeralResponse(s, i, "Only configured admins can run this.")
		return
	}
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Could not defer scan response: %v", err)
		return
	}

	var targetUser *discordgo.User
	var duration, startStr, endStr string
	applySus := false
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "member":
			targetUser = opt.UserValue(s)
		case "duration":
			duration = opt.StringValue()
		case "start":
			startStr = opt.StringValue()
		case "end":
			endStr = opt.StringValue()
		case "apply_sus":
			applySus = opt.BoolValue()
		}
	}

	if targetUser != nil {
		scanSingleMember(s, i, b, targetUser.ID)
		return
	}
	scanGuild(s, i, b, duration, startStr, endStr, applySus)
}

func scanSingleMember(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, userID string) {
	member, err := s.GuildMember(b.Cfg.GuildID, userID)
	if err != nil {
		utils.EditResponse(s, i.Interaction, "Member not found.")
		return
	}
	row := scanner.Row(member, b.Presence.Platforms)

	platformList := "offline/no-presence"
	if len(row.Platforms) > 0 {
		platformList = strings.Join(row.Platforms, ", ")
	}
	joinedAt := "unknown"
	if !row.JoinedAt.IsZero() {
		joinedAt = row.JoinedAt.UTC().Format(time.RFC3339)
	}
	embed := &discordgo.MessageEmbed{
		Title: "Scan result for " + row.Tag,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Platforms", Value: platformList, Inline: true},
			{Name: "Joined at", Value: joinedAt, Inline: true},
			{Name: "User ID", Value: row.UserID, Inline: false},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Mark Sus", Style: discordgo.DangerButton, CustomID: "scan_restrict_" + row.UserID},
				discordgo.Button{Label: "Ignore", Style: discordgo.SecondaryButton, CustomID: "scan_ignore_" + row.UserID},
			},
		},
	}
	utils.EditResponseComplex(s, i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})

	putPending("scan_"+row.UserID, &pendingScan{
		ownerID:   i.Member.User.ID,
		channelID: i.ChannelID,
		member:    member,
	})
}

func scanGuild(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, duration, startStr, endStr string, applySus bool) {
	utils.EditResponse(s, i.Interaction, "Starting bulk scan. This may take time. Results will be posted to the log channel.")

	var filter scanner.Filter
	if duration != "" {
		start, err := utils.WindowStart(duration, time.Now())
		if err != nil {
			utils.FollowUpEphemeral(s, i.Interaction, err.Error())
			return
		}
		filter.Start = start
	}
	if startStr != "" {
		t, err := utils.ParseTimestamp(startStr)
		if err != nil {
			utils.FollowUpEphemeral(s, i.Interaction, err.Error())
			return
		}
		// Both bounds apply when a named window is also given; the later
		// one wins.
		if t.After(filter.Start) {
			filter.Start = t
		}
	}
	if endStr != "" {
		t, err := utils.ParseTimestamp(endStr)
		if err != nil {
			utils.FollowUpEphemeral(s, i.Interaction, err.Error())
			return
		}
		filter.End = t
	}

	members, err := b.FetchMembers()
	if err != nil {
		utils.FollowUpEphemeral(s, i.Interaction, fmt.Sprintf("Member fetch failed: %v", err))
		return
	}
	rows := scanner.Sweep(members, b.Presence.Platforms, filter)
	if len(rows) == 0 {
		utils.FollowUpEphemeral(s, i.Interaction, "No members found for the given criteria.")
		return
	}

	if len(rows) <= scanner.InlineReportLimit {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Bulk scan completed (%d members):\n", len(rows))
		sb.WriteString("user | server nickname | id | mention | platform(s)")
		for _, r := range rows {
			sb.WriteString("\n")
			sb.WriteString(scanner.FormatRow(r))
		}
		b.Audit.SendText(sb.String())
	} else {
		path, err := scanner.WriteCSV(b.Cfg.DataDir, rows, time.Now())
		if err != nil {
			utils.FollowUpEphemeral(s, i.Interaction, fmt.Sprintf("Could not write CSV report: %v", err))
			return
		}
		b.Audit.SendFile(fmt.Sprintf(
			"Bulk scan completed: %d members - CSV attached. (Columns: userId,tag,displayName,platforms,joinedAt)",
			len(rows)), path)
		cleanupReport(path)
	}

	if applySus {
		offerApplySus(s, i, b, rows)
	}
	utils.FollowUpEphemeral(s, i.Interaction, "Bulk scan logged to the log channel.")
}

func offerApplySus(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, rows []scanner.MemberRow) {
	suspects := scanner.Suspects(rows, presence.IsWebOnly)
	confirmID := fmt.Sprintf("apply_sus_confirm_%d", time.Now().UnixMilli())

	embed := &discordgo.MessageEmbed{
		Title:       "Apply Sus to matched users?",
		Description: fmt.Sprintf("Found %d matched users. Click Confirm to mark them Sus (operation is queued).", len(suspects)),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Confirm apply Sus", Style: discordgo.DangerButton, CustomID: confirmID},
					discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: "apply_sus_cancel"},
				},
			},
		},
		Flags: discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Printf("Could not post apply-sus confirmation: %v", err)
		return
	}

	putPending(confirmID, &pendingScan{
		ownerID:   i.Member.User.ID,
		channelID: i.ChannelID,
		suspects:  suspects,
	})
}

// HandleScanFollowUp consumes the Mark Sus / Ignore buttons of a
// single-member scan.
func HandleScanFollowUp(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	customID := i.MessageComponentData().CustomID
	userID := strings.TrimPrefix(strings.TrimPrefix(customID, "scan_restrict_"), "scan_ignore_")

	p, ok := takePending("scan_"+userID, i.Member.User.ID, i.ChannelID)
	if !ok {
		utils.SendEphemeralResponse(s, i, "This action has expired.")
		return
	}

	if strings.HasPrefix(customID, "scan_restrict_") {
		b.Restrictor.Restrict(p.member, b.Presence.Platforms(userID), "Marked via scan command")
		utils.SendEphemeralResponse(s, i,
			fmt.Sprintf("Marked <@%s> as Sus and logged to the log channel.", userID))
		return
	}
	utils.SendEphemeralResponse(s, i, "No action taken.")
}

// HandleApplySusFollowUp consumes the bulk apply confirmation buttons.
func HandleApplySusFollowUp(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	customID := i.MessageComponentData().CustomID

	if customID == "apply_sus_cancel" {
		cancelApplySus(i.Member.User.ID, i.ChannelID)
		utils.SendEphemeralResponse(s, i, "Cancelled.")
		return
	}

	p, ok := takePending(customID, i.Member.User.ID, i.ChannelID)
	if !ok {
		utils.SendEphemeralResponse(s, i, "This action has expired.")
		return
	}
	utils.SendEphemeralResponse(s, i, "Applying Sus role to matched users (queued).")
	b.BulkRestrict(p.suspects, "Marked via scan applySus")
}

// cancelApplySus drops any live apply-sus confirmation for this admin in this
// channel. The cancel button has a fixed id, so the entry is found by owner.
func cancelApplySus(ownerID, channelID string) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	for k, v := range pending {
		if strings.HasPrefix(k, "apply_sus_confirm_") && v.ownerID == ownerID && v.channelID == channelID {
			delete(pending, k)
		}
	}
}

// cleanupReport removes the CSV after its retention window.
func cleanupReport(path string) {
	time.AfterFunc(scanner.CSVRetention, func() {
		if err := os.Remove(path); err != nil {
			log.Printf("Could not remove report file %s: %v", path, err)
		}
	})
}
