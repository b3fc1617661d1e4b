package bot

import (
	"fmt"
	"time"

	"verify-bot/presence"
	"verify-bot/scanner"
)

// RunDailyScan sweeps the whole guild for web-only members and queues a
// restriction for each. Gated on the autoscan toggle.
func (b *Bot) RunDailyScan() {
	st := b.Store.Settings()
	if !st.AutoscanEnabled || st.SusRoleID == "" {
		return
	}

	members, err := b.FetchMembers()
	if err != nil {
		b.Audit.Error("Scanner", "DailyScanFailed", fmt.Sprintf("Could not fetch members: %v", err))
		return
	}

	rows := scanner.Suspects(
		scanner.Sweep(members, b.Presence.Platforms, scanner.Filter{}),
		presence.IsWebOnly)
	if len(rows) == 0 {
		b.Audit.Info("Scanner", "DailyScan", "No web-only members found.")
		return
	}
	b.Audit.Info("Scanner", "DailyScan",
		fmt.Sprintf("Found %d web-only member(s). Restriction queued.", len(rows)))
	b.BulkRestrict(rows, "Detected web-only in daily scan")
}

// BulkRestrict queues one restriction per row, re-fetching each member so
// the role check runs against current state, and pacing by ActionDelayMs
// between items on top of the queue's own dispatch interval.
func (b *Bot) BulkRestrict(rows []scanner.MemberRow, reason string) {
	delay := time.Duration(b.Store.Settings().ActionDelayMs) * time.Millisecond
	for _, row := range rows {
		userID := row.UserID
		platforms := row.Platforms
		b.Queue.Enqueue("bulk restrict "+userID, func() error {
			member, err := b.Session.GuildMember(b.Cfg.GuildID, userID)
			if err != nil {
				return fmt.Errorf("failed to fetch member %s: %w", userID, err)
			}
			b.Restrictor.Restrict(member, platforms, reason)
			if delay > 0 {
				time.Sleep(delay)
			}
			return nil
		})
	}
}
