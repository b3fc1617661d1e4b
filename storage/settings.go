// Package storage persists the guild settings in a single sqlite row.
// Every mutation goes through a single writer and is saved immediately.
package storage

import (
	"database/sql"
	"errors"
	"strings"
	"sync"

	"verify-bot/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const settingsSchema = `CREATE TABLE IF NOT EXISTS guild_settings (
	"id" INTEGER NOT NULL PRIMARY KEY CHECK (id = 1),
	"sus_role_id" TEXT NOT NULL DEFAULT '',
	"verify_message_id" TEXT NOT NULL DEFAULT '',
	"admin_prompt_message_id" TEXT NOT NULL DEFAULT '',
	"verification_methods" TEXT NOT NULL,
	"autoscan_enabled" INTEGER NOT NULL,
	"action_delay_ms" INTEGER NOT NULL,
	"daily_scan_schedule" TEXT NOT NULL,
	"log_channel_id" TEXT NOT NULL DEFAULT '',
	"periodic_notify_enabled" INTEGER NOT NULL,
	"periodic_notify_schedule" TEXT NOT NULL,
	"periodic_notify_max_per_run" INTEGER NOT NULL,
	"periodic_notify_pace_ms" INTEGER NOT NULL,
	"periodic_mention_delete_seconds" INTEGER NOT NULL
);`

type settingsRow struct {
	ID                           int    `db:"id"`
	SusRoleID                    string `db:"sus_role_id"`
	VerifyMessageID              string `db:"verify_message_id"`
	AdminPromptMessageID         string `db:"admin_prompt_message_id"`
	VerificationMethods          string `db:"verification_methods"`
	AutoscanEnabled              bool   `db:"autoscan_enabled"`
	ActionDelayMs                int    `db:"action_delay_ms"`
	DailyScanSchedule            string `db:"daily_scan_schedule"`
	LogChannelID                 string `db:"log_channel_id"`
	PeriodicNotifyEnabled        bool   `db:"periodic_notify_enabled"`
	PeriodicNotifySchedule       string `db:"periodic_notify_schedule"`
	PeriodicNotifyMaxPerRun      int    `db:"periodic_notify_max_per_run"`
	PeriodicNotifyPaceMs         int    `db:"periodic_notify_pace_ms"`
	PeriodicMentionDeleteSeconds int    `db:"periodic_mention_delete_seconds"`
}

// Store owns the settings database and an in-memory copy of the row.
type Store struct {
	db *sqlx.DB

	mu       sync.Mutex
	settings *model.GuildSettings
}

// Open opens (or creates) the settings database at path and loads the row,
// seeding defaults on first run.
func Open(path string, defaults *model.GuildSettings) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(settingsSchema); err != nil {
		db.Close()
		return nil, err
	}

	st := &Store{db: db}

	var row settingsRow
	err = db.Get(&row, `SELECT * FROM guild_settings WHERE id = 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		st.settings = cloneSettings(defaults)
		if err := st.persist(); err != nil {
			db.Close()
			return nil, err
		}
	case err != nil:
		db.Close()
		return nil, err
	default:
		st.settings = fromRow(&row)
	}

	return st, nil
}

// Close closes the underlying database.
func (st *Store) Close() error {
	return st.db.Close()
}

// Settings returns a copy of the current settings.
func (st *Store) Settings() *model.GuildSettings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return cloneSettings(st.settings)
}

// Update applies fn to the settings and persists the result as one unit,
// so concurrent admin commands cannot lose each other's writes.
func (st *Store) Update(fn func(*model.GuildSettings)) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := cloneSettings(st.settings)
	fn(next)
	st.settings = next
	return st.persist()
}

// persist writes the current settings row. Caller holds the mutex.
func (st *Store) persist() error {
	row := toRow(st.settings)
	_, err := st.db.NamedExec(`INSERT OR REPLACE INTO guild_settings (
		id, sus_role_id, verify_message_id, admin_prompt_message_id,
		verification_methods, autoscan_enabled, action_delay_ms,
		daily_scan_schedule, log_channel_id, periodic_notify_enabled,
		periodic_notify_schedule, periodic_notify_max_per_run,
		periodic_notify_pace_ms, periodic_mention_delete_seconds
	) VALUES (
		1, :sus_role_id, :verify_message_id, :admin_prompt_message_id,
		:verification_methods, :autoscan_enabled, :action_delay_ms,
		:daily_scan_schedule, :log_channel_id, :periodic_notify_enabled,
		:periodic_notify_schedule, :periodic_notify_max_per_run,
		:periodic_notify_pace_ms, :periodic_mention_delete_seconds
	)`, row)
	return err
}

func fromRow(row *settingsRow) *model.GuildSettings {
	var methods []string
	for _, m := range strings.Split(row.VerificationMethods, ",") {
		if m = strings.TrimSpace(m); m != "" {
			methods = append(methods, m)
		}
	}
	return &model.GuildSettings{
		SusRoleID:                    row.SusRoleID,
		VerifyMessageID:              row.VerifyMessageID,
		AdminPromptMessageID:         row.AdminPromptMessageID,
		VerificationMethods:          methods,
		AutoscanEnabled:              row.AutoscanEnabled,
		ActionDelayMs:                row.ActionDelayMs,
		DailyScanSchedule:            row.DailyScanSchedule,
		LogChannelID:                 row.LogChannelID,
		PeriodicNotifyEnabled:        row.PeriodicNotifyEnabled,
		PeriodicNotifySchedule:       row.PeriodicNotifySchedule,
		PeriodicNotifyMaxPerRun:      row.PeriodicNotifyMaxPerRun,
		PeriodicNotifyPaceMs:         row.PeriodicNotifyPaceMs,
		PeriodicMentionDeleteSeconds: row.PeriodicMentionDeleteSeconds,
	}
}

func toRow(g *model.GuildSettings) *settingsRow {
	return &settingsRow{
		ID:                           1,
		SusRoleID:                    g.SusRoleID,
		VerifyMessageID:              g.VerifyMessageID,
		AdminPromptMessageID:         g.AdminPromptMessageID,
		VerificationMethods:          strings.Join(g.VerificationMethods, ","),
		AutoscanEnabled:              g.AutoscanEnabled,
		ActionDelayMs:                g.ActionDelayMs,
		DailyScanSchedule:            g.DailyScanSchedule,
		LogChannelID:                 g.LogChannelID,
		PeriodicNotifyEnabled:        g.PeriodicNotifyEnabled,
		PeriodicNotifySchedule:       g.PeriodicNotifySchedule,
		PeriodicNotifyMaxPerRun:      g.PeriodicNotifyMaxPerRun,
		PeriodicNotifyPaceMs:         g.PeriodicNotifyPaceMs,
		PeriodicMentionDeleteSeconds: g.PeriodicMentionDeleteSeconds,
	}
}

func cloneSettings(g *model.GuildSettings) *model.GuildSettings {
	cp := *g
	cp.VerificationMethods = append([]string(nil), g.VerificationMethods...)
	return &cp
}
