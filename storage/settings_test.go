package storage_test

import (
	"path/filepath"
	"testing"

	"verify-bot/model"
	"verify-bot/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstRunSeedsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "settings.db")

	st, err := storage.Open(path, model.DefaultSettings(800))
	require.NoError(t, err)
	defer st.Close()

	got := st.Settings()
	assert.Equal(t, []string{model.MethodButton}, got.VerificationMethods)
	assert.False(t, got.AutoscanEnabled)
	assert.Equal(t, 800, got.ActionDelayMs)
	assert.Equal(t, "0 0 * * *", got.DailyScanSchedule)
	assert.True(t, got.PeriodicNotifyEnabled)
	assert.Equal(t, 2000, got.PeriodicNotifyMaxPerRun)
	assert.Equal(t, 30, got.PeriodicMentionDeleteSeconds)
}

func TestUpdatePersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "settings.db")

	st, err := storage.Open(path, model.DefaultSettings(800))
	require.NoError(t, err)

	err = st.Update(func(g *model.GuildSettings) {
		g.SusRoleID = "role-123"
		g.VerificationMethods = []string{model.MethodWord, model.MethodMath}
		g.AutoscanEnabled = true
		g.LogChannelID = "chan-9"
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := storage.Open(path, model.DefaultSettings(800))
	require.NoError(t, err)
	defer reopened.Close()

	got := reopened.Settings()
	assert.Equal(t, "role-123", got.SusRoleID)
	assert.Equal(t, []string{model.MethodWord, model.MethodMath}, got.VerificationMethods)
	assert.True(t, got.AutoscanEnabled)
	assert.Equal(t, "chan-9", got.LogChannelID)
	// Untouched fields keep their defaults.
	assert.Equal(t, "0,30 * * * *", got.PeriodicNotifySchedule)
}

func TestSettingsReturnsACopy(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "settings.db")

	st, err := storage.Open(path, model.DefaultSettings(800))
	require.NoError(t, err)
	defer st.Close()

	got := st.Settings()
	got.SusRoleID = "mutated"
	got.VerificationMethods[0] = "mutated"

	assert.Empty(t, st.Settings().SusRoleID)
	assert.Equal(t, model.MethodButton, st.Settings().VerificationMethods[0])
}
