package setup_test

import (
	"testing"
	"time"

	"verify-bot/model"
	"verify-bot/setup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newRegistry() (*setup.Registry, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return setup.NewRegistry(clock.Now), clock
}

func TestOnlyOwnerEventsAreRouted(t *testing.T) {
	t.Parallel()
	r, _ := newRegistry()
	r.Start("chan", "admin", "msg")

	_, ok := r.Route("chan", "bystander")
	assert.False(t, ok, "non-owner interactions are ignored")

	s, ok := r.Route("chan", "admin")
	require.True(t, ok)
	assert.Equal(t, setup.StateAwaitingSelection, s.State)

	_, ok = r.Route("other-chan", "admin")
	assert.False(t, ok)
}

func TestSelectionOverwritesPendingChoice(t *testing.T) {
	t.Parallel()
	r, _ := newRegistry()
	s := r.Start("chan", "admin", "msg")

	require.NoError(t, r.Select(s, []string{model.MethodButton}))
	require.NoError(t, r.Select(s, []string{model.MethodWord, model.MethodMath}))
	assert.Equal(t, []string{model.MethodWord, model.MethodMath}, s.Methods)
	assert.Equal(t, setup.StateAwaitingConfirmation, s.State)

	assert.Error(t, r.Select(s, nil))
	assert.Error(t, r.Select(s, []string{"carrier-pigeon"}))
	assert.Error(t, r.Select(s, []string{model.MethodButton, model.MethodWord, model.MethodMath, model.MethodWord}))
}

func TestConfirmRequiresASelection(t *testing.T) {
	t.Parallel()
	r, _ := newRegistry()
	s := r.Start("chan", "admin", "msg")

	_, err := r.Confirm(s)
	assert.Error(t, err)

	// Session stays live for a retry.
	_, ok := r.Route("chan", "admin")
	require.True(t, ok)

	require.NoError(t, r.Select(s, []string{model.MethodWord}))
	methods, err := r.Confirm(s)
	require.NoError(t, err)
	assert.Equal(t, []string{model.MethodWord}, methods)
	assert.Equal(t, setup.StateApplied, s.State)

	_, ok = r.Route("chan", "admin")
	assert.False(t, ok, "applied session is gone")
}

func TestCancelEndsSession(t *testing.T) {
	t.Parallel()
	r, _ := newRegistry()
	s := r.Start("chan", "admin", "msg")

	r.Cancel(s)
	assert.Equal(t, setup.StateCancelled, s.State)
	_, ok := r.Route("chan", "admin")
	assert.False(t, ok)
}

func TestSessionsExpireSilently(t *testing.T) {
	t.Parallel()
	r, clock := newRegistry()
	r.Start("chan", "admin", "msg")

	clock.now = clock.now.Add(setup.Timeout + time.Second)
	_, ok := r.Route("chan", "admin")
	assert.False(t, ok)

	r.Start("a", "admin", "m1")
	r.Start("b", "admin", "m2")
	clock.now = clock.now.Add(setup.Timeout + time.Second)
	assert.Equal(t, 2, r.Reap())
}

func TestNewSessionReplacesOldInSameChannel(t *testing.T) {
	t.Parallel()
	r, _ := newRegistry()
	r.Start("chan", "first-admin", "m1")
	r.Start("chan", "second-admin", "m2")

	_, ok := r.Route("chan", "first-admin")
	assert.False(t, ok)
	s, ok := r.Route("chan", "second-admin")
	require.True(t, ok)
	assert.Equal(t, "m2", s.MessageID)
}
