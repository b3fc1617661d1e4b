package notifier_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"verify-bot/model"
	"verify-bot/notifier"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackMentionsRespectsBudget(t *testing.T) {
	t.Parallel()

	ids := make([]string, 500)
	for i := range ids {
		ids[i] = fmt.Sprintf("%018d", i)
	}

	messages := notifier.PackMentions(ids, notifier.MessageBudget)

	total := 0
	for _, m := range messages {
		assert.LessOrEqual(t, len(m), notifier.MessageBudget)
		total += len(strings.Fields(m))
	}
	assert.Equal(t, len(ids), total, "every mention appears exactly once")

	// Greedy packing is minimal: each message except the last could not
	// have absorbed the first mention of the next one.
	mentionLen := len("<@" + ids[0] + ">")
	for i := 0; i < len(messages)-1; i++ {
		assert.Greater(t, len(messages[i])+1+mentionLen, notifier.MessageBudget,
			"message %d had room left over", i)
	}
}

func TestPackMentionsKeepsOrder(t *testing.T) {
	t.Parallel()
	messages := notifier.PackMentions([]string{"1", "2", "3"}, 100)
	require.Len(t, messages, 1)
	assert.Equal(t, "<@1> <@2> <@3>", messages[0])
}

func TestPackMentionsEmptyInput(t *testing.T) {
	t.Parallel()
	assert.Empty(t, notifier.PackMentions(nil, 1900))
}

type fakeChannel struct {
	mu     sync.Mutex
	sent   []string
	nextID int
}

func (f *fakeChannel) SendMessage(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, data.Content)
	return &discordgo.Message{ID: fmt.Sprintf("m%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeChannel) DeleteMessage(_, _ string) error { return nil }

func (f *fakeChannel) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type nopAudit struct {
	mu      sync.Mutex
	entries []string
}

func (n *nopAudit) Info(module, operation, extra string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, operation)
}

func (n *nopAudit) Error(module, operation, extra string) { n.Info(module, operation, extra) }

func suspect(id string, roles ...string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id}, Roles: roles}
}

func newNotifier(st *model.GuildSettings, members []*discordgo.Member) (*notifier.Notifier, *fakeChannel, *nopAudit) {
	api := &fakeChannel{}
	audit := &nopAudit{}
	n := notifier.New("verify-chan", api, audit,
		func() ([]*discordgo.Member, error) { return members, nil },
		func() *model.GuildSettings { return st })
	return n, api, audit
}

func TestRunMentionsOnlyMarkedMembers(t *testing.T) {
	t.Parallel()
	st := model.DefaultSettings(800)
	st.SusRoleID = "sus"
	st.PeriodicMentionDeleteSeconds = 0
	st.PeriodicNotifyPaceMs = 0

	bot := suspect("b1", "sus")
	bot.User.Bot = true
	n, api, _ := newNotifier(st, []*discordgo.Member{
		suspect("u1", "sus"),
		suspect("u2"),
		bot,
		suspect("u3", "sus", "other"),
	})

	n.Run()

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "<@u1>")
	assert.Contains(t, msgs[0], "<@u3>")
	assert.NotContains(t, msgs[0], "<@u2>")
	assert.NotContains(t, msgs[0], "<@b1>")
	assert.True(t, strings.HasSuffix(msgs[0], "Click **Verify** below."))
}

func TestRunHonorsMaxPerRun(t *testing.T) {
	t.Parallel()
	st := model.DefaultSettings(800)
	st.SusRoleID = "sus"
	st.PeriodicNotifyMaxPerRun = 2
	st.PeriodicMentionDeleteSeconds = 0
	st.PeriodicNotifyPaceMs = 0

	n, api, _ := newNotifier(st, []*discordgo.Member{
		suspect("u1", "sus"), suspect("u2", "sus"), suspect("u3", "sus"),
	})
	n.Run()

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "<@u1>")
	assert.Contains(t, msgs[0], "<@u2>")
	assert.NotContains(t, msgs[0], "<@u3>", "stable input order, capped at max per run")
}

func TestRunSkipsWhenDisabledOrEmpty(t *testing.T) {
	t.Parallel()

	st := model.DefaultSettings(800)
	st.SusRoleID = "sus"
	st.PeriodicNotifyEnabled = false
	n, api, audit := newNotifier(st, []*discordgo.Member{suspect("u1", "sus")})
	n.Run()
	assert.Empty(t, api.messages())
	assert.Empty(t, audit.entries)

	st2 := model.DefaultSettings(800)
	st2.SusRoleID = "sus"
	n2, api2, audit2 := newNotifier(st2, []*discordgo.Member{suspect("u1")})
	n2.Run()
	assert.Empty(t, api2.messages())
	assert.Empty(t, audit2.entries, "zero restricted members means no summary either")

	st3 := model.DefaultSettings(800) // no role resolved
	n3, api3, _ := newNotifier(st3, []*discordgo.Member{suspect("u1", "sus")})
	n3.Run()
	assert.Empty(t, api3.messages())
}

func TestRunEmitsSummaries(t *testing.T) {
	t.Parallel()
	st := model.DefaultSettings(800)
	st.SusRoleID = "sus"
	st.PeriodicMentionDeleteSeconds = 0
	st.PeriodicNotifyPaceMs = 0

	n, _, audit := newNotifier(st, []*discordgo.Member{suspect("u1", "sus")})
	n.Run()

	audit.mu.Lock()
	defer audit.mu.Unlock()
	require.Len(t, audit.entries, 2)
	assert.Equal(t, "RunStarted", audit.entries[0])
	assert.Equal(t, "RunFinished", audit.entries[1])
}
