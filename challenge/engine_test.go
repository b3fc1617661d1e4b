package challenge_test

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"verify-bot/challenge"
	"verify-bot/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock for deterministic expiry tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newEngine(t *testing.T) (*challenge.Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return challenge.NewEngine(clock.Now), clock
}

func TestWordChallengeShape(t *testing.T) {
	t.Parallel()
	e, _ := newEngine(t)
	wordRe := regexp.MustCompile(`^[a-z]{6}$`)

	for i := 0; i < 50; i++ {
		c, err := e.Issue("g", "m", []string{model.MethodWord})
		require.NoError(t, err)
		assert.Equal(t, model.MethodWord, c.Kind)
		assert.Regexp(t, wordRe, c.Answer)
		assert.Empty(t, c.Prompt)
	}
}

func TestMathChallengeEvaluatesItsPrompt(t *testing.T) {
	t.Parallel()
	e, _ := newEngine(t)

	for i := 0; i < 100; i++ {
		c, err := e.Issue("g", "m", []string{model.MethodMath})
		require.NoError(t, err)

		parts := strings.Fields(c.Prompt)
		require.Len(t, parts, 3, "prompt %q", c.Prompt)
		a, err := strconv.Atoi(parts[0])
		require.NoError(t, err)
		b, err := strconv.Atoi(parts[2])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, a, 1)
		assert.LessOrEqual(t, a, 12)
		assert.GreaterOrEqual(t, b, 1)
		assert.LessOrEqual(t, b, 12)

		var want int
		switch parts[1] {
		case "+":
			want = a + b
		case "*":
			want = a * b
		default:
			t.Fatalf("unexpected operator %q", parts[1])
		}
		assert.Equal(t, strconv.Itoa(want), c.Answer)
	}
}

func TestIssueOverwritesPriorChallenge(t *testing.T) {
	t.Parallel()
	e, _ := newEngine(t)

	first, err := e.Issue("g", "m", []string{model.MethodWord})
	require.NoError(t, err)
	_, err = e.Issue("g", "m", []string{model.MethodMath})
	require.NoError(t, err)

	assert.Equal(t, 1, e.Len())
	assert.Equal(t, challenge.ResultMismatch, e.Validate("g", "m", first.Answer),
		"old answer must not validate against the replacement challenge")
}

func TestValidateConsumesOnSuccess(t *testing.T) {
	t.Parallel()
	e, _ := newEngine(t)

	c, err := e.Issue("g", "m", []string{model.MethodWord})
	require.NoError(t, err)

	assert.Equal(t, challenge.ResultOK, e.Validate("g", "m", "  "+c.Answer+"\n"))
	// Second submission with the same answer finds nothing.
	assert.Equal(t, challenge.ResultExpired, e.Validate("g", "m", c.Answer))
	assert.Equal(t, 0, e.Len())
}

func TestWrongAnswerKeepsChallengeLive(t *testing.T) {
	t.Parallel()
	e, _ := newEngine(t)

	c, err := e.Issue("g", "m", []string{model.MethodWord})
	require.NoError(t, err)

	assert.Equal(t, challenge.ResultMismatch, e.Validate("g", "m", "nope"))
	assert.Equal(t, challenge.ResultMismatch, e.Validate("g", "m", strings.ToUpper(c.Answer)),
		"comparison is case-sensitive")
	assert.Equal(t, challenge.ResultOK, e.Validate("g", "m", c.Answer))
}

func TestExpiredChallengeIsRejectedAndRemoved(t *testing.T) {
	t.Parallel()
	e, clock := newEngine(t)

	c, err := e.Issue("g", "m", []string{model.MethodWord})
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(challenge.TTL), c.ExpiresAt)

	clock.Advance(challenge.TTL + time.Second)
	assert.Equal(t, challenge.ResultExpired, e.Validate("g", "m", c.Answer),
		"correctness does not matter past the deadline")
	assert.Equal(t, 0, e.Len())
}

func TestGetPurgesExpiredEntries(t *testing.T) {
	t.Parallel()
	e, clock := newEngine(t)

	_, err := e.Issue("g", "m", []string{model.MethodMath})
	require.NoError(t, err)

	_, ok := e.Get("g", "m")
	assert.True(t, ok)

	clock.Advance(challenge.TTL + time.Second)
	_, ok = e.Get("g", "m")
	assert.False(t, ok)
	assert.Equal(t, 0, e.Len())
}

func TestSweepBoundsMemory(t *testing.T) {
	t.Parallel()
	e, clock := newEngine(t)

	for _, member := range []string{"a", "b", "c"} {
		_, err := e.Issue("g", member, []string{model.MethodWord})
		require.NoError(t, err)
	}
	clock.Advance(2 * time.Minute)
	_, err := e.Issue("g", "fresh", []string{model.MethodWord})
	require.NoError(t, err)

	clock.Advance(challenge.TTL - time.Minute)
	assert.Equal(t, 3, e.Sweep())
	assert.Equal(t, 1, e.Len())
}

func TestIssueRequiresEnabledKinds(t *testing.T) {
	t.Parallel()
	e, _ := newEngine(t)

	_, err := e.Issue("g", "m", nil)
	assert.Error(t, err)
}
