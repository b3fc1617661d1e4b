// Package challenge issues and validates short-lived verification puzzles.
// Pure state and validation logic; all platform I/O stays with the callers.
package challenge

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"verify-bot/model"
)

const (
	// TTL is the fixed lifetime of an issued challenge.
	TTL = 5 * time.Minute

	wordLength   = 6
	wordAlphabet = "abcdefghijklmnopqrstuvwxyz"
)

// Key identifies the single live challenge a member may hold.
type Key struct {
	GuildID  string
	MemberID string
}

// Challenge is one issued puzzle. Answer must be reproduced exactly.
type Challenge struct {
	Kind      string // model.MethodWord or model.MethodMath
	Answer    string
	Prompt    string // math only, e.g. "3 * 7"
	ExpiresAt time.Time
}

// Result of an answer submission.
type Result int

const (
	// ResultOK: correct answer on a live challenge; the entry is consumed.
	ResultOK Result = iota
	// ResultMismatch: wrong answer; the challenge stays live for retries.
	ResultMismatch
	// ResultExpired: no live challenge, either never issued or past its TTL.
	ResultExpired
)

// Engine stores at most one live challenge per (guild, member) key.
type Engine struct {
	mu    sync.Mutex
	store map[Key]*Challenge
	now   func() time.Time
	rng   *rand.Rand
}

// NewEngine creates an engine. now may be nil for the wall clock.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store: make(map[Key]*Challenge),
		now:   now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Issue generates a fresh challenge for the member, overwriting any prior
// entry. kinds is the enabled challenge method set; one is picked uniformly.
func (e *Engine) Issue(guildID, memberID string, kinds []string) (*Challenge, error) {
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no challenge methods enabled")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var c Challenge
	switch kinds[e.rng.Intn(len(kinds))] {
	case model.MethodWord:
		b := make([]byte, wordLength)
		for i := range b {
			b[i] = wordAlphabet[e.rng.Intn(len(wordAlphabet))]
		}
		c = Challenge{Kind: model.MethodWord, Answer: string(b)}
	case model.MethodMath:
		a, b := e.rng.Intn(12)+1, e.rng.Intn(12)+1
		op, answer := "+", a+b
		if e.rng.Float64() >= 0.6 {
			op, answer = "*", a*b
		}
		c = Challenge{
			Kind:   model.MethodMath,
			Answer: strconv.Itoa(answer),
			Prompt: fmt.Sprintf("%d %s %d", a, op, b),
		}
	default:
		return nil, fmt.Errorf("unknown challenge kind %q", kinds[0])
	}

	c.ExpiresAt = e.now().Add(TTL)
	e.store[Key{GuildID: guildID, MemberID: memberID}] = &c
	return &c, nil
}

// Get returns the member's live challenge. Expired entries are purged on
// read and reported as absent.
func (e *Engine) Get(guildID, memberID string) (*Challenge, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := Key{GuildID: guildID, MemberID: memberID}
	c, ok := e.store[key]
	if !ok {
		return nil, false
	}
	if e.now().After(c.ExpiresAt) {
		delete(e.store, key)
		return nil, false
	}
	return c, true
}

// Validate checks a submitted answer. The answer is trimmed of surrounding
// whitespace and compared case-sensitively. A correct answer consumes the
// challenge; a wrong one leaves it live until expiry or reissue.
func (e *Engine) Validate(guildID, memberID, answer string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := Key{GuildID: guildID, MemberID: memberID}
	c, ok := e.store[key]
	if !ok {
		return ResultExpired
	}
	if e.now().After(c.ExpiresAt) {
		delete(e.store, key)
		return ResultExpired
	}
	if strings.TrimSpace(answer) != c.Answer {
		return ResultMismatch
	}
	delete(e.store, key)
	return ResultOK
}

// Forget drops the member's challenge regardless of state.
func (e *Engine) Forget(guildID, memberID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.store, Key{GuildID: guildID, MemberID: memberID})
}

// Sweep purges every expired entry and returns the number removed.
// Safe to run even if lazy reads already dropped some of them.
func (e *Engine) Sweep() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	removed := 0
	for key, c := range e.store {
		if now.After(c.ExpiresAt) {
			delete(e.store, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.store)
}

