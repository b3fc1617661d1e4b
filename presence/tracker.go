// Package presence tracks which client surfaces each member is connected
// through. The gateway's client_status payload is not surfaced by the typed
// discordgo events, so the tracker feeds off the raw event stream instead.
package presence

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// PlatformWeb is the constrained client surface the detection rule keys on.
const PlatformWeb = "web"

type clientStatus struct {
	Desktop string `json:"desktop"`
	Mobile  string `json:"mobile"`
	Web     string `json:"web"`
}

type rawPresence struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	ClientStatus clientStatus `json:"client_status"`
}

type rawChunk struct {
	GuildID    string              `json:"guild_id"`
	Members    []*discordgo.Member `json:"members"`
	ChunkIndex int                 `json:"chunk_index"`
	ChunkCount int                 `json:"chunk_count"`
	Presences  []rawPresence       `json:"presences"`
	Nonce      string              `json:"nonce"`
}

type rawGuildCreate struct {
	ID        string        `json:"id"`
	Presences []rawPresence `json:"presences"`
}

type memberRequest struct {
	nonce   string
	guildID string
	members []*discordgo.Member
	done    chan struct{}
}

// Tracker caches per-member platform sets and collects full member listings
// requested over the gateway.
type Tracker struct {
	guildID string

	mu        sync.RWMutex
	platforms map[string][]string
	active    *memberRequest

	// reqMu serializes Refresh calls; chunk responses carry a nonce, but
	// only one outstanding request keeps the bookkeeping trivial.
	reqMu sync.Mutex
}

// NewTracker creates a tracker scoped to the managed guild.
func NewTracker(guildID string) *Tracker {
	return &Tracker{
		guildID:   guildID,
		platforms: make(map[string][]string),
	}
}

// Register attaches the tracker to the session's raw event stream.
func (t *Tracker) Register(s *discordgo.Session) {
	s.AddHandler(func(_ *discordgo.Session, e *discordgo.Event) {
		t.handleEvent(e)
	})
}

func (t *Tracker) handleEvent(e *discordgo.Event) {
	switch e.Type {
	case "PRESENCE_UPDATE":
		var p rawPresence
		if err := json.Unmarshal(e.RawData, &p); err != nil || p.User.ID == "" {
			return
		}
		t.mu.Lock()
		t.platforms[p.User.ID] = p.ClientStatus.list()
		t.mu.Unlock()

	case "GUILD_CREATE":
		var g rawGuildCreate
		if err := json.Unmarshal(e.RawData, &g); err != nil || g.ID != t.guildID {
			return
		}
		t.storePresences(g.Presences)

	case "GUILD_MEMBERS_CHUNK":
		var c rawChunk
		if err := json.Unmarshal(e.RawData, &c); err != nil || c.GuildID != t.guildID {
			return
		}
		t.storePresences(c.Presences)
		t.collectChunk(&c)
	}
}

func (t *Tracker) storePresences(presences []rawPresence) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range presences {
		if p.User.ID != "" {
			t.platforms[p.User.ID] = p.ClientStatus.list()
		}
	}
}

func (t *Tracker) collectChunk(c *rawChunk) {
	t.mu.Lock()
	defer t.mu.Unlock()
	req := t.active
	if req == nil || (c.Nonce != "" && c.Nonce != req.nonce) {
		return
	}
	req.members = append(req.members, c.Members...)
	if c.ChunkIndex >= c.ChunkCount-1 {
		close(req.done)
		t.active = nil
	}
}

// Platforms returns the member's currently-connected client surfaces, in
// fixed desktop, mobile, web order. Empty means offline or no presence seen.
func (t *Tracker) Platforms(userID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.platforms[userID]...)
}

// IsWebOnly reports whether the platform set matches the detection rule:
// exactly one connected surface and it is the web client.
func IsWebOnly(platforms []string) bool {
	return len(platforms) == 1 && platforms[0] == PlatformWeb
}

// Refresh requests the full member list with presences over the gateway and
// blocks until all chunks arrive or the timeout passes. The presence cache is
// updated as a side effect.
func (t *Tracker) Refresh(s *discordgo.Session, timeout time.Duration) ([]*discordgo.Member, error) {
	t.reqMu.Lock()
	defer t.reqMu.Unlock()

	req := &memberRequest{
		nonce:   fmt.Sprintf("%d", time.Now().UnixNano()),
		guildID: t.guildID,
		done:    make(chan struct{}),
	}
	t.mu.Lock()
	t.active = req
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.active = nil
		t.mu.Unlock()
	}()

	if err := s.RequestGuildMembers(t.guildID, "", 0, req.nonce, true); err != nil {
		return nil, err
	}

	select {
	case <-req.done:
		t.mu.Lock()
		members := req.members
		t.mu.Unlock()
		return members, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("member chunk response timed out after %s", timeout)
	}
}

// list returns the connected surfaces in fixed order. The gateway only
// includes a key for surfaces with an active session.
func (cs clientStatus) list() []string {
	var out []string
	if cs.Desktop != "" {
		out = append(out, "desktop")
	}
	if cs.Mobile != "" {
		out = append(out, "mobile")
	}
	if cs.Web != "" {
		out = append(out, PlatformWeb)
	}
	return out
}
