// Package setup models the interactive configuration wizard as explicit
// short-lived sessions. Events are routed to a session by channel and owner
// instead of ambient collector filters; anyone else's clicks are ignored.
package setup

import (
	"fmt"
	"sync"
	"time"

	"verify-bot/model"
)

// Timeout is how long a wizard stays interactive after starting.
const Timeout = 2 * time.Minute

// State of a wizard session.
type State int

const (
	StateAwaitingSelection State = iota
	StateAwaitingConfirmation
	StateApplied
	StateCancelled
)

// Session is one admin's in-progress configuration flow.
type Session struct {
	ChannelID string
	OwnerID   string
	MessageID string // the wizard message carrying the controls
	Methods   []string
	State     State
	Deadline  time.Time
}

// Registry tracks at most one live session per channel.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewRegistry creates a registry. now may be nil for the wall clock.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions: make(map[string]*Session),
		now:      now,
	}
}

// Start opens a session for the admin, replacing any prior session in the
// same channel.
func (r *Registry) Start(channelID, ownerID, messageID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{
		ChannelID: channelID,
		OwnerID:   ownerID,
		MessageID: messageID,
		State:     StateAwaitingSelection,
		Deadline:  r.now().Add(Timeout),
	}
	r.sessions[channelID] = s
	return s
}

// Route finds the live session an incoming component event belongs to.
// Returns false when there is no session, the session expired (it is dropped
// silently, matching the collector timeout it replaces), or the actor is not
// the owner. Non-owner events are ignored, not rejected.
func (r *Registry) Route(channelID, actorID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[channelID]
	if !ok {
		return nil, false
	}
	if r.now().After(s.Deadline) {
		delete(r.sessions, channelID)
		return nil, false
	}
	if s.OwnerID != actorID {
		return nil, false
	}
	return s, true
}

// Select stores the pending (unsaved) method choice, overwriting any prior
// selection.
func (r *Registry) Select(s *Session, methods []string) error {
	if len(methods) == 0 || len(methods) > 3 {
		return fmt.Errorf("select between 1 and 3 methods")
	}
	for _, m := range methods {
		if !model.IsKnownMethod(m) {
			return fmt.Errorf("unknown verification method %q", m)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s.Methods = append([]string(nil), methods...)
	s.State = StateAwaitingConfirmation
	return nil
}

// Confirm finalizes the session. It fails when nothing has been selected;
// the session stays live so the admin can pick methods and retry.
func (r *Registry) Confirm(s *Session) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(s.Methods) == 0 {
		return nil, fmt.Errorf("choose at least one method before confirming")
	}
	s.State = StateApplied
	delete(r.sessions, s.ChannelID)
	return s.Methods, nil
}

// Cancel ends the session without applying anything.
func (r *Registry) Cancel(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.State = StateCancelled
	delete(r.sessions, s.ChannelID)
}

// Reap drops expired sessions. The wizard message itself is left in place.
func (r *Registry) Reap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for channelID, s := range r.sessions {
		if now.After(s.Deadline) {
			delete(r.sessions, channelID)
			removed++
		}
	}
	return removed
}
