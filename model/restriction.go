package model

import "time"

// RestrictionRecord tracks the last observed restriction transition for a
// member. The external marker role stays the source of truth; this record only
// mirrors the most recent action taken during the current session.
type RestrictionRecord struct {
	MemberID         string
	IsRestricted     bool
	Reason           string
	LastTransitionAt time.Time
}
