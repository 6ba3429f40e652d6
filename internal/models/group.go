package models

// Member identifies a participant in a group.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string `json:"id"`

	// Name is the member's display name.
	Name string `json:"name"`
}

// Group is a set of members who share expenses in a single currency.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates").
	Name string `json:"name"`

	// Currency is the ISO 4217 code all of the group's amounts are in.
	// The ledger carries it but never interprets it.
	Currency string `json:"currency"`

	// Members is the group's current member list.
	Members []Member `json:"members"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// HasMember reports whether the given member id belongs to the group.
func (g *Group) HasMember(memberID string) bool {
	for _, m := range g.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

// MemberName returns the display name for a member id, or "Unknown" if
// the member is not (or no longer) in the group.
func (g *Group) MemberName(memberID string) string {
	for _, m := range g.Members {
		if m.ID == memberID {
			return m.Name
		}
	}
	return "Unknown"
}
