package models

import "time"

// Member is a person on the roster who owes dues. ID is an opaque string
// (e.g. "2024-001") and is never treated as a number.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateMemberRequest struct {
	ID   string `json:"id" validate:"required,max=64"`
	Name string `json:"name" validate:"required,max=200"`
	Role string `json:"role" validate:"omitempty,oneof=member treasurer"`
}

// Roster is an immutable snapshot of members keyed by ID.
type Roster struct {
	members []Member
	byID    map[string]Member
}

func NewRoster(members []Member) Roster {
	byID := make(map[string]Member, len(members))
	list := make([]Member, 0, len(members))
	for _, m := range members {
		if _, dup := byID[m.ID]; dup {
			continue
		}
		byID[m.ID] = m
		list = append(list, m)
	}
	return Roster{members: list, byID: byID}
}

// Members returns the roster in its original order.
func (r Roster) Members() []Member {
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

func (r Roster) Lookup(id string) (Member, bool) {
	m, ok := r.byID[id]
	return m, ok
}

func (r Roster) Len() int {
	return len(r.members)
}
