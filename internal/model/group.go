package model

import "time"

// Group is a private study group. The creator becomes an accepted member on
// creation; everyone else joins through the pending -> accepted request flow.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
)

type GroupMember struct {
	ID       string       `json:"id"`
	GroupID  string       `json:"group_id"`
	UserID   string       `json:"user_id"`
	Status   MemberStatus `json:"status"`
	JoinedAt time.Time    `json:"joined_at"`

	// Enriched for join-request listings.
	UserName string `json:"user_name,omitempty"`
}
