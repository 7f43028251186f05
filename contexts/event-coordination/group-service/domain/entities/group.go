package entities

import "time"

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

const (
	DefaultMaxMembers = 10
	MinMaxMembers     = 2
	MaxMaxMembers     = 100
)

// InviteCodeAlphabet leaves out I, O, 0 and 1 so codes survive being read
// aloud.
const (
	InviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	InviteCodeLength   = 6
)

type Group struct {
	GroupID     string
	Name        string
	OwnerID     string
	InviteCode  string
	MaxMembers  int
	LastEventAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (g Group) IsOwnedBy(userID string) bool {
	return g.OwnerID != "" && g.OwnerID == userID
}

type Member struct {
	GroupID  string
	UserID   string
	Role     string
	JoinedAt time.Time
}

// GroupView is a group as one of its members sees it.
type GroupView struct {
	Group       Group
	MemberCount int
	Members     []Member
	MyRole      string
}

// GroupSummary is one row of a member's group list.
type GroupSummary struct {
	Group       Group
	MemberCount int
	MyRole      string
}
