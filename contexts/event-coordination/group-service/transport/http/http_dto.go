package http

import "time"

type CreateGroupRequest struct {
	Name       string `json:"name" validate:"required,max=60"`
	MaxMembers *int   `json:"max_members,omitempty" validate:"omitempty,min=2,max=100"`
}

type JoinGroupRequest struct {
	InviteCode string `json:"invite_code" validate:"required,min=6,max=12"`
}

type UpdateGroupRequest struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,max=60"`
	MaxMembers       *int    `json:"max_members,omitempty" validate:"omitempty,min=2,max=100"`
	RegenerateInvite bool    `json:"regenerate_invite,omitempty"`
}

type GroupResponse struct {
	GroupID     string     `json:"group_id"`
	Name        string     `json:"name"`
	OwnerID     string     `json:"owner_id"`
	InviteCode  string     `json:"invite_code"`
	MaxMembers  int        `json:"max_members"`
	LastEventAt *time.Time `json:"last_event_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type MemberResponse struct {
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type GroupDetailResponse struct {
	Group       GroupResponse    `json:"group"`
	MemberCount int              `json:"member_count"`
	Members     []MemberResponse `json:"members"`
	MyRole      string           `json:"my_role"`
}

type GroupSummaryItem struct {
	Group       GroupResponse `json:"group"`
	MemberCount int           `json:"member_count"`
	MyRole      string        `json:"my_role"`
}

type ListGroupsResponse struct {
	Items []GroupSummaryItem `json:"items"`
}
