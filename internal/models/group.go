package models

import "time"

const (
	GroupRoleOwner  = "owner"
	GroupRoleMember = "member"
)

type Group struct {
	ID          int       `json:"id" db:"id"`
	OwnerID     int       `json:"owner_id" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type GroupMember struct {
	GroupID     int       `json:"group_id" db:"group_id"`
	UserID      int       `json:"user_id" db:"user_id"`
	Role        string    `json:"role" db:"role"`
	Preferences *string   `json:"preferences" db:"preferences"`
	JoinedAt    time.Time `json:"joined_at" db:"joined_at"`

	// Joined fields
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description"`
}

type InviteMemberRequest struct {
	FriendID    int     `json:"friendId" validate:"required"`
	Preferences *string `json:"preferences"`
}

type UpdatePreferencesRequest struct {
	Preferences string `json:"preferences" validate:"max=1000"`
}
