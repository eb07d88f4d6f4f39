package member

import "time"

// Role is the closed set of stored workspace roles. A user with no member
// record has no access at all; "guest" is the absence of membership, not a
// stored role.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Member associates a user with a workspace at a role. The member id, not
// the user id, is what tasks reference as assignee.
type Member struct {
	ID          string    `yaml:"id" json:"id"`
	WorkspaceID string    `yaml:"workspace_id" json:"workspaceId"`
	UserID      string    `yaml:"user_id" json:"userId"`
	Role        Role      `yaml:"role" json:"role"`
	CreatedAt   time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updatedAt"`
}
