package workspace

import "time"

// Workspace is the top-level tenant. Every project, member and task belongs
// to exactly one workspace.
type Workspace struct {
	ID        string    `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	ImageURL  string    `yaml:"image_url,omitempty" json:"imageUrl,omitempty"`
	OwnerID   string    `yaml:"owner_id" json:"ownerId"`
	CreatedAt time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updatedAt"`
}
