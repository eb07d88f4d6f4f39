package project

import "time"

type Project struct {
	ID          string    `yaml:"id" json:"id"`
	WorkspaceID string    `yaml:"workspace_id" json:"workspaceId"`
	Name        string    `yaml:"name" json:"name"`
	ImageURL    string    `yaml:"image_url,omitempty" json:"imageUrl,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updatedAt"`
}
