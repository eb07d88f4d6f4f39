package activity

import "time"

// Log is one append-only audit entry. Changes holds the mutation payload
// serialized as JSON; it is never parsed back by the server.
type Log struct {
	ID         string    `yaml:"id" json:"id"`
	UserID     string    `yaml:"user_id" json:"userId"`
	Timestamp  time.Time `yaml:"timestamp" json:"timestamp"`
	EntityType string    `yaml:"entity_type" json:"entityType"`
	EntityID   string    `yaml:"entity_id" json:"entityId"`
	Action     string    `yaml:"action" json:"action"`
	Changes    string    `yaml:"changes,omitempty" json:"changes,omitempty"`
}
