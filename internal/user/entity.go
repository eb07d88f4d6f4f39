package user

import "time"

// User is a directory record for an authenticated account. Account
// registration and credential handling live outside this service; users are
// read here only to resolve sessions and enrich responses with names.
type User struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Email     string    `yaml:"email"`
	CreatedAt time.Time `yaml:"created_at"`
}

// DisplayName returns the name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
