package domain

import "time"

// Post is a single feed entry. CreatorID is set at creation and never changes.
// Creator is populated by lookups that resolve the owning user.
type Post struct {
	ID        int64
	Title     string
	Content   string
	ImageURL  string
	CreatorID int64
	Creator   *User
	CreatedAt time.Time
	UpdatedAt time.Time
}
