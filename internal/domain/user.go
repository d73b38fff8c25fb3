package domain

import "time"

// User represents a registered account. Posts holds the ids of posts the user
// created, in creation order.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Status       string
	Posts        []int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
