package repository

import (
	"context"
	"errors"

	"feeds-server/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a unique constraint is violated.
var ErrAlreadyExists = errors.New("already exists")

// UserRepository defines persistence operations for User entities. PostIDs,
// AppendPost and RemovePost manage the user's ordered list of owned posts.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	AppendPost(ctx context.Context, userID, postID int64) error
	RemovePost(ctx context.Context, userID, postID int64) error
	PostIDs(ctx context.Context, userID int64) ([]int64, error)
}
