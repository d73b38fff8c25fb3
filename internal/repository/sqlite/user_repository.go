package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"feeds-server/internal/domain"
	"feeds-server/internal/repository"
)

const createUsersTables = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS user_posts (
	user_id INTEGER NOT NULL REFERENCES users(id),
	post_id INTEGER NOT NULL,
	PRIMARY KEY (user_id, post_id)
);
`

const (
	insertUserSQL = `
INSERT INTO users (email, password_hash, name, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

	selectUserByEmailSQL = `
SELECT id, email, password_hash, name, status, created_at, updated_at
FROM users
WHERE email = ?`

	selectUserByIDSQL = `
SELECT id, email, password_hash, name, status, created_at, updated_at
FROM users
WHERE id = ?`

	updateUserStatusSQL = `
UPDATE users SET status = ?, updated_at = ? WHERE id = ?`

	insertUserPostSQL = `
INSERT INTO user_posts (user_id, post_id) VALUES (?, ?)`

	deleteUserPostSQL = `
DELETE FROM user_posts WHERE user_id = ? AND post_id = ?`

	selectUserPostsSQL = `
SELECT post_id FROM user_posts WHERE user_id = ? ORDER BY rowid`
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTables); err != nil {
		return fmt.Errorf("create users tables: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, insertUserSQL,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, fmt.Errorf("insert user: %w", repository.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserByEmailSQL, email))
	if err != nil {
		return nil, err
	}
	return r.withPosts(ctx, user)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserByIDSQL, id))
	if err != nil {
		return nil, err
	}
	return r.withPosts(ctx, user)
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, updateUserStatusSQL, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user status rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AppendPost(ctx context.Context, userID, postID int64) error {
	if _, err := r.db.ExecContext(ctx, insertUserPostSQL, userID, postID); err != nil {
		return fmt.Errorf("append user post: %w", err)
	}
	return nil
}

func (r *UserRepository) RemovePost(ctx context.Context, userID, postID int64) error {
	if _, err := r.db.ExecContext(ctx, deleteUserPostSQL, userID, postID); err != nil {
		return fmt.Errorf("remove user post: %w", err)
	}
	return nil
}

func (r *UserRepository) PostIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, selectUserPostsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list user posts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user post id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user posts: %w", err)
	}
	return ids, nil
}

func (r *UserRepository) withPosts(ctx context.Context, user *domain.User) (*domain.User, error) {
	ids, err := r.PostIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Posts = ids
	return user, nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
