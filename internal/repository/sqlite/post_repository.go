package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feeds-server/internal/domain"
	"feeds-server/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	image_url TEXT NOT NULL,
	creator_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const (
	insertPostSQL = `
INSERT INTO posts (title, content, image_url, creator_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

	selectPostSQL = `
SELECT id, title, content, image_url, creator_id, created_at, updated_at
FROM posts
WHERE id = ?`

	updatePostSQL = `
UPDATE posts SET title = ?, content = ?, image_url = ?, updated_at = ?
WHERE id = ?`

	deletePostSQL = `
DELETE FROM posts WHERE id = ?`

	listPostsSQL = `
SELECT id, title, content, image_url, creator_id, created_at, updated_at
FROM posts
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

	countPostsSQL = `
SELECT COUNT(*) FROM posts`
)

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, insertPostSQL,
		post.Title,
		post.Content,
		post.ImageURL,
		post.CreatorID,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("post last insert id: %w", err)
	}
	post.ID = id
	return id, nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	return scanPost(r.db.QueryRowContext(ctx, selectPostSQL, id))
}

func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	post.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, updatePostSQL,
		post.Title,
		post.Content,
		post.ImageURL,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, deletePostSQL, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (r *PostRepository) List(ctx context.Context, offset, limit int) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, listPostsSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, countPostsSQL).Scan(&total); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

func scanPost(row interface {
	Scan(dest ...any) error
}) (*domain.Post, error) {
	var post domain.Post
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.ImageURL,
		&post.CreatorID,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &post, nil
}
