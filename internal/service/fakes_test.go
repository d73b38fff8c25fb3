package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"feeds-server/internal/domain"
	"feeds-server/internal/repository"
)

// In-memory repository fakes backing the service tests.

type fakeUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]*domain.User
	byEmail map[string]int64
	posts   map[int64][]int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID:  1,
		users:   make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
		posts:   make(map[int64][]int64),
	}
}

func (r *fakeUserRepo) Init(context.Context) error { return nil }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return 0, repository.ErrAlreadyExists
	}
	user.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.users[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	id, ok := r.byEmail[email]
	r.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	copied.Posts = append([]int64(nil), r.posts[id]...)
	return &copied, nil
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeUserRepo) AppendPost(_ context.Context, userID, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[userID] = append(r.posts[userID], postID)
	return nil
}

func (r *fakeUserRepo) RemovePost(_ context.Context, userID, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.posts[userID]
	for i, id := range ids {
		if id == postID {
			r.posts[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeUserRepo) PostIDs(_ context.Context, userID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.posts[userID]...), nil
}

type fakePostRepo struct {
	mu     sync.Mutex
	nextID int64
	clock  time.Time
	posts  map[int64]*domain.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		nextID: 1,
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		posts:  make(map[int64]*domain.Post),
	}
}

func (r *fakePostRepo) Init(context.Context) error { return nil }

func (r *fakePostRepo) Create(_ context.Context, post *domain.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = r.nextID
	r.nextID++
	// strictly increasing timestamps so ordering is deterministic
	r.clock = r.clock.Add(time.Second)
	post.CreatedAt = r.clock
	post.UpdatedAt = r.clock
	stored := *post
	r.posts[post.ID] = &stored
	return post.ID, nil
}

func (r *fakePostRepo) Get(_ context.Context, id int64) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *post
	return &copied, nil
}

func (r *fakePostRepo) Update(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.posts[post.ID]
	if !ok {
		return repository.ErrNotFound
	}
	post.UpdatedAt = time.Now().UTC()
	stored.Title = post.Title
	stored.Content = post.Content
	stored.ImageURL = post.ImageURL
	stored.UpdatedAt = post.UpdatedAt
	return nil
}

func (r *fakePostRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) List(_ context.Context, offset, limit int) ([]domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.Post, 0, len(r.posts))
	for _, post := range r.posts {
		all = append(all, *post)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakePostRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts), nil
}

type fakeStorage struct {
	mu      sync.Mutex
	removed []string
}

func (s *fakeStorage) Put(_ context.Context, name, _ string, _ io.Reader) (string, error) {
	return "images/" + name, nil
}

func (s *fakeStorage) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, path)
	return nil
}

func (s *fakeStorage) removedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.removed...)
}
