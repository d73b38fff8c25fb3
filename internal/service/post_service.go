package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"feeds-server/internal/apperr"
	"feeds-server/internal/domain"
	"feeds-server/internal/repository"
	"feeds-server/internal/storage"
)

// postsPerPage is the fixed page size for post listings.
const postsPerPage = 2

// minFieldLength applies to both post title and content.
const minFieldLength = 5

// PostInput carries the client-provided fields of a post mutation.
type PostInput struct {
	Title    string
	Content  string
	ImageURL string
}

// PostPage is one page of the listing plus the overall count.
type PostPage struct {
	Posts      []domain.Post
	TotalPosts int
}

// PostService implements post CRUD with ownership checks. Every operation
// requires an existing requesting user.
type PostService interface {
	Create(ctx context.Context, userID int64, input PostInput) (*domain.Post, error)
	List(ctx context.Context, userID int64, page int) (*PostPage, error)
	Get(ctx context.Context, userID, id int64) (*domain.Post, error)
	Update(ctx context.Context, userID, id int64, input PostInput) (*domain.Post, error)
	Delete(ctx context.Context, userID, id int64) (bool, error)
}

type postService struct {
	posts  repository.PostRepository
	users  repository.UserRepository
	images storage.Service
	logger *logrus.Logger
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, images storage.Service, logger *logrus.Logger) PostService {
	if logger == nil {
		logger = logrus.New()
	}
	return &postService{
		posts:  posts,
		users:  users,
		images: images,
		logger: logger,
	}
}

func (s *postService) Create(ctx context.Context, userID int64, input PostInput) (*domain.Post, error) {
	if err := validatePostInput(input); err != nil {
		return nil, err
	}

	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		Title:     input.Title,
		Content:   input.Content,
		ImageURL:  input.ImageURL,
		CreatorID: userID,
	}

	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	// Second, independent write: a crash here leaves the post orphaned from
	// the owner's list. The store offers no cross-call transaction.
	if err := s.users.AppendPost(ctx, userID, post.ID); err != nil {
		return nil, err
	}

	post.Creator = user
	return post, nil
}

func (s *postService) List(ctx context.Context, userID int64, page int) (*PostPage, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}

	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.List(ctx, (page-1)*postsPerPage, postsPerPage)
	if err != nil {
		return nil, err
	}
	if err := s.populateCreators(ctx, posts); err != nil {
		return nil, err
	}

	return &PostPage{Posts: posts, TotalPosts: total}, nil
}

func (s *postService) Get(ctx context.Context, userID, id int64) (*domain.Post, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Post not found!")
		}
		return nil, err
	}

	creator, err := s.users.GetByID(ctx, post.CreatorID)
	if err != nil {
		return nil, err
	}
	post.Creator = sanitizeUser(creator)
	return post, nil
}

func (s *postService) Update(ctx context.Context, userID, id int64, input PostInput) (*domain.Post, error) {
	if err := validatePostInput(input); err != nil {
		return nil, err
	}

	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	post, err := s.ownedPost(ctx, userID, id, "User not authorized to update!")
	if err != nil {
		return nil, err
	}

	post.Title = input.Title
	post.Content = input.Content
	if !keepsImage(input.ImageURL) {
		post.ImageURL = input.ImageURL
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Post not found!")
		}
		return nil, err
	}

	post.Creator = user
	return post, nil
}

func (s *postService) Delete(ctx context.Context, userID, id int64) (bool, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return false, err
	}

	post, err := s.ownedPost(ctx, userID, id, "User not authorized to delete!")
	if err != nil {
		return false, err
	}

	if post.ImageURL != "" && s.images != nil {
		if err := s.images.Remove(ctx, post.ImageURL); err != nil {
			s.logger.Warnf("remove image for post %d: %v", post.ID, err)
		}
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return false, err
	}
	if err := s.users.RemovePost(ctx, userID, post.ID); err != nil {
		return false, err
	}

	return true, nil
}

// ownedPost loads a post and enforces the ownership predicate. The requester
// must be the creator; everything else is a 403 regardless of auth validity.
func (s *postService) ownedPost(ctx context.Context, userID, id int64, denied string) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Post not found!")
		}
		return nil, err
	}
	if post.CreatorID != userID {
		return nil, apperr.Forbidden(denied)
	}
	return post, nil
}

func (s *postService) requireUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("User not found!")
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *postService) populateCreators(ctx context.Context, posts []domain.Post) error {
	cache := make(map[int64]*domain.User)
	for i := range posts {
		creator, ok := cache[posts[i].CreatorID]
		if !ok {
			loaded, err := s.users.GetByID(ctx, posts[i].CreatorID)
			if err != nil {
				return err
			}
			creator = sanitizeUser(loaded)
			cache[posts[i].CreatorID] = creator
		}
		posts[i].Creator = creator
	}
	return nil
}

func validatePostInput(input PostInput) error {
	var problems []string
	if strings.TrimSpace(input.Title) == "" || utf8.RuneCountInString(input.Title) < minFieldLength {
		problems = append(problems, "Please enter valid title")
	}
	if strings.TrimSpace(input.Content) == "" || utf8.RuneCountInString(input.Content) < minFieldLength {
		problems = append(problems, "Please enter valid content")
	}
	if len(problems) > 0 {
		return apperr.Invalid("Invalid input!", problems)
	}
	return nil
}

// keepsImage reports whether the client asked to keep the stored image
// reference. Web clients send the literal string "undefined" when the image
// was left untouched.
func keepsImage(imageURL string) bool {
	return imageURL == "" || imageURL == "undefined"
}
