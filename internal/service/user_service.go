package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"feeds-server/internal/apperr"
	"feeds-server/internal/domain"
	"feeds-server/internal/repository"
)

// defaultStatus is assigned to every freshly registered user.
const defaultStatus = "I am new!"

// minPasswordLength is the registration password floor.
const minPasswordLength = 6

// UserService describes account lifecycle operations.
type UserService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.User, error)
}

type userService struct {
	users    repository.UserRepository
	validate *validator.Validate
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{
		users:    users,
		validate: validator.New(),
	}
}

// Register validates the input, hashes the password and stores the account.
// Field problems are aggregated into a single 422 error.
func (s *userService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	var problems []string
	if err := s.validate.Var(email, "required,email"); err != nil {
		problems = append(problems, "Please enter valid email!")
	}
	if password == "" || utf8.RuneCountInString(password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("Please enter valid password! Minimum %d characters", minPasswordLength))
	}
	if len(problems) > 0 {
		return nil, apperr.Invalid("Invalid input!", problems)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Status:       defaultStatus,
		Posts:        []int64{},
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, apperr.Invalid("User already exists!", nil)
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

// Authenticate checks credentials and returns the account on success. Unknown
// email and wrong password both fail with a 401.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("User not found!")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("Wrong password!")
	}

	return sanitizeUser(user), nil
}

// GetByID returns the account for an authenticated request. A missing record
// is a 401: the token referenced a user that no longer exists.
func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("User not found!")
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

// UpdateStatus replaces the user's free-text status.
func (s *userService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.User, error) {
	if strings.TrimSpace(status) == "" {
		return nil, apperr.Invalid("Invalid input!", []string{"Please enter status"})
	}

	if err := s.users.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("User not found!")
		}
		return nil, err
	}

	return s.GetByID(ctx, id)
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Status:    user.Status,
		Posts:     user.Posts,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
