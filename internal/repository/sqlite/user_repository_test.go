package sqlite

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"feeds-server/internal/domain"
	"feeds-server/internal/repository"
)

func newMockUserRepo(t *testing.T) (repository.UserRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	repo := NewUserRepository(db)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

var userColumns = []string{"id", "email", "password_hash", "name", "status", "created_at", "updated_at"}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name       string
		mockExpect func(sqlmock.Sqlmock)
		wantID     int64
		wantErr    error
	}{
		{
			name: "success",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
					WithArgs("alice@example.com", "hash", "Alice", "I am new!", sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(42, 1))
			},
			wantID: 42,
		},
		{
			name: "duplicate email",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
					WithArgs("alice@example.com", "hash", "Alice", "I am new!", sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.email"))
			},
			wantErr: repository.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := newMockUserRepo(t)
			defer cleanup()

			tt.mockExpect(mock)

			user := &domain.User{
				Email:        "alice@example.com",
				PasswordHash: "hash",
				Name:         "Alice",
				Status:       "I am new!",
			}
			id, err := repo.Create(context.Background(), user)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if id != tt.wantID {
				t.Fatalf("expected id %d, got %d", tt.wantID, id)
			}
			if user.ID != tt.wantID {
				t.Fatalf("expected user.ID to be set to %d, got %d", tt.wantID, user.ID)
			}
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	repo, mock, cleanup := newMockUserRepo(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(selectUserByIDSQL)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "alice@example.com", "hash", "Alice", "I am new!", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(selectUserPostsSQL)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"post_id"}).AddRow(int64(3)).AddRow(int64(5)))

	user, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}
	if len(user.Posts) != 2 || user.Posts[0] != 3 || user.Posts[1] != 5 {
		t.Fatalf("expected posts [3 5], got %v", user.Posts)
	}
}

func TestUserRepository_GetByEmailNotFound(t *testing.T) {
	repo, mock, cleanup := newMockUserRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByEmailSQL)).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_UpdateStatus(t *testing.T) {
	repo, mock, cleanup := newMockUserRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(updateUserStatusSQL)).
		WithArgs("hello", sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), 7, "hello"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(updateUserStatusSQL)).
		WithArgs("hello", sqlmock.AnyArg(), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateStatus(context.Background(), 8, "hello"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestUserRepository_PostList(t *testing.T) {
	repo, mock, cleanup := newMockUserRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(insertUserPostSQL)).
		WithArgs(int64(7), int64(12)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := repo.AppendPost(context.Background(), 7, 12); err != nil {
		t.Fatalf("append post: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(deleteUserPostSQL)).
		WithArgs(int64(7), int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.RemovePost(context.Background(), 7, 12); err != nil {
		t.Fatalf("remove post: %v", err)
	}
}
