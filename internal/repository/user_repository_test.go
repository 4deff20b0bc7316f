package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"catalog-sync/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryCreate(t *testing.T) {
	email := "ops@example.com"
	user := &domain.User{
		Username:     "ops",
		PasswordHash: "$2a$10$hash",
		Email:        &email,
		Role:         domain.RoleReporter,
		CreatedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("stores the account", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("ops", "$2a$10$hash", "ops@example.com", domain.RoleReporter, user.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(anyArgs(5)...).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(context.Background(), user)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("other failure is wrapped", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)
		fault := errors.New("broken pipe")

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(anyArgs(5)...).
			WillReturnError(fault)

		err := repo.Create(context.Background(), user)
		assert.ErrorIs(t, err, fault)
		assert.NotErrorIs(t, err, ErrUserAlreadyExists)
	})
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	columns := []string{"username", "password_hash", "email", "role", "created_at"}
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found without email", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE username = $1")).
			WithArgs("ops").
			WillReturnRows(sqlmock.NewRows(columns).AddRow("ops", "hash", nil, "admin", created))

		user, err := repo.FindByUsername(context.Background(), "ops")
		require.NoError(t, err)
		assert.Equal(t, "ops", user.Username)
		assert.Equal(t, domain.RoleAdmin, user.Role)
		assert.Nil(t, user.Email)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE username = $1")).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := repo.FindByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
