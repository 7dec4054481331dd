package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/surrlabs/surr/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	const query = `SELECT id, username, password_hash, created_at, updated_at
                   FROM users WHERE username = $1`

	var user model.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	const query = `INSERT INTO users (id, username, password_hash, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING id, username, password_hash, created_at, updated_at`

	var saved model.User
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	).Scan(
		&saved.ID, &saved.Username, &saved.PasswordHash, &saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrUsernameTaken
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}
