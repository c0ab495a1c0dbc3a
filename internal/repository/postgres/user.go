package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) GetByIDAndRole(ctx context.Context, id uuid.UUID, role model.Role) (*model.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1 AND role = $2
	`
	var user model.User
	err := r.GetDB().GetContext(ctx, &user, query, id, role)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("User", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpsertByEmail inserts user or, when the email is taken, leaves the stored
// row untouched. Either way user.ID and timestamps reflect the stored row.
func (r *userRepository) UpsertByEmail(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, role, created_at, updated_at
	`
	row := r.GetDB().QueryRowxContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err := row.Scan(&user.ID, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
