package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/harshyyy26/QuizApp/internal/model"
	"github.com/harshyyy26/QuizApp/internal/utils"
)

// UserRepo persists identities in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,username,email,password_hash,roles,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var roles string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roles, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.Roles = model.SplitRoles(roles)
	return u, nil
}

// Create hashes the password and inserts a user with the given role set.
// Username and email are normalized before the uniqueness checks so that
// "Alice" and "alice" collide.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, roles []model.Role, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if taken, err := r.ExistsByUsername(ctx, username); err != nil {
		return 0, err
	} else if taken {
		return 0, ErrUsernameExists
	}
	if taken, err := r.ExistsByEmail(ctx, email); err != nil {
		return 0, err
	} else if taken {
		return 0, ErrEmailExists
	}

	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, roles) VALUES (?,?,?,?)",
		username, email, hash, model.JoinRoles(roles))
	if err != nil {
		// Unique index still guards the race between check and insert.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ExistsByUsername reports whether a user with the given username exists.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// ExistsByEmail reports whether a user with the given email exists.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email=? LIMIT 1", strings.ToLower(strings.TrimSpace(email))).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// GetByUsername fetches a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", strings.ToLower(strings.TrimSpace(email))))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns all users for the admin overview.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		var roles string
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Roles = model.SplitRoles(roles)
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdatePassword stores a new bcrypt hash for the user owning the email.
// Used by the password reset workflow; the plain password never reaches
// the repository.
func (r *UserRepo) UpdatePassword(ctx context.Context, email, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE email=?",
		hash, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user by id.  Attempt history is deleted separately by the
// caller before the user row goes away.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
