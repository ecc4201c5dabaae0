package identity

import (
	"context"
	"database/sql"
	"errors"
)

// User is a stored user row. Password stays inside this package.
type User struct {
	ID       int64
	Nombre   string
	Email    string
	Password string
	Tipo     string
}

// Repository reads and updates user records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UserByEmail looks a user up by unique email. Returns nil when no
// such user exists.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, nombre, email, password, tipo
		FROM usuarios
		WHERE email = $1
	`, email)
	var u User
	if err := row.Scan(&u.ID, &u.Nombre, &u.Email, &u.Password, &u.Tipo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// UpdatePassword replaces the stored password inside a transaction.
func (r *Repository) UpdatePassword(ctx context.Context, email, newPassword string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE usuarios
		SET password = $2
		WHERE email = $1
	`, email, newPassword); err != nil {
		return err
	}
	return tx.Commit()
}
