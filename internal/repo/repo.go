package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository stores lab accounts.
type Repository interface {
	CreateUser(ctx context.Context, email, displayName, password string) (int, error)
	GetByEmail(ctx context.Context, email string) (int, string, error)
	GetProfileByID(ctx context.Context, id int) (User, error)
	UpdateProfile(ctx context.Context, id int, displayName string) error
}

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserDB(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, email, displayName, password string) (int, error) {
	var id int
	query := "INSERT INTO users (email, display_name, password) VALUES ($1, $2, $3) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, email, displayName, password).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetByEmail returns the id and password hash for an account. An unknown
// email yields id 0 and an empty hash.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (int, string, error) {
	var id int
	var hash string

	query := "SELECT id, password FROM users WHERE email=$1"

	err := r.db.QueryRowContext(ctx, query, email).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", nil
		}
		return 0, "", err
	}
	return id, hash, nil
}

func (r *PostgresUserRepository) GetProfileByID(ctx context.Context, id int) (User, error) {
	var u User
	query := "SELECT id, email, display_name, role, created_at FROM users WHERE id=$1"
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id int, displayName string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET display_name=$1 WHERE id=$2", displayName, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
