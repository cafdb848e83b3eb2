package repository

import (
	"context"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository handles account data access.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, email, name, role, bio, avatar_url, password_hash, active, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	a := &model.Account{}
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.Bio, &a.AvatarURL,
		&a.PasswordHash, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new account and fills in the generated ID and timestamps.
func (r *AccountRepository) Create(ctx context.Context, a *model.Account) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, name, role, bio, avatar_url, password_hash, active)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		 RETURNING id, created_at, updated_at`,
		a.Email, a.Name, a.Role, a.Bio, a.AvatarURL, a.PasswordHash,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// GetByEmail retrieves an account by its unique email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id int) (*model.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// EmailExists reports whether an account already uses the given email.
func (r *AccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email,
	).Scan(&exists)
	return exists, err
}

// UpdateProfile updates the mutable profile fields of an account.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id int, name, bio, avatarURL string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET name = $1, bio = $2, avatar_url = $3, updated_at = NOW()
		 WHERE id = $4`,
		name, bio, avatarURL, id)
	return err
}

// UpdatePassword replaces the stored credential hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id)
	return err
}
