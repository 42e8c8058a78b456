package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/profiledesk/apiserver/types"
)

const accountColumns = `id, username, email, password_hash, name, phone, bio, position, department, avatar, banner, created_at, updated_at`

var postgresPlaceholder = regexp.MustCompile(`\$(\d+)`)

// AccountRepository handles persistence for accounts.
type AccountRepository struct {
	db     *sql.DB
	driver string
}

// NewAccountRepository constructs a repository for the given SQL driver
// ("postgres" or "sqlite").
func NewAccountRepository(db *sql.DB, driver string) *AccountRepository {
	return &AccountRepository{db: db, driver: driver}
}

// rebind rewrites $N placeholders into SQLite's ?N form.
func (r *AccountRepository) rebind(query string) string {
	if r.driver != "sqlite" {
		return query
	}
	return postgresPlaceholder.ReplaceAllString(query, "?$1")
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (types.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Account{}, ErrNotFound
	}
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByIdentifier looks up an account whose email or username equals the
// normalized identifier.
func (r *AccountRepository) GetByIdentifier(ctx context.Context, identifier string) (types.Account, error) {
	return r.getOne(ctx, `WHERE email = $1 OR username = $1`, normalize(identifier))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	return r.getOne(ctx, `WHERE email = $1`, normalize(email))
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (types.Account, error) {
	return r.getOne(ctx, `WHERE username = $1`, normalize(username))
}

func (r *AccountRepository) getOne(ctx context.Context, where string, args ...any) (types.Account, error) {
	query := r.rebind(`SELECT ` + accountColumns + ` FROM accounts ` + where + ` LIMIT 1`)
	var account types.Account
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Name,
		&account.Phone,
		&account.Bio,
		&account.Position,
		&account.Department,
		&account.Avatar,
		&account.Banner,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	return account, nil
}

// Create inserts a new account. Username and email are stored lowercase;
// a duplicate of either yields ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.Username = normalize(account.Username)
	account.Email = normalize(account.Email)

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	query := r.rebind(`
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if _, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Name,
		account.Phone,
		account.Bio,
		account.Position,
		account.Department,
		account.Avatar,
		account.Banner,
		account.CreatedAt,
		account.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.Account{}, ErrConflict
		}
		return types.Account{}, err
	}
	return account, nil
}

// Update saves every mutable field of the account.
func (r *AccountRepository) Update(ctx context.Context, account types.Account) (types.Account, error) {
	account.Username = normalize(account.Username)
	account.Email = normalize(account.Email)
	account.UpdatedAt = time.Now().UTC()

	query := r.rebind(`
		UPDATE accounts
		SET username = $1,
			email = $2,
			password_hash = $3,
			name = $4,
			phone = $5,
			bio = $6,
			position = $7,
			department = $8,
			avatar = $9,
			banner = $10,
			updated_at = $11
		WHERE id = $12`)
	result, err := r.db.ExecContext(
		ctx,
		query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Name,
		account.Phone,
		account.Bio,
		account.Position,
		account.Department,
		account.Avatar,
		account.Banner,
		account.UpdatedAt,
		account.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Account{}, ErrConflict
		}
		return types.Account{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Account{}, err
	}
	if affected == 0 {
		return types.Account{}, ErrNotFound
	}
	return account, nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
