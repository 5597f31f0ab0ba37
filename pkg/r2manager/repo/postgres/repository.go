// Package postgres implements r2manager.Repository using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements r2manager.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "users_email") {
				return r2manager.ErrEmailTaken
			}
			if strings.Contains(pgErr.ConstraintName, "storage_accounts") {
				return r2manager.ErrAccountExists
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *r2manager.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create_user", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*r2manager.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users WHERE id = $1`

	var user r2manager.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r2manager.ErrUserNotFound
		}
		return nil, r.handlePostgresError("get_user", err)
	}
	return &user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*r2manager.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1`

	var user r2manager.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r2manager.ErrUserNotFound
		}
		return nil, r.handlePostgresError("get_user_by_email", err)
	}
	return &user, nil
}

// Storage account operations

func (r *Repository) CreateStorageAccount(ctx context.Context, account *r2manager.StorageAccount) error {
	query := `
		INSERT INTO storage_accounts (
			id, owner_id, cf_account_id, name, access_key_id, secret_access_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		account.ID, account.OwnerID, account.CFAccountID, account.Name,
		account.AccessKeyID, account.SecretAccessKey, account.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create_storage_account", err)
	}
	return nil
}

func (r *Repository) GetStorageAccount(ctx context.Context, ownerID, id uuid.UUID) (*r2manager.StorageAccount, error) {
	query := `
		SELECT id, owner_id, cf_account_id, name, access_key_id, secret_access_key, created_at
		FROM storage_accounts WHERE id = $1 AND owner_id = $2`

	var account r2manager.StorageAccount
	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(
		&account.ID, &account.OwnerID, &account.CFAccountID, &account.Name,
		&account.AccessKeyID, &account.SecretAccessKey, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r2manager.ErrAccountNotFound
		}
		return nil, r.handlePostgresError("get_storage_account", err)
	}
	return &account, nil
}

func (r *Repository) GetStorageAccountByCFAccountID(ctx context.Context, ownerID uuid.UUID, cfAccountID string) (*r2manager.StorageAccount, error) {
	query := `
		SELECT id, owner_id, cf_account_id, name, access_key_id, secret_access_key, created_at
		FROM storage_accounts WHERE owner_id = $1 AND cf_account_id = $2`

	var account r2manager.StorageAccount
	err := r.db.QueryRow(ctx, query, ownerID, cfAccountID).Scan(
		&account.ID, &account.OwnerID, &account.CFAccountID, &account.Name,
		&account.AccessKeyID, &account.SecretAccessKey, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r2manager.ErrAccountNotFound
		}
		return nil, r.handlePostgresError("get_storage_account_by_cf_account_id", err)
	}
	return &account, nil
}

func (r *Repository) ListStorageAccounts(ctx context.Context, ownerID uuid.UUID) ([]*r2manager.StorageAccount, error) {
	query := `
		SELECT id, owner_id, cf_account_id, name, access_key_id, secret_access_key, created_at
		FROM storage_accounts WHERE owner_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, r.handlePostgresError("list_storage_accounts", err)
	}
	defer rows.Close()

	var accounts []*r2manager.StorageAccount
	for rows.Next() {
		var account r2manager.StorageAccount
		if err := rows.Scan(
			&account.ID, &account.OwnerID, &account.CFAccountID, &account.Name,
			&account.AccessKeyID, &account.SecretAccessKey, &account.CreatedAt); err != nil {
			return nil, r.handlePostgresError("list_storage_accounts", err)
		}
		accounts = append(accounts, &account)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list_storage_accounts", err)
	}
	return accounts, nil
}

func (r *Repository) DeleteStorageAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM storage_accounts WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete_storage_account", err)
	}
	if tag.RowsAffected() == 0 {
		return r2manager.ErrAccountNotFound
	}
	return nil
}

// Upload link operations

func (r *Repository) CreateUploadLink(ctx context.Context, link *r2manager.UploadLink) error {
	query := `
		INSERT INTO upload_links (
			id, owner_id, account_id, bucket_name, prefix, token_hash, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		link.ID, link.OwnerID, link.AccountID, link.BucketName,
		link.Prefix, link.TokenHash, link.ExpiresAt, link.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create_upload_link", err)
	}
	return nil
}

func (r *Repository) GetUploadLinkByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*r2manager.UploadLink, error) {
	query := `
		SELECT id, owner_id, account_id, bucket_name, prefix, token_hash, expires_at, created_at
		FROM upload_links WHERE token_hash = $1 AND expires_at > $2`

	var link r2manager.UploadLink
	err := r.db.QueryRow(ctx, query, tokenHash, now).Scan(
		&link.ID, &link.OwnerID, &link.AccountID, &link.BucketName,
		&link.Prefix, &link.TokenHash, &link.ExpiresAt, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r2manager.ErrUploadLinkNotFound
		}
		return nil, r.handlePostgresError("get_upload_link_by_token_hash", err)
	}
	return &link, nil
}
