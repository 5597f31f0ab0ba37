// Package memory implements r2manager.Repository with in-memory maps.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// Repository implements r2manager.Repository using in-memory storage
type Repository struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*r2manager.User
	usersByEmail map[string]uuid.UUID
	accounts     map[uuid.UUID]*r2manager.StorageAccount
	links        map[uuid.UUID]*r2manager.UploadLink
	linksByHash  map[string]uuid.UUID
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		users:        make(map[uuid.UUID]*r2manager.User),
		usersByEmail: make(map[string]uuid.UUID),
		accounts:     make(map[uuid.UUID]*r2manager.StorageAccount),
		links:        make(map[uuid.UUID]*r2manager.UploadLink),
		linksByHash:  make(map[string]uuid.UUID),
	}
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *r2manager.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByEmail[user.Email]; exists {
		return r2manager.ErrEmailTaken
	}

	userCopy := *user
	r.users[user.ID] = &userCopy
	r.usersByEmail[user.Email] = user.ID
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*r2manager.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, r2manager.ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*r2manager.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByEmail[email]
	if !exists {
		return nil, r2manager.ErrUserNotFound
	}
	userCopy := *r.users[id]
	return &userCopy, nil
}

// Storage account operations

func (r *Repository) CreateStorageAccount(ctx context.Context, account *r2manager.StorageAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	accountCopy := *account
	r.accounts[account.ID] = &accountCopy
	return nil
}

func (r *Repository) GetStorageAccount(ctx context.Context, ownerID, id uuid.UUID) (*r2manager.StorageAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists || account.OwnerID != ownerID {
		return nil, r2manager.ErrAccountNotFound
	}
	accountCopy := *account
	return &accountCopy, nil
}

func (r *Repository) GetStorageAccountByCFAccountID(ctx context.Context, ownerID uuid.UUID, cfAccountID string) (*r2manager.StorageAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.OwnerID == ownerID && account.CFAccountID == cfAccountID {
			accountCopy := *account
			return &accountCopy, nil
		}
	}
	return nil, r2manager.ErrAccountNotFound
}

func (r *Repository) ListStorageAccounts(ctx context.Context, ownerID uuid.UUID) ([]*r2manager.StorageAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*r2manager.StorageAccount
	for _, account := range r.accounts {
		if account.OwnerID == ownerID {
			accountCopy := *account
			result = append(result, &accountCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *Repository) DeleteStorageAccount(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[id]; !exists {
		return r2manager.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}

// Upload link operations

func (r *Repository) CreateUploadLink(ctx context.Context, link *r2manager.UploadLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	linkCopy := *link
	r.links[link.ID] = &linkCopy
	r.linksByHash[link.TokenHash] = link.ID
	return nil
}

func (r *Repository) GetUploadLinkByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*r2manager.UploadLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.linksByHash[tokenHash]
	if !exists {
		return nil, r2manager.ErrUploadLinkNotFound
	}
	link := r.links[id]
	if !link.ExpiresAt.After(now) {
		return nil, r2manager.ErrUploadLinkNotFound
	}
	linkCopy := *link
	return &linkCopy, nil
}
