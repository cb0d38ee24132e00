package repository

import (
	"context"

	"github.com/noah-isme/sma-roster-api/internal/models"
)

// UserRepository persists the credential registry.
type UserRepository struct {
	store KVStore
}

// NewUserRepository constructs the repository.
func NewUserRepository(store KVStore) *UserRepository {
	return &UserRepository{store: store}
}

// List returns the registry. found is false when it was never created.
func (r *UserRepository) List(ctx context.Context) ([]models.UserCredential, bool, error) {
	var users []models.UserCredential
	found, err := readJSON(ctx, r.store, KeyUsers, &users)
	if err != nil {
		return nil, false, err
	}
	if users == nil {
		users = []models.UserCredential{}
	}
	return users, found, nil
}

// SaveAll replaces the registry.
func (r *UserRepository) SaveAll(ctx context.Context, users []models.UserCredential) error {
	if users == nil {
		users = []models.UserCredential{}
	}
	return writeJSON(ctx, r.store, KeyUsers, users)
}
