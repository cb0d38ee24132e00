package repository

import (
	"context"

	"github.com/noah-isme/sma-roster-api/internal/models"
)

// FieldRepository persists the system and custom field collections.
type FieldRepository struct {
	store KVStore
}

// NewFieldRepository constructs the repository.
func NewFieldRepository(store KVStore) *FieldRepository {
	return &FieldRepository{store: store}
}

// DefaultFields loads the system field collection. found is false if never seeded.
func (r *FieldRepository) DefaultFields(ctx context.Context) ([]models.FieldDefinition, bool, error) {
	return r.load(ctx, KeyDefaultFields)
}

// CustomFields loads the custom field collection. found is false if never seeded.
func (r *FieldRepository) CustomFields(ctx context.Context) ([]models.FieldDefinition, bool, error) {
	return r.load(ctx, KeyCustomFields)
}

// SaveDefaultFields replaces the system field collection.
func (r *FieldRepository) SaveDefaultFields(ctx context.Context, fields []models.FieldDefinition) error {
	return writeJSON(ctx, r.store, KeyDefaultFields, normalizeFields(fields))
}

// SaveCustomFields replaces the custom field collection.
func (r *FieldRepository) SaveCustomFields(ctx context.Context, fields []models.FieldDefinition) error {
	return writeJSON(ctx, r.store, KeyCustomFields, normalizeFields(fields))
}

func (r *FieldRepository) load(ctx context.Context, key string) ([]models.FieldDefinition, bool, error) {
	var fields []models.FieldDefinition
	found, err := readJSON(ctx, r.store, key, &fields)
	if err != nil {
		return nil, false, err
	}
	return normalizeFields(fields), found, nil
}

func normalizeFields(fields []models.FieldDefinition) []models.FieldDefinition {
	out := models.CloneFields(fields)
	for i := range out {
		if out[i].Type == "" {
			out[i].Type = models.FieldText
		}
	}
	return out
}
