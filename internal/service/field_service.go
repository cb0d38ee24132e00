package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

type fieldRepository interface {
	DefaultFields(ctx context.Context) ([]models.FieldDefinition, bool, error)
	CustomFields(ctx context.Context) ([]models.FieldDefinition, bool, error)
	SaveDefaultFields(ctx context.Context, fields []models.FieldDefinition) error
	SaveCustomFields(ctx context.Context, fields []models.FieldDefinition) error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewFieldID returns a time ordered custom field id.
func NewFieldID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return "cf-" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// BlankField is the field appended by "add field" before the admin edits it.
func BlankField(id string) models.FieldDefinition {
	return models.FieldDefinition{
		ID:      id,
		Type:    models.FieldText,
		Options: []string{},
	}
}

// FieldServiceConfig tunes schema seeding.
type FieldServiceConfig struct {
	SeedFile string
}

// FieldService persists the field schema.
type FieldService struct {
	repo   fieldRepository
	logger *zap.Logger
	config FieldServiceConfig
	newID  func() string
}

// NewFieldService constructs the service.
func NewFieldService(repo fieldRepository, logger *zap.Logger, config FieldServiceConfig) *FieldService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FieldService{repo: repo, logger: logger, config: config, newID: NewFieldID}
}

// ListFields returns both collections, seeding whichever is missing.
func (s *FieldService) ListFields(ctx context.Context) (*models.FieldSchema, error) {
	defaults, found, err := s.repo.DefaultFields(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		defaults = models.SystemFields()
		if err := s.repo.SaveDefaultFields(ctx, defaults); err != nil {
			return nil, err
		}
		s.logger.Info("seeded system fields")
	}

	custom, found, err := s.repo.CustomFields(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		custom, err = s.loadSeed()
		if err != nil {
			return nil, err
		}
		if err := s.repo.SaveCustomFields(ctx, custom); err != nil {
			return nil, err
		}
	}

	return &models.FieldSchema{DefaultFields: defaults, CustomFields: custom}, nil
}

// Schema returns system fields followed by custom fields.
func (s *FieldService) Schema(ctx context.Context) ([]models.FieldDefinition, error) {
	fields, err := s.ListFields(ctx)
	if err != nil {
		return nil, err
	}
	return fields.All(), nil
}

// AddField persists a new blank custom field and returns it.
func (s *FieldService) AddField(ctx context.Context) (*models.FieldDefinition, error) {
	schema, err := s.ListFields(ctx)
	if err != nil {
		return nil, err
	}
	field := BlankField(s.newID())
	custom := append(schema.CustomFields, field)
	if err := s.repo.SaveCustomFields(ctx, custom); err != nil {
		return nil, err
	}
	s.logger.Info("custom field added", zap.String("field_id", field.ID))
	return &field, nil
}

// RemoveField deletes a custom field by id.
func (s *FieldService) RemoveField(ctx context.Context, id string) error {
	schema, err := s.ListFields(ctx)
	if err != nil {
		return err
	}
	remaining := make([]models.FieldDefinition, 0, len(schema.CustomFields))
	for _, f := range schema.CustomFields {
		if f.ID != id {
			remaining = append(remaining, f)
		}
	}
	if len(remaining) == len(schema.CustomFields) {
		return appErrors.Clone(appErrors.ErrNotFound, "Field not found")
	}
	if err := s.repo.SaveCustomFields(ctx, remaining); err != nil {
		return err
	}
	s.logger.Info("custom field removed", zap.String("field_id", id))
	return nil
}

// SaveCustomFields replaces the custom collection with fields. Keys are
// re-derived from labels; duplicate or reserved keys are rejected.
func (s *FieldService) SaveCustomFields(ctx context.Context, fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
	prepared, err := s.prepare(fields)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveCustomFields(ctx, prepared); err != nil {
		return nil, err
	}
	s.logger.Info("custom fields saved", zap.Int("count", len(prepared)))
	return models.CloneFields(prepared), nil
}

// Preview replays mutations over the persisted custom fields without saving.
func (s *FieldService) Preview(ctx context.Context, mutations []FieldMutation) ([]models.FieldDefinition, error) {
	schema, err := s.ListFields(ctx)
	if err != nil {
		return nil, err
	}
	editor := NewFieldEditor(schema.CustomFields, s.newID)
	if err := editor.Apply(mutations); err != nil {
		return nil, err
	}
	return editor.Fields(), nil
}

func (s *FieldService) prepare(fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
	reserved := map[string]string{models.RecordIDKey: "record id"}
	for _, f := range models.SystemFields() {
		reserved[f.Key] = f.Label
	}

	details := map[string]string{}
	seenKeys := map[string]string{}
	seenIDs := map[string]struct{}{}
	out := models.CloneFields(fields)
	for i := range out {
		f := &out[i]
		if f.ID == "" {
			f.ID = s.newID()
		}
		if _, dup := seenIDs[f.ID]; dup {
			details[f.ID] = "duplicate field id"
			continue
		}
		seenIDs[f.ID] = struct{}{}

		f.IsSystem = false
		f.Key = DeriveKey(f.Label)
		if f.Type == "" {
			f.Type = models.FieldText
		}
		if !f.Type.Valid() {
			details[f.ID] = fmt.Sprintf("unsupported field type %q", f.Type)
			continue
		}
		if !supportsOptions(f.Type) {
			f.Options = []string{}
		}

		if f.Key == "" {
			details[f.ID] = fmt.Sprintf("label %q has no letters or digits to derive a key from", f.Label)
			continue
		}
		if owner, ok := reserved[f.Key]; ok {
			details[f.ID] = fmt.Sprintf("key %q is reserved by %s", f.Key, owner)
			continue
		}
		if other, ok := seenKeys[f.Key]; ok {
			details[f.ID] = fmt.Sprintf("key %q is already used by field %s", f.Key, other)
			continue
		}
		seenKeys[f.Key] = f.ID
	}
	if len(details) > 0 {
		return nil, appErrors.Validation("custom fields are invalid", details)
	}
	return out, nil
}

type fieldSeed struct {
	CustomFields []models.FieldDefinition `yaml:"customFields"`
}

func (s *FieldService) loadSeed() ([]models.FieldDefinition, error) {
	if s.config.SeedFile == "" {
		return []models.FieldDefinition{}, nil
	}
	raw, err := os.ReadFile(s.config.SeedFile)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read field seed file")
	}
	var seed fieldSeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to parse field seed file")
	}
	fields, err := s.prepare(seed.CustomFields)
	if err != nil {
		return nil, err
	}
	s.logger.Info("seeded custom fields", zap.String("file", s.config.SeedFile), zap.Int("count", len(fields)))
	return fields, nil
}
