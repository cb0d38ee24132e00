package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context) ([]models.StudentRecord, error)
	SaveAll(ctx context.Context, students []models.StudentRecord) error
	MaxID(ctx context.Context) (int64, error)
	SetMaxID(ctx context.Context, id int64) error
}

type studentCredentials interface {
	CreateStudentCredential(ctx context.Context, record models.StudentRecord) error
	RevokeStudentCredential(ctx context.Context, recordID int64) error
}

type attachmentReleaser interface {
	ReleaseAttachments(ctx context.Context, keys []string)
}

type schemaProvider interface {
	Schema(ctx context.Context) ([]models.FieldDefinition, error)
}

// StudentService manages the student record collection. Values reaching
// Create and Update must already be validated; FormService.Submit is the
// validating entry point.
type StudentService struct {
	repo        studentRepository
	credentials studentCredentials
	schema      schemaProvider
	attachments attachmentReleaser
	logger      *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(repo studentRepository, credentials studentCredentials, schema schemaProvider, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, credentials: credentials, schema: schema, logger: logger}
}

// SetAttachmentReleaser enables cleanup of files no record references after
// an update or delete.
func (s *StudentService) SetAttachmentReleaser(releaser attachmentReleaser) {
	s.attachments = releaser
}

// List returns records matching filter in insertion order.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.StudentRecord, 0, len(students))
	for _, st := range students {
		if filter.Field != "" && st.Value(filter.Field) != filter.Value {
			continue
		}
		if search != "" && !matchesSearch(st, search) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// Get returns one record by id.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.StudentRecord, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfStudent(students, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
	}
	record := students[idx].Clone()
	return &record, nil
}

// Create stores a new record under the next id and issues its login.
func (s *StudentService) Create(ctx context.Context, values map[string]string) (*models.StudentRecord, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	maxID, err := s.repo.MaxID(ctx)
	if err != nil {
		return nil, err
	}

	record := models.StudentRecord{ID: maxID + 1, Values: copyValues(values)}
	if err := s.repo.SetMaxID(ctx, record.ID); err != nil {
		return nil, err
	}
	if err := s.repo.SaveAll(ctx, append(students, record)); err != nil {
		return nil, err
	}
	if err := s.credentials.CreateStudentCredential(ctx, record); err != nil {
		// The id stays consumed; only the record is withdrawn.
		if rbErr := s.repo.SaveAll(ctx, students); rbErr != nil {
			s.logger.Error("student stored without credential", zap.Int64("student_id", record.ID), zap.Error(err), zap.NamedError("rollback_error", rbErr))
			return nil, err
		}
		s.logger.Warn("student creation rolled back", zap.Int64("student_id", record.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("student created", zap.Int64("student_id", record.ID))
	return &record, nil
}

// Update merges values over the stored record.
func (s *StudentService) Update(ctx context.Context, id int64, values map[string]string) (*models.StudentRecord, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfStudent(students, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Not found")
	}

	previous := students[idx]
	record := previous.Clone()
	for k, v := range values {
		record.Values[k] = v
	}
	students[idx] = record
	if err := s.repo.SaveAll(ctx, students); err != nil {
		return nil, err
	}
	s.release(ctx, previous, &record)

	s.logger.Info("student updated", zap.Int64("student_id", id))
	return &record, nil
}

// Delete removes a record and revokes its login. Ids are never reused.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	students, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	idx := indexOfStudent(students, id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "Student not found")
	}
	removed := students[idx]
	students = append(students[:idx], students[idx+1:]...)
	if err := s.repo.SaveAll(ctx, students); err != nil {
		return err
	}
	s.release(ctx, removed, nil)
	if err := s.credentials.RevokeStudentCredential(ctx, id); err != nil {
		s.logger.Warn("failed to revoke student credential", zap.Int64("student_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("student deleted", zap.Int64("student_id", id))
	return nil
}

// MyDetails returns the record whose email matches the session.
func (s *StudentService) MyDetails(ctx context.Context, session models.Session) (*models.StudentRecord, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range students {
		if st.Value(models.KeyEmail) == session.Email {
			record := st.Clone()
			return &record, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no details found")
}

// GroupBy counts records per distinct non-empty value of a schema field.
// Dropdown groups follow option order.
func (s *StudentService) GroupBy(ctx context.Context, key string) ([]models.GroupCount, error) {
	schema, err := s.schema.Schema(ctx)
	if err != nil {
		return nil, err
	}
	var field *models.FieldDefinition
	for i := range schema {
		if schema[i].Key == key && key != "" {
			field = &schema[i]
			break
		}
	}
	if field == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Field not found")
	}

	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, st := range students {
		if v := st.Value(key); v != "" {
			counts[v]++
		}
	}
	groups := make([]models.GroupCount, 0, len(counts))
	for v, n := range counts {
		groups = append(groups, models.GroupCount{Value: v, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Value < groups[j].Value })
	if field.Type == models.FieldDropdown {
		models.SortGroups(groups, field.Options)
	}
	return groups, nil
}

// release hands file-field values of before that after no longer holds to
// the attachment releaser. A nil after releases all of them.
func (s *StudentService) release(ctx context.Context, before models.StudentRecord, after *models.StudentRecord) {
	if s.attachments == nil {
		return
	}
	schema, err := s.schema.Schema(ctx)
	if err != nil {
		s.logger.Warn("skipping attachment cleanup", zap.Int64("student_id", before.ID), zap.Error(err))
		return
	}
	var keys []string
	for _, f := range schema {
		if f.Type != models.FieldFile || f.Key == "" {
			continue
		}
		old := before.Value(f.Key)
		if old == "" || (after != nil && after.Value(f.Key) == old) {
			continue
		}
		keys = append(keys, old)
	}
	if len(keys) > 0 {
		s.attachments.ReleaseAttachments(ctx, keys)
	}
}

func matchesSearch(record models.StudentRecord, needle string) bool {
	if strings.Contains(strconv.FormatInt(record.ID, 10), needle) {
		return true
	}
	for _, v := range record.Values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func indexOfStudent(students []models.StudentRecord, id int64) int {
	for i := range students {
		if students[i].ID == id {
			return i
		}
	}
	return -1
}

func copyValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
