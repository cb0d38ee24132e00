package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/repository"
)

var errStoreDown = errors.New("store down")

// recordingStore counts writes and can be switched into failure mode.
type recordingStore struct {
	mu      sync.Mutex
	inner   *repository.MemoryStore
	sets    map[string]int
	failGet bool
	failSet bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{inner: repository.NewMemoryStore(), sets: map[string]int{}}
}

func (s *recordingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return s.inner.Get(ctx, key)
}

func (s *recordingStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	fail := s.failSet
	if !fail {
		s.sets[key]++
	}
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.inner.Set(ctx, key, value)
}

func (s *recordingStore) totalSets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.sets {
		total += n
	}
	return total
}

type testStack struct {
	store    *recordingStore
	fields   *FieldService
	students *StudentService
	auth     *AuthService
	forms    *FormService
	engine   *FormEngine
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	store := newRecordingStore()

	seq := 0
	fields := NewFieldService(repository.NewFieldRepository(store), nil, FieldServiceConfig{})
	fields.newID = func() string {
		seq++
		return fmt.Sprintf("cf-%03d", seq)
	}

	auth := NewAuthService(repository.NewUserRepository(store), repository.NewSessionRepository(store), nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "test",
		Admin:             AdminAccount{Email: "admin@school.com", Password: "admin123", Name: "Super Admin"},
		BcryptCost:        bcrypt.MinCost,
	})
	require.NoError(t, auth.SeedAdmin(context.Background()))

	students := NewStudentService(repository.NewStudentRepository(store), auth, fields, nil)
	engine := NewFormEngine(false)
	forms := NewFormService(fields, students, engine, nil)

	return &testStack{store: store, fields: fields, students: students, auth: auth, forms: forms, engine: engine}
}

func adminSession() models.Session {
	return models.Session{UserID: "admin-1", Role: models.RoleAdmin, Email: "admin@school.com", Name: "Super Admin"}
}

func studentSession(email string) models.Session {
	return models.Session{UserID: "student-1", Role: models.RoleStudent, Email: email}
}

func validStudent(name, email string) map[string]string {
	return map[string]string{"name": name, "email": email, "phone": "0123456789"}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func typePtr(t models.FieldType) *models.FieldType { return &t }
