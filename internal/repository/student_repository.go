package repository

import (
	"context"

	"github.com/noah-isme/sma-roster-api/internal/models"
)

// StudentRepository persists the student collection and its id counter.
type StudentRepository struct {
	store KVStore
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(store KVStore) *StudentRepository {
	return &StudentRepository{store: store}
}

// List returns every stored record in insertion order.
func (r *StudentRepository) List(ctx context.Context) ([]models.StudentRecord, error) {
	var students []models.StudentRecord
	if _, err := readJSON(ctx, r.store, KeyStudents, &students); err != nil {
		return nil, err
	}
	if students == nil {
		students = []models.StudentRecord{}
	}
	return students, nil
}

// SaveAll replaces the student collection.
func (r *StudentRepository) SaveAll(ctx context.Context, students []models.StudentRecord) error {
	if students == nil {
		students = []models.StudentRecord{}
	}
	return writeJSON(ctx, r.store, KeyStudents, students)
}

// MaxID returns the highest id ever assigned, 0 when none.
func (r *StudentRepository) MaxID(ctx context.Context) (int64, error) {
	var max int64
	if _, err := readJSON(ctx, r.store, KeyMaxStudentID, &max); err != nil {
		return 0, err
	}
	return max, nil
}

// SetMaxID stores the id counter.
func (r *StudentRepository) SetMaxID(ctx context.Context, id int64) error {
	return writeJSON(ctx, r.store, KeyMaxStudentID, id)
}
