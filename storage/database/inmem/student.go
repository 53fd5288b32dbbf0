package inmemdb

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jkarani/shulepay/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.students}
}

// query returns the owner's students in creation order.
func (repo *studentRepository) query(ownerID string) []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, std := range repo.db.table {
		if std.OwnerID == ownerID {
			students = append(students, *std)
		}
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].CreatedAt.Before(students[j].CreatedAt) })
	return students
}

func (repo *studentRepository) CheckAdmissionNumberUniqueness(ownerID, admissionNumber string, excludedStudents ...student.Student) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, std := range repo.db.table {
		if std.OwnerID != ownerID || std.AdmissionNumber != admissionNumber {
			continue
		}
		var excluded bool
		for _, excl := range excludedStudents {
			if excl.ID == std.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return student.ErrAdmissionNumExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if std.ID == "" {
		std.ID = uuid.New().String()
	}
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) QueryStudents(ownerID string) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(ownerID), nil
}

func (repo *studentRepository) GetStudentByID(ownerID, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if std, ok := repo.db.table[id]; ok && std.OwnerID == ownerID {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(ownerID string, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	matches := make([]student.Student, 0)
	for _, std := range repo.query(ownerID) {
		if filter.Grade != "" && std.Grade != filter.Grade {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(std.FullName()), search) &&
			!strings.Contains(strings.ToLower(std.AdmissionNumber), search) {
			continue
		}
		matches = append(matches, std)
	}
	return matches, nil
}

func (repo *studentRepository) UpdateStudent(std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[std.ID]
	if !ok || orig.OwnerID != std.OwnerID {
		return student.Student{}, student.ErrNotFound
	}
	std.CreatedAt = orig.CreatedAt
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) DeleteStudent(ownerID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if std, ok := repo.db.table[id]; ok && std.OwnerID == ownerID {
		delete(repo.db.table, id)
		return nil
	}
	return student.ErrNotFound
}
