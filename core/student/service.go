package student

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jkarani/shulepay/core"
)

var (
	// errors
	ErrNotFound           = errors.New("student not found")
	ErrAdmissionNumExists = errors.New("a student with this admission number already exists")
)

type (
	Repository interface {
		CheckAdmissionNumberUniqueness(ownerID, admissionNumber string, excludedStudents ...Student) error
		CreateStudent(std Student) (Student, error)
		// QueryStudents returns all students owned by ownerID.
		QueryStudents(ownerID string) ([]Student, error)
		GetStudentByID(ownerID, id string) (Student, error)
		// FilterStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on name or admission number.
		FilterStudents(ownerID string, filter QueryFilter) ([]Student, error)
		UpdateStudent(std Student) (Student, error)
		DeleteStudent(ownerID, id string) error
	}

	ServiceInterface interface {
		CheckAdmissionNumberUniqueness(ownerID, admissionNumber string, exclStudents ...Student) error
		Create(ownerID string, ns NewStudent) (Student, error)
		QueryAll(ownerID string) ([]Student, error)
		Filter(ownerID string, filter QueryFilter) ([]Student, error)
		GetByID(ownerID, id string) (Student, error)
		Update(ownerID, id string, us UpdateStudent) (Student, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) ServiceInterface {
	return &service{repo: repo}
}

func (svc *service) CheckAdmissionNumberUniqueness(ownerID, admissionNumber string, exclStudents ...Student) error {
	if err := svc.repo.CheckAdmissionNumberUniqueness(ownerID, admissionNumber, exclStudents...); err != nil {
		if err == ErrAdmissionNumExists {
			return core.NewValidationError(err, core.FieldError{Field: "admission_number", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create enrolls a new student with a zeroed ledger:
// PaidFees = 0, FeeBalance = TotalFees.
func (svc *service) Create(ownerID string, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std := Student{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		FirstName:       ns.FirstName,
		LastName:        ns.LastName,
		Grade:           ns.Grade,
		AdmissionNumber: ns.AdmissionNumber,
		DateOfBirth:     ns.DateOfBirth,
		Guardians:       []Guardian{ns.guardian()},
		TotalFees:       ns.TotalFees,
		PaidFees:        0,
		FeeBalance:      ns.TotalFees,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateStudent(std)
}

func (svc *service) QueryAll(ownerID string) ([]Student, error) {
	return svc.repo.QueryStudents(ownerID)
}

func (svc *service) Filter(ownerID string, filter QueryFilter) ([]Student, error) {
	if filter.IsEmpty() {
		return svc.repo.QueryStudents(ownerID)
	}
	return svc.repo.FilterStudents(ownerID, filter)
}

func (svc *service) GetByID(ownerID, id string) (Student, error) {
	return svc.repo.GetStudentByID(ownerID, id)
}

func (svc *service) Update(ownerID, id string, us UpdateStudent) (Student, error) {
	std, err := svc.repo.GetStudentByID(ownerID, id)
	if err != nil {
		return Student{}, err
	}

	if us.FirstName != "" {
		std.FirstName = us.FirstName
	}
	if us.LastName != "" {
		std.LastName = us.LastName
	}
	if us.DateOfBirth != "" {
		std.DateOfBirth = us.DateOfBirth
	}
	if us.TotalFees != nil {
		std.TotalFees = *us.TotalFees
		std.FeeBalance = std.TotalFees - std.PaidFees
	}

	// guardian contact edits apply to the primary guardian
	if len(std.Guardians) == 0 {
		std.Guardians = []Guardian{{ID: uuid.New().String()}}
	}
	g := &std.Guardians[0]
	if us.GuardianName != "" {
		g.Name = us.GuardianName
	}
	if us.GuardianPhone != "" {
		g.Phone = us.GuardianPhone
	}
	if us.GuardianEmail != "" {
		g.Email = us.GuardianEmail
	}
	if us.Relationship != "" {
		g.Relationship = us.Relationship
	}

	std.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(std)
}
