package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jkarani/shulepay/core"
)

// Education-level buckets, derived from the grade label.
const (
	LevelEarlyYears      = "Early Years"
	LevelLowerPrimary    = "Lower Primary"
	LevelUpperPrimary    = "Upper Primary"
	LevelJuniorSecondary = "Junior Secondary"
	LevelOther           = "Other"
)

var levelsByGrade = map[string]string{
	"PP":      LevelEarlyYears,
	"Grade 1": LevelLowerPrimary,
	"Grade 2": LevelLowerPrimary,
	"Grade 3": LevelLowerPrimary,
	"Grade 4": LevelUpperPrimary,
	"Grade 5": LevelUpperPrimary,
	"Grade 6": LevelUpperPrimary,
	"Grade 7": LevelJuniorSecondary,
	"Grade 8": LevelJuniorSecondary,
	"Grade 9": LevelJuniorSecondary,
}

// EducationLevel buckets a grade label by substring match; unknown labels
// fall into LevelOther.
func EducationLevel(grade string) string {
	for sub, level := range levelsByGrade {
		if strings.Contains(grade, sub) {
			return level
		}
	}
	return LevelOther
}

// Guardian is a contact owned by exactly one Student; it has no independent
// lifecycle and is created and destroyed with its student.
type Guardian struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Relationship string `json:"relationship"`
}

// Student is a denormalized record: identity, fee totals and the embedded
// guardian contact list.
//
// Invariant: FeeBalance == TotalFees - PaidFees after every mutation.
// FeeBalance may go negative (overpayment is permitted, not clamped).
type Student struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"-"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Grade           string     `json:"grade"`
	AdmissionNumber string     `json:"admission_number"`
	DateOfBirth     string     `json:"date_of_birth"`
	Guardians       []Guardian `json:"guardians"`
	TotalFees       float64    `json:"total_fees"`
	PaidFees        float64    `json:"paid_fees"`
	FeeBalance      float64    `json:"fee_balance"`
	CreatedAt       time.Time  `json:"created_at"` // UTC
	UpdatedAt       time.Time  `json:"updated_at"` // UTC
}

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// PrimaryGuardian returns the first guardian; the UI only ever populates
// index 0 but the list shape is kept for multi-guardian support.
func (s *Student) PrimaryGuardian() (Guardian, bool) {
	if len(s.Guardians) == 0 {
		return Guardian{}, false
	}
	return s.Guardians[0], true
}

// NewStudent contains information needed to enroll a new Student.
// The guardian fields populate Guardians[0].
type NewStudent struct {
	FirstName        string  `json:"first_name" validate:"required"`
	LastName         string  `json:"last_name" validate:"required"`
	Grade            string  `json:"grade" validate:"required"`
	AdmissionNumber  string  `json:"admission_number" validate:"required,alphanum_"`
	DateOfBirth      string  `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	TotalFees        float64 `json:"total_fees" validate:"gte=0"`
	GuardianName     string  `json:"guardian_name" validate:"required"`
	GuardianPhone    string  `json:"guardian_phone" validate:"required,phone"`
	GuardianEmail    string  `json:"guardian_email" validate:"omitempty,email"`
	Relationship     string  `json:"relationship" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, svc ServiceInterface, ownerID string) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Grade = core.CleanString(ns.Grade)
	ns.AdmissionNumber = core.CleanString(ns.AdmissionNumber)
	ns.GuardianName = core.CleanString(ns.GuardianName)
	ns.GuardianPhone = core.CleanString(ns.GuardianPhone)
	ns.GuardianEmail = core.CleanString(ns.GuardianEmail, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckAdmissionNumberUniqueness(ownerID, ns.AdmissionNumber)
}

func (ns *NewStudent) guardian() Guardian {
	return Guardian{
		ID:           uuid.New().String(),
		Name:         ns.GuardianName,
		Phone:        ns.GuardianPhone,
		Email:        ns.GuardianEmail,
		Relationship: ns.Relationship,
	}
}

// UpdateStudent defines what information may be provided to modify an
// existing Student. Fee totals are owned by the ledger and are not
// updatable here.
type UpdateStudent struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	DateOfBirth   string  `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	GuardianName  string  `json:"guardian_name"`
	GuardianPhone string  `json:"guardian_phone" validate:"omitempty,phone"`
	GuardianEmail string  `json:"guardian_email" validate:"omitempty,email"`
	Relationship  string  `json:"relationship"`
	TotalFees     *float64 `json:"total_fees" validate:"omitempty,gte=0"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.FirstName = core.CleanString(us.FirstName)
	us.LastName = core.CleanString(us.LastName)
	us.GuardianName = core.CleanString(us.GuardianName)
	us.GuardianPhone = core.CleanString(us.GuardianPhone)
	us.GuardianEmail = core.CleanString(us.GuardianEmail, true /* lower */)
	return validate.Struct(us)
}

type QueryFilter struct {
	Search string `query:"search"` // matches name or admission number
	Grade  string `query:"grade"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Grade == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Grade = core.CleanString(qf.Grade)
}
