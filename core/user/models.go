package user

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/jkarani/shulepay/core"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleDirector   = "director"
	RoleAccountant = "accountant"
)

var AllRoles = []string{RoleAdmin, RoleDirector, RoleAccountant}

// User is an account owning a set of Student and Payment records.
// It is the tenant boundary: every record query is scoped to User.ID.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	SchoolName   string    `json:"school_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// NewUser contains information needed to register a new User.
// SystemKey must match the server-side configured key.
type NewUser struct {
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"required"`
	SchoolName      string `json:"school_name" validate:"required"`
	Role            string `json:"role" validate:"omitempty,accountrole"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	SystemKey       string `json:"system_key" validate:"required"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.SchoolName = core.CleanString(nu.SchoolName)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(nu.Email)
}

// custom validation

var (
	accountRoleTag  = "accountrole"
	accountRoleText = "not a valid account role"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(accountRoleTag, accountRoleValidation)
	core.RegisterCustomTranslation(validate, translator, accountRoleTag, accountRoleText)
}

func accountRoleValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, role := range AllRoles {
		if val == role {
			return true
		}
	}
	return false
}
