package payment

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jkarani/shulepay/core"
)

var (
	// errors
	ErrNotFound = errors.New("payment not found")
)

// Payment is an immutable, append-only record of one fee transaction.
// StudentName, StudentClass, ParentName and ParentPhone are snapshots of
// the student/guardian at payment time, not live references; StudentClass
// alone is rewritten when the student transfers, to keep historical
// display consistent.
type Payment struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"-"`
	StudentID     string    `json:"student_id"`
	StudentName   string    `json:"student_name"`
	StudentClass  string    `json:"student_class"`
	ParentName    string    `json:"parent_name"`
	ParentPhone   string    `json:"parent_phone"`
	MpesaCode     string    `json:"mpesa_code"`
	Amount        float64   `json:"amount"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	PaymentMethod string    `json:"payment_method"`
	ReceiptNumber string    `json:"receipt_number"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// NewPayment contains information needed to record a fee payment
// against a student.
type NewPayment struct {
	StudentID     string  `json:"student_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	MpesaCode     string  `json:"mpesa_code" validate:"required"`
	Date          string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time          string  `json:"time"`
	PaymentMethod string  `json:"payment_method"`
}

const defaultPaymentMethod = "KCB M-Pesa"

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.StudentID = core.CleanString(np.StudentID)
	np.MpesaCode = core.CleanString(np.MpesaCode)

	if np.Date == "" {
		np.Date = time.Now().UTC().Format("2006-01-02")
	}
	if np.Time == "" {
		np.Time = time.Now().UTC().Format("15:04")
	}
	if np.PaymentMethod == "" {
		np.PaymentMethod = defaultPaymentMethod
	}
	return validate.Struct(np)
}
