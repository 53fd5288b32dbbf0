package payment

type Repository interface {
	CreatePayment(pmt Payment) (Payment, error)
	// QueryPayments returns all payments owned by ownerID, newest first.
	QueryPayments(ownerID string) ([]Payment, error)
	// QueryStudentPayments returns all payments against one student, newest first.
	QueryStudentPayments(ownerID, studentID string) ([]Payment, error)
	GetPaymentByID(ownerID, id string) (Payment, error)
	// UpdatePaymentClass rewrites the StudentClass snapshot on one payment.
	// Reapplying the same class is a no-op; the call is idempotent.
	UpdatePaymentClass(ownerID, id, studentClass string) error
	DeletePayment(ownerID, id string) error
}
