// Package ledger keeps Student fee totals consistent with the Payment
// history and exposes the aggregate dashboard views.
//
// The storage collaborator offers single-document atomicity only, so every
// multi-record operation here is a two-phase idempotent sequence: the
// primary record is written first, then dependent records are propagated
// one by one. A failed propagation surfaces as core.PartialFailureError and
// ReconcileStudent can be re-run safely to repair it. Concurrent mutations
// to the same student are not coordinated; last write wins.
package ledger

import (
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/jkarani/shulepay/core"
	"github.com/jkarani/shulepay/core/payment"
	"github.com/jkarani/shulepay/core/student"
)

var (
	errAmountNotPositive = errors.New("amount must be greater than zero")
	errStudentNotFound   = errors.New("student not found")
)

type (
	ServiceInterface interface {
		RecordPayment(ownerID string, np payment.NewPayment) (student.Student, payment.Payment, error)
		DeleteStudent(ownerID, studentID string) error
		TransferStudent(ownerID, studentID, newGrade string) (student.Student, error)
		ReconcileStudent(ownerID, studentID string) (student.Student, error)
	}

	service struct {
		students student.Repository
		payments payment.Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(students student.Repository, payments payment.Repository) ServiceInterface {
	return &service{students: students, payments: payments}
}

// RecordPayment appends a Payment against the student and recomputes the
// student's totals: newPaid = paid + amount, newBalance = total - newPaid.
// Overpayment is permitted; a negative balance is surfaced, never clamped.
// The Payment is persisted first; if the subsequent totals update fails the
// payment stands and the failure is reported as a PartialFailureError.
func (svc *service) RecordPayment(ownerID string, np payment.NewPayment) (student.Student, payment.Payment, error) {
	if np.Amount <= 0 {
		return student.Student{}, payment.Payment{},
			core.NewValidationError(errAmountNotPositive, core.FieldError{Field: "amount", Error: errAmountNotPositive.Error()})
	}

	std, err := svc.students.GetStudentByID(ownerID, np.StudentID)
	if err != nil {
		if err == student.ErrNotFound {
			return student.Student{}, payment.Payment{},
				core.NewValidationError(errStudentNotFound, core.FieldError{Field: "student_id", Error: errStudentNotFound.Error()})
		}
		return student.Student{}, payment.Payment{}, pkgerrors.Wrap(err, "finding student")
	}

	guardian, _ := std.PrimaryGuardian()
	pmt := payment.Payment{
		OwnerID:       ownerID,
		StudentID:     std.ID,
		StudentName:   std.FullName(),
		StudentClass:  std.Grade,
		ParentName:    guardian.Name,
		ParentPhone:   guardian.Phone,
		MpesaCode:     np.MpesaCode,
		Amount:        np.Amount,
		Date:          np.Date,
		Time:          np.Time,
		PaymentMethod: np.PaymentMethod,
		ReceiptNumber: payment.NewReceiptNumber(),
		CreatedAt:     time.Now().UTC(),
	}
	pmt, err = svc.payments.CreatePayment(pmt)
	if err != nil {
		return student.Student{}, payment.Payment{}, pkgerrors.Wrap(err, "creating payment")
	}

	std.PaidFees += np.Amount
	std.FeeBalance = std.TotalFees - std.PaidFees
	std.UpdatedAt = time.Now().UTC()
	updated, err := svc.students.UpdateStudent(std)
	if err != nil {
		// payment stands; the totals can be repaired with ReconcileStudent
		return student.Student{}, pmt,
			core.NewPartialFailureError("record payment", []core.FailedRecord{{ID: std.ID, Err: err}})
	}
	return updated, pmt, nil
}

// DeleteStudent removes the Student, then cascade-deletes every Payment
// referencing it. The student is the primary write; payments left behind by
// a partial cascade are reported for a retried delete.
func (svc *service) DeleteStudent(ownerID, studentID string) error {
	if _, err := svc.students.GetStudentByID(ownerID, studentID); err != nil {
		return err
	}

	pmts, err := svc.payments.QueryStudentPayments(ownerID, studentID)
	if err != nil {
		return pkgerrors.Wrap(err, "querying student payments")
	}

	if err = svc.students.DeleteStudent(ownerID, studentID); err != nil {
		return pkgerrors.Wrap(err, "deleting student")
	}

	var failed []core.FailedRecord
	for _, pmt := range pmts {
		if err = svc.payments.DeletePayment(ownerID, pmt.ID); err != nil && err != payment.ErrNotFound {
			failed = append(failed, core.FailedRecord{ID: pmt.ID, Err: err})
		}
	}
	if len(failed) > 0 {
		return core.NewPartialFailureError("delete student", failed)
	}
	return nil
}

// TransferStudent moves the student to newGrade and rewrites the
// StudentClass snapshot on all of the student's payments so historical
// display stays consistent. Transferring to the current grade is allowed.
func (svc *service) TransferStudent(ownerID, studentID, newGrade string) (student.Student, error) {
	std, err := svc.students.GetStudentByID(ownerID, studentID)
	if err != nil {
		return student.Student{}, err
	}

	std.Grade = newGrade
	std.UpdatedAt = time.Now().UTC()
	std, err = svc.students.UpdateStudent(std)
	if err != nil {
		return student.Student{}, pkgerrors.Wrap(err, "updating student")
	}

	if err = svc.propagateClass(ownerID, studentID, newGrade, "transfer student"); err != nil {
		return std, err
	}
	return std, nil
}

// ReconcileStudent is the idempotent repair pass: it re-applies the class
// snapshot to all of the student's payments and recomputes PaidFees and
// FeeBalance from the payment sum. Safe to re-run after any partial failure.
func (svc *service) ReconcileStudent(ownerID, studentID string) (student.Student, error) {
	std, err := svc.students.GetStudentByID(ownerID, studentID)
	if err != nil {
		return student.Student{}, err
	}

	pmts, err := svc.payments.QueryStudentPayments(ownerID, studentID)
	if err != nil {
		return student.Student{}, pkgerrors.Wrap(err, "querying student payments")
	}

	var paid float64
	var failed []core.FailedRecord
	for _, pmt := range pmts {
		paid += pmt.Amount
		if pmt.StudentClass != std.Grade {
			if err = svc.payments.UpdatePaymentClass(ownerID, pmt.ID, std.Grade); err != nil {
				failed = append(failed, core.FailedRecord{ID: pmt.ID, Err: err})
			}
		}
	}

	if std.PaidFees != paid || std.FeeBalance != std.TotalFees-paid {
		std.PaidFees = paid
		std.FeeBalance = std.TotalFees - paid
		std.UpdatedAt = time.Now().UTC()
		if std, err = svc.students.UpdateStudent(std); err != nil {
			return student.Student{}, pkgerrors.Wrap(err, "updating student totals")
		}
	}

	if len(failed) > 0 {
		return std, core.NewPartialFailureError("reconcile student", failed)
	}
	return std, nil
}

func (svc *service) propagateClass(ownerID, studentID, grade, op string) error {
	pmts, err := svc.payments.QueryStudentPayments(ownerID, studentID)
	if err != nil {
		return pkgerrors.Wrap(err, "querying student payments")
	}

	var failed []core.FailedRecord
	for _, pmt := range pmts {
		if pmt.StudentClass == grade {
			continue
		}
		if err = svc.payments.UpdatePaymentClass(ownerID, pmt.ID, grade); err != nil {
			failed = append(failed, core.FailedRecord{ID: pmt.ID, Err: err})
		}
	}
	if len(failed) > 0 {
		return core.NewPartialFailureError(op, failed)
	}
	return nil
}
