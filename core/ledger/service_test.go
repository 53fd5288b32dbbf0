package ledger

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarani/shulepay/core"
	"github.com/jkarani/shulepay/core/payment"
	"github.com/jkarani/shulepay/core/student"
	inmemdb "github.com/jkarani/shulepay/storage/database/inmem"
)

const testOwner = "owner-1"

func setup(t *testing.T) (ServiceInterface, student.Repository, payment.Repository) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	students := inmemdb.NewStudentRepository(db)
	payments := inmemdb.NewPaymentRepository(db)
	return NewService(students, payments), students, payments
}

func createStudent(t *testing.T, repo student.Repository, firstName, grade string, totalFees float64) student.Student {
	std, err := repo.CreateStudent(student.Student{
		OwnerID:         testOwner,
		FirstName:       firstName,
		LastName:        "Doe",
		Grade:           grade,
		AdmissionNumber: "ADM" + firstName,
		Guardians: []student.Guardian{
			{ID: "g-" + firstName, Name: "Jane Doe", Phone: "+254700000001", Relationship: "Mother"},
		},
		TotalFees:  totalFees,
		FeeBalance: totalFees,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func Test_service_RecordPayment(t *testing.T) {
	svc, students, payments := setup(t)
	std := createStudent(t, students, "John", "Grade 4", 50000)

	// non-positive amounts are rejected before any write
	for _, amount := range []float64{0, -100} {
		_, _, err := svc.RecordPayment(testOwner, payment.NewPayment{StudentID: std.ID, Amount: amount, MpesaCode: "QWE123"})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "want ValidationError, got %v", err)
		assert.Equal(t, "amount", vErr.Fields[0].Field)
	}
	pmts, err := payments.QueryStudentPayments(testOwner, std.ID)
	require.NoError(t, err)
	assert.Empty(t, pmts, "rejected payments must not be persisted")

	// unknown student
	_, _, err = svc.RecordPayment(testOwner, payment.NewPayment{StudentID: "nope", Amount: 100, MpesaCode: "QWE123"})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "student_id", vErr.Fields[0].Field)

	// first payment
	updated, pmt, err := svc.RecordPayment(testOwner, payment.NewPayment{
		StudentID: std.ID, Amount: 35000, MpesaCode: "QWE123", Date: "2026-08-20", Time: "10:15",
	})
	require.NoError(t, err)
	assert.Equal(t, 35000.0, updated.PaidFees)
	assert.Equal(t, 15000.0, updated.FeeBalance)
	assert.Equal(t, updated.TotalFees-updated.PaidFees, updated.FeeBalance)
	assert.Equal(t, std.ID, pmt.StudentID)
	assert.Equal(t, "John Doe", pmt.StudentName)
	assert.Equal(t, "Grade 4", pmt.StudentClass)
	assert.Equal(t, "Jane Doe", pmt.ParentName)
	assert.Equal(t, "+254700000001", pmt.ParentPhone)
	assert.True(t, strings.HasPrefix(pmt.ReceiptNumber, "RCP"))

	// overpayment goes negative, never clamped
	updated, _, err = svc.RecordPayment(testOwner, payment.NewPayment{StudentID: std.ID, Amount: 20000, MpesaCode: "QWE124"})
	require.NoError(t, err)
	assert.Equal(t, 55000.0, updated.PaidFees)
	assert.Equal(t, -5000.0, updated.FeeBalance)

	pmts, err = payments.QueryStudentPayments(testOwner, std.ID)
	require.NoError(t, err)
	assert.Len(t, pmts, 2)
}

func Test_service_RecordPayment_partialFailure(t *testing.T) {
	_, students, payments := setup(t)
	std := createStudent(t, students, "John", "Grade 4", 50000)

	boom := errors.New("write refused")
	svc := NewService(&failingStudentRepo{Repository: students, updateErr: boom}, payments)

	_, pmt, err := svc.RecordPayment(testOwner, payment.NewPayment{StudentID: std.ID, Amount: 1000, MpesaCode: "QWE123"})
	var pErr *core.PartialFailureError
	require.True(t, errors.As(err, &pErr), "want PartialFailureError, got %v", err)
	assert.Equal(t, "record payment", pErr.Op)
	require.Len(t, pErr.Failed, 1)
	assert.Equal(t, std.ID, pErr.Failed[0].ID)

	// the payment itself stands; reconciliation can repair the totals
	got, err := payments.GetPaymentByID(testOwner, pmt.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got.Amount)

	repaired, err := NewService(students, payments).ReconcileStudent(testOwner, std.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, repaired.PaidFees)
	assert.Equal(t, 49000.0, repaired.FeeBalance)
}

func Test_service_DeleteStudent(t *testing.T) {
	svc, students, payments := setup(t)
	std := createStudent(t, students, "John", "Grade 4", 50000)
	keep := createStudent(t, students, "Mary", "Grade 5", 30000)

	for _, code := range []string{"QWE123", "QWE124", "QWE125"} {
		_, _, err := svc.RecordPayment(testOwner, payment.NewPayment{StudentID: std.ID, Amount: 1000, MpesaCode: code})
		require.NoError(t, err)
	}
	_, _, err := svc.RecordPayment(testOwner, payment.NewPayment{StudentID: keep.ID, Amount: 500, MpesaCode: "QWE200"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStudent(testOwner, std.ID))

	_, err = students.GetStudentByID(testOwner, std.ID)
	assert.Equal(t, student.ErrNotFound, err)

	pmts, err := payments.QueryStudentPayments(testOwner, std.ID)
	require.NoError(t, err)
	assert.Empty(t, pmts, "payments must be cascade-deleted")

	// other students' payments are untouched
	pmts, err = payments.QueryStudentPayments(testOwner, keep.ID)
	require.NoError(t, err)
	assert.Len(t, pmts, 1)

	assert.Equal(t, student.ErrNotFound, svc.DeleteStudent(testOwner, std.ID))
}

func Test_service_DeleteStudent_partialFailure(t *testing.T) {
	svc, students, payments := setup(t)
	std := createStudent(t, students, "John", "Grade 4", 50000)

	_, pmt1, err := svc.RecordPayment(testOwner, payment.NewPayment{StudentID: std.ID, Amount: 1000, MpesaCode: "QWE123"})
	require.NoError(t, err)
	_, _, err = svc.RecordPayment(testOwner, payment.NewPayment{StudentID: std.ID, Amount: 2000, MpesaCode: "QWE124"})
	require.NoError(t, err)

	boom := errors.New("write refused")
	failing := NewService(students, &failingPaymentRepo{Repository: payments, deleteErr: map[string]error{pmt1.ID: boom}})

	err = failing.DeleteStudent(testOwner, std.ID)
	var pErr *core.PartialFailureError
	require.True(t, errors.As(err, &pErr), "want PartialFailureError, got %v", err)
	assert.Equal(t, "delete student", pErr.Op)
	require.Len(t, pErr.Failed, 1)
	assert.Equal(t, pmt1.ID, pErr.Failed[0].ID)

	// the student (primary write) is gone; only the failed payment remains
	_, err = students.GetStudentByID(testOwner, std.ID)
	assert.Equal(t, student.ErrNotFound, err)
	pmts, err := payments.QueryStudentPayments(testOwner, std.ID)
	require.NoError(t, err)
	require.Len(t, pmts, 1)
	assert.Equal(t, pmt1.ID, pmts[0].ID)
}

func Test_service_TransferStudent(t *testing.T) {
	svc, students, payments := setup(t)
	std := createStudent(t, students, "John", "Grade 4", 50000)

	for _, code := range []string{"QWE123", "QWE124"} {
		_, _, err := svc.RecordPayment(testOwner, payment.NewPayment{StudentID: std.ID, Amount: 1000, MpesaCode: code})
		require.NoError(t, err)
	}

	moved, err := svc.TransferStudent(testOwner, std.ID, "Grade 5")
	require.NoError(t, err)
	assert.Equal(t, "Grade 5", moved.Grade)

	pmts, err := payments.QueryStudentPayments(testOwner, std.ID)
	require.NoError(t, err)
	for _, pmt := range pmts {
		assert.Equal(t, "Grade 5", pmt.StudentClass)
	}

	// transferring to the current grade is a no-op, not an error
	moved, err = svc.TransferStudent(testOwner, std.ID, "Grade 5")
	require.NoError(t, err)
	assert.Equal(t, "Grade 5", moved.Grade)

	_, err = svc.TransferStudent(testOwner, "nope", "Grade 6")
	assert.Equal(t, student.ErrNotFound, err)
}

func Test_service_TransferStudent_partialFailure(t *testing.T) {
	svc, students, payments := setup(t)
	std := createStudent(t, students, "John", "Grade 4", 50000)

	_, pmt1, err := svc.RecordPayment(testOwner, payment.NewPayment{StudentID: std.ID, Amount: 1000, MpesaCode: "QWE123"})
	require.NoError(t, err)
	_, pmt2, err := svc.RecordPayment(testOwner, payment.NewPayment{StudentID: std.ID, Amount: 2000, MpesaCode: "QWE124"})
	require.NoError(t, err)

	boom := errors.New("write refused")
	failing := NewService(students, &failingPaymentRepo{Repository: payments, classErr: map[string]error{pmt2.ID: boom}})

	_, err = failing.TransferStudent(testOwner, std.ID, "Grade 5")
	var pErr *core.PartialFailureError
	require.True(t, errors.As(err, &pErr), "want PartialFailureError, got %v", err)
	assert.Equal(t, "transfer student", pErr.Op)
	require.Len(t, pErr.Failed, 1)
	assert.Equal(t, pmt2.ID, pErr.Failed[0].ID)

	// the repair pass finishes the propagation and skips the already-updated payment
	repaired, err := svc.ReconcileStudent(testOwner, std.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grade 5", repaired.Grade)
	for _, id := range []string{pmt1.ID, pmt2.ID} {
		pmt, err := payments.GetPaymentByID(testOwner, id)
		require.NoError(t, err)
		assert.Equal(t, "Grade 5", pmt.StudentClass)
	}
}

func Test_service_ReconcileStudent(t *testing.T) {
	svc, students, payments := setup(t)
	std := createStudent(t, students, "John", "Grade 4", 50000)

	for _, amount := range []float64{1000, 2000, 3000} {
		_, _, err := svc.RecordPayment(testOwner, payment.NewPayment{StudentID: std.ID, Amount: amount, MpesaCode: "QWE"})
		require.NoError(t, err)
	}

	// corrupt the totals to simulate a lost update
	std, err := students.GetStudentByID(testOwner, std.ID)
	require.NoError(t, err)
	std.PaidFees = 0
	std.FeeBalance = std.TotalFees
	_, err = students.UpdateStudent(std)
	require.NoError(t, err)

	repaired, err := svc.ReconcileStudent(testOwner, std.ID)
	require.NoError(t, err)
	assert.Equal(t, 6000.0, repaired.PaidFees)
	assert.Equal(t, 44000.0, repaired.FeeBalance)

	// idempotent: a second run changes nothing
	again, err := svc.ReconcileStudent(testOwner, std.ID)
	require.NoError(t, err)
	assert.Equal(t, repaired.PaidFees, again.PaidFees)
	assert.Equal(t, repaired.FeeBalance, again.FeeBalance)

	_, err = payments.QueryStudentPayments(testOwner, std.ID)
	require.NoError(t, err)
}

func Test_service_ownerScoping(t *testing.T) {
	svc, students, _ := setup(t)
	std := createStudent(t, students, "John", "Grade 4", 50000)

	_, _, err := svc.RecordPayment("other-owner", payment.NewPayment{StudentID: std.ID, Amount: 100, MpesaCode: "QWE123"})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "records must not leak across owners")

	assert.Equal(t, student.ErrNotFound, svc.DeleteStudent("other-owner", std.ID))
}

// failing repo stubs

type failingStudentRepo struct {
	student.Repository
	updateErr error
}

func (repo *failingStudentRepo) UpdateStudent(std student.Student) (student.Student, error) {
	if repo.updateErr != nil {
		return student.Student{}, repo.updateErr
	}
	return repo.Repository.UpdateStudent(std)
}

type failingPaymentRepo struct {
	payment.Repository
	deleteErr map[string]error
	classErr  map[string]error
}

func (repo *failingPaymentRepo) DeletePayment(ownerID, id string) error {
	if err, ok := repo.deleteErr[id]; ok {
		return err
	}
	return repo.Repository.DeletePayment(ownerID, id)
}

func (repo *failingPaymentRepo) UpdatePaymentClass(ownerID, id, studentClass string) error {
	if err, ok := repo.classErr[id]; ok {
		return err
	}
	return repo.Repository.UpdatePaymentClass(ownerID, id, studentClass)
}
