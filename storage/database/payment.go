package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jkarani/shulepay/core/payment"
)

type paymentRow struct {
	ID            string    `db:"id"`
	OwnerID       string    `db:"owner_id"`
	StudentID     string    `db:"student_id"`
	StudentName   string    `db:"student_name"`
	StudentClass  string    `db:"student_class"`
	ParentName    string    `db:"parent_name"`
	ParentPhone   string    `db:"parent_phone"`
	MpesaCode     string    `db:"mpesa_code"`
	Amount        float64   `db:"amount"`
	Date          string    `db:"date"`
	Time          string    `db:"time"`
	PaymentMethod string    `db:"payment_method"`
	ReceiptNumber string    `db:"receipt_number"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r paymentRow) toPayment() payment.Payment {
	return payment.Payment{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		StudentID:     r.StudentID,
		StudentName:   r.StudentName,
		StudentClass:  r.StudentClass,
		ParentName:    r.ParentName,
		ParentPhone:   r.ParentPhone,
		MpesaCode:     r.MpesaCode,
		Amount:        r.Amount,
		Date:          r.Date,
		Time:          r.Time,
		PaymentMethod: r.PaymentMethod,
		ReceiptNumber: r.ReceiptNumber,
		CreatedAt:     r.CreatedAt,
	}
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *sqlx.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(pmt payment.Payment) (payment.Payment, error) {
	if pmt.ID == "" {
		pmt.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO payments (id, owner_id, student_id, student_name, student_class, parent_name, parent_phone,
		                      mpesa_code, amount, date, time, payment_method, receipt_number, created_at)
		VALUES (:id, :owner_id, :student_id, :student_name, :student_class, :parent_name, :parent_phone,
		        :mpesa_code, :amount, :date, :time, :payment_method, :receipt_number, :created_at)`
	if _, err := repo.db.NamedExec(query, repo.toRow(pmt)); err != nil {
		return payment.Payment{}, err
	}
	return pmt, nil
}

func (repo *paymentRepository) QueryPayments(ownerID string) ([]payment.Payment, error) {
	var rows []paymentRow
	err := repo.db.Select(&rows, `SELECT * FROM payments WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return repo.toPayments(rows), nil
}

func (repo *paymentRepository) QueryStudentPayments(ownerID, studentID string) ([]payment.Payment, error) {
	var rows []paymentRow
	err := repo.db.Select(&rows,
		`SELECT * FROM payments WHERE owner_id = $1 AND student_id = $2 ORDER BY created_at DESC`, ownerID, studentID)
	if err != nil {
		return nil, err
	}
	return repo.toPayments(rows), nil
}

func (repo *paymentRepository) GetPaymentByID(ownerID, id string) (payment.Payment, error) {
	var row paymentRow
	err := repo.db.Get(&row, `SELECT * FROM payments WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return payment.Payment{}, payment.ErrNotFound
		}
		return payment.Payment{}, err
	}
	return row.toPayment(), nil
}

func (repo *paymentRepository) UpdatePaymentClass(ownerID, id, studentClass string) error {
	res, err := repo.db.Exec(
		`UPDATE payments SET student_class = $1 WHERE owner_id = $2 AND id = $3`, studentClass, ownerID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return payment.ErrNotFound
	}
	return nil
}

func (repo *paymentRepository) DeletePayment(ownerID, id string) error {
	res, err := repo.db.Exec(`DELETE FROM payments WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return payment.ErrNotFound
	}
	return nil
}

func (repo *paymentRepository) toRow(pmt payment.Payment) paymentRow {
	return paymentRow{
		ID:            pmt.ID,
		OwnerID:       pmt.OwnerID,
		StudentID:     pmt.StudentID,
		StudentName:   pmt.StudentName,
		StudentClass:  pmt.StudentClass,
		ParentName:    pmt.ParentName,
		ParentPhone:   pmt.ParentPhone,
		MpesaCode:     pmt.MpesaCode,
		Amount:        pmt.Amount,
		Date:          pmt.Date,
		Time:          pmt.Time,
		PaymentMethod: pmt.PaymentMethod,
		ReceiptNumber: pmt.ReceiptNumber,
		CreatedAt:     pmt.CreatedAt,
	}
}

func (repo *paymentRepository) toPayments(rows []paymentRow) []payment.Payment {
	pmts := make([]payment.Payment, 0, len(rows))
	for _, row := range rows {
		pmts = append(pmts, row.toPayment())
	}
	return pmts
}
