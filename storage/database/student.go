package database

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jkarani/shulepay/core/student"
)

type studentRow struct {
	ID              string    `db:"id"`
	OwnerID         string    `db:"owner_id"`
	FirstName       string    `db:"first_name"`
	LastName        string    `db:"last_name"`
	Grade           string    `db:"grade"`
	AdmissionNumber string    `db:"admission_number"`
	DateOfBirth     string    `db:"date_of_birth"`
	Guardians       []byte    `db:"guardians"` // JSON, as the original document store kept it
	TotalFees       float64   `db:"total_fees"`
	PaidFees        float64   `db:"paid_fees"`
	FeeBalance      float64   `db:"fee_balance"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r studentRow) toStudent() (student.Student, error) {
	var guardians []student.Guardian
	if len(r.Guardians) > 0 {
		if err := json.Unmarshal(r.Guardians, &guardians); err != nil {
			return student.Student{}, err
		}
	}
	return student.Student{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Grade:           r.Grade,
		AdmissionNumber: r.AdmissionNumber,
		DateOfBirth:     r.DateOfBirth,
		Guardians:       guardians,
		TotalFees:       r.TotalFees,
		PaidFees:        r.PaidFees,
		FeeBalance:      r.FeeBalance,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckAdmissionNumberUniqueness(ownerID, admissionNumber string, excludedStudents ...student.Student) error {
	query := `SELECT COUNT(*) FROM students WHERE owner_id = $1 AND admission_number = $2`
	args := []interface{}{ownerID, admissionNumber}
	if len(excludedStudents) > 0 {
		ids := make([]string, 0, len(excludedStudents))
		for _, std := range excludedStudents {
			ids = append(ids, std.ID)
		}
		var err error
		query, args, err = sqlx.In(
			`SELECT COUNT(*) FROM students WHERE owner_id = ? AND admission_number = ? AND id NOT IN (?)`,
			ownerID, admissionNumber, ids,
		)
		if err != nil {
			return err
		}
		query = repo.db.Rebind(query)
	}

	var count int
	if err := repo.db.Get(&count, query, args...); err != nil {
		return err
	}
	if count > 0 {
		return student.ErrAdmissionNumExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(std student.Student) (student.Student, error) {
	row, err := repo.toRow(std)
	if err != nil {
		return student.Student{}, err
	}
	const query = `
		INSERT INTO students (id, owner_id, first_name, last_name, grade, admission_number, date_of_birth,
		                      guardians, total_fees, paid_fees, fee_balance, created_at, updated_at)
		VALUES (:id, :owner_id, :first_name, :last_name, :grade, :admission_number, :date_of_birth,
		        :guardians, :total_fees, :paid_fees, :fee_balance, :created_at, :updated_at)`
	if _, err = repo.db.NamedExec(query, row); err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (repo *studentRepository) QueryStudents(ownerID string) ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.Select(&rows, `SELECT * FROM students WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	return repo.toStudents(rows)
}

func (repo *studentRepository) GetStudentByID(ownerID, id string) (student.Student, error) {
	var row studentRow
	err := repo.db.Get(&row, `SELECT * FROM students WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, err
	}
	return row.toStudent()
}

func (repo *studentRepository) FilterStudents(ownerID string, filter student.QueryFilter) ([]student.Student, error) {
	query := `SELECT * FROM students WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if filter.Search != "" {
		query += ` AND (first_name || ' ' || last_name ILIKE '%' || $2 || '%' OR admission_number ILIKE '%' || $2 || '%')`
		args = append(args, filter.Search)
	}
	if filter.Grade != "" {
		query += ` AND grade = $` + strconv.Itoa(len(args)+1)
		args = append(args, filter.Grade)
	}
	query += ` ORDER BY created_at`

	var rows []studentRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	return repo.toStudents(rows)
}

func (repo *studentRepository) UpdateStudent(std student.Student) (student.Student, error) {
	row, err := repo.toRow(std)
	if err != nil {
		return student.Student{}, err
	}
	const query = `
		UPDATE students
		SET first_name = :first_name, last_name = :last_name, grade = :grade,
		    admission_number = :admission_number, date_of_birth = :date_of_birth, guardians = :guardians,
		    total_fees = :total_fees, paid_fees = :paid_fees, fee_balance = :fee_balance, updated_at = :updated_at
		WHERE owner_id = :owner_id AND id = :id`
	res, err := repo.db.NamedExec(query, row)
	if err != nil {
		return student.Student{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}

func (repo *studentRepository) DeleteStudent(ownerID, id string) error {
	res, err := repo.db.Exec(`DELETE FROM students WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) toRow(std student.Student) (studentRow, error) {
	guardians, err := json.Marshal(std.Guardians)
	if err != nil {
		return studentRow{}, err
	}
	return studentRow{
		ID:              std.ID,
		OwnerID:         std.OwnerID,
		FirstName:       std.FirstName,
		LastName:        std.LastName,
		Grade:           std.Grade,
		AdmissionNumber: std.AdmissionNumber,
		DateOfBirth:     std.DateOfBirth,
		Guardians:       guardians,
		TotalFees:       std.TotalFees,
		PaidFees:        std.PaidFees,
		FeeBalance:      std.FeeBalance,
		CreatedAt:       std.CreatedAt,
		UpdatedAt:       std.UpdatedAt,
	}, nil
}

func (repo *studentRepository) toStudents(rows []studentRow) ([]student.Student, error) {
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		std, err := row.toStudent()
		if err != nil {
			return nil, err
		}
		students = append(students, std)
	}
	return students, nil
}
