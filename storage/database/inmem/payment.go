package inmemdb

import (
	"github.com/google/uuid"

	"github.com/jkarani/shulepay/core/payment"
)

type paymentRepository struct {
	db *paymentTable
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db.payments}
}

func (repo *paymentRepository) CreatePayment(pmt payment.Payment) (payment.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if pmt.ID == "" {
		pmt.ID = uuid.New().String()
	}
	if _, ok := repo.db.table[pmt.ID]; !ok {
		repo.db.order = append(repo.db.order, pmt.ID)
	}
	repo.db.table[pmt.ID] = &pmt
	return pmt, nil
}

// query walks the insertion order in reverse so the newest payments come first.
func (repo *paymentRepository) query(ownerID string, match func(payment.Payment) bool) []payment.Payment {
	pmts := make([]payment.Payment, 0)
	for i := len(repo.db.order) - 1; i >= 0; i-- {
		pmt, ok := repo.db.table[repo.db.order[i]]
		if !ok || pmt.OwnerID != ownerID {
			continue
		}
		if match == nil || match(*pmt) {
			pmts = append(pmts, *pmt)
		}
	}
	return pmts
}

func (repo *paymentRepository) QueryPayments(ownerID string) ([]payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(ownerID, nil), nil
}

func (repo *paymentRepository) QueryStudentPayments(ownerID, studentID string) ([]payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(ownerID, func(pmt payment.Payment) bool { return pmt.StudentID == studentID }), nil
}

func (repo *paymentRepository) GetPaymentByID(ownerID, id string) (payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if pmt, ok := repo.db.table[id]; ok && pmt.OwnerID == ownerID {
		return *pmt, nil
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) UpdatePaymentClass(ownerID, id, studentClass string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pmt, ok := repo.db.table[id]
	if !ok || pmt.OwnerID != ownerID {
		return payment.ErrNotFound
	}
	pmt.StudentClass = studentClass
	return nil
}

func (repo *paymentRepository) DeletePayment(ownerID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pmt, ok := repo.db.table[id]
	if !ok || pmt.OwnerID != ownerID {
		return payment.ErrNotFound
	}
	delete(repo.db.table, id)
	for i, pid := range repo.db.order {
		if pid == id {
			repo.db.order = append(repo.db.order[:i], repo.db.order[i+1:]...)
			break
		}
	}
	return nil
}
