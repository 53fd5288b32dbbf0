// Package inmemdb is a map-backed implementation of the repositories,
// used in tests and for running the API without a database.
package inmemdb

import (
	"sync"

	"github.com/jkarani/shulepay/core/payment"
	"github.com/jkarani/shulepay/core/student"
	"github.com/jkarani/shulepay/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}

	paymentTable struct {
		mutex sync.RWMutex
		table map[string]*payment.Payment
		order []string // insertion order, for newest-first queries
	}

	DB struct {
		users    *userTable
		students *studentTable
		payments *paymentTable
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:    &userTable{table: make(map[string]*user.User)},
		students: &studentTable{table: make(map[string]*student.Student)},
		payments: &paymentTable{table: make(map[string]*payment.Payment)},
	}
	return db, nil
}
