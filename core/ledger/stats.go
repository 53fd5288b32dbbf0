package ledger

import (
	"sort"
	"time"

	"github.com/jkarani/shulepay/core/payment"
	"github.com/jkarani/shulepay/core/student"
)

// TopDebtorCount is how many students the debtor ranking returns.
const TopDebtorCount = 5

// Stats is the dashboard aggregate view, recomputed from the full record
// sets on every call; no derived state is cached or persisted.
type Stats struct {
	TotalStudents       int                `json:"total_students"`
	TotalCollected      float64            `json:"total_collected"`
	TotalOutstanding    float64            `json:"total_outstanding"`
	TotalExpected       float64            `json:"total_expected"`
	CollectionRate      float64            `json:"collection_rate"` // percent
	StudentsWithBalance int                `json:"students_with_balance"`
	FullyPaid           int                `json:"fully_paid"`
	PartiallyPaid       int                `json:"partially_paid"`
	NotPaid             int                `json:"not_paid"`
	StudentsByLevel     map[string]int     `json:"students_by_level"`
	RecentPayments      int                `json:"recent_payments"`
	RecentPaymentsTotal float64            `json:"recent_payments_total"`
	TopDebtors          []student.Student  `json:"top_debtors"`
}

// ComputeStatistics derives the dashboard aggregates. Pure and read-only.
// Payments count as recent when their date falls within
// [today - windowDays, today] inclusive.
func ComputeStatistics(students []student.Student, payments []payment.Payment, windowDays int) Stats {
	stats := Stats{
		TotalStudents:   len(students),
		StudentsByLevel: make(map[string]int),
	}

	for _, std := range students {
		stats.TotalCollected += std.PaidFees
		stats.TotalOutstanding += std.FeeBalance
		stats.TotalExpected += std.TotalFees
		stats.StudentsByLevel[student.EducationLevel(std.Grade)]++

		if std.FeeBalance > 0 {
			stats.StudentsWithBalance++
		}
		switch {
		case std.PaidFees == 0:
			stats.NotPaid++
		case std.FeeBalance > 0:
			stats.PartiallyPaid++
		default:
			stats.FullyPaid++
		}
	}

	if stats.TotalExpected > 0 {
		stats.CollectionRate = stats.TotalCollected / stats.TotalExpected * 100
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	windowStart := today.AddDate(0, 0, -windowDays)
	for _, pmt := range payments {
		date, err := time.Parse("2006-01-02", pmt.Date)
		if err != nil {
			continue
		}
		if !date.Before(windowStart) && !date.After(today) {
			stats.RecentPayments++
			stats.RecentPaymentsTotal += pmt.Amount
		}
	}

	stats.TopDebtors = TopDebtors(students, TopDebtorCount)
	return stats
}

// TopDebtors ranks students by descending fee balance, balance > 0 only.
// The sort is stable: ties keep their original list order.
func TopDebtors(students []student.Student, n int) []student.Student {
	debtors := make([]student.Student, 0, len(students))
	for _, std := range students {
		if std.FeeBalance > 0 {
			debtors = append(debtors, std)
		}
	}
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].FeeBalance > debtors[j].FeeBalance })
	if len(debtors) > n {
		debtors = debtors[:n]
	}
	return debtors
}
