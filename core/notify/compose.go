// Package notify turns message templates into personalized guardian
// messages. Composition is pure string substitution; delivery belongs to
// the SMS/email gateway services.
package notify

import (
	"strconv"
	"strings"

	"github.com/jkarani/shulepay/core/student"
)

// Tokens replaced from the student record. Any other [Token] is left for
// the caller to fill via the extra substitution table.
const (
	TokenStudentName = "[StudentName]"
	TokenClass       = "[Class]"
	TokenBalance     = "[Balance]"
)

// Compose replaces the student tokens in template with values from std,
// then applies the caller-supplied substitution table literally. Tokens
// that appear in neither are left untouched.
func Compose(template string, std student.Student, extra map[string]string) string {
	pairs := []string{
		TokenStudentName, std.FullName(),
		TokenClass, std.Grade,
		TokenBalance, formatAmount(std.FeeBalance),
	}
	for token, value := range extra {
		pairs = append(pairs, token, value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// formatAmount renders a KES amount without a trailing .0 for whole values,
// matching how balances are displayed on receipts and reminders.
func formatAmount(amount float64) string {
	if amount == float64(int64(amount)) {
		return strconv.FormatInt(int64(amount), 10)
	}
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
