package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarani/shulepay/core/ledger"
	"github.com/jkarani/shulepay/core/payment"
)

func Test_dashboardApi_stats(t *testing.T) {
	server, deps := newTestServer(t)
	usr := createAccount(t, deps.usrRepo, "head@test.ke", "s3cr3t!", true)
	token := getToken(t, deps.conf, usr)

	john := createStudent(t, deps.stdRepo, usr.ID, "John", "ADM001", "Grade 4", 50000)
	mary := createStudent(t, deps.stdRepo, usr.ID, "Mary", "ADM002", "Form 2", 30000)
	createStudent(t, deps.stdRepo, usr.ID, "Peter", "ADM003", "PP1", 20000)

	// recent payments; the date defaults to today
	_, _, err := deps.ledger.RecordPayment(usr.ID, payment.NewPayment{
		StudentID: john.ID, Amount: 50000, MpesaCode: "QWE123",
		Date: time.Now().UTC().Format("2006-01-02"),
	})
	require.NoError(t, err)
	_, _, err = deps.ledger.RecordPayment(usr.ID, payment.NewPayment{
		StudentID: mary.ID, Amount: 10000, MpesaCode: "QWE124",
		Date: time.Now().UTC().Format("2006-01-02"),
	})
	require.NoError(t, err)
	// an old payment, outside the default window
	_, _, err = deps.ledger.RecordPayment(usr.ID, payment.NewPayment{
		StudentID: mary.ID, Amount: 5000, MpesaCode: "QWE125",
		Date: time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02"),
	})
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", token)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats ledger.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))

	assert.Equal(t, 3, stats.TotalStudents)
	assert.Equal(t, 65000.0, stats.TotalCollected)
	assert.Equal(t, 35000.0, stats.TotalOutstanding)
	assert.Equal(t, 100000.0, stats.TotalExpected)
	assert.Equal(t, 65.0, stats.CollectionRate)
	assert.Equal(t, 1, stats.FullyPaid)
	assert.Equal(t, 1, stats.PartiallyPaid)
	assert.Equal(t, 1, stats.NotPaid)
	assert.Equal(t, 2, stats.StudentsWithBalance)
	assert.Equal(t, 2, stats.RecentPayments)
	assert.Equal(t, 60000.0, stats.RecentPaymentsTotal)
	assert.Equal(t, map[string]int{"Upper Primary": 1, "Other": 1, "Early Years": 1}, stats.StudentsByLevel)

	require.Len(t, stats.TopDebtors, 2)
	assert.Equal(t, "Peter Doe", stats.TopDebtors[0].FullName())
	assert.Equal(t, "Mary Doe", stats.TopDebtors[1].FullName())

	// widening the window picks up the old payment
	req, rec = newAuthRequest(http.MethodGet, "/v1/dashboard?window_days=60", token)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.RecentPayments)
	assert.Equal(t, 65000.0, stats.RecentPaymentsTotal)
}

func Test_dashboardApi_stats_empty(t *testing.T) {
	server, deps := newTestServer(t)
	usr := createAccount(t, deps.usrRepo, "head@test.ke", "s3cr3t!", true)
	token := getToken(t, deps.conf, usr)

	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", token)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats ledger.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.TotalStudents)
	assert.Equal(t, 0.0, stats.CollectionRate)
	assert.Empty(t, stats.TopDebtors)
}
