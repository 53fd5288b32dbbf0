package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarani/shulepay/core"
	"github.com/jkarani/shulepay/core/notify"
	"github.com/jkarani/shulepay/core/student"
	emailsvc "github.com/jkarani/shulepay/services/email"
	smssvc "github.com/jkarani/shulepay/services/sms"
)

func Test_smsApi_send(t *testing.T) {
	server, deps := newTestServer(t)
	usr := createAccount(t, deps.usrRepo, "head@test.ke", "s3cr3t!", true)
	token := getToken(t, deps.conf, usr)

	body := func(numbers []string, message string) []byte {
		return marchallObj(t, map[string]interface{}{"numbers": numbers, "message": message})
	}

	tests := []httpTest{
		{name: "valid", body: body([]string{"+254700000001", "+254700000002"}, "School closes Friday."), wantCode: http.StatusOK},
		{name: "bad number", body: body([]string{"0712-345"}, "Hello"), wantCode: http.StatusBadRequest},
		{name: "no numbers", body: body(nil, "Hello"), wantCode: http.StatusBadRequest},
		{name: "no message", body: body([]string{"+254700000001"}, ""), wantCode: http.StatusBadRequest},
		{name: "no auth", body: body([]string{"+254700000001"}, "Hello"), token: "-", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := token
			if tt.token == "-" {
				tok = ""
			}
			req, rec := newAuthRequest(http.MethodPost, "/v1/sms", tok, tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// a successful send returns the delivery report and hits the gateway
	sent := len(smssvc.SentMessages)
	req, rec := newAuthRequest(http.MethodPost, "/v1/sms", token, body([]string{"+254700000001", "+254700000002"}, "Hello"))
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var report core.DeliveryReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Successful)
	assert.Equal(t, 0, report.Failed)

	require.Len(t, smssvc.SentMessages, sent+1)
	last := smssvc.SentMessages[len(smssvc.SentMessages)-1]
	assert.Equal(t, []string{"+254700000001", "+254700000002"}, last.To)
	assert.Equal(t, "Hello", last.Message)
}

func Test_smsApi_templates(t *testing.T) {
	server, deps := newTestServer(t)
	usr := createAccount(t, deps.usrRepo, "head@test.ke", "s3cr3t!", true)
	token := getToken(t, deps.conf, usr)

	req, rec := newAuthRequest(http.MethodGet, "/v1/sms/templates", token)
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, TemplatesResponse{Fee: notify.FeeTemplates, General: notify.GeneralTemplates}),
	}, rec)
}

func Test_smsApi_sendFeeReminders(t *testing.T) {
	server, deps := newTestServer(t)
	usr := createAccount(t, deps.usrRepo, "head@test.ke", "s3cr3t!", true)
	token := getToken(t, deps.conf, usr)

	owing := createStudent(t, deps.stdRepo, usr.ID, "John", "ADM001", "Grade 4", 50000)
	paid := createStudent(t, deps.stdRepo, usr.ID, "Mary", "ADM002", "Grade 5", 30000)
	paid.PaidFees = 30000
	paid.FeeBalance = 0
	_, err := deps.stdRepo.UpdateStudent(paid)
	require.NoError(t, err)

	// owes, but has no guardian phone on file
	now := time.Now().UTC()
	noPhone, err := deps.stdRepo.CreateStudent(student.Student{
		OwnerID:         usr.ID,
		FirstName:       "Peter",
		LastName:        "Doe",
		Grade:           "Grade 6",
		AdmissionNumber: "ADM003",
		Guardians:       []student.Guardian{{ID: "g-ADM003", Name: "Joe Doe", Relationship: "Father"}},
		TotalFees:       20000,
		FeeBalance:      20000,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	require.NoError(t, err)

	// default run targets every student carrying a balance
	sent := len(smssvc.SentMessages)
	req, rec := newAuthRequest(http.MethodPost, "/v1/sms/fee-reminders", token, marchallObj(t, map[string]interface{}{}))
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FeeReminderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Students)
	assert.Equal(t, []string{noPhone.ID}, resp.Skipped)
	assert.Equal(t, 1, resp.Report.Total)
	assert.Equal(t, 1, resp.Report.Successful)

	require.Len(t, smssvc.SentMessages, sent+1)
	msg := smssvc.SentMessages[len(smssvc.SentMessages)-1]
	assert.Equal(t, []string{"+254700000001"}, msg.To)
	assert.Contains(t, msg.Message, "John Doe", "the default template is personalized")
	assert.Contains(t, msg.Message, "KES 50000")

	// unknown student ID
	req, rec = newAuthRequest(http.MethodPost, "/v1/sms/fee-reminders", token,
		marchallObj(t, map[string]interface{}{"student_ids": []string{"nope"}}))
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// custom message with caller tokens, mirrored to the guardian's email
	mailed := len(emailsvc.SentMessages)
	sent = len(smssvc.SentMessages)
	req, rec = newAuthRequest(http.MethodPost, "/v1/sms/fee-reminders", token, marchallObj(t, map[string]interface{}{
		"student_ids":  []string{owing.ID},
		"message":      "Dear parent of [StudentName], pay KES [Balance] by [Date].",
		"tokens":       map[string]string{"[Date]": "Friday"},
		"mirror_email": true,
	}))
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	resp = FeeReminderResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Students)
	assert.Empty(t, resp.Skipped)

	require.Len(t, smssvc.SentMessages, sent+1)
	msg = smssvc.SentMessages[len(smssvc.SentMessages)-1]
	assert.Equal(t, "Dear parent of John Doe, pay KES 50000 by Friday.", msg.Message)

	require.Len(t, emailsvc.SentMessages, mailed+1)
	email := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	assert.Equal(t, "jane@test.ke", email.To[0].Address)
	assert.Equal(t, "Fee Balance Reminder", email.Subject)
	assert.Equal(t, msg.Message, email.Body)
}
