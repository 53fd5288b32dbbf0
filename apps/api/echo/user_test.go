package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarani/shulepay/core/user"
)

func Test_authApi_register(t *testing.T) {
	server, deps := newTestServer(t)
	createAccount(t, deps.usrRepo, "taken@test.ke", "", true)

	body := func(email, sysKey string) []byte {
		return marchallObj(t, map[string]string{
			"email":            email,
			"name":             "Head Teacher",
			"school_name":      "Sunrise Academy",
			"password":         "s3cr3t!",
			"password_confirm": "s3cr3t!",
			"system_key":       sysKey,
		})
	}

	tests := []httpTest{
		{name: "valid registration", body: body("new@test.ke", "sys-key"), wantCode: http.StatusCreated},
		{name: "wrong system key", body: body("another@test.ke", "nope"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"system_key": "invalid system key"})},
		{name: "duplicate email", body: body("taken@test.ke", "sys-key"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "an account with this email already exists"})},
		{name: "missing fields", body: marchallObj(t, map[string]string{"email": "x@test.ke"}), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/register", tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the new account can be looked up and defaults to the admin role
	usr, err := deps.usrSvc.GetByEmail("new@test.ke")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, usr.Role)
	assert.True(t, usr.IsActive)
}

func Test_authApi_login(t *testing.T) {
	server, deps := newTestServer(t)
	createAccount(t, deps.usrRepo, "head@test.ke", "s3cr3t!", true)
	createAccount(t, deps.usrRepo, "gone@test.ke", "s3cr3t!", false)

	body := func(email, pwd string) []byte {
		return marchallObj(t, map[string]string{"email": email, "password": pwd})
	}

	tests := []httpTest{
		{name: "valid credentials", body: body("head@test.ke", "s3cr3t!"), wantCode: http.StatusOK},
		{name: "email is case-insensitive", body: body("HEAD@test.KE", "s3cr3t!"), wantCode: http.StatusOK},
		{name: "wrong password", body: body("head@test.ke", "nope"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "unknown email", body: body("who@test.ke", "s3cr3t!"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "deactivated account", body: body("gone@test.ke", "s3cr3t!"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// a successful login returns a token and sets the auth cookie
	req, rec := newRequest(http.MethodPost, "/v1/auth/login", body("head@test.ke", "s3cr3t!"))
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "head@test.ke", resp.User.Email)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the auth cookie")
	assert.Equal(t, resp.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func Test_authApi_me(t *testing.T) {
	server, deps := newTestServer(t)
	usr := createAccount(t, deps.usrRepo, "head@test.ke", "s3cr3t!", true)
	token := getToken(t, deps.conf, usr)

	// no credentials
	req, rec := newRequest(http.MethodGet, "/v1/auth/me")
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	// bearer token
	req, rec = newAuthRequest(http.MethodGet, "/v1/auth/me", token)
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}, rec)

	// auth cookie
	req, rec = newRequest(http.MethodGet, "/v1/auth/me")
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}, rec)
}

func Test_authApi_logout(t *testing.T) {
	server, _ := newTestServer(t)

	req, rec := newRequest(http.MethodPost, "/v1/auth/logout")
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value, "logout must clear the auth cookie")
	assert.True(t, cookie.Expires.Unix() <= 0, "logout cookie must be expired")
}
