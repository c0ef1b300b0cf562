package handler_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshyyy26/QuizApp/internal/config"
	"github.com/harshyyy26/QuizApp/internal/handler"
	"github.com/harshyyy26/QuizApp/internal/middleware"
	"github.com/harshyyy26/QuizApp/internal/repository"
	"github.com/harshyyy26/QuizApp/internal/router"
	"github.com/harshyyy26/QuizApp/internal/utils"
)

// fakeMailer records what the workflows hand to the email collaborator.
type fakeMailer struct {
	otps   []string
	resets []string
	to     []string
}

func (m *fakeMailer) SendOtpEmail(_ context.Context, to, otp string, _ time.Duration) error {
	m.to = append(m.to, to)
	m.otps = append(m.otps, otp)
	return nil
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, to, token string, _ time.Duration) error {
	m.to = append(m.to, to)
	m.resets = append(m.resets, token)
	return nil
}

func (m *fakeMailer) lastOtp() string   { return m.otps[len(m.otps)-1] }
func (m *fakeMailer) lastReset() string { return m.resets[len(m.resets)-1] }

type testServer struct {
	e      *echo.Echo
	mock   sqlmock.Sqlmock
	mr     *miniredis.Miniredis
	mailer *fakeMailer
	resets *repository.ResetRepo
	cfg    config.Config
}

// newTestServer wires handlers, registries and the authentication gate the
// same way main does, on top of a mocked SQL database and miniredis.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	cfg := config.Config{
		JWTSecret:    "handler-test-secret",
		AccessTTLMin: 15,
		OtpTTLMin:    5,
		ResetTTLMin:  15,
		BcryptCost:   4,
	}

	users := repository.NewUserRepo(db)
	quizzes := repository.NewQuizRepo(db)
	attempts := repository.NewAttemptRepo(db)
	blacklist := repository.NewBlacklistRepo(rdb)
	otps := repository.NewOtpRepo(rdb)
	resets := repository.NewResetRepo(rdb)
	mailer := &fakeMailer{}

	e := echo.New()
	e.Use(middleware.Authenticate(cfg.JWTSecret, blacklist))
	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, blacklist, otps, resets, mailer), nil)
	router.RegisterUser(e, handler.NewUserHandler(users, quizzes, attempts))
	router.RegisterAdmin(e, handler.NewAdminHandler(users, quizzes, attempts))

	return &testServer{e: e, mock: mock, mr: mr, mailer: mailer, resets: resets, cfg: cfg}
}

func (s *testServer) request(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

const selectUserByUsername = "SELECT id,username,email,password_hash,roles,created_at,updated_at FROM users WHERE username=? LIMIT 1"
const selectUserByEmail = "SELECT id,username,email,password_hash,roles,created_at,updated_at FROM users WHERE email=? LIMIT 1"

func aliceRow(t *testing.T, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "roles", "created_at", "updated_at"}).
		AddRow(1, "alice", "a@x.com", hash, "USER", now, now)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	// A dead Redis flips the probe.
	s.mr.Close()
	rec = s.request(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}

func TestSignup_Conflicts(t *testing.T) {
	s := newTestServer(t)

	// First signup succeeds.
	s.mock.ExpectQuery("SELECT 1 FROM users WHERE username=? LIMIT 1").
		WithArgs("alice").WillReturnError(sql.ErrNoRows)
	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("a@x.com").WillReturnError(sql.ErrNoRows)
	s.mock.ExpectExec("INSERT INTO users (username, email, password_hash, roles) VALUES (?,?,?,?)").
		WithArgs("alice", "a@x.com", sqlmock.AnyArg(), "USER").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := s.request(http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"a@x.com","password":"pw1"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User registered successfully, Please login", rec.Body.String())

	// Same username, different email: username conflict.
	s.mock.ExpectQuery("SELECT 1 FROM users WHERE username=? LIMIT 1").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	rec = s.request(http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"b@x.com","password":"pw2"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists", rec.Body.String())

	// Different username, same email: email conflict.
	s.mock.ExpectQuery("SELECT 1 FROM users WHERE username=? LIMIT 1").
		WithArgs("bob").WillReturnError(sql.ErrNoRows)
	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	rec = s.request(http.MethodPost, "/auth/signup",
		`{"username":"bob","email":"a@x.com","password":"pw3"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already exists", rec.Body.String())

	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestLogin_UnknownUserIsNotFound(t *testing.T) {
	s := newTestServer(t)

	s.mock.ExpectQuery(selectUserByUsername).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	s.mock.ExpectQuery(selectUserByEmail).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	rec := s.request(http.MethodPost, "/auth/login",
		`{"username":"ghost","password":"pw"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No user found with given username or email", rec.Body.String())
}

func TestLogin_WrongPasswordIsUnauthorized(t *testing.T) {
	s := newTestServer(t)

	s.mock.ExpectQuery(selectUserByUsername).WithArgs("alice").
		WillReturnRows(aliceRow(t, "pw1"))

	rec := s.request(http.MethodPost, "/auth/login",
		`{"username":"alice","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect password", rec.Body.String())
}

func TestLogin_EmailFallback(t *testing.T) {
	s := newTestServer(t)

	s.mock.ExpectQuery(selectUserByUsername).WithArgs("a@x.com").WillReturnError(sql.ErrNoRows)
	s.mock.ExpectQuery(selectUserByEmail).WithArgs("a@x.com").
		WillReturnRows(aliceRow(t, "pw1"))

	rec := s.request(http.MethodPost, "/auth/login",
		`{"username":"a@x.com","password":"pw1"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
	assert.Contains(t, rec.Body.String(), `"ROLE_USER"`)
}

func TestLoginLogoutBlacklistScenario(t *testing.T) {
	s := newTestServer(t)

	s.mock.ExpectQuery(selectUserByUsername).WithArgs("alice").
		WillReturnRows(aliceRow(t, "pw1"))

	rec := s.request(http.MethodPost, "/auth/login",
		`{"username":"alice","password":"pw1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	// The issued token verifies and embeds the identity it was issued for.
	claims, err := utils.VerifyAccessToken(s.cfg.JWTSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, []string{"USER"}, claims.Roles)

	// Logout without a bearer header is a malformed request.
	rec = s.request(http.MethodPost, "/auth/logout", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodPost, "/auth/logout", "", resp.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", rec.Body.String())

	// Any subsequent request with the revoked token is rejected by the
	// gate before its expiry.
	rec = s.request(http.MethodGet, "/user/profile", "", resp.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is blacklisted. Please login again.", rec.Body.String())
}

func TestOtpFlow_SupersedeAndSingleUse(t *testing.T) {
	s := newTestServer(t)

	// Unknown email is 404.
	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)
	rec := s.request(http.MethodPost, "/auth/send-otp", `{"email":"ghost@x.com"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// First OTP.
	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("a@x.com").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rec = s.request(http.MethodPost, "/auth/send-otp", `{"email":"a@x.com"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	otp1 := s.mailer.lastOtp()
	require.Len(t, otp1, 6)

	// Second request supersedes the first.
	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("a@x.com").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rec = s.request(http.MethodPost, "/auth/send-otp", `{"email":"a@x.com"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	otp2 := s.mailer.lastOtp()

	rec = s.request(http.MethodPost, "/auth/verify-otp",
		`{"email":"a@x.com","otp":"`+otp1+`"}`, "")
	if otp1 != otp2 {
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "superseded code must fail")
	}

	// The live code logs in.
	s.mock.ExpectQuery(selectUserByEmail).WithArgs("a@x.com").
		WillReturnRows(aliceRow(t, "pw1"))
	rec = s.request(http.MethodPost, "/auth/verify-otp",
		`{"email":"a@x.com","otp":"`+otp2+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)

	// Single use: the same code cannot log in twice.
	rec = s.request(http.MethodPost, "/auth/verify-otp",
		`{"email":"a@x.com","otp":"`+otp2+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOtp_ExpiredCodeFails(t *testing.T) {
	s := newTestServer(t)

	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("a@x.com").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rec := s.request(http.MethodPost, "/auth/send-otp", `{"email":"a@x.com"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	otp := s.mailer.lastOtp()

	s.mr.FastForward(6 * time.Minute)

	rec = s.request(http.MethodPost, "/auth/verify-otp",
		`{"email":"a@x.com","otp":"`+otp+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	s := newTestServer(t)

	// Unknown email is 404.
	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)
	rec := s.request(http.MethodPost, "/auth/request-reset?email=ghost@x.com", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("a@x.com").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rec = s.request(http.MethodPost, "/auth/request-reset?email=a@x.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := s.mailer.lastReset()
	require.NotEmpty(t, token)

	// Unknown token is 401.
	rec = s.request(http.MethodPost, "/auth/reset-password",
		`{"token":"bogus","newPassword":"new-pw"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid reset token", rec.Body.String())

	// The mailed token completes the reset.
	s.mock.ExpectExec("UPDATE users SET password_hash=? WHERE email=?").
		WithArgs(sqlmock.AnyArg(), "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec = s.request(http.MethodPost, "/auth/reset-password",
		`{"token":"`+token+`","newPassword":"new-pw"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password successfully reset. Please log in with your new password.", rec.Body.String())

	// Single use: the consumed token no longer resolves.
	rec = s.request(http.MethodPost, "/auth/reset-password",
		`{"token":"`+token+`","newPassword":"other"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordReset_ExpiredTokenIsGone(t *testing.T) {
	s := newTestServer(t)

	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("a@x.com").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rec := s.request(http.MethodPost, "/auth/request-reset?email=a@x.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := s.mailer.lastReset()

	// Past the logical expiry but inside the grace window: the record is
	// still there, so the failure is Expired rather than Invalid.
	s.mr.FastForward(20 * time.Minute)

	rec = s.request(http.MethodPost, "/auth/reset-password",
		`{"token":"`+token+`","newPassword":"new-pw"}`, "")
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "Token has expired", rec.Body.String())

	// The expired record is left in place at this step.
	_, _, err := s.resets.Lookup(context.Background(), token)
	assert.NoError(t, err)
}

func TestPasswordReset_SupersededTokenFails(t *testing.T) {
	s := newTestServer(t)

	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("a@x.com").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rec := s.request(http.MethodPost, "/auth/request-reset?email=a@x.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	token1 := s.mailer.lastReset()

	s.mock.ExpectQuery("SELECT 1 FROM users WHERE email=? LIMIT 1").
		WithArgs("a@x.com").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rec = s.request(http.MethodPost, "/auth/request-reset?email=a@x.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	token2 := s.mailer.lastReset()
	require.NotEqual(t, token1, token2)

	rec = s.request(http.MethodPost, "/auth/reset-password",
		`{"token":"`+token1+`","newPassword":"new-pw"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
