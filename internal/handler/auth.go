package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harshyyy26/QuizApp/internal/config"
	"github.com/harshyyy26/QuizApp/internal/middleware"
	"github.com/harshyyy26/QuizApp/internal/model"
	"github.com/harshyyy26/QuizApp/internal/repository"
	"github.com/harshyyy26/QuizApp/internal/service"
	"github.com/harshyyy26/QuizApp/internal/utils"
)

// AuthHandler bundles dependencies for the credential workflows: signup,
// password login, logout, OTP login and password reset.
type AuthHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Blacklist *repository.BlacklistRepo
	Otps      *repository.OtpRepo
	Resets    *repository.ResetRepo
	Mailer    service.Mailer
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, b *repository.BlacklistRepo,
	o *repository.OtpRepo, r *repository.ResetRepo, m service.Mailer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Blacklist: b, Otps: o, Resets: r, Mailer: m}
}

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	// Username doubles as the email when no username matches.
	Username string `json:"username"`
	Password string `json:"password"`
}
type emailReq struct {
	Email string `json:"email"`
}
type otpVerifyReq struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}
type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type userDTO struct {
	ID       uint64   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}
type authResp struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

func toUserDTO(u model.User) userDTO {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Authority())
	}
	return userDTO{ID: u.ID, Username: u.Username, Email: u.Email, Roles: roles}
}

// issueFor signs a bearer token embedding the user's name and full role set.
func (h *AuthHandler) issueFor(u model.User) (utils.AccessToken, error) {
	return utils.NewAccessToken(h.Cfg.JWTSecret, u.Username, u.RoleNames(), h.Cfg.AccessTTLMin)
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Signup registers a new identity with the default USER role.  Duplicate
// username or email are rejected before the password is ever hashed.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	_, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, []model.Role{model.RoleUser}, h.Cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrUsernameExists):
		return c.String(http.StatusBadRequest, "Username already exists")
	case errors.Is(err, repository.ErrEmailExists):
		return c.String(http.StatusBadRequest, "Email already exists")
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.String(http.StatusOK, "User registered successfully, Please login")
}

// Login verifies a password and returns a bearer token.  The identity is
// looked up by username first, falling back to email, and the two failure
// modes stay distinct: unknown identity is 404, wrong password is 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		u, err = h.Users.GetByEmail(ctx, req.Username)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return c.String(http.StatusNotFound, "No user found with given username or email")
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.String(http.StatusUnauthorized, "Incorrect password")
	}

	access, err := h.issueFor(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, authResp{Token: access.Token, User: toUserDTO(u)})
}

// Logout moves the presented token into the revocation registry.  The entry
// lives exactly as long as the token itself would have; an unparsable token
// falls back to the configured access TTL.
func (h *AuthHandler) Logout(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.String(http.StatusBadRequest, "Invalid or missing Authorization header")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return c.String(http.StatusBadRequest, "Token is empty")
	}

	ttl, ok := utils.TokenRemainingLife(token)
	if !ok {
		ttl = time.Duration(h.Cfg.AccessTTLMin) * time.Minute
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Blacklist.Revoke(ctx, token, ttl); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.String(http.StatusOK, "Logged out successfully")
}

// SendOtp issues a fresh 6-digit login code for the email, superseding any
// pending one, and dispatches it via the email collaborator.
func (h *AuthHandler) SendOtp(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if exists, err := h.Users.ExistsByEmail(ctx, email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if !exists {
		return c.String(http.StatusNotFound, "No user found with this email.")
	}

	code, err := utils.NewOtpCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate otp failed"})
	}
	ttl := time.Duration(h.Cfg.OtpTTLMin) * time.Minute
	if err := h.Otps.Issue(ctx, email, code, ttl); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store otp failed"})
	}
	// Delivery happens out-of-band; a broker hiccup is logged but does not
	// fail the request, the client can simply request a new code.
	if err := h.Mailer.SendOtpEmail(ctx, email, code, ttl); err != nil {
		c.Logger().Errorf("send otp mail: %v", err)
	}
	return c.String(http.StatusOK, "OTP sent to your email.")
}

// VerifyOtp consumes the pending code for the email and, on match, issues a
// bearer token exactly as password login does.  The code is single-use:
// consumption deletes it, and a second verification with the same code fails.
func (h *AuthHandler) VerifyOtp(c echo.Context) error {
	var req otpVerifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	otp := strings.TrimSpace(req.Otp)
	if email == "" || otp == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/otp required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err := h.Otps.Consume(ctx, email, otp)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verify otp failed"})
	}
	if !ok {
		return c.String(http.StatusUnauthorized, "Invalid or expired OTP.")
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	access, err := h.issueFor(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, authResp{Token: access.Token, User: toUserDTO(u)})
}

// RequestReset issues a reset token for the email given as a query
// parameter, superseding any pending one, and mails it as a link.
func (h *AuthHandler) RequestReset(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.QueryParam("email")))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if exists, err := h.Users.ExistsByEmail(ctx, email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if !exists {
		return c.String(http.StatusNotFound, "No user found with this email")
	}

	token := utils.NewResetToken()
	ttl := time.Duration(h.Cfg.ResetTTLMin) * time.Minute
	if err := h.Resets.Issue(ctx, email, token, ttl); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store reset token failed"})
	}
	if err := h.Mailer.SendPasswordResetEmail(ctx, email, token, ttl); err != nil {
		c.Logger().Errorf("send reset mail: %v", err)
	}
	return c.String(http.StatusOK, "Password reset link sent to your email")
}

// ResetPassword completes the reset workflow.  An unknown token is 401, a
// known-but-expired token is 410 (the record is left in place at this step;
// the store's TTL removes it later), and on success the secret is consumed
// and the new password stored.  Bearer tokens issued before the reset stay
// valid until their own expiry or logout.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/newPassword required"})
	}
	token := strings.TrimSpace(req.Token)

	ctx, cancel := reqCtx(c)
	defer cancel()

	email, expiry, err := h.Resets.Lookup(ctx, token)
	if errors.Is(err, repository.ErrResetNotFound) {
		return c.String(http.StatusUnauthorized, "Invalid reset token")
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup reset token failed"})
	}
	if time.Now().UTC().After(expiry) {
		return c.String(http.StatusGone, "Token has expired")
	}

	if err := h.Users.UpdatePassword(ctx, email, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.String(http.StatusNotFound, "No user found with this email")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	if err := h.Resets.Consume(ctx, email, token); err != nil {
		c.Logger().Errorf("consume reset token: %v", err)
	}
	return c.String(http.StatusOK, "Password successfully reset. Please log in with your new password.")
}

// currentUser loads the identity behind the request's principal.
func currentUser(c echo.Context, ctx context.Context, users *repository.UserRepo) (model.User, error) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return users.GetByUsername(ctx, p.Username)
}
