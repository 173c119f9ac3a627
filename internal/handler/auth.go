package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // sentinel comparisons
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"             // structured logging

	"github.com/iliyamo/kasirku/internal/access"
	"github.com/iliyamo/kasirku/internal/form"
	"github.com/iliyamo/kasirku/internal/metrics"
	"github.com/iliyamo/kasirku/internal/middleware"
	"github.com/iliyamo/kasirku/internal/model"
	"github.com/iliyamo/kasirku/internal/repository"
	"github.com/iliyamo/kasirku/internal/session"
	"github.com/iliyamo/kasirku/internal/utils"
	"github.com/iliyamo/kasirku/internal/view"
)

// Messages shown by the auth pages.
const (
	MsgInvalidCredentials = "Invalid username or password"
	MsgUsernameTaken      = "Username is already taken. Please choose another one."
	MsgSessionExpired     = "Your session has expired due to inactivity. Please log in again."
	MsgRegistered         = "Registration successful. Please log in."
	MsgLoggedOut          = "You have been logged out."
	MsgWrongPassword      = "Current password is incorrect"
	MsgPasswordChanged    = "Password changed successfully"
)

// AuthHandler bundles dependencies for login, registration, logout,
// session extension and password change.
type AuthHandler struct {
	Users      UserStore
	Sessions   *session.Manager
	Pages      *Pages
	Metrics    *metrics.Metrics
	BcryptCost int
}

func NewAuthHandler(users UserStore, pages *Pages, mx *metrics.Metrics, bcryptCost int) *AuthHandler {
	if users == nil || pages == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Users: users, Sessions: pages.Sessions, Pages: pages, Metrics: mx, BcryptCost: bcryptCost}
}

func (h *AuthHandler) policy() access.Policy { return h.Pages.Policy }

// loginNotice maps the query flags set by other redirects to a notice.
func loginNotice(c echo.Context) string {
	switch {
	case c.QueryParam("timeout") == "1":
		return MsgSessionExpired
	case c.QueryParam("registered") == "1":
		return MsgRegistered
	case c.QueryParam("logged_out") == "1":
		return MsgLoggedOut
	}
	return ""
}

// LoginForm handles GET /auth/login.  Visitors who are already signed in go
// straight to their dashboard.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	if id, ok := h.Pages.ActiveIdentity(c); ok {
		return c.Redirect(http.StatusSeeOther, access.Home(id.Role))
	}
	page := h.Pages.New(c, "Masuk", view.LoginData{})
	page.Notice = loginNotice(c)
	return c.Render(http.StatusOK, view.PageLogin, page)
}

// Login handles POST /auth/login.  Every failure, whether the user is
// unknown or the password is wrong, gets the same message.
func (h *AuthHandler) Login(c echo.Context) error {
	var in form.LoginInput
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid form")
	}
	in.Normalize()

	renderFailure := func(status int, errs form.Errors) error {
		page := h.Pages.New(c, "Masuk", view.LoginData{Username: in.Username})
		page.Errors = errs
		return c.Render(status, view.PageLogin, page)
	}
	if errs := in.Validate(); !errs.Empty() {
		return renderFailure(http.StatusUnprocessableEntity, errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, in.Username)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		h.Metrics.LoginAttempt("error")
		return serverError(c, err, "Database error")
	}
	if err != nil || !utils.VerifyPassword(u.PasswordHash, in.Password) {
		h.Metrics.LoginAttempt("invalid")
		zap.L().Info("login rejected", zap.String("username", in.Username), zap.String("ip", c.RealIP()))
		var errs form.Errors
		errs.Add("", MsgInvalidCredentials)
		return renderFailure(http.StatusUnauthorized, errs)
	}

	if _, err := h.Sessions.Start(ctx, c.Response(), c.Request(), u); err != nil {
		h.Metrics.LoginAttempt("error")
		return serverError(c, err, "Could not start session")
	}
	h.Metrics.LoginAttempt("success")
	zap.L().Info("user logged in", zap.Uint64("user_id", u.ID), zap.String("role", u.Role))

	target := h.policy().SafeReturnPath(h.Sessions.TakeRememberedPath(c.Response(), c.Request()), u.Role)
	return c.Redirect(http.StatusSeeOther, target)
}

// RegisterForm handles GET /auth/register.
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	if id, ok := h.Pages.ActiveIdentity(c); ok {
		return c.Redirect(http.StatusSeeOther, access.Home(id.Role))
	}
	return c.Render(http.StatusOK, view.PageRegister, h.Pages.New(c, "Daftar", view.RegisterData{}))
}

// Register handles POST /auth/register.  New accounts are always cashiers.
// Nothing is inserted unless every rule passes and the username is free.
func (h *AuthHandler) Register(c echo.Context) error {
	var in form.RegisterInput
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid form")
	}
	in.Normalize()

	reject := func(errs form.Errors) error {
		page := h.Pages.New(c, "Daftar", view.RegisterData{Username: in.Username})
		page.Errors = errs
		return c.Render(http.StatusUnprocessableEntity, view.PageRegister, page)
	}

	errs := in.Validate()
	if !errs.Empty() {
		return reject(errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	taken, err := h.Users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return serverError(c, err, "Database error")
	}
	if taken {
		errs.Add("username", MsgUsernameTaken)
		return reject(errs)
	}

	hash, err := utils.HashPassword(in.Password, h.BcryptCost)
	if err != nil {
		return serverError(c, err, "Could not hash password")
	}
	id, err := h.Users.Create(ctx, in.Username, hash, model.RoleCashier)
	if errors.Is(err, repository.ErrUsernameTaken) {
		// lost a race with a concurrent registration; the unique index caught it
		errs.Add("username", MsgUsernameTaken)
		return reject(errs)
	}
	if err != nil {
		return serverError(c, err, "Database error")
	}
	zap.L().Info("user registered", zap.Uint64("user_id", id), zap.String("username", in.Username))
	return c.Redirect(http.StatusSeeOther, "/auth/login?registered=1")
}

// Logout handles POST /auth/logout.  It succeeds even without a session so
// a stale tab can always sign out.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	var id string
	if d, err := h.Sessions.Load(ctx, c.Request()); err == nil {
		id = d.ID
		zap.L().Info("user logged out", zap.Uint64("user_id", d.UserID))
	}
	if err := h.Sessions.Destroy(ctx, c.Response(), id); err != nil {
		zap.L().Warn("logout: destroy session failed", zap.Error(err))
	}
	return c.Redirect(http.StatusSeeOther, "/?logged_out=1")
}

type extendResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Timeout int    `json:"timeout"`
}

// ExtendSession handles POST /auth/extend-session behind the JSON Auth Gate,
// which has already verified the session and refreshed its activity.
func (h *AuthHandler) ExtendSession(c echo.Context) error {
	timeout := int(h.Sessions.Timeout().Seconds())
	d, ok := middleware.CurrentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, extendResp{Success: false, Message: "Not authenticated", Timeout: timeout})
	}
	if err := h.Sessions.Touch(c.Request().Context(), d); err != nil {
		zap.L().Error("extend session failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, extendResp{Success: false, Message: "Could not extend session", Timeout: timeout})
	}
	return c.JSON(http.StatusOK, extendResp{Success: true, Message: "Session extended", Timeout: timeout})
}

// ChangePasswordForm handles GET /auth/change-password.
func (h *AuthHandler) ChangePasswordForm(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageChangePassword, h.Pages.New(c, "Ubah password", nil))
}

// ChangePassword handles POST /auth/change-password.  Rule violations and a
// wrong current password are reported together.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/auth/login")
	}
	var in form.ChangePasswordInput
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid form")
	}
	errs := in.Validate()

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, ident.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return h.Pages.NotFound(c, "User not found")
	}
	if err != nil {
		return serverError(c, err, "Database error")
	}
	if in.CurrentPassword != "" && !utils.VerifyPassword(u.PasswordHash, in.CurrentPassword) {
		errs.Add("current_password", MsgWrongPassword)
	}
	if !errs.Empty() {
		page := h.Pages.New(c, "Ubah password", nil)
		page.Errors = errs
		return c.Render(http.StatusUnprocessableEntity, view.PageChangePassword, page)
	}

	hash, err := utils.HashPassword(in.NewPassword, h.BcryptCost)
	if err != nil {
		return serverError(c, err, "Could not hash password")
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return serverError(c, err, "Failed to update password. Please try again.")
	}
	zap.L().Info("password changed", zap.Uint64("user_id", u.ID))
	h.Pages.Flash(c, "success", MsgPasswordChanged)
	return c.Redirect(http.StatusSeeOther, "/profile")
}
