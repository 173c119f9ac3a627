package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kasirku/internal/access"
	"github.com/iliyamo/kasirku/internal/middleware"
	"github.com/iliyamo/kasirku/internal/repository"
	"github.com/iliyamo/kasirku/internal/view"
)

// PageHandler serves the landing page, dashboards, profile and the
// placeholder sections.
type PageHandler struct {
	Products ProductStore
	Users    UserStore
	Pages    *Pages
	Now      func() time.Time
}

func NewPageHandler(products ProductStore, users UserStore, pages *Pages) *PageHandler {
	if products == nil || users == nil || pages == nil {
		panic("nil dependency passed to NewPageHandler")
	}
	return &PageHandler{Products: products, Users: users, Pages: pages, Now: time.Now}
}

// Landing handles GET /.  Signed-in visitors are sent to their dashboard.
func (h *PageHandler) Landing(c echo.Context) error {
	if id, ok := h.Pages.ActiveIdentity(c); ok {
		return c.Redirect(http.StatusSeeOther, access.Home(id.Role))
	}
	page := h.Pages.New(c, "", nil)
	if c.QueryParam("logged_out") == "1" {
		page.Notice = MsgLoggedOut
	}
	return c.Render(http.StatusOK, view.PageLanding, page)
}

// AdminDashboard handles GET /dashboard/admin.
func (h *PageHandler) AdminDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	stats, err := h.Products.Stats(ctx)
	if err != nil {
		return serverError(c, err, "Database error")
	}
	data := view.AdminDashboardData{Stats: stats, Today: h.Now()}
	return c.Render(http.StatusOK, view.PageAdminDashboard, h.Pages.New(c, "Dashboard", data))
}

// CashierDashboard handles GET /dashboard/cashier.
func (h *PageHandler) CashierDashboard(c echo.Context) error {
	data := view.CashierDashboardData{Today: h.Now()}
	return c.Render(http.StatusOK, view.PageCashierDashboard, h.Pages.New(c, "Dashboard", data))
}

func (h *PageHandler) placeholder(c echo.Context, heading, message string) error {
	data := view.PlaceholderData{Heading: heading, Message: message}
	return c.Render(http.StatusOK, view.PagePlaceholder, h.Pages.New(c, heading, data))
}

// Transactions handles GET /transactions.
func (h *PageHandler) Transactions(c echo.Context) error {
	return h.placeholder(c, "Transaksi", "Fitur transaksi penjualan sedang dalam pengembangan.")
}

// Reports handles GET /reports.
func (h *PageHandler) Reports(c echo.Context) error {
	return h.placeholder(c, "Laporan", "Laporan penjualan dan stok sedang dalam pengembangan.")
}

// Profile handles GET /profile.
func (h *PageHandler) Profile(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/auth/login")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	u, err := h.Users.GetByID(ctx, ident.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return h.Pages.NotFound(c, "User not found")
	}
	if err != nil {
		return serverError(c, err, "Database error")
	}
	return c.Render(http.StatusOK, view.PageProfile, h.Pages.New(c, "Profil", view.ProfileData{User: u}))
}
