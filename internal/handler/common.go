package handler // handler defines the HTTP handlers behind every page

import (
	"context"  // context bounds store calls
	"net/http" // http provides status codes
	"strconv"  // strconv parses path ids
	"time"     // time for store timeouts

	"github.com/labstack/echo/v4" // echo request context
	"go.uber.org/zap"             // structured logging

	"github.com/iliyamo/kasirku/internal/access"
	"github.com/iliyamo/kasirku/internal/middleware"
	"github.com/iliyamo/kasirku/internal/model"
	"github.com/iliyamo/kasirku/internal/queue"
	"github.com/iliyamo/kasirku/internal/session"
	"github.com/iliyamo/kasirku/internal/view"
)

// storeTimeout bounds every database call made while serving a request.
const storeTimeout = 5 * time.Second

// UserStore is the credential store used by the auth and profile pages.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, username, passwordHash, role string) (uint64, error)
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
}

// ProductStore is the inventory store used by product pages and dashboards.
type ProductStore interface {
	ListActive(ctx context.Context) ([]*model.Product, error)
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uint64) error
	Stats(ctx context.Context) (model.ProductStats, error)
}

// InventoryPublisher receives product change events.
type InventoryPublisher interface {
	PublishInventory(ctx context.Context, ev queue.InventoryEvent) error
}

// Pages assembles the layout shared by every rendered page: the identity,
// the role's menu, the session timers and the pending flash message.
type Pages struct {
	Policy   access.Policy
	Sessions *session.Manager
}

func NewPages(policy access.Policy, sessions *session.Manager) *Pages {
	if sessions == nil {
		panic("nil session manager passed to NewPages")
	}
	return &Pages{Policy: policy, Sessions: sessions}
}

// New builds a page for the current request.  Reading the flash consumes it.
func (p *Pages) New(c echo.Context, title string, data any) view.Page {
	page := view.Page{Title: title, Path: c.Request().URL.Path, Data: data}
	if id, ok := middleware.CurrentIdentity(c); ok {
		page.Identity = &id
		page.Menu = p.Policy.Menu(id.Role)
		page.Timers = view.Timers{
			TimeoutSeconds: int(p.Sessions.Timeout().Seconds()),
			WarningSeconds: int(p.Sessions.Warning().Seconds()),
		}
	}
	if d, ok := middleware.CurrentSession(c); ok {
		f, err := p.Sessions.PopFlash(c.Request().Context(), d)
		if err != nil {
			zap.L().Warn("pop flash failed", zap.Error(err))
		}
		page.Flash = f
	}
	return page
}

// Flash queues a message for the next page of the current session.
func (p *Pages) Flash(c echo.Context, kind, message string) {
	d, ok := middleware.CurrentSession(c)
	if !ok {
		return
	}
	if err := p.Sessions.SetFlash(c.Request().Context(), d, kind, message); err != nil {
		zap.L().Warn("set flash failed", zap.Error(err))
	}
}

// ActiveIdentity reports the visitor's identity on routes outside the Auth
// Gate.  It neither refreshes nor destroys the session.
func (p *Pages) ActiveIdentity(c echo.Context) (session.Identity, bool) {
	d, err := p.Sessions.Load(c.Request().Context(), c.Request())
	if err != nil || p.Sessions.Expired(d) {
		return session.Identity{}, false
	}
	return p.Sessions.Identity(d), true
}

// NotFound renders the 404 page with an optional message.
func (p *Pages) NotFound(c echo.Context, message string) error {
	var data any
	if message != "" {
		data = message
	}
	return c.Render(http.StatusNotFound, view.PageNotFound, p.New(c, "Tidak ditemukan", data))
}

// serverError logs err and ends the request with a short plain message.
func serverError(c echo.Context, err error, message string) error {
	zap.L().Error(message, zap.Error(err), zap.String("path", c.Request().URL.Path))
	return c.String(http.StatusInternalServerError, message)
}

// parseID reads the numeric :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
