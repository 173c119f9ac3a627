package router // package router defines how HTTP routes are registered for the app

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/kasirku/internal/access"     // permission table consulted by the Role Gate
	"github.com/iliyamo/kasirku/internal/handler"    // page and form handlers
	"github.com/iliyamo/kasirku/internal/metrics"    // prometheus collectors
	"github.com/iliyamo/kasirku/internal/middleware" // Auth Gate, Role Gate and rate limiting
	"github.com/iliyamo/kasirku/internal/session"    // session manager used by the gates
	"github.com/iliyamo/kasirku/internal/view"       // embedded static assets
)

// Gate carries what the Auth Gate and Role Gate need.  Every protected
// route is registered with Gate.For so no page can skip either check.
type Gate struct {
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Policy   access.Policy
}

// For returns the Auth Gate followed by the Role Gate for resource.
func (g Gate) For(resource access.Resource) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.RequireSession(g.Sessions, g.Metrics),
		middleware.RequireAccess(g.Policy, resource),
	}
}

// RegisterRoutes registers routes that need no session: health, metrics,
// static assets and the landing page.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, mx *metrics.Metrics, p *handler.PageHandler) {
	// load balancers and monitoring probe this
	e.GET("/healthz", health)
	if mx != nil {
		e.GET("/metrics", echo.WrapHandler(mx.Handler()))
	}
	e.StaticFS("/static", view.Static())
	e.GET("/", p.Landing)
}

// RegisterAuth registers login, registration, logout, session extension and
// password change.  limiter guards the credential-accepting POSTs; pass nil
// to disable throttling.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Gate, limiter echo.MiddlewareFunc) {
	var throttle []echo.MiddlewareFunc
	if limiter != nil {
		throttle = append(throttle, limiter)
	}

	grp := e.Group("/auth")
	grp.GET("/login", a.LoginForm)
	grp.POST("/login", a.Login, throttle...)
	grp.GET("/register", a.RegisterForm)
	grp.POST("/register", a.Register, throttle...)
	// logout works without a valid session so stale tabs can still sign out
	grp.POST("/logout", a.Logout)

	// called from script: failures must be JSON, not a redirect
	grp.POST("/extend-session", a.ExtendSession, middleware.RequireSessionJSON(g.Sessions, g.Metrics))

	grp.GET("/change-password", a.ChangePasswordForm, g.For(access.Profile)...)
	grp.POST("/change-password", a.ChangePassword, g.For(access.Profile)...)
}

// RegisterPages registers the role dashboards, profile and the placeholder
// sections.
func RegisterPages(e *echo.Echo, p *handler.PageHandler, g Gate) {
	e.GET("/dashboard/admin", p.AdminDashboard, g.For(access.AdminDashboard)...)
	e.GET("/dashboard/cashier", p.CashierDashboard, g.For(access.CashierDashboard)...)
	e.GET("/transactions", p.Transactions, g.For(access.Transactions)...)
	e.GET("/reports", p.Reports, g.For(access.Reports)...)
	e.GET("/profile", p.Profile, g.For(access.Profile)...)
}

// RegisterProducts registers the admin inventory pages.  The gates are
// attached at group construction so unknown /products/* paths are gated too.
func RegisterProducts(e *echo.Echo, h *handler.ProductHandler, g Gate) {
	grp := e.Group("/products", g.For(access.Products)...)
	grp.GET("", h.List)
	grp.GET("/new", h.New)
	grp.POST("", h.Create)
	grp.GET("/:id/edit", h.Edit)
	grp.POST("/:id", h.Update)
	grp.POST("/:id/delete", h.Delete)
}
