package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/kasirku/internal/access"
	"github.com/iliyamo/kasirku/internal/handler"
	"github.com/iliyamo/kasirku/internal/middleware"
	"github.com/iliyamo/kasirku/internal/model"
	"github.com/iliyamo/kasirku/internal/router"
	"github.com/iliyamo/kasirku/internal/session"
	"github.com/iliyamo/kasirku/internal/utils"
	"github.com/iliyamo/kasirku/internal/view"
)

const cookieName = "KASIRKU_SESSID"

type app struct {
	e        *echo.Echo
	now      time.Time
	store    *session.MemoryStore
	users    *fakeUsers
	products *fakeProducts
	events   *fakeEvents
}

func newApp(t *testing.T) *app {
	t.Helper()
	a := &app{
		now:      time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
		store:    session.NewMemoryStore(),
		users:    newFakeUsers(),
		products: newFakeProducts(),
		events:   &fakeEvents{},
	}
	mgr := session.NewManager(a.store, session.Options{CookieName: cookieName, Timeout: 7200 * time.Second, Warning: 300 * time.Second})
	mgr.Now = func() time.Time { return a.now }

	policy := access.DefaultPolicy()
	pages := handler.NewPages(policy, mgr)
	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	e := echo.New()
	e.Renderer = renderer
	e.HTTPErrorHandler = handler.ErrorHandler(e, pages)

	gate := router.Gate{Sessions: mgr, Policy: policy}
	auth := handler.NewAuthHandler(a.users, pages, nil, bcrypt.MinCost)
	ph := handler.NewPageHandler(a.products, a.users, pages)
	ph.Now = func() time.Time { return a.now }
	prod := handler.NewProductHandler(a.products, a.events, pages, nil)
	prod.Now = func() time.Time { return a.now }

	router.RegisterRoutes(e, handler.Health(nil), nil, ph)
	router.RegisterAuth(e, auth, gate, nil)
	router.RegisterPages(e, ph, gate)
	router.RegisterProducts(e, prod, gate)
	a.e = e
	return a
}

// signIn stores a session for a fresh user of role idle for the given time
// and returns its id.
func (a *app) signIn(t *testing.T, role string, idle time.Duration) string {
	t.Helper()
	u := a.users.add(model.User{Username: role + "1", Role: role})
	id := "sess-" + role
	d := &session.Data{ID: id, UserID: u.ID, Username: u.Username, Role: role, CreatedAt: a.now, LastActivity: a.now.Add(-idle)}
	if err := a.store.Save(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	return id
}

func (a *app) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func sid(id string) *http.Cookie { return &http.Cookie{Name: cookieName, Value: id} }

func cookieFrom(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != location {
		t.Fatalf("got %d to %q, want 303 to %q", rec.Code, rec.Header().Get("Location"), location)
	}
}

func TestHealthz(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRegisterRejectsShortCredentialsWithoutInsert(t *testing.T) {
	a := newApp(t)
	cases := []url.Values{
		{"username": {"ab"}, "password": {"secret1"}, "confirm_password": {"secret1"}},
		{"username": {"budi"}, "password": {"12345"}, "confirm_password": {"12345"}},
		{"username": {"budi"}, "password": {"secret1"}, "confirm_password": {"secret2"}},
	}
	for _, form := range cases {
		rec := a.do(http.MethodPost, "/auth/register", form)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%v: status %d", form, rec.Code)
		}
	}
	if a.users.creates != 0 {
		t.Fatalf("store inserts = %d, want 0", a.users.creates)
	}
}

func TestRegisterShowsAllErrorsAndKeepsUsername(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodPost, "/auth/register", url.Values{"username": {"ab"}, "password": {"123"}, "confirm_password": {"999"}})
	body := rec.Body.String()
	for _, want := range []string{"at least 3 characters", "at least 6 characters", "Passwords do not match", `value="ab"`} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	a := newApp(t)
	form := url.Values{"username": {"budi"}, "password": {"secret1"}, "confirm_password": {"secret1"}}

	expectRedirect(t, a.do(http.MethodPost, "/auth/register", form), "/auth/login?registered=1")
	u, err := a.users.GetByUsername(context.Background(), "budi")
	if err != nil || u.Role != model.RoleCashier || !utils.VerifyPassword(u.PasswordHash, "secret1") {
		t.Fatalf("registered user = %+v, %v", u, err)
	}

	rec := a.do(http.MethodPost, "/auth/register", form)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "already taken") {
		t.Fatalf("second registration: %d", rec.Code)
	}
	if a.users.creates != 1 {
		t.Fatalf("store inserts = %d, want 1", a.users.creates)
	}
}

func TestRegisterRaceCaughtByUniqueIndex(t *testing.T) {
	a := newApp(t)
	a.users.add(model.User{Username: "budi", Role: model.RoleCashier})
	a.users.racing = true

	rec := a.do(http.MethodPost, "/auth/register", url.Values{"username": {"budi"}, "password": {"secret1"}, "confirm_password": {"secret1"}})
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "already taken") {
		t.Fatalf("got %d", rec.Code)
	}
}

func seedUser(t *testing.T, a *app, username, password, role string) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return a.users.add(model.User{Username: username, PasswordHash: hash, Role: role})
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	a := newApp(t)
	seedUser(t, a, "admin", "admin123", model.RoleAdmin)

	wrong := a.do(http.MethodPost, "/auth/login", url.Values{"username": {"admin"}, "password": {"nope"}})
	unknown := a.do(http.MethodPost, "/auth/login", url.Values{"username": {"ghost"}, "password": {"nope"}})

	for _, rec := range []*httptest.ResponseRecorder{wrong, unknown} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), handler.MsgInvalidCredentials) {
			t.Fatal("generic message missing")
		}
		if cookieFrom(rec, cookieName) != nil {
			t.Fatal("failed login must not issue a session")
		}
	}
	if a.store.Len() != 0 {
		t.Fatal("failed login created a session")
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodPost, "/auth/login", url.Values{"username": {"  "}, "password": {""}})
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Please enter both username and password") {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestLoginRedirectsByRole(t *testing.T) {
	a := newApp(t)
	seedUser(t, a, "admin", "admin123", model.RoleAdmin)
	seedUser(t, a, "kasir", "kasir123", model.RoleCashier)

	rec := a.do(http.MethodPost, "/auth/login", url.Values{"username": {" admin "}, "password": {"admin123"}})
	expectRedirect(t, rec, "/dashboard/admin")
	c := cookieFrom(rec, cookieName)
	if c == nil || !c.HttpOnly || c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("session cookie = %+v", c)
	}
	d, err := a.store.Get(context.Background(), c.Value)
	if err != nil || d.Role != model.RoleAdmin || !d.LastActivity.Equal(a.now) {
		t.Fatalf("session = %+v, %v", d, err)
	}

	expectRedirect(t, a.do(http.MethodPost, "/auth/login", url.Values{"username": {"kasir"}, "password": {"kasir123"}}), "/dashboard/cashier")
}

func TestLoginReturnsToRememberedPage(t *testing.T) {
	a := newApp(t)
	seedUser(t, a, "admin", "admin123", model.RoleAdmin)
	seedUser(t, a, "kasir", "kasir123", model.RoleCashier)

	gate := a.do(http.MethodGet, "/products", nil)
	expectRedirect(t, gate, "/auth/login")
	remembered := cookieFrom(gate, "redirect_after_login")
	if remembered == nil || remembered.Value != "/products" {
		t.Fatalf("remembered = %+v", remembered)
	}

	admin := a.do(http.MethodPost, "/auth/login", url.Values{"username": {"admin"}, "password": {"admin123"}}, remembered)
	expectRedirect(t, admin, "/products")

	// a cashier may not open /products, so the remembered page is ignored
	cashier := a.do(http.MethodPost, "/auth/login", url.Values{"username": {"kasir"}, "password": {"kasir123"}}, remembered)
	expectRedirect(t, cashier, "/dashboard/cashier")
}

func TestLoginRegeneratesPresentedSessionID(t *testing.T) {
	a := newApp(t)
	seedUser(t, a, "admin", "admin123", model.RoleAdmin)
	planted := &session.Data{ID: "planted", LastActivity: a.now}
	_ = a.store.Save(context.Background(), planted)

	rec := a.do(http.MethodPost, "/auth/login", url.Values{"username": {"admin"}, "password": {"admin123"}}, sid("planted"))
	if c := cookieFrom(rec, cookieName); c == nil || c.Value == "planted" {
		t.Fatalf("session id not regenerated: %+v", c)
	}
	if _, err := a.store.Get(context.Background(), "planted"); !errors.Is(err, session.ErrNotFound) {
		t.Fatal("planted session survived login")
	}
}

func TestIdleSessionPastTimeoutIsRejected(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleAdmin, 7201*time.Second)

	rec := a.do(http.MethodGet, "/dashboard/admin", nil, sid(id))
	expectRedirect(t, rec, "/auth/login?timeout=1")
	if a.store.Len() != 0 {
		t.Fatal("expired session still stored")
	}
	if c := cookieFrom(rec, cookieName); c == nil || c.MaxAge >= 0 {
		t.Fatalf("session cookie not cleared: %+v", c)
	}

	login := a.do(http.MethodGet, "/auth/login?timeout=1", nil)
	if !strings.Contains(login.Body.String(), "expired due to inactivity") {
		t.Fatal("timeout notice missing")
	}
}

func TestIdleSessionWithinTimeoutIsRefreshed(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleAdmin, 7199*time.Second)

	rec := a.do(http.MethodGet, "/dashboard/admin", nil, sid(id))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	d, err := a.store.Get(context.Background(), id)
	if err != nil || !d.LastActivity.Equal(a.now) {
		t.Fatalf("last activity not refreshed: %+v, %v", d, err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `data-session-timeout="7200"`) || !strings.Contains(body, `data-session-warning="300"`) {
		t.Fatal("session timers missing from layout")
	}
}

func TestCashierIsDeniedAdminPages(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleCashier, time.Minute)

	for _, target := range []string{"/products", "/products/new", "/reports", "/dashboard/admin"} {
		rec := a.do(http.MethodGet, target, nil, sid(id))
		if rec.Code != http.StatusForbidden || rec.Body.String() != middleware.DeniedMessage {
			t.Fatalf("%s: got %d %q", target, rec.Code, rec.Body.String())
		}
	}

	rec := a.do(http.MethodPost, "/products", url.Values{"name": {"Gula"}, "price": {"1"}, "stock": {"1"}}, sid(id))
	if rec.Code != http.StatusForbidden || a.products.count() != 0 {
		t.Fatalf("cashier create: %d, products=%d", rec.Code, a.products.count())
	}

	if rec := a.do(http.MethodGet, "/transactions", nil, sid(id)); rec.Code != http.StatusOK {
		t.Fatalf("transactions: %d", rec.Code)
	}
}

func TestAdminIsDeniedCashierDashboard(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleAdmin, time.Minute)
	rec := a.do(http.MethodGet, "/dashboard/cashier", nil, sid(id))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateProductNegativePrice(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleAdmin, time.Minute)

	rec := a.do(http.MethodPost, "/products", url.Values{
		"name": {"Kopi Kapal Api"}, "price": {"-1"}, "stock": {"12"}, "category": {"Minuman"}, "unit": {"pack"},
	}, sid(id))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Price must not be negative", `value="Kopi Kapal Api"`, `value="12"`, `value="Minuman"`, `value="pack" selected`} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q", want)
		}
	}
	if a.products.count() != 0 || len(a.events.actions()) != 0 {
		t.Fatal("invalid product was stored or published")
	}
}

func TestProductLifecycle(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleAdmin, time.Minute)

	expectRedirect(t, a.do(http.MethodPost, "/products", url.Values{
		"name": {" Teh Botol "}, "price": {"4500"}, "stock": {"24"}, "category": {"Minuman"},
	}, sid(id)), "/products")

	list := a.do(http.MethodGet, "/products", nil, sid(id))
	if !strings.Contains(list.Body.String(), "Product added successfully") || !strings.Contains(list.Body.String(), "Teh Botol") {
		t.Fatal("list missing flash or product")
	}
	if again := a.do(http.MethodGet, "/products", nil, sid(id)); strings.Contains(again.Body.String(), "Product added successfully") {
		t.Fatal("flash shown twice")
	}

	p, err := a.products.GetByID(context.Background(), 1)
	if err != nil || p.Name != "Teh Botol" || p.Unit != model.UnitPcs {
		t.Fatalf("stored product = %+v, %v", p, err)
	}

	edit := a.do(http.MethodGet, "/products/1/edit", nil, sid(id))
	if edit.Code != http.StatusOK || !strings.Contains(edit.Body.String(), `action="/products/1"`) {
		t.Fatalf("edit page: %d", edit.Code)
	}

	expectRedirect(t, a.do(http.MethodPost, "/products/1", url.Values{
		"name": {"Teh Botol Sosro"}, "price": {"5000"}, "stock": {"20"}, "unit": {"box"},
	}, sid(id)), "/products")
	p, _ = a.products.GetByID(context.Background(), 1)
	if p.Name != "Teh Botol Sosro" || p.Price != 5000 || p.Unit != model.UnitBox {
		t.Fatalf("updated product = %+v", p)
	}

	expectRedirect(t, a.do(http.MethodPost, "/products/1/delete", nil, sid(id)), "/products")
	if a.products.count() != 0 {
		t.Fatal("product not deleted")
	}

	got := a.events.actions()
	want := []string{"created", "updated", "deleted"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if ev := a.events.events[0]; ev.Actor != "admin1" || ev.OccurredAt != "2026-05-04T09:00:00Z" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestProductPublishFailureDoesNotFailRequest(t *testing.T) {
	a := newApp(t)
	a.events.err = errors.New("broker down")
	id := a.signIn(t, model.RoleAdmin, time.Minute)
	core, logs := observer.New(zap.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	rec := a.do(http.MethodPost, "/products", url.Values{"name": {"Roti"}, "price": {"8000"}, "stock": {"5"}}, sid(id))
	expectRedirect(t, rec, "/products")
	if a.products.count() != 1 {
		t.Fatal("product not stored")
	}
	if n := logs.FilterMessage("inventory event not published").Len(); n != 1 || logs.Len() != 1 {
		t.Fatalf("warnings = %d (%d matching), want exactly one", logs.Len(), n)
	}
}

func TestMissingProduct(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleAdmin, time.Minute)

	if rec := a.do(http.MethodGet, "/products/99/edit", nil, sid(id)); rec.Code != http.StatusNotFound {
		t.Fatalf("edit missing: %d", rec.Code)
	}
	expectRedirect(t, a.do(http.MethodPost, "/products/99/delete", nil, sid(id)), "/products")
	list := a.do(http.MethodGet, "/products", nil, sid(id))
	if !strings.Contains(list.Body.String(), handler.MsgProductNotFound) {
		t.Fatal("not-found flash missing")
	}
}

type extendBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Timeout int    `json:"timeout"`
}

func TestExtendSessionResetsActivity(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleCashier, 7000*time.Second)

	rec := a.do(http.MethodPost, "/auth/extend-session", nil, sid(id))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body extendBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.Message != "Session extended" || body.Timeout != 7200 {
		t.Fatalf("body = %+v", body)
	}
	d, _ := a.store.Get(context.Background(), id)
	if !d.LastActivity.Equal(a.now) {
		t.Fatalf("last activity = %v, want %v", d.LastActivity, a.now)
	}

	// 7199s after the extend; without it the session would be idle 14199s.
	a.now = a.now.Add(7199 * time.Second)
	if rec := a.do(http.MethodGet, "/dashboard/cashier", nil, sid(id)); rec.Code != http.StatusOK {
		t.Fatalf("dashboard after extend = %d, want 200", rec.Code)
	}
}

func TestExtendExpiredSessionAnswersJSON(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleCashier, 7201*time.Second)

	rec := a.do(http.MethodPost, "/auth/extend-session", nil, sid(id))
	var body extendBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("not JSON: %q", rec.Body.String())
	}
	if rec.Code != http.StatusUnauthorized || body.Success {
		t.Fatalf("got %d %+v", rec.Code, body)
	}
}

func TestLogout(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleAdmin, time.Minute)

	rec := a.do(http.MethodPost, "/auth/logout", nil, sid(id))
	expectRedirect(t, rec, "/?logged_out=1")
	if a.store.Len() != 0 {
		t.Fatal("session survived logout")
	}
	landing := a.do(http.MethodGet, "/?logged_out=1", nil)
	if landing.Code != http.StatusOK || !strings.Contains(landing.Body.String(), handler.MsgLoggedOut) {
		t.Fatalf("landing: %d", landing.Code)
	}
}

func TestLandingRedirectsSignedInUser(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleCashier, time.Minute)
	expectRedirect(t, a.do(http.MethodGet, "/", nil, sid(id)), "/dashboard/cashier")
	expectRedirect(t, a.do(http.MethodGet, "/auth/login", nil, sid(id)), "/dashboard/cashier")
}

func TestChangePassword(t *testing.T) {
	a := newApp(t)
	u := seedUser(t, a, "kasir", "kasir123", model.RoleCashier)
	_ = a.store.Save(context.Background(), &session.Data{ID: "s1", UserID: u.ID, Username: u.Username, Role: u.Role, LastActivity: a.now})

	bad := a.do(http.MethodPost, "/auth/change-password", url.Values{
		"current_password": {"wrong"}, "new_password": {"abc"}, "confirm_password": {"abd"},
	}, sid("s1"))
	if bad.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", bad.Code)
	}
	for _, want := range []string{handler.MsgWrongPassword, "at least 6 characters", "do not match"} {
		if !strings.Contains(bad.Body.String(), want) {
			t.Errorf("missing %q", want)
		}
	}

	ok := a.do(http.MethodPost, "/auth/change-password", url.Values{
		"current_password": {"kasir123"}, "new_password": {"baru1234"}, "confirm_password": {"baru1234"},
	}, sid("s1"))
	expectRedirect(t, ok, "/profile")
	stored, _ := a.users.GetByID(context.Background(), u.ID)
	if !utils.VerifyPassword(stored.PasswordHash, "baru1234") {
		t.Fatal("password not updated")
	}
	profile := a.do(http.MethodGet, "/profile", nil, sid("s1"))
	if !strings.Contains(profile.Body.String(), handler.MsgPasswordChanged) {
		t.Fatal("success flash missing on profile")
	}
}

func TestAdminDashboardShowsStats(t *testing.T) {
	a := newApp(t)
	id := a.signIn(t, model.RoleAdmin, time.Minute)
	_ = a.products.Create(context.Background(), &model.Product{Name: "Beras", Price: 12000, Stock: 10, MinStock: 5, Unit: model.UnitKg})

	rec := a.do(http.MethodGet, "/dashboard/admin", nil, sid(id))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Rp 120.000") {
		t.Fatalf("dashboard: %d", rec.Code)
	}
}
