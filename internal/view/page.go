package view

import (
	"time"

	"github.com/iliyamo/kasirku/internal/access"
	"github.com/iliyamo/kasirku/internal/form"
	"github.com/iliyamo/kasirku/internal/model"
	"github.com/iliyamo/kasirku/internal/session"
)

// Page is the root value handed to every template.  Fields used by the
// shared layout live here; page specific values go in Data.
type Page struct {
	Title    string
	Path     string
	Identity *session.Identity
	Menu     []access.MenuItem
	Timers   Timers
	Flash    *session.Flash
	Notice   string
	Errors   form.Errors
	Data     any
}

// Timers feeds the session lifecycle script.  Zero values mean the script
// is not loaded (anonymous pages).
type Timers struct {
	TimeoutSeconds int
	WarningSeconds int
}

// Authenticated reports whether the layout should render the app chrome.
func (p Page) Authenticated() bool { return p.Identity != nil }

type LoginData struct {
	Username string
}

type RegisterData struct {
	Username string
}

type AdminDashboardData struct {
	Stats model.ProductStats
	Today time.Time
}

type CashierDashboardData struct {
	Today time.Time
}

type ProductListData struct {
	Products []*model.Product
}

// ProductFormData drives both the create and the edit form.  ProductID is
// zero when creating.
type ProductFormData struct {
	ProductID uint64
	Input     form.ProductInput
	Units     []model.Unit
}

// Action is the URL the form posts to.
func (d ProductFormData) Action() string {
	if d.ProductID == 0 {
		return "/products"
	}
	return "/products/" + uitoa(d.ProductID)
}

type ProfileData struct {
	User model.User
}

type PlaceholderData struct {
	Heading string
	Message string
}
