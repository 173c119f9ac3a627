// Package view renders KasirKu's server-side pages from embedded templates
// and exposes the embedded static assets.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names accepted by Renderer.Render.
const (
	PageLanding          = "landing"
	PageLogin            = "login"
	PageRegister         = "register"
	PageAdminDashboard   = "dashboard_admin"
	PageCashierDashboard = "dashboard_cashier"
	PageProducts         = "products_index"
	PageProductForm      = "product_form"
	PageProfile          = "profile"
	PageChangePassword   = "change_password"
	PagePlaceholder      = "placeholder"
	PageNotFound         = "not_found"
)

var pageNames = []string{
	PageLanding, PageLogin, PageRegister, PageAdminDashboard, PageCashierDashboard,
	PageProducts, PageProductForm, PageProfile, PageChangePassword, PagePlaceholder, PageNotFound,
}

// Renderer implements echo.Renderer.  Each page is parsed together with
// the shared layout into its own template set so block names never clash.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("").Funcs(templateFuncs()).ParseFS(templateFS,
			"templates/_base.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// Static returns the embedded asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
