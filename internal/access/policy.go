// Package access holds the declarative permission table that maps each
// protected area of the application to the roles allowed to use it.
package access

import (
	"strings"

	"github.com/iliyamo/kasirku/internal/model"
)

// Resource names a protected area.
type Resource string

const (
	AdminDashboard   Resource = "dashboard.admin"
	CashierDashboard Resource = "dashboard.cashier"
	Products         Resource = "products"
	Transactions     Resource = "transactions"
	Reports          Resource = "reports"
	Profile          Resource = "profile"
)

// Rule ties a resource to its URL prefix, menu label and allowed roles.
type Rule struct {
	Resource Resource
	Prefix   string
	Label    string
	Roles    []string
	Menu     bool
}

// MenuItem is one navigation entry visible to a role.
type MenuItem struct {
	Label string
	Path  string
}

// Policy is an ordered permission table.
type Policy struct {
	rules []Rule
}

// DefaultPolicy is the KasirKu permission table.
func DefaultPolicy() Policy {
	admin := []string{model.RoleAdmin}
	cashier := []string{model.RoleCashier}
	everyone := []string{model.RoleAdmin, model.RoleCashier}
	return NewPolicy(
		Rule{Resource: AdminDashboard, Prefix: "/dashboard/admin", Label: "Dashboard", Roles: admin, Menu: true},
		Rule{Resource: CashierDashboard, Prefix: "/dashboard/cashier", Label: "Dashboard", Roles: cashier, Menu: true},
		Rule{Resource: Transactions, Prefix: "/transactions", Label: "Transaksi", Roles: everyone, Menu: true},
		Rule{Resource: Products, Prefix: "/products", Label: "Produk", Roles: admin, Menu: true},
		Rule{Resource: Reports, Prefix: "/reports", Label: "Laporan", Roles: admin, Menu: true},
		Rule{Resource: Profile, Prefix: "/profile", Label: "Profil", Roles: everyone, Menu: true},
		Rule{Resource: Profile, Prefix: "/auth/change-password", Roles: everyone},
	)
}

func NewPolicy(rules ...Rule) Policy {
	return Policy{rules: rules}
}

// Allows reports whether role may access r.  An empty role never matches.
func (p Policy) Allows(role string, r Resource) bool {
	if role == "" {
		return false
	}
	for _, rule := range p.rules {
		if rule.Resource != r {
			continue
		}
		for _, allowed := range rule.Roles {
			if allowed == role {
				return true
			}
		}
	}
	return false
}

// ResourceFor maps a request path to the resource that guards it.
func (p Policy) ResourceFor(path string) (Resource, bool) {
	for _, rule := range p.rules {
		if path == rule.Prefix || strings.HasPrefix(path, rule.Prefix+"/") {
			return rule.Resource, true
		}
	}
	return "", false
}

// Menu lists the navigation entries visible to role, in table order.
func (p Policy) Menu(role string) []MenuItem {
	var out []MenuItem
	for _, rule := range p.rules {
		if rule.Menu && p.Allows(role, rule.Resource) {
			out = append(out, MenuItem{Label: rule.Label, Path: rule.Prefix})
		}
	}
	return out
}

// Home returns the landing page after login for a role.
func Home(role string) string {
	if role == model.RoleAdmin {
		return "/dashboard/admin"
	}
	return "/dashboard/cashier"
}

// SafeReturnPath returns path when it is a local page the role may open,
// otherwise the role's home.  Only absolute local paths are accepted.
func (p Policy) SafeReturnPath(path, role string) string {
	if path == "" || !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.Contains(path, "\\") {
		return Home(role)
	}
	bare := path
	if i := strings.IndexAny(bare, "?#"); i >= 0 {
		bare = bare[:i]
	}
	r, ok := p.ResourceFor(bare)
	if !ok || !p.Allows(role, r) {
		return Home(role)
	}
	return path
}
