package model

import "time"

// Unit is the selling unit of a product.
type Unit string

const (
	UnitPcs   Unit = "pcs"
	UnitBox   Unit = "box"
	UnitKg    Unit = "kg"
	UnitLiter Unit = "liter"
	UnitPack  Unit = "pack"
)

// DefaultUnit is used when a form omits the unit or sends an unknown one.
const DefaultUnit = UnitPcs

// Units lists the selectable units in display order.
var Units = []Unit{UnitPcs, UnitBox, UnitKg, UnitLiter, UnitPack}

// Label returns the human-friendly name shown in the unit selector.
func (u Unit) Label() string {
	switch u {
	case UnitPcs:
		return "Pcs (Pieces)"
	case UnitBox:
		return "Box (Dus)"
	case UnitKg:
		return "Kg (Kilogram)"
	case UnitLiter:
		return "Liter"
	case UnitPack:
		return "Pack (Kemasan)"
	}
	return string(u)
}

// ParseUnit returns the matching Unit or DefaultUnit when s is not one of Units.
func ParseUnit(s string) Unit {
	for _, u := range Units {
		if string(u) == s {
			return u
		}
	}
	return DefaultUnit
}

// Product represents a row in the `products` table.  Cost, SKU and
// MinStock exist in the schema but are not editable from the product
// form yet; they keep their column defaults on insert.
type Product struct {
	ID        uint64    // products.id
	Name      string    // products.name
	Price     float64   // products.price
	Stock     int       // products.stock
	Category  string    // products.category (nullable, empty when NULL)
	Unit      Unit      // products.unit
	Cost      float64   // products.cost
	SKU       string    // products.sku (nullable)
	MinStock  int       // products.min_stock
	IsActive  bool      // products.is_active
	CreatedAt time.Time // products.created_at
}

// LowStock reports whether stock has fallen to the reorder threshold.
func (p Product) LowStock() bool { return p.Stock <= p.MinStock }

// ProductStats summarises the active inventory for the admin dashboard.
type ProductStats struct {
	ActiveProducts int
	LowStock       int
	StockValue     float64
}
