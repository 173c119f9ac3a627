package form

import (
	"math"
	"strconv"
	"strings"

	"github.com/iliyamo/kasirku/internal/model"
)

// ProductInput is the raw product form as submitted.  It is also what the
// form template re-renders after a failed save.
type ProductInput struct {
	Name     string `form:"name"`
	Price    string `form:"price"`
	Stock    string `form:"stock"`
	Category string `form:"category"`
	Unit     string `form:"unit"`
}

// InputFromProduct fills the form for editing an existing product.
func InputFromProduct(p *model.Product) ProductInput {
	return ProductInput{
		Name:     p.Name,
		Price:    strconv.FormatFloat(p.Price, 'f', -1, 64),
		Stock:    strconv.Itoa(p.Stock),
		Category: p.Category,
		Unit:     string(p.Unit),
	}
}

type productFields struct {
	Name     string  `form:"name" validate:"required,max=200"`
	Price    float64 `form:"price" validate:"gte=0,lte=9999999999.99"`
	Stock    int     `form:"stock" validate:"gte=0,lte=2147483647"`
	Category string  `form:"category" validate:"max=100"`
	Unit     string  `form:"unit" validate:"oneof=pcs box kg liter pack"`
}

var productMessages = map[string]string{
	"name.required": "Product name is required",
	"name.max":      "Product name must be at most 200 characters",
	"price.gte":     "Price must not be negative",
	"price.lte":     "Price must be at most 9,999,999,999.99",
	"stock.gte":     "Stock must not be negative",
	"stock.lte":     "Stock must be at most 2,147,483,647",
	"category.max":  "Category must be at most 100 characters",
	"unit.oneof":    "Unit must be one of pcs, box, kg, liter or pack",
}

// ParseProduct trims and converts the input, then validates it.  All
// problems are returned together; the product is only meaningful when the
// returned Errors is empty.  Blank price or stock count as zero and a blank
// unit falls back to model.DefaultUnit.
func ParseProduct(in ProductInput) (model.Product, Errors) {
	var errs Errors
	f := productFields{
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
		Unit:     strings.TrimSpace(in.Unit),
	}
	if f.Unit == "" {
		f.Unit = string(model.DefaultUnit)
	}
	if s := strings.TrimSpace(in.Price); s != "" {
		// ParseFloat accepts "Inf" and "NaN"; neither fits DECIMAL(12,2).
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			errs.Add("price", "Price must be a number")
		}
		f.Price = v
	}
	if s := strings.TrimSpace(in.Stock); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			errs.Add("stock", "Stock must be a whole number")
		}
		f.Stock = v
	}
	check(f, productMessages, &errs)
	if !errs.Empty() {
		return model.Product{}, errs
	}
	return model.Product{
		Name:     f.Name,
		Price:    f.Price,
		Stock:    f.Stock,
		Category: f.Category,
		Unit:     model.ParseUnit(f.Unit),
		IsActive: true,
	}, nil
}
