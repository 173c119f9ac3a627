package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/kasirku/internal/form"
	"github.com/iliyamo/kasirku/internal/metrics"
	"github.com/iliyamo/kasirku/internal/middleware"
	"github.com/iliyamo/kasirku/internal/model"
	"github.com/iliyamo/kasirku/internal/queue"
	"github.com/iliyamo/kasirku/internal/repository"
	"github.com/iliyamo/kasirku/internal/view"
)

// Flash messages for product mutations.
const (
	MsgProductCreated  = "Product added successfully"
	MsgProductUpdated  = "Product updated successfully"
	MsgProductDeleted  = "Product deleted successfully"
	MsgProductNotFound = "Product not found"
	MsgInvalidProduct  = "Invalid product ID"
)

// ProductHandler serves the admin inventory pages.
type ProductHandler struct {
	Products ProductStore
	Events   InventoryPublisher // optional
	Pages    *Pages
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func NewProductHandler(products ProductStore, events InventoryPublisher, pages *Pages, mx *metrics.Metrics) *ProductHandler {
	if products == nil || pages == nil {
		panic("nil dependency passed to NewProductHandler")
	}
	return &ProductHandler{Products: products, Events: events, Pages: pages, Metrics: mx, Now: time.Now}
}

// List handles GET /products.
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	items, err := h.Products.ListActive(ctx)
	if err != nil {
		return serverError(c, err, "Database error")
	}
	return c.Render(http.StatusOK, view.PageProducts, h.Pages.New(c, "Produk", view.ProductListData{Products: items}))
}

func (h *ProductHandler) renderForm(c echo.Context, status int, title string, id uint64, in form.ProductInput, errs form.Errors) error {
	page := h.Pages.New(c, title, view.ProductFormData{ProductID: id, Input: in, Units: model.Units})
	page.Errors = errs
	return c.Render(status, view.PageProductForm, page)
}

// New handles GET /products/new.
func (h *ProductHandler) New(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, "Tambah produk", 0, form.ProductInput{Unit: string(model.DefaultUnit)}, nil)
}

// Create handles POST /products.  Invalid input re-renders the form with
// every message and the values as typed.
func (h *ProductHandler) Create(c echo.Context) error {
	var in form.ProductInput
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid form")
	}
	p, errs := form.ParseProduct(in)
	if !errs.Empty() {
		return h.renderForm(c, http.StatusUnprocessableEntity, "Tambah produk", 0, in, errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	if err := h.Products.Create(ctx, &p); err != nil {
		return serverError(c, err, "Failed to save product")
	}
	h.changed(c, queue.ActionCreated, &p)
	h.Pages.Flash(c, "success", MsgProductCreated)
	return c.Redirect(http.StatusSeeOther, "/products")
}

// Edit handles GET /products/:id/edit.
func (h *ProductHandler) Edit(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.Pages.NotFound(c, MsgInvalidProduct)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	p, err := h.Products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return h.Pages.NotFound(c, MsgProductNotFound)
	}
	if err != nil {
		return serverError(c, err, "Database error")
	}
	return h.renderForm(c, http.StatusOK, "Ubah produk", id, form.InputFromProduct(p), nil)
}

// Update handles POST /products/:id.
func (h *ProductHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.Pages.NotFound(c, MsgInvalidProduct)
	}
	var in form.ProductInput
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid form")
	}
	p, errs := form.ParseProduct(in)
	if !errs.Empty() {
		return h.renderForm(c, http.StatusUnprocessableEntity, "Ubah produk", id, in, errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	p.ID = id
	err := h.Products.Update(ctx, &p)
	if errors.Is(err, repository.ErrProductNotFound) {
		return h.Pages.NotFound(c, MsgProductNotFound)
	}
	if err != nil {
		return serverError(c, err, "Failed to save product")
	}
	h.changed(c, queue.ActionUpdated, &p)
	h.Pages.Flash(c, "success", MsgProductUpdated)
	return c.Redirect(http.StatusSeeOther, "/products")
}

// Delete handles POST /products/:id/delete.  The outcome is always
// reported on the list page.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		h.Pages.Flash(c, "error", MsgInvalidProduct)
		return c.Redirect(http.StatusSeeOther, "/products")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		h.Pages.Flash(c, "error", MsgProductNotFound)
		return c.Redirect(http.StatusSeeOther, "/products")
	}
	if err != nil {
		return serverError(c, err, "Database error")
	}
	if err := h.Products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			h.Pages.Flash(c, "error", MsgProductNotFound)
		} else {
			zap.L().Error("delete product failed", zap.Uint64("product_id", id), zap.Error(err))
			h.Pages.Flash(c, "error", "Failed to delete product")
		}
		return c.Redirect(http.StatusSeeOther, "/products")
	}
	h.changed(c, queue.ActionDeleted, p)
	h.Pages.Flash(c, "success", MsgProductDeleted)
	return c.Redirect(http.StatusSeeOther, "/products")
}

// changed records a successful mutation.  Publishing is best effort: a
// broker outage is logged and the request still succeeds.
func (h *ProductHandler) changed(c echo.Context, action string, p *model.Product) {
	h.Metrics.ProductChanged(action)
	ident, _ := middleware.CurrentIdentity(c)
	zap.L().Info("product "+action, zap.Uint64("product_id", p.ID), zap.String("by", ident.Username))
	if h.Events == nil {
		return
	}
	ev := queue.InventoryEvent{
		Action:     action,
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Stock:      p.Stock,
		Unit:       string(p.Unit),
		Actor:      ident.Username,
		ActorID:    ident.UserID,
		OccurredAt: h.Now().UTC().Format(time.RFC3339),
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 3*time.Second)
	defer cancel()
	if err := h.Events.PublishInventory(ctx, ev); err != nil {
		zap.L().Warn("inventory event not published", zap.String("action", action), zap.Error(err))
	}
}
