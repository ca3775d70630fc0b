package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/DevShoesed/amazon-scrape/internal/catalog"
	"github.com/DevShoesed/amazon-scrape/internal/scraper"
)

// Service is the slice of the scrape service the HTTP layer needs.
type Service interface {
	Scrape(ctx context.Context, asin string) error
	GetProduct(ctx context.Context, asin string) (*scraper.ProductView, error)
	ListProducts(ctx context.Context, f catalog.ListFilter) ([]scraper.ProductView, error)
	DeleteProduct(ctx context.Context, asin string) (bool, error)
}

type Handlers struct {
	service Service
	logger  *slog.Logger
}

func NewHandlers(service Service, logger *slog.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger.With("component", "api"),
	}
}

// Routes mounts all product endpoints on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Route("/{asin}", func(r chi.Router) {
			r.Post("/scrape", h.ScrapeProduct)
			r.Get("/", h.GetProduct)
			r.Delete("/", h.DeleteProduct)
		})
	})
}

// ProductResponse is the product payload shared by all endpoints.
type ProductResponse struct {
	ASIN         string          `json:"asin"`
	Name         string          `json:"name"`
	CategoryID   int64           `json:"category_id"`
	Categories   []string        `json:"categories"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	History      []PriceEntry    `json:"history,omitempty"`
}

type PriceEntry struct {
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func toProductResponse(v *scraper.ProductView, withHistory bool) ProductResponse {
	resp := ProductResponse{
		ASIN:         v.Product.ASIN,
		Name:         v.Product.Name,
		CategoryID:   v.Product.CategoryID,
		Categories:   v.Categories,
		CurrentPrice: v.CurrentPrice,
	}
	if withHistory {
		resp.History = make([]PriceEntry, len(v.History))
		for i, p := range v.History {
			resp.History[i] = PriceEntry{Amount: p.Amount, CreatedAt: p.CreatedAt}
		}
	}
	return resp
}

// ScrapeProduct runs a scrape for the ASIN and returns the stored product.
// Any scrape failure maps to a generic not-found message so callers cannot
// probe which extraction step broke.
func (h *Handlers) ScrapeProduct(w http.ResponseWriter, r *http.Request) {
	asin := chi.URLParam(r, "asin")
	if asin == "" {
		h.respondError(w, http.StatusBadRequest, "asin is required")
		return
	}

	if err := h.service.Scrape(r.Context(), asin); err != nil {
		if errors.Is(err, scraper.ErrScrapeInProgress) {
			h.respondError(w, http.StatusConflict, fmt.Sprintf("scrape of %s already in progress", asin))
			return
		}
		h.logger.Error("scrape failed", "asin", asin, "error", err)
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("could not scrape product %s", asin))
		return
	}

	view, err := h.service.GetProduct(r.Context(), asin)
	if err != nil {
		h.logger.Error("failed to load product after scrape", "asin", asin, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	h.respondJSON(w, http.StatusOK, toProductResponse(view, true))
}

// GetProduct returns a product with its category chain and price history.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	asin := chi.URLParam(r, "asin")
	if asin == "" {
		h.respondError(w, http.StatusBadRequest, "asin is required")
		return
	}

	view, err := h.service.GetProduct(r.Context(), asin)
	if err != nil {
		if errors.Is(err, scraper.ErrProductNotFound) {
			h.respondError(w, http.StatusNotFound, fmt.Sprintf("product %s not found", asin))
			return
		}
		h.logger.Error("failed to get product", "asin", asin, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	h.respondJSON(w, http.StatusOK, toProductResponse(view, true))
}

// ListProducts returns stored products, cheapest first. Supports
// category_id and name query filters.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	var filter catalog.ListFilter

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.respondError(w, http.StatusBadRequest, "category_id must be a positive integer")
			return
		}
		filter.CategoryID = id
	}
	filter.NameSubstring = r.URL.Query().Get("name")

	views, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	out := make([]ProductResponse, len(views))
	for i := range views {
		out[i] = toProductResponse(&views[i], false)
	}
	h.respondJSON(w, http.StatusOK, out)
}

// DeleteProduct removes a product and its price history.
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	asin := chi.URLParam(r, "asin")
	if asin == "" {
		h.respondError(w, http.StatusBadRequest, "asin is required")
		return
	}

	deleted, err := h.service.DeleteProduct(r.Context(), asin)
	if err != nil {
		h.logger.Error("failed to delete product", "asin", asin, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	if !deleted {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("product %s not found", asin))
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "asin": asin})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
