package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevShoesed/amazon-scrape/internal/catalog"
	"github.com/DevShoesed/amazon-scrape/internal/scraper"
)

type fakeService struct {
	products   map[string]*scraper.ProductView
	scrapeErr  error
	lastFilter catalog.ListFilter
}

func (f *fakeService) Scrape(_ context.Context, asin string) error {
	if f.scrapeErr != nil {
		return f.scrapeErr
	}
	if _, ok := f.products[asin]; !ok {
		return scraper.ErrNameNotFound
	}
	return nil
}

func (f *fakeService) GetProduct(_ context.Context, asin string) (*scraper.ProductView, error) {
	v, ok := f.products[asin]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scraper.ErrProductNotFound, asin)
	}
	return v, nil
}

func (f *fakeService) ListProducts(_ context.Context, filter catalog.ListFilter) ([]scraper.ProductView, error) {
	f.lastFilter = filter
	var out []scraper.ProductView
	for _, v := range f.products {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeService) DeleteProduct(_ context.Context, asin string) (bool, error) {
	if _, ok := f.products[asin]; !ok {
		return false, nil
	}
	delete(f.products, asin)
	return true, nil
}

func newTestRouter(svc Service) http.Handler {
	h := NewHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/api/v1", h.Routes)
	return r
}

func coffeeMachineView() *scraper.ProductView {
	return &scraper.ProductView{
		Product:      catalog.Product{ASIN: "B001", Name: "Coffee Machine", CategoryID: 3},
		Categories:   []string{"Espresso Machines", "Kitchen", "Home"},
		CurrentPrice: decimal.RequireFromString("183.29"),
		History: []catalog.Price{
			{ID: 1, ProductASIN: "B001", Amount: decimal.RequireFromString("183.29")},
		},
	}
}

func TestScrapeProductReturnsStoredProduct(t *testing.T) {
	svc := &fakeService{products: map[string]*scraper.ProductView{"B001": coffeeMachineView()}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/B001/scrape", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "B001", resp.ASIN)
	assert.Equal(t, "Coffee Machine", resp.Name)
	assert.Equal(t, []string{"Espresso Machines", "Kitchen", "Home"}, resp.Categories)
	assert.Equal(t, "183.29", resp.CurrentPrice.String())
	assert.Len(t, resp.History, 1)
}

func TestScrapeProductFailureIsGenericNotFound(t *testing.T) {
	svc := &fakeService{products: map[string]*scraper.ProductView{}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/B404/scrape", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "could not scrape product B404", resp["error"])
	assert.NotContains(t, resp["error"], "name", "failure reason must not leak")
}

func TestScrapeProductConflictWhileLocked(t *testing.T) {
	svc := &fakeService{scrapeErr: fmt.Errorf("%w: B001", scraper.ErrScrapeInProgress)}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/B001/scrape", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetProduct(t *testing.T) {
	svc := &fakeService{products: map[string]*scraper.ProductView{"B001": coffeeMachineView()}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/B001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Coffee Machine", resp.Name)
}

func TestGetProductNotFound(t *testing.T) {
	svc := &fakeService{products: map[string]*scraper.ProductView{}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/NOPE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProductsParsesFilters(t *testing.T) {
	svc := &fakeService{products: map[string]*scraper.ProductView{"B001": coffeeMachineView()}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category_id=3&name=coffee", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), svc.lastFilter.CategoryID)
	assert.Equal(t, "coffee", svc.lastFilter.NameSubstring)

	var resp []ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Empty(t, resp[0].History, "list payload carries no history")
}

func TestListProductsRejectsBadCategoryID(t *testing.T) {
	svc := &fakeService{products: map[string]*scraper.ProductView{}}
	router := newTestRouter(svc)

	for _, raw := range []string{"abc", "-1", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category_id="+raw, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "category_id=%s", raw)
	}
}

func TestDeleteProduct(t *testing.T) {
	svc := &fakeService{products: map[string]*scraper.ProductView{"B001": coffeeMachineView()}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/B001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/products/B001", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
