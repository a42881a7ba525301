package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"grocery-api/internal/middleware"
	"grocery-api/internal/repository"
	"grocery-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret"

func newCartTestRouter() chi.Router {
	logger, _ := zap.NewDevelopment()
	cartService := service.NewCartService(repository.NewMemoryCartRepository())
	handler := NewCartHandler(cartService, logger)

	router := chi.NewRouter()
	handler.RegisterRoutes(router, middleware.IdentityMiddleware(testJWTSecret, logger))
	return router
}

func doCartRequest(t *testing.T, router chi.Router, method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeCartView(t *testing.T, rec *httptest.ResponseRecorder) service.CartView {
	t.Helper()

	var view service.CartView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	return view
}

func TestGetCartEmptyForNewIdentity(t *testing.T) {
	router := newCartTestRouter()

	rec := doCartRequest(t, router, http.MethodGet, "/cart", uuid.New().String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeCartView(t, rec)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0.0, view.Total)
}

func TestCartRequiresIdentity(t *testing.T) {
	router := newCartTestRouter()

	rec := doCartRequest(t, router, http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddToCartReturnsUpdatedView(t *testing.T) {
	router := newCartTestRouter()
	sessionID := uuid.New().String()

	rec := doCartRequest(t, router, http.MethodPost, "/cart/add", sessionID, CartAddRequest{
		ProductID: uuid.New(),
		Name:      "Bananas",
		UnitPrice: 1.99,
		Quantity:  2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doCartRequest(t, router, http.MethodPost, "/cart/add", sessionID, CartAddRequest{
		ProductID: uuid.New(),
		Name:      "Croissants",
		UnitPrice: 5.50,
		Quantity:  1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeCartView(t, rec)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 9.48, view.Total)
}

func TestAddToCartRejectsZeroQuantity(t *testing.T) {
	router := newCartTestRouter()

	rec := doCartRequest(t, router, http.MethodPost, "/cart/add", uuid.New().String(), CartAddRequest{
		ProductID: uuid.New(),
		Name:      "Milk",
		UnitPrice: 2.10,
		Quantity:  0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCartToZeroDeletesLine(t *testing.T) {
	router := newCartTestRouter()
	sessionID := uuid.New().String()
	productID := uuid.New()

	rec := doCartRequest(t, router, http.MethodPost, "/cart/add", sessionID, CartAddRequest{
		ProductID: productID,
		Name:      "Yoghurt",
		UnitPrice: 0.89,
		Quantity:  4,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doCartRequest(t, router, http.MethodPut, "/cart/update", sessionID, CartUpdateRequest{
		ProductID: productID,
		Quantity:  0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeCartView(t, rec)
	assert.Empty(t, view.Items)
}

func TestUpdateCartUnknownProduct(t *testing.T) {
	router := newCartTestRouter()

	rec := doCartRequest(t, router, http.MethodPut, "/cart/update", uuid.New().String(), CartUpdateRequest{
		ProductID: uuid.New(),
		Quantity:  2,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveFromCartIdempotent(t *testing.T) {
	router := newCartTestRouter()
	sessionID := uuid.New().String()
	productID := uuid.New()

	rec := doCartRequest(t, router, http.MethodPost, "/cart/add", sessionID, CartAddRequest{
		ProductID: productID,
		Name:      "Butter",
		UnitPrice: 3.49,
		Quantity:  1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doCartRequest(t, router, http.MethodPost, "/cart/remove", sessionID, CartRemoveRequest{
		ProductID: productID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Removing again still succeeds with an empty cart
	rec = doCartRequest(t, router, http.MethodPost, "/cart/remove", sessionID, CartRemoveRequest{
		ProductID: productID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeCartView(t, rec)
	assert.Empty(t, view.Items)
}

func TestCartsIsolatedBySessionHeader(t *testing.T) {
	router := newCartTestRouter()

	first := uuid.New().String()
	second := uuid.New().String()

	rec := doCartRequest(t, router, http.MethodPost, "/cart/add", first, CartAddRequest{
		ProductID: uuid.New(),
		Name:      "Apples",
		UnitPrice: 2.99,
		Quantity:  3,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doCartRequest(t, router, http.MethodGet, "/cart", second, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeCartView(t, rec)
	assert.Empty(t, view.Items)
}

func TestClearCartEmptiesEverything(t *testing.T) {
	router := newCartTestRouter()
	sessionID := uuid.New().String()

	rec := doCartRequest(t, router, http.MethodPost, "/cart/add", sessionID, CartAddRequest{
		ProductID: uuid.New(),
		Name:      "Oranges",
		UnitPrice: 4.25,
		Quantity:  2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doCartRequest(t, router, http.MethodDelete, "/cart", sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeCartView(t, rec)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0.0, view.Total)

	rec = doCartRequest(t, router, http.MethodGet, "/cart", sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeCartView(t, rec)
	assert.Empty(t, view.Items)
}
