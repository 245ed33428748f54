package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/sequence"
	"retail-erp/internal/services"
	"retail-erp/internal/store"
	"retail-erp/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testAPI struct {
	router *gin.Engine
	svc    *services.Services
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore(repository.Schema())
	svc := services.New(repository.New(st), sequence.NewStoreSequencer(st, zap.NewNop()), nil, services.Options{}, zap.NewNop())
	v := validation.New()
	logger := zap.NewNop()

	stock := NewStockHandler(svc.Products, logger)
	pos := NewPOSHandler(nil, svc.Products, svc.Sales, v, logger)
	sales := NewSaleHandler(svc.Sales, logger)
	registers := NewCashRegisterHandler(svc.CashRegisters, logger)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/products", stock.CreateProduct)
	api.GET("/products/:id", stock.GetProduct)
	api.POST("/pos/sale", pos.QuickSale)
	api.GET("/pos/product/:barcode", pos.SearchProductByBarcode)
	api.POST("/sales", sales.Create)
	api.POST("/sales/:id/cancel", sales.Cancel)
	api.POST("/registers/open", registers.Open)

	return &testAPI{router: r, svc: svc}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp models.APIResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (a *testAPI) product(t *testing.T, code, barcode string, stock int64) *models.Product {
	t.Helper()
	p, err := a.svc.Products.Create(context.Background(), &models.Product{
		Code:          code,
		Name:          "Producto " + code,
		Unit:          "un",
		CostPrice:     decimal.NewFromInt(5),
		SalePrice:     decimal.NewFromInt(10),
		StockQuantity: decimal.NewFromInt(stock),
		Barcode:       barcode,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProductThenGet(t *testing.T) {
	api := newTestAPI(t)

	w, resp := api.do(t, http.MethodPost, "/api/v1/products", gin.H{
		"code": "A1", "name": "Yerba 1kg", "unit": "un",
		"cost_price": "1500", "sale_price": "2100", "stock_quantity": "12",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	id, _ := data["id"].(string)
	require.NotEmpty(t, id)

	w, resp = api.do(t, http.MethodGet, "/api/v1/products/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, resp = api.do(t, http.MethodPost, "/api/v1/products", gin.H{"code": "A1", "name": "Repetido", "unit": "un"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate", resp.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "A1", "7791", 1)

	w, resp := api.do(t, http.MethodGet, "/api/v1/products/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "not_found", resp.Code)

	w, resp = api.do(t, http.MethodPost, "/api/v1/sales", `{"user_id": "u1", "items": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_body", resp.Code)

	w, resp = api.do(t, http.MethodPost, "/api/v1/sales", gin.H{
		"user_id": "u1", "payment_method": "barter",
		"items": []gin.H{{"product_id": p.ID, "quantity": "1"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_field", resp.Code)
	assert.Equal(t, "payment_method", resp.Field)

	w, resp = api.do(t, http.MethodPost, "/api/v1/sales", gin.H{
		"user_id": "u1", "payment_method": "cash",
		"items": []gin.H{{"product_id": p.ID, "quantity": "5"}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "insufficient_stock", resp.Code)

	w, resp = api.do(t, http.MethodPost, "/api/v1/sales/ghost/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", resp.Code)
}

func TestQuickSaleByBarcode(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "A1", "7791", 10)

	w, resp := api.do(t, http.MethodGet, "/api/v1/pos/product/7791", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, _ = api.do(t, http.MethodPost, "/api/v1/pos/sale", gin.H{
		"user_id": "u1", "payment_method": "cash",
		"items": []gin.H{{"barcode": "7791", "quantity": "3"}, {"barcode": "0000", "quantity": "1"}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = api.do(t, http.MethodPost, "/api/v1/pos/sale", gin.H{
		"user_id": "u1", "payment_method": "cash",
		"items": []gin.H{{"barcode": "7791", "quantity": "3"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)

	got, err := api.svc.Products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, got.StockQuantity.Equal(decimal.NewFromInt(7)), "stock %s", got.StockQuantity)
}

func TestOpenRegisterTwiceConflicts(t *testing.T) {
	api := newTestAPI(t)
	body := gin.H{"user_id": "u1", "opening_balance": "100"}

	w, _ := api.do(t, http.MethodPost, "/api/v1/registers/open", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := api.do(t, http.MethodPost, "/api/v1/registers/open", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "register_already_open", resp.Code)
}
