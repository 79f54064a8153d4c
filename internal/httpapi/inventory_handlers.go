package httpapi

import (
	"net/http"
	"strings"

	"github.com/Kobia22/SmartStock/internal/audit"
	"github.com/Kobia22/SmartStock/internal/inventory"
	"github.com/Kobia22/SmartStock/internal/obs"
)

type addProductRequest struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Category     string  `json:"category,omitempty"`
	UnitPrice    float64 `json:"unit_price"`
	InitialStock int     `json:"initial_stock"`
	ReorderPoint int     `json:"reorder_point"`
}

type stockUpdateRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Kind     string `json:"kind"`
	Notes    string `json:"notes,omitempty"`
}

type saleRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type createOrderRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		products, err := a.inventory.ListProducts(r.Context(), actor)
		if err != nil {
			handleInventoryError(w, r, err)
			return
		}
		if products == nil {
			products = []*inventory.Product{}
		}
		writeJSON(w, http.StatusOK, products)
	case http.MethodPost:
		var req addProductRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		product, err := a.inventory.AddProduct(r.Context(), actor, inventory.Product{
			SKU:          req.SKU,
			Name:         req.Name,
			Category:     req.Category,
			UnitPrice:    req.UnitPrice,
			CurrentStock: req.InitialStock,
			ReorderPoint: req.ReorderPoint,
		})
		if err != nil {
			handleInventoryError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "inventory.product.create", map[string]any{
			"sku":  product.SKU,
			"name": product.Name,
		})
		writeJSON(w, http.StatusCreated, product)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleStockUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req stockUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	kind := inventory.MovementKind(strings.ToUpper(strings.TrimSpace(req.Kind)))
	movement, err := a.inventory.AdjustStock(r.Context(), actor, req.SKU, req.Quantity, kind, req.Notes)
	if err != nil {
		handleInventoryError(w, r, err)
		return
	}
	obs.ObserveMovement(string(movement.Kind))
	_ = audit.LogEvent(r.Context(), "inventory.stock.update", map[string]any{
		"sku":      strings.TrimSpace(req.SKU),
		"kind":     string(movement.Kind),
		"quantity": movement.Quantity,
	})
	writeJSON(w, http.StatusCreated, movement)
}

func (a *API) handleSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req saleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	movement, err := a.inventory.RecordSale(r.Context(), actor, req.SKU, req.Quantity)
	if err != nil {
		handleInventoryError(w, r, err)
		return
	}
	obs.ObserveMovement(string(movement.Kind))
	_ = audit.LogEvent(r.Context(), "inventory.sale", map[string]any{
		"sku":      strings.TrimSpace(req.SKU),
		"quantity": req.Quantity,
	})
	writeJSON(w, http.StatusCreated, movement)
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	trail, err := a.inventory.AuditTrail(r.Context(), actor)
	if err != nil {
		handleInventoryError(w, r, err)
		return
	}
	if trail == nil {
		trail = []inventory.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, trail)
}

func (a *API) handleOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		orders, err := a.inventory.ListOrders(r.Context(), actor)
		if err != nil {
			handleInventoryError(w, r, err)
			return
		}
		if orders == nil {
			orders = []*inventory.PurchaseOrder{}
		}
		writeJSON(w, http.StatusOK, orders)
	case http.MethodPost:
		var req createOrderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		order, err := a.inventory.CreateOrder(r.Context(), actor, req.SKU, req.Quantity)
		if err != nil {
			handleInventoryError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "inventory.order.create", map[string]any{
			"order_id": order.ID,
			"sku":      order.SKU,
			"quantity": order.Quantity,
		})
		w.Header().Set("Location", "/api/inventory/purchase-orders/"+order.ID+"/status")
		writeJSON(w, http.StatusCreated, order)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/inventory/purchase-orders/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "status" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req orderStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	to := inventory.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	order, err := a.inventory.AdvanceOrder(r.Context(), actor, parts[0], to)
	if err != nil {
		handleInventoryError(w, r, err)
		return
	}
	if order.Status == inventory.OrderDelivered {
		obs.ObserveMovement(string(inventory.KindRestock))
	}
	_ = audit.LogEvent(r.Context(), "inventory.order.advance", map[string]any{
		"order_id": order.ID,
		"status":   string(order.Status),
	})
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	forecast, err := a.inventory.StockoutForecast(r.Context(), actor)
	if err != nil {
		handleInventoryError(w, r, err)
		return
	}
	if forecast == nil {
		forecast = []inventory.Forecast{}
	}
	writeJSON(w, http.StatusOK, forecast)
}
