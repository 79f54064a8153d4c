// Package httpapi is the HTTP boundary. Handlers decode, delegate to the
// domain services with the authenticated actor, and map domain errors to
// status codes. No business rules live here.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Kobia22/SmartStock/internal/account"
	"github.com/Kobia22/SmartStock/internal/auth"
	"github.com/Kobia22/SmartStock/internal/inventory"
	"github.com/Kobia22/SmartStock/internal/obs"
	"github.com/Kobia22/SmartStock/internal/workflow"
)

// ReadyProbe reports readiness, pinging the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	creds     *auth.Credentials
	accounts  *account.Service
	workflow  *workflow.Service
	inventory *inventory.Service

	rateBurst  int
	ratePerSec int
	maxBody    int64
}

// New wires the route table.
func New(rp ReadyProbe, version string, creds *auth.Credentials,
	accounts *account.Service, wf *workflow.Service, inv *inventory.Service) *API {

	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		creds:      creds,
		accounts:   accounts,
		workflow:   wf,
		inventory:  inv,
		rateBurst:  50,
		ratePerSec: 25,
		maxBody:    1 << 20,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)

	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/register", a.handleRegister)
	a.mux.HandleFunc("/api/login", a.handleLogin)
	a.mux.HandleFunc("/api/user/profile", a.handleProfile)

	a.mux.HandleFunc("/api/admin/pending-registrations", a.handlePendingRegistrations)
	a.mux.HandleFunc("/api/admin/process-registration/", a.handleProcessRegistration)
	a.mux.HandleFunc("/api/admin/assign-permissions", a.handleAssignPermissions)
	a.mux.HandleFunc("/api/admin/users", a.handleUsers)
	a.mux.HandleFunc("/api/admin/submit-request", a.handleSubmitRequest)
	a.mux.HandleFunc("/api/admin/approve-request/", a.handleApproveRequest)
	a.mux.HandleFunc("/api/admin/requests", a.handleListRequests)

	a.mux.HandleFunc("/api/inventory/products", a.handleProducts)
	a.mux.HandleFunc("/api/inventory/stock/update", a.handleStockUpdate)
	a.mux.HandleFunc("/api/inventory/sale", a.handleSale)
	a.mux.HandleFunc("/api/inventory/transactions", a.handleTransactions)
	a.mux.HandleFunc("/api/inventory/purchase-orders", a.handleOrders)
	a.mux.HandleFunc("/api/inventory/purchase-orders/", a.handleOrderStatus)
	a.mux.HandleFunc("/api/inventory/forecast", a.handleForecast)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.maxBody)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "smartstock-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "smartstock-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
