package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/pkg/response"
)

type RouteHandler struct {
	routes    RouteService
	validator *validator.Validate
}

func NewRouteHandler(routes RouteService) *RouteHandler {
	return &RouteHandler{
		routes:    routes,
		validator: newValidator(),
	}
}

// OpenRoute handles POST /routes. It returns the existing route when the
// collector already has one for the day.
func (h *RouteHandler) OpenRoute(w http.ResponseWriter, r *http.Request) {
	var req domain.OpenRouteRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	route, err := h.routes.GetOrCreateRoute(r.Context(), req.CollectorID, req.RouteDate, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, route)
}

// ListRoutes handles GET /routes?collector_id=&from=&to=
func (h *RouteHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	from, err := requiredDate(r, "from")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := requiredDate(r, "to")
	if err != nil {
		writeError(w, r, err)
		return
	}

	routes, err := h.routes.ListRoutes(r.Context(), r.URL.Query().Get("collector_id"), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, routes)
}

// GetRoute handles GET /routes/{routeId}
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	route, err := h.routes.GetRoute(r.Context(), mux.Vars(r)["routeId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, route)
}

// AddExpense handles POST /routes/{routeId}/expenses
func (h *RouteHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpenseRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	expense, err := h.routes.AddExpense(r.Context(), mux.Vars(r)["routeId"], &req, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, expense)
}

// UpdateExpense handles PUT /routes/{routeId}/expenses/{expenseId}
func (h *RouteHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpenseRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	vars := mux.Vars(r)
	expense, err := h.routes.UpdateExpense(r.Context(), vars["routeId"], vars["expenseId"], &req, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, expense)
}

// DeleteExpense handles DELETE /routes/{routeId}/expenses/{expenseId}
func (h *RouteHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.routes.DeleteExpense(r.Context(), vars["routeId"], vars["expenseId"], time.Now()); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// CloseRoute handles POST /routes/{routeId}/close
func (h *RouteHandler) CloseRoute(w http.ResponseWriter, r *http.Request) {
	var req domain.CloseRouteRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	route, err := h.routes.CloseRoute(r.Context(), mux.Vars(r)["routeId"], req.Notes, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, route)
}

// ReorderItems handles PUT /routes/{routeId}/order
func (h *RouteHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	var req domain.ReorderItemsRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	route, err := h.routes.ReorderItems(r.Context(), mux.Vars(r)["routeId"], req.InstallmentIDs, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, route)
}
