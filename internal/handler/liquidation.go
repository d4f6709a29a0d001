package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/pkg/response"
)

type LiquidationHandler struct {
	liquidation LiquidationService
	validator   *validator.Validate
}

func NewLiquidationHandler(liquidation LiquidationService) *LiquidationHandler {
	return &LiquidationHandler{
		liquidation: liquidation,
		validator:   newValidator(),
	}
}

// GetCollectionsSummary handles GET /collectors/{collectorId}/collections?start=&end=
func (h *LiquidationHandler) GetCollectionsSummary(w http.ResponseWriter, r *http.Request) {
	start, err := requiredDate(r, "start")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := requiredDate(r, "end")
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.liquidation.GetCollectionsSummary(r.Context(), mux.Vars(r)["collectorId"], start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, summary)
}

// Liquidate handles POST /collectors/{collectorId}/liquidation
func (h *LiquidationHandler) Liquidate(w http.ResponseWriter, r *http.Request) {
	var req domain.LiquidationRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	liquidation, err := h.liquidation.Liquidate(r.Context(), mux.Vars(r)["collectorId"], req.StartDate, req.EndDate, req.Percentage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, liquidation)
}
