package v1

import (
	"net/http"
	"slices"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/utils"
)

var historyEntities = []domain.EntityType{
	domain.EntityOrder,
	domain.EntityWithdrawal,
	domain.EntitySeller,
	domain.EntityProduct,
	domain.EntityReturn,
}

// HistoryHandler exposes the settled-transition log. It is only routed when a
// database is configured.
type HistoryHandler struct {
	history domain.TransitionRecorder
}

func NewHistoryHandler(history domain.TransitionRecorder) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// GET /api/v1/admin/history/{entity}/{id}
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	entity := domain.EntityType(r.PathValue("entity"))
	if !slices.Contains(historyEntities, entity) {
		utils.WriteError(w, http.StatusNotFound, "Unknown entity type")
		return
	}

	records, err := h.history.ListByEntity(r.Context(), entity, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Failed to load history")
		return
	}
	if records == nil {
		records = []domain.TransitionRecord{}
	}
	utils.WriteData(w, http.StatusOK, records)
}
