package v1

import (
	"net/http"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/cache"
	"bazaar-dashboard/pkg/utils"
)

const enumsCacheKey = "system:config:enums"

type ConfigHandler struct {
	cache cache.CacheService
}

func NewConfigHandler(cache cache.CacheService) *ConfigHandler {
	return &ConfigHandler{cache: cache}
}

// entityVocabulary is one entity family's states and legal moves.
type entityVocabulary struct {
	Statuses    []domain.Status                   `json:"statuses"`
	Transitions map[domain.Status][]domain.Status `json:"transitions"`
	Terminal    []domain.Status                   `json:"terminal"`
}

func vocabularyFor(entity domain.EntityType) entityVocabulary {
	v := entityVocabulary{
		Statuses:    domain.StatusesFor(entity),
		Transitions: make(map[domain.Status][]domain.Status),
		Terminal:    []domain.Status{},
	}
	for _, s := range v.Statuses {
		next := domain.AllowedTransitions(entity, s)
		if next == nil {
			next = []domain.Status{}
		}
		v.Transitions[s] = next
		if domain.IsTerminal(entity, s) {
			v.Terminal = append(v.Terminal, s)
		}
	}
	return v
}

// GET /api/v1/config/enums
func (h *ConfigHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if val, found := h.cache.Get(enumsCacheKey); found {
		utils.WriteJSON(w, http.StatusOK, val)
		return
	}

	response := map[string]interface{}{
		"orders":                 vocabularyFor(domain.EntityOrder),
		"withdrawals":            vocabularyFor(domain.EntityWithdrawal),
		"sellers":                vocabularyFor(domain.EntitySeller),
		"products":               vocabularyFor(domain.EntityProduct),
		"returns":                vocabularyFor(domain.EntityReturn),
		"paymentMethods":         domain.PaymentMethods,
		"withdrawalMethods":      domain.WithdrawalMethods,
		"returnReasonCategories": domain.ReturnReasonCategories,
	}

	h.cache.Set(enumsCacheKey, response, 1*time.Hour)
	utils.WriteJSON(w, http.StatusOK, response)
}
