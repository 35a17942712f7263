package v1

import (
	"net/http"

	"storefront/internal/usecase"
	"storefront/pkg/utils"
)

type HealthHandler struct {
	sessions *usecase.SessionUsecase
	driver   string
}

func NewHealthHandler(sessions *usecase.SessionUsecase, driver string) *HealthHandler {
	return &HealthHandler{sessions: sessions, driver: driver}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"storage":  h.driver,
		"sessions": h.sessions.ActiveSessions(),
	})
}
