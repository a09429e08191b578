package handlers

import (
	"net/http"

	"github.com/littletalks/backend/internal/proxy"
)

// ProvidersHandler reports which backends have credentials configured. The
// listing is advisory; the boundary still checks per call.
type ProvidersHandler struct {
	svc *proxy.Service
}

func NewProvidersHandler(svc *proxy.Service) *ProvidersHandler {
	return &ProvidersHandler{svc: svc}
}

func (h *ProvidersHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": h.svc.Providers()})
}
