package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/littletalks/backend/internal/proxy"
)

// ProxyHandler exposes the anonymizing boundary to out-of-process adapters.
// Responses carry the provider's raw body untouched; the three boundary
// failure kinds map to distinct statuses so the caller can classify them.
type ProxyHandler struct {
	svc *proxy.Service
}

func NewProxyHandler(svc *proxy.Service) *ProxyHandler {
	return &ProxyHandler{svc: svc}
}

func (h *ProxyHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	data, mediaType, err := readAudioUpload(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "audio payload is empty"})
		return
	}

	resp, err := h.svc.Transcribe(r.Context(), proxy.Request{
		Provider:    provider,
		RequestType: proxy.RequestTypeTranscription,
		Audio:       data,
		MediaType:   mediaType,
	})
	if err != nil {
		h.writeProxyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request_id": resp.RequestID,
		"response":   rawOrString(resp.Body),
	})
}

func (h *ProxyHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	jobID := chi.URLParam(r, "id")

	resp, err := h.svc.PollJob(r.Context(), provider, jobID)
	if err != nil {
		h.writeProxyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"response": rawOrString(resp.Body),
	})
}

func (h *ProxyHandler) writeProxyError(w http.ResponseWriter, err error) {
	if errors.Is(err, proxy.ErrUnauthenticated) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	if errors.Is(err, proxy.ErrNotConfigured) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": err.Error(),
			"kind":  "not_configured",
		})
		return
	}

	var statusErr *proxy.StatusError
	if errors.As(err, &statusErr) {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":           statusErr.Error(),
			"kind":            "provider_error",
			"provider_status": statusErr.StatusCode,
		})
		return
	}

	var transportErr *proxy.TransportError
	if errors.As(err, &transportErr) {
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{
			"error": transportErr.Error(),
			"kind":  "network_error",
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// rawOrString embeds valid JSON as-is and quotes anything else.
func rawOrString(body []byte) interface{} {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return strconv.Quote(string(body))
}
