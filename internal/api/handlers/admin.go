package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/littletalks/backend/internal/audit"
	"github.com/littletalks/backend/internal/queue"
)

type AdminHandler struct {
	store *audit.Store
	queue *queue.Client
}

func NewAdminHandler(store *audit.Store, q *queue.Client) *AdminHandler {
	return &AdminHandler{store: store, queue: q}
}

// AuditRequests lists anonymized request records for compliance review.
func (h *AdminHandler) AuditRequests(w http.ResponseWriter, r *http.Request) {
	q := audit.Query{
		Provider: r.URL.Query().Get("provider"),
	}

	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	q.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if q.Limit <= 0 {
		q.Limit = 50
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err == nil {
			q.StartDate = &t
		}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err == nil {
			q.EndDate = &t
		}
	}

	recs, err := h.store.List(r.Context(), q)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"audit_requests": recs, "count": len(recs)})
}

// TriggerAuditPurge enqueues a retention sweep ahead of the hourly schedule.
func (h *AdminHandler) TriggerAuditPurge(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "background queue unavailable"})
		return
	}

	if err := h.queue.EnqueueAuditPurge(queue.AuditPurgePayload{Reason: "manual"}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "purge enqueued"})
}
