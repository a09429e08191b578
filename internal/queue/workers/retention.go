package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/littletalks/backend/internal/audit"
	"github.com/littletalks/backend/internal/queue"
)

// RetentionWorker purges expired anonymized request records. It is the only
// writer that ever removes audit rows; the request path is append-only.
type RetentionWorker struct {
	store *audit.Store
}

func NewRetentionWorker(store *audit.Store) *RetentionWorker {
	return &RetentionWorker{store: store}
}

func (w *RetentionWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AuditPurgePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
	}

	purged, err := w.store.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge expired audit records: %w", err)
	}

	slog.Info("audit retention sweep complete", "purged", purged, "reason", payload.Reason)
	return nil
}
