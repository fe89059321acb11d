package services

import (
	"context"
	"time"

	"github.com/medorbit/telecare/models"
	"github.com/medorbit/telecare/utils"
)

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditService records workflow outcomes after commit. Writes are
// fire-and-forget on a detached context: an audit failure must never undo or
// delay a committed payment or booking.
type AuditService struct {
	store  auditStore
	logger *utils.Logger
}

func CreateAuditService(store auditStore) *AuditService {
	return &AuditService{
		store:  store,
		logger: utils.NewLogger("audit"),
	}
}

func (s *AuditService) Record(ctx context.Context, log *models.AuditLog) {
	correlationID := utils.GetCorrelationID(ctx)
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		writeCtx = utils.WithCorrelationID(writeCtx, correlationID)

		if err := s.store.Create(writeCtx, log); err != nil {
			s.logger.Error(writeCtx, "failed to write audit log", map[string]interface{}{
				"action":        log.Action,
				"resource_type": log.ResourceType,
				"resource_id":   log.ResourceID,
				"error":         err.Error(),
			})
		}
	}()
}

// Notifier is the post-commit notification dispatch seam. Delivery lives
// outside this core; implementations must not be part of the atomic unit.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]interface{})
}

// LogNotifier is the default Notifier: it records the dispatch and leaves
// delivery to downstream consumers.
type LogNotifier struct {
	logger *utils.Logger
}

func CreateLogNotifier() *LogNotifier {
	return &LogNotifier{logger: utils.NewLogger("notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, event string, payload map[string]interface{}) {
	fields := map[string]interface{}{"event": event}
	for k, v := range payload {
		fields[k] = v
	}
	n.logger.Info(ctx, "notification dispatched", fields)
}
