package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
)

// writeAudit appends one audit trail entry. Audit failures are logged and
// swallowed so they never fail the operation being recorded.
func writeAudit(ctx context.Context, repo repository.RequestRepositoryInterface, logger *logrus.Entry, requestID uuid.UUID, eventType string, actorID *uuid.UUID, metadata map[string]interface{}) {
	entry := &models.RequestAuditLog{
		RequestID: requestID,
		EventType: eventType,
		ActorID:   actorID,
	}
	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			entry.Metadata = datatypes.JSON(data)
		}
	}
	if err := repo.CreateAuditLog(ctx, entry); err != nil {
		logger.WithError(err).Warn("Failed to write audit log entry")
	}
}
