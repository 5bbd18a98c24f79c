package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/raman-prints/api/internal/domain"
	pfirestore "github.com/raman-prints/api/internal/platform/firestore"
	"github.com/raman-prints/api/internal/repositories"
)

const auditLogsCollection = "auditLogs"

type auditLogDocument struct {
	Actor     string         `firestore:"actor"`
	Action    string         `firestore:"action"`
	TargetRef string         `firestore:"targetRef,omitempty"`
	Metadata  map[string]any `firestore:"metadata,omitempty"`
	RequestID string         `firestore:"requestId,omitempty"`
	CreatedAt time.Time      `firestore:"createdAt"`
}

// AuditLogRepository stores admin action audit entries.
type AuditLogRepository struct {
	provider *pfirestore.Provider
	logs     *pfirestore.BaseRepository[auditLogDocument]
}

// NewAuditLogRepository constructs a Firestore-backed audit log repository.
func NewAuditLogRepository(provider *pfirestore.Provider) (*AuditLogRepository, error) {
	if provider == nil {
		return nil, errors.New("audit log repository requires firestore provider")
	}
	return &AuditLogRepository{
		provider: provider,
		logs:     pfirestore.NewBaseRepository[auditLogDocument](provider, auditLogsCollection, nil, nil),
	}, nil
}

// Insert writes one audit entry.
func (r *AuditLogRepository) Insert(ctx context.Context, entry domain.AuditLogEntry) error {
	if strings.TrimSpace(entry.ID) == "" {
		return errors.New("audit log repository: entry id is required")
	}
	_, err := r.logs.Create(ctx, entry.ID, auditLogDocument{
		Actor:     entry.Actor,
		Action:    entry.Action,
		TargetRef: entry.TargetRef,
		Metadata:  entry.Metadata,
		RequestID: entry.RequestID,
		CreatedAt: entry.CreatedAt.UTC(),
	})
	return err
}

// List returns the most recent audit entries.
func (r *AuditLogRepository) List(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	docs, err := r.logs.Query(ctx, func(query firestore.Query) firestore.Query {
		query = query.OrderBy("createdAt", firestore.Desc)
		if limit > 0 {
			query = query.Limit(limit)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AuditLogEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, domain.AuditLogEntry{
			ID:        doc.ID,
			Actor:     doc.Data.Actor,
			Action:    doc.Data.Action,
			TargetRef: doc.Data.TargetRef,
			Metadata:  doc.Data.Metadata,
			RequestID: doc.Data.RequestID,
			CreatedAt: doc.Data.CreatedAt,
		})
	}
	return entries, nil
}

// Ensure interface compliance.
var _ repositories.AuditLogRepository = (*AuditLogRepository)(nil)
