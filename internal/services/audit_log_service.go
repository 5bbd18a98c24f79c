package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/repositories"
)

const (
	auditIDPrefix      = "aud_"
	maxAuditFieldBytes = 256
)

// AuditLogger defines the logging contract used by the audit writer service.
type AuditLogger interface {
	Warnf(format string, args ...any)
}

type noopAuditLogger struct{}

func (noopAuditLogger) Warnf(string, ...any) {}

// AuditLogServiceDeps bundles constructor inputs for the audit writer service.
type AuditLogServiceDeps struct {
	Repository  repositories.AuditLogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      AuditLogger
}

type auditLogService struct {
	repo   repositories.AuditLogRepository
	clock  func() time.Time
	newID  func() string
	logger AuditLogger
}

// NewAuditLogService creates an audit log writer backed by the supplied repository.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.Repository == nil {
		return nil, errors.New("audit log service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return auditIDPrefix + ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopAuditLogger{}
	}

	return &auditLogService{
		repo:   deps.Repository,
		clock:  func() time.Time { return clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// Record persists an audit entry. Repository failures are logged but do
// not bubble up, so they never interrupt the primary mutation flow.
func (s *auditLogService) Record(ctx context.Context, record AuditLogRecord) {
	entry := s.buildEntry(record)
	if entry.Action == "" {
		s.logger.Warnf("audit log entry dropped: action is required")
		return
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Warnf("audit log insert failed: %v", err)
	}
}

// List retrieves the most recent audit entries.
func (s *auditLogService) List(ctx context.Context, limit int) ([]AuditLogEntry, error) {
	return s.repo.List(ctx, limit)
}

func (s *auditLogService) buildEntry(record AuditLogRecord) domain.AuditLogEntry {
	occurred := record.OccurredAt
	if occurred.IsZero() {
		occurred = s.clock()
	} else {
		occurred = occurred.UTC()
	}

	return domain.AuditLogEntry{
		ID:        s.newID(),
		Actor:     clipAuditField(record.Actor),
		Action:    clipAuditField(record.Action),
		TargetRef: clipAuditField(record.TargetRef),
		Metadata:  record.Metadata,
		RequestID: clipAuditField(record.RequestID),
		CreatedAt: occurred,
	}
}

func clipAuditField(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) > maxAuditFieldBytes {
		return trimmed[:maxAuditFieldBytes]
	}
	return trimmed
}
