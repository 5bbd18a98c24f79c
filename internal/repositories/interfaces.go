package repositories

import (
	"context"
	"time"

	domain "github.com/raman-prints/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	OrderLogs() OrderLogRepository
	Settings() SettingsRepository
	Users() UserRepository
	Feedback() FeedbackRepository
	AuditLogs() AuditLogRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	UserID        string
	Status        []domain.OrderStatus
	PaymentStatus []domain.PaymentStatus
	CreatedAfter  *time.Time
	Sort          domain.SortOrder
}

// OrderRepository persists order documents.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
	Count(ctx context.Context, filter OrderListFilter) (int64, error)
	SumTotalAmount(ctx context.Context, filter OrderListFilter) (int64, error)
}

// OrderLogRepository owns the append-only order ledger. Entries are keyed
// by order ID so repeated appends for the same order are idempotent.
type OrderLogRepository interface {
	Append(ctx context.Context, entry domain.OrderLogEntry) error
	AppendMany(ctx context.Context, entries []domain.OrderLogEntry) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	FindByOrderID(ctx context.Context, orderID string) (domain.OrderLogEntry, error)
	Purge(ctx context.Context) error
}

// SettingsRepository manages the singleton settings aggregate.
type SettingsRepository interface {
	// GetOrCreate returns the singleton, writing defaults when absent.
	GetOrCreate(ctx context.Context) (domain.Settings, error)
	// ApplyDeltas atomically increments counters on the singleton,
	// creating it with defaults first when absent.
	ApplyDeltas(ctx context.Context, deltas domain.CounterDeltas) error
	// SetCounters overwrites counter values (stats reset / backfill seed).
	SetCounters(ctx context.Context, totalOrders, completedOrders, cancelledOrders, totalRevenue int64) error
	// Save replaces catalog, flags, and contact fields, leaving counters untouched.
	Save(ctx context.Context, settings domain.Settings) error
}

// UserRepository reads the user directory and supports the thin admin surface.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (domain.UserAccount, error)
	List(ctx context.Context) ([]domain.UserAccount, error)
	SetVerified(ctx context.Context, userID string, verified bool) error
	Delete(ctx context.Context, userID string) error
	Counts(ctx context.Context) (domain.UserCounts, error)
}

// FeedbackRepository persists user feedback and staff replies.
type FeedbackRepository interface {
	Insert(ctx context.Context, fb domain.Feedback) error
	Update(ctx context.Context, fb domain.Feedback) error
	FindByID(ctx context.Context, feedbackID string) (domain.Feedback, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Feedback, error)
	ListAll(ctx context.Context) ([]domain.Feedback, error)
}

// AuditLogRepository stores admin action audit entries.
type AuditLogRepository interface {
	Insert(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, limit int) ([]domain.AuditLogEntry, error)
}

// HealthRepository probes the backing store for liveness checks.
type HealthRepository interface {
	CheckReadiness(ctx context.Context) error
}
