package firestore

import (
	"context"
	"errors"

	"google.golang.org/api/iterator"

	pfirestore "github.com/raman-prints/api/internal/platform/firestore"
	"github.com/raman-prints/api/internal/repositories"
)

// Registry wires the Firestore-backed repositories behind the
// repositories.Registry interface consumed by the DI container.
type Registry struct {
	provider *pfirestore.Provider

	orders    *OrderRepository
	orderLogs *OrderLogRepository
	settings  *SettingsRepository
	users     *UserRepository
	feedback  *FeedbackRepository
	auditLogs *AuditLogRepository
	health    repositories.HealthRepository
}

// NewRegistry constructs all Firestore repositories against one shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	orderLogs, err := NewOrderLogRepository(provider)
	if err != nil {
		return nil, err
	}
	settings, err := NewSettingsRepository(provider)
	if err != nil {
		return nil, err
	}
	users, err := NewUserRepository(provider)
	if err != nil {
		return nil, err
	}
	feedback, err := NewFeedbackRepository(provider)
	if err != nil {
		return nil, err
	}
	auditLogs, err := NewAuditLogRepository(provider)
	if err != nil {
		return nil, err
	}
	health, err := repositories.NewProbeHealthRepository(readinessProbe(provider))
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:  provider,
		orders:    orders,
		orderLogs: orderLogs,
		settings:  settings,
		users:     users,
		feedback:  feedback,
		auditLogs: auditLogs,
		health:    health,
	}, nil
}

// readinessProbe issues a minimal read against the settings collection.
func readinessProbe(provider *pfirestore.Provider) repositories.Probe {
	return func(ctx context.Context) error {
		client, err := provider.Client(ctx)
		if err != nil {
			return err
		}
		iter := client.Collection(settingsCollection).Select().Limit(1).Documents(ctx)
		defer iter.Stop()
		if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
			return pfirestore.WrapError("settings.probe", err)
		}
		return nil
	}
}

// Close releases the shared Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// OrderLogs returns the order ledger repository.
func (r *Registry) OrderLogs() repositories.OrderLogRepository { return r.orderLogs }

// Settings returns the settings repository.
func (r *Registry) Settings() repositories.SettingsRepository { return r.settings }

// Users returns the user directory repository.
func (r *Registry) Users() repositories.UserRepository { return r.users }

// Feedback returns the feedback repository.
func (r *Registry) Feedback() repositories.FeedbackRepository { return r.feedback }

// AuditLogs returns the audit log repository.
func (r *Registry) AuditLogs() repositories.AuditLogRepository { return r.auditLogs }

// Health returns the readiness probe repository.
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// Ensure interface compliance.
var _ repositories.Registry = (*Registry)(nil)
