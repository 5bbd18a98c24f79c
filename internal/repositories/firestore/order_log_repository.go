package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/raman-prints/api/internal/domain"
	pfirestore "github.com/raman-prints/api/internal/platform/firestore"
	"github.com/raman-prints/api/internal/repositories"
)

const orderLogsCollection = "orderLogs"

type orderLogDocument struct {
	TotalAmount int64     `firestore:"totalAmount"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

// OrderLogRepository stores the append-only order ledger. Documents are
// keyed by order ID so re-appending an order is a conflict, which makes
// the stats backfill idempotent.
type OrderLogRepository struct {
	provider *pfirestore.Provider
	logs     *pfirestore.BaseRepository[orderLogDocument]
}

// NewOrderLogRepository constructs a Firestore-backed order ledger.
func NewOrderLogRepository(provider *pfirestore.Provider) (*OrderLogRepository, error) {
	if provider == nil {
		return nil, errors.New("order log repository requires firestore provider")
	}
	return &OrderLogRepository{
		provider: provider,
		logs:     pfirestore.NewBaseRepository[orderLogDocument](provider, orderLogsCollection, nil, nil),
	}, nil
}

// Append writes one ledger entry. Appending an order that is already in
// the ledger returns a conflict error.
func (r *OrderLogRepository) Append(ctx context.Context, entry domain.OrderLogEntry) error {
	if strings.TrimSpace(entry.OrderID) == "" {
		return errors.New("order log repository: order id is required")
	}
	_, err := r.logs.Create(ctx, entry.OrderID, orderLogDocument{
		TotalAmount: entry.TotalAmount,
		CreatedAt:   entry.CreatedAt.UTC(),
	})
	return err
}

// AppendMany writes ledger entries in bulk, skipping entries already
// present. Used by the stats backfill.
func (r *OrderLogRepository) AppendMany(ctx context.Context, entries []domain.OrderLogEntry) error {
	for _, entry := range entries {
		err := r.Append(ctx, entry)
		if err == nil {
			continue
		}
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsConflict() {
			continue
		}
		return err
	}
	return nil
}

// CountSince counts ledger entries created at or after the given time.
func (r *OrderLogRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	cutoff := since.UTC()
	return r.logs.Count(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("createdAt", ">=", cutoff)
	})
}

// CountAll counts all ledger entries.
func (r *OrderLogRepository) CountAll(ctx context.Context) (int64, error) {
	return r.logs.Count(ctx, nil)
}

// FindByOrderID fetches the ledger entry for one order.
func (r *OrderLogRepository) FindByOrderID(ctx context.Context, orderID string) (domain.OrderLogEntry, error) {
	doc, err := r.logs.Get(ctx, orderID)
	if err != nil {
		return domain.OrderLogEntry{}, err
	}
	return domain.OrderLogEntry{
		OrderID:     doc.ID,
		TotalAmount: doc.Data.TotalAmount,
		CreatedAt:   doc.Data.CreatedAt,
	}, nil
}

// Purge deletes every ledger entry. Only the stats reset calls this.
func (r *OrderLogRepository) Purge(ctx context.Context) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	coll := client.Collection(orderLogsCollection)
	writer := client.BulkWriter(ctx)

	iter := coll.Select().Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			writer.End()
			return pfirestore.WrapError("orderLogs.purge", err)
		}
		if _, err := writer.Delete(snap.Ref); err != nil {
			writer.End()
			return pfirestore.WrapError("orderLogs.purge", err)
		}
	}

	writer.End()
	return nil
}

// Ensure interface compliance.
var _ repositories.OrderLogRepository = (*OrderLogRepository)(nil)
