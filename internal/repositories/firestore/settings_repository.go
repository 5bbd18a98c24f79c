package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/raman-prints/api/internal/domain"
	pfirestore "github.com/raman-prints/api/internal/platform/firestore"
	"github.com/raman-prints/api/internal/repositories"
)

const (
	settingsCollection = "settings"
	settingsDocID      = "global"
)

type catalogItemDocument struct {
	Name     string `firestore:"name"`
	Price    int64  `firestore:"price"`
	IsActive bool   `firestore:"isActive"`
}

type settingsDocument struct {
	ServiceItems       []catalogItemDocument `firestore:"serviceItems"`
	IsServiceAvailable bool                  `firestore:"isServiceAvailable"`
	IsCodEnabled       bool                  `firestore:"isCodEnabled"`
	AdminContactName   string                `firestore:"adminContactName"`
	AdminContactPhone  string                `firestore:"adminContactPhone"`
	TotalOrders        int64                 `firestore:"totalOrders"`
	CompletedOrders    int64                 `firestore:"completedOrders"`
	CancelledOrders    int64                 `firestore:"cancelledOrders"`
	TotalRevenue       int64                 `firestore:"totalRevenue"`
	CreatedAt          time.Time             `firestore:"createdAt"`
	UpdatedAt          time.Time             `firestore:"updatedAt"`
}

// SettingsRepository manages the singleton settings document holding the
// service catalog, availability flags, and permanent lifetime counters.
type SettingsRepository struct {
	provider *pfirestore.Provider
	settings *pfirestore.BaseRepository[settingsDocument]
}

// NewSettingsRepository constructs a Firestore-backed settings repository.
func NewSettingsRepository(provider *pfirestore.Provider) (*SettingsRepository, error) {
	if provider == nil {
		return nil, errors.New("settings repository requires firestore provider")
	}
	return &SettingsRepository{
		provider: provider,
		settings: pfirestore.NewBaseRepository[settingsDocument](provider, settingsCollection, nil, nil),
	}, nil
}

// GetOrCreate returns the singleton, writing defaults when it does not exist yet.
func (r *SettingsRepository) GetOrCreate(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.settings.DocumentRef(ctx, settingsDocID)
		if err != nil {
			return err
		}

		snapshot, err := tx.Get(ref)
		switch status.Code(err) {
		case codes.NotFound:
			defaults := domain.DefaultSettings(time.Now().UTC())
			if err := tx.Create(ref, encodeSettings(defaults)); err != nil {
				return err
			}
			settings = defaults
			return nil
		case codes.OK:
		default:
			return err
		}

		var doc settingsDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}
		settings = decodeSettings(doc)
		return nil
	})
	if err != nil {
		return domain.Settings{}, pfirestore.WrapError("settings.getOrCreate", err)
	}
	return settings, nil
}

// ApplyDeltas increments counters with firestore.Increment, a single
// atomic document update. The singleton is created first when absent.
func (r *SettingsRepository) ApplyDeltas(ctx context.Context, deltas domain.CounterDeltas) error {
	if deltas.IsZero() {
		return nil
	}

	updates := make([]firestore.Update, 0, 5)
	if deltas.TotalOrders != 0 {
		updates = append(updates, firestore.Update{Path: "totalOrders", Value: firestore.Increment(deltas.TotalOrders)})
	}
	if deltas.CompletedOrders != 0 {
		updates = append(updates, firestore.Update{Path: "completedOrders", Value: firestore.Increment(deltas.CompletedOrders)})
	}
	if deltas.CancelledOrders != 0 {
		updates = append(updates, firestore.Update{Path: "cancelledOrders", Value: firestore.Increment(deltas.CancelledOrders)})
	}
	if deltas.TotalRevenue != 0 {
		updates = append(updates, firestore.Update{Path: "totalRevenue", Value: firestore.Increment(deltas.TotalRevenue)})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})

	_, err := r.settings.Update(ctx, settingsDocID, updates)
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
		return err
	}

	if _, err := r.GetOrCreate(ctx); err != nil {
		return err
	}
	_, err = r.settings.Update(ctx, settingsDocID, updates)
	return err
}

// SetCounters overwrites the counter fields. Used by the stats reset and
// the one-time ledger seed.
func (r *SettingsRepository) SetCounters(ctx context.Context, totalOrders, completedOrders, cancelledOrders, totalRevenue int64) error {
	if _, err := r.GetOrCreate(ctx); err != nil {
		return err
	}
	_, err := r.settings.Update(ctx, settingsDocID, []firestore.Update{
		{Path: "totalOrders", Value: totalOrders},
		{Path: "completedOrders", Value: completedOrders},
		{Path: "cancelledOrders", Value: cancelledOrders},
		{Path: "totalRevenue", Value: totalRevenue},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

// Save replaces catalog, flags, and contact fields. Counters are never
// written here so concurrent increments are not lost.
func (r *SettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	if _, err := r.GetOrCreate(ctx); err != nil {
		return err
	}

	items := make([]catalogItemDocument, 0, len(settings.ServiceItems))
	for _, item := range settings.ServiceItems {
		items = append(items, catalogItemDocument{Name: item.Name, Price: item.Price, IsActive: item.IsActive})
	}
	_, err := r.settings.Update(ctx, settingsDocID, []firestore.Update{
		{Path: "serviceItems", Value: items},
		{Path: "isServiceAvailable", Value: settings.IsServiceAvailable},
		{Path: "isCodEnabled", Value: settings.IsCodEnabled},
		{Path: "adminContactName", Value: settings.AdminContactName},
		{Path: "adminContactPhone", Value: settings.AdminContactPhone},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

func encodeSettings(settings domain.Settings) settingsDocument {
	items := make([]catalogItemDocument, 0, len(settings.ServiceItems))
	for _, item := range settings.ServiceItems {
		items = append(items, catalogItemDocument{Name: item.Name, Price: item.Price, IsActive: item.IsActive})
	}
	return settingsDocument{
		ServiceItems:       items,
		IsServiceAvailable: settings.IsServiceAvailable,
		IsCodEnabled:       settings.IsCodEnabled,
		AdminContactName:   settings.AdminContactName,
		AdminContactPhone:  settings.AdminContactPhone,
		TotalOrders:        settings.TotalOrders,
		CompletedOrders:    settings.CompletedOrders,
		CancelledOrders:    settings.CancelledOrders,
		TotalRevenue:       settings.TotalRevenue,
		CreatedAt:          settings.CreatedAt.UTC(),
		UpdatedAt:          settings.UpdatedAt.UTC(),
	}
}

func decodeSettings(doc settingsDocument) domain.Settings {
	items := make([]domain.CatalogItem, 0, len(doc.ServiceItems))
	for _, item := range doc.ServiceItems {
		items = append(items, domain.CatalogItem{Name: item.Name, Price: item.Price, IsActive: item.IsActive})
	}
	return domain.Settings{
		ServiceItems:       items,
		IsServiceAvailable: doc.IsServiceAvailable,
		IsCodEnabled:       doc.IsCodEnabled,
		AdminContactName:   doc.AdminContactName,
		AdminContactPhone:  doc.AdminContactPhone,
		TotalOrders:        doc.TotalOrders,
		CompletedOrders:    doc.CompletedOrders,
		CancelledOrders:    doc.CancelledOrders,
		TotalRevenue:       doc.TotalRevenue,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.SettingsRepository = (*SettingsRepository)(nil)
