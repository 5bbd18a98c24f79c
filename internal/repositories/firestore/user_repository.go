package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/raman-prints/api/internal/domain"
	pfirestore "github.com/raman-prints/api/internal/platform/firestore"
	"github.com/raman-prints/api/internal/repositories"
)

const usersCollection = "users"

type userDocument struct {
	FullName       string    `firestore:"fullName"`
	WhatsappNumber string    `firestore:"whatsappNumber"`
	Year           string    `firestore:"year,omitempty"`
	Role           string    `firestore:"role"`
	IsVerified     bool      `firestore:"isVerified"`
	IsDeleted      bool      `firestore:"isDeleted"`
	PasswordHash   string    `firestore:"passwordHash,omitempty"`
	CreatedAt      time.Time `firestore:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt"`
}

// UserRepository reads the user directory projection referenced by orders.
type UserRepository struct {
	provider *pfirestore.Provider
	users    *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	return &UserRepository{
		provider: provider,
		users:    pfirestore.NewBaseRepository[userDocument](provider, usersCollection, nil, nil),
	}, nil
}

// FindByID fetches a single user account.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.UserAccount, error) {
	doc, err := r.users.Get(ctx, userID)
	if err != nil {
		return domain.UserAccount{}, err
	}
	return decodeUser(doc.ID, doc.Data), nil
}

// List returns all non-deleted accounts, newest first.
func (r *UserRepository) List(ctx context.Context) ([]domain.UserAccount, error) {
	docs, err := r.users.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("isDeleted", "==", false).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	accounts := make([]domain.UserAccount, 0, len(docs))
	for _, doc := range docs {
		accounts = append(accounts, decodeUser(doc.ID, doc.Data))
	}
	return accounts, nil
}

// SetVerified flips the account verification flag.
func (r *UserRepository) SetVerified(ctx context.Context, userID string, verified bool) error {
	_, err := r.users.Update(ctx, userID, []firestore.Update{
		{Path: "isVerified", Value: verified},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

// Delete soft-deletes the account. Orders referencing it stay intact.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.users.Update(ctx, userID, []firestore.Update{
		{Path: "isDeleted", Value: true},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

// Counts aggregates directory tallies for the admin dashboard.
func (r *UserRepository) Counts(ctx context.Context) (domain.UserCounts, error) {
	total, err := r.users.Count(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("isDeleted", "==", false)
	})
	if err != nil {
		return domain.UserCounts{}, err
	}
	verified, err := r.users.Count(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("isDeleted", "==", false).Where("isVerified", "==", true)
	})
	if err != nil {
		return domain.UserCounts{}, err
	}
	return domain.UserCounts{
		Total:                total,
		Verified:             verified,
		PendingVerifications: total - verified,
	}, nil
}

func decodeUser(id string, doc userDocument) domain.UserAccount {
	return domain.UserAccount{
		ID:             id,
		FullName:       doc.FullName,
		WhatsappNumber: doc.WhatsappNumber,
		Year:           doc.Year,
		Role:           domain.Role(doc.Role),
		IsVerified:     doc.IsVerified,
		IsDeleted:      doc.IsDeleted,
		PasswordHash:   doc.PasswordHash,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.UserRepository = (*UserRepository)(nil)
