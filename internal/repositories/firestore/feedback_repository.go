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

const feedbackCollection = "feedback"

type feedbackDocument struct {
	UserID         string     `firestore:"userId"`
	Message        string     `firestore:"message"`
	Rating         *int       `firestore:"rating,omitempty"`
	AdminReply     string     `firestore:"adminReply,omitempty"`
	AdminRepliedAt *time.Time `firestore:"adminRepliedAt,omitempty"`
	CreatedAt      time.Time  `firestore:"createdAt"`
	UpdatedAt      time.Time  `firestore:"updatedAt"`
}

// FeedbackRepository persists user feedback and staff replies.
type FeedbackRepository struct {
	provider *pfirestore.Provider
	feedback *pfirestore.BaseRepository[feedbackDocument]
}

// NewFeedbackRepository constructs a Firestore-backed feedback repository.
func NewFeedbackRepository(provider *pfirestore.Provider) (*FeedbackRepository, error) {
	if provider == nil {
		return nil, errors.New("feedback repository requires firestore provider")
	}
	return &FeedbackRepository{
		provider: provider,
		feedback: pfirestore.NewBaseRepository[feedbackDocument](provider, feedbackCollection, nil, nil),
	}, nil
}

// Insert writes a new feedback document.
func (r *FeedbackRepository) Insert(ctx context.Context, fb domain.Feedback) error {
	if strings.TrimSpace(fb.ID) == "" {
		return errors.New("feedback repository: feedback id is required")
	}
	_, err := r.feedback.Create(ctx, fb.ID, encodeFeedback(fb))
	return err
}

// Update replaces the stored feedback document.
func (r *FeedbackRepository) Update(ctx context.Context, fb domain.Feedback) error {
	if strings.TrimSpace(fb.ID) == "" {
		return errors.New("feedback repository: feedback id is required")
	}
	_, err := r.feedback.Set(ctx, fb.ID, encodeFeedback(fb))
	return err
}

// FindByID fetches one feedback document.
func (r *FeedbackRepository) FindByID(ctx context.Context, feedbackID string) (domain.Feedback, error) {
	doc, err := r.feedback.Get(ctx, feedbackID)
	if err != nil {
		return domain.Feedback{}, err
	}
	return decodeFeedback(doc.ID, doc.Data), nil
}

// ListByUser returns one user's feedback, newest first.
func (r *FeedbackRepository) ListByUser(ctx context.Context, userID string) ([]domain.Feedback, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("feedback repository: user id is required")
	}
	docs, err := r.feedback.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("userId", "==", uid).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	return decodeFeedbackDocs(docs), nil
}

// ListAll returns every feedback document for moderation, newest first.
func (r *FeedbackRepository) ListAll(ctx context.Context) ([]domain.Feedback, error) {
	docs, err := r.feedback.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	return decodeFeedbackDocs(docs), nil
}

func decodeFeedbackDocs(docs []pfirestore.Document[feedbackDocument]) []domain.Feedback {
	items := make([]domain.Feedback, 0, len(docs))
	for _, doc := range docs {
		items = append(items, decodeFeedback(doc.ID, doc.Data))
	}
	return items
}

func encodeFeedback(fb domain.Feedback) feedbackDocument {
	doc := feedbackDocument{
		UserID:     fb.UserID,
		Message:    fb.Message,
		Rating:     fb.Rating,
		AdminReply: fb.AdminReply,
		CreatedAt:  fb.CreatedAt.UTC(),
		UpdatedAt:  fb.UpdatedAt.UTC(),
	}
	if fb.AdminRepliedAt != nil {
		at := fb.AdminRepliedAt.UTC()
		doc.AdminRepliedAt = &at
	}
	return doc
}

func decodeFeedback(id string, doc feedbackDocument) domain.Feedback {
	return domain.Feedback{
		ID:             id,
		UserID:         doc.UserID,
		Message:        doc.Message,
		Rating:         doc.Rating,
		AdminReply:     doc.AdminReply,
		AdminRepliedAt: doc.AdminRepliedAt,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.FeedbackRepository = (*FeedbackRepository)(nil)
