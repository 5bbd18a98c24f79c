package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/raman-prints/api/internal/repositories"
)

var (
	// ErrFeedbackInvalidInput signals the caller provided invalid data.
	ErrFeedbackInvalidInput = errors.New("feedback: invalid input")
	// ErrFeedbackNotFound indicates the feedback could not be located.
	ErrFeedbackNotFound = errors.New("feedback: not found")
)

const (
	feedbackIDPrefix   = "fb_"
	maxFeedbackMessage = 2000
)

// FeedbackServiceDeps bundles constructor inputs for the feedback service.
type FeedbackServiceDeps struct {
	Feedback    repositories.FeedbackRepository
	Clock       func() time.Time
	IDGenerator func() string
	Sanitize    func(string) string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type feedbackService struct {
	feedback repositories.FeedbackRepository
	clock    func() time.Time
	newID    func() string
	sanitize func(string) string
	logger   func(context.Context, string, map[string]any)
}

// NewFeedbackService wires dependencies into a concrete FeedbackService implementation.
func NewFeedbackService(deps FeedbackServiceDeps) (FeedbackService, error) {
	if deps.Feedback == nil {
		return nil, errors.New("feedback service: feedback repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return feedbackIDPrefix + ulid.Make().String()
		}
	}

	sanitize := deps.Sanitize
	if sanitize == nil {
		sanitize = strings.TrimSpace
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &feedbackService{
		feedback: deps.Feedback,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:    idGen,
		sanitize: sanitize,
		logger:   logger,
	}, nil
}

func (s *feedbackService) Submit(ctx context.Context, cmd SubmitFeedbackCommand) (Feedback, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return Feedback{}, fmt.Errorf("%w: user id is required", ErrFeedbackInvalidInput)
	}

	message := s.sanitize(cmd.Message)
	if message == "" {
		return Feedback{}, fmt.Errorf("%w: message is required", ErrFeedbackInvalidInput)
	}
	if len(message) > maxFeedbackMessage {
		return Feedback{}, fmt.Errorf("%w: message exceeds %d characters", ErrFeedbackInvalidInput, maxFeedbackMessage)
	}
	if cmd.Rating != nil && (*cmd.Rating < 1 || *cmd.Rating > 5) {
		return Feedback{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrFeedbackInvalidInput)
	}

	now := s.clock()
	fb := Feedback{
		ID:        s.newID(),
		UserID:    userID,
		Message:   message,
		Rating:    cmd.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.feedback.Insert(ctx, fb); err != nil {
		return Feedback{}, s.mapRepositoryError(err)
	}
	return fb, nil
}

func (s *feedbackService) ListForUser(ctx context.Context, userID string) ([]Feedback, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrFeedbackInvalidInput)
	}
	items, err := s.feedback.ListByUser(ctx, uid)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return items, nil
}

func (s *feedbackService) ListAll(ctx context.Context) ([]Feedback, error) {
	items, err := s.feedback.ListAll(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return items, nil
}

func (s *feedbackService) Reply(ctx context.Context, cmd ReplyFeedbackCommand) (Feedback, error) {
	feedbackID := strings.TrimSpace(cmd.FeedbackID)
	if feedbackID == "" {
		return Feedback{}, fmt.Errorf("%w: feedback id is required", ErrFeedbackInvalidInput)
	}
	reply := s.sanitize(cmd.Reply)
	if reply == "" {
		return Feedback{}, fmt.Errorf("%w: reply is required", ErrFeedbackInvalidInput)
	}

	fb, err := s.feedback.FindByID(ctx, feedbackID)
	if err != nil {
		return Feedback{}, s.mapRepositoryError(err)
	}

	now := s.clock()
	fb.AdminReply = reply
	fb.AdminRepliedAt = &now
	fb.UpdatedAt = now
	if err := s.feedback.Update(ctx, fb); err != nil {
		return Feedback{}, s.mapRepositoryError(err)
	}
	return fb, nil
}

func (s *feedbackService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrFeedbackNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("feedback: repository unavailable: %w", err)
		}
	}

	return err
}
