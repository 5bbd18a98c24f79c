package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/payments"
	"github.com/raman-prints/api/internal/repositories"
)

var testClock = func() time.Time {
	return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
}

type repoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repoError) Error() string       { return "repo error" }
func (e *repoError) IsNotFound() bool    { return e.notFound }
func (e *repoError) IsConflict() bool    { return e.conflict }
func (e *repoError) IsUnavailable() bool { return e.unavailable }

var (
	errRepoNotFound = &repoError{notFound: true}
	errRepoConflict = &repoError{conflict: true}
)

type stubOrderRepo struct {
	insertFn        func(context.Context, domain.Order) error
	updateFn        func(context.Context, domain.Order) error
	deleteFn        func(context.Context, string) error
	findFn          func(context.Context, string) (domain.Order, error)
	findByGatewayFn func(context.Context, string) (domain.Order, error)
	listFn          func(context.Context, repositories.OrderListFilter) ([]domain.Order, error)
	countFn         func(context.Context, repositories.OrderListFilter) (int64, error)
	sumFn           func(context.Context, repositories.OrderListFilter) (int64, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Delete(ctx context.Context, orderID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, orderID)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error) {
	if s.findByGatewayFn != nil {
		return s.findByGatewayFn(ctx, gatewayOrderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubOrderRepo) Count(ctx context.Context, filter repositories.OrderListFilter) (int64, error) {
	if s.countFn != nil {
		return s.countFn(ctx, filter)
	}
	return 0, nil
}

func (s *stubOrderRepo) SumTotalAmount(ctx context.Context, filter repositories.OrderListFilter) (int64, error) {
	if s.sumFn != nil {
		return s.sumFn(ctx, filter)
	}
	return 0, nil
}

type stubOrderLogRepo struct {
	appendFn     func(context.Context, domain.OrderLogEntry) error
	appendManyFn func(context.Context, []domain.OrderLogEntry) error
	countSinceFn func(context.Context, time.Time) (int64, error)
	countAllFn   func(context.Context) (int64, error)
	findFn       func(context.Context, string) (domain.OrderLogEntry, error)
	purgeFn      func(context.Context) error
}

func (s *stubOrderLogRepo) Append(ctx context.Context, entry domain.OrderLogEntry) error {
	if s.appendFn != nil {
		return s.appendFn(ctx, entry)
	}
	return nil
}

func (s *stubOrderLogRepo) AppendMany(ctx context.Context, entries []domain.OrderLogEntry) error {
	if s.appendManyFn != nil {
		return s.appendManyFn(ctx, entries)
	}
	return nil
}

func (s *stubOrderLogRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	if s.countSinceFn != nil {
		return s.countSinceFn(ctx, since)
	}
	return 0, nil
}

func (s *stubOrderLogRepo) CountAll(ctx context.Context) (int64, error) {
	if s.countAllFn != nil {
		return s.countAllFn(ctx)
	}
	return 0, nil
}

func (s *stubOrderLogRepo) FindByOrderID(ctx context.Context, orderID string) (domain.OrderLogEntry, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.OrderLogEntry{}, errors.New("not implemented")
}

func (s *stubOrderLogRepo) Purge(ctx context.Context) error {
	if s.purgeFn != nil {
		return s.purgeFn(ctx)
	}
	return nil
}

type stubSettingsRepo struct {
	getFn         func(context.Context) (domain.Settings, error)
	applyFn       func(context.Context, domain.CounterDeltas) error
	setCountersFn func(context.Context, int64, int64, int64, int64) error
	saveFn        func(context.Context, domain.Settings) error
}

func (s *stubSettingsRepo) GetOrCreate(ctx context.Context) (domain.Settings, error) {
	if s.getFn != nil {
		return s.getFn(ctx)
	}
	return domain.DefaultSettings(testClock()), nil
}

func (s *stubSettingsRepo) ApplyDeltas(ctx context.Context, deltas domain.CounterDeltas) error {
	if s.applyFn != nil {
		return s.applyFn(ctx, deltas)
	}
	return nil
}

func (s *stubSettingsRepo) SetCounters(ctx context.Context, totalOrders, completedOrders, cancelledOrders, totalRevenue int64) error {
	if s.setCountersFn != nil {
		return s.setCountersFn(ctx, totalOrders, completedOrders, cancelledOrders, totalRevenue)
	}
	return nil
}

func (s *stubSettingsRepo) Save(ctx context.Context, settings domain.Settings) error {
	if s.saveFn != nil {
		return s.saveFn(ctx, settings)
	}
	return nil
}

type stubUserRepo struct {
	findFn        func(context.Context, string) (domain.UserAccount, error)
	listFn        func(context.Context) ([]domain.UserAccount, error)
	setVerifiedFn func(context.Context, string, bool) error
	deleteFn      func(context.Context, string) error
	countsFn      func(context.Context) (domain.UserCounts, error)
}

func (s *stubUserRepo) FindByID(ctx context.Context, userID string) (domain.UserAccount, error) {
	if s.findFn != nil {
		return s.findFn(ctx, userID)
	}
	return domain.UserAccount{}, errors.New("not implemented")
}

func (s *stubUserRepo) List(ctx context.Context) ([]domain.UserAccount, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubUserRepo) SetVerified(ctx context.Context, userID string, verified bool) error {
	if s.setVerifiedFn != nil {
		return s.setVerifiedFn(ctx, userID, verified)
	}
	return nil
}

func (s *stubUserRepo) Delete(ctx context.Context, userID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID)
	}
	return nil
}

func (s *stubUserRepo) Counts(ctx context.Context) (domain.UserCounts, error) {
	if s.countsFn != nil {
		return s.countsFn(ctx)
	}
	return domain.UserCounts{}, nil
}

type stubFeedbackRepo struct {
	insertFn     func(context.Context, domain.Feedback) error
	updateFn     func(context.Context, domain.Feedback) error
	findFn       func(context.Context, string) (domain.Feedback, error)
	listByUserFn func(context.Context, string) ([]domain.Feedback, error)
	listAllFn    func(context.Context) ([]domain.Feedback, error)
}

func (s *stubFeedbackRepo) Insert(ctx context.Context, fb domain.Feedback) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, fb)
	}
	return nil
}

func (s *stubFeedbackRepo) Update(ctx context.Context, fb domain.Feedback) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, fb)
	}
	return nil
}

func (s *stubFeedbackRepo) FindByID(ctx context.Context, feedbackID string) (domain.Feedback, error) {
	if s.findFn != nil {
		return s.findFn(ctx, feedbackID)
	}
	return domain.Feedback{}, errors.New("not implemented")
}

func (s *stubFeedbackRepo) ListByUser(ctx context.Context, userID string) ([]domain.Feedback, error) {
	if s.listByUserFn != nil {
		return s.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (s *stubFeedbackRepo) ListAll(ctx context.Context) ([]domain.Feedback, error) {
	if s.listAllFn != nil {
		return s.listAllFn(ctx)
	}
	return nil, nil
}

type stubGateway struct {
	createFn func(context.Context, payments.GatewayOrderRequest) (payments.GatewayOrder, error)
	verifyFn func(payments.VerificationInput) error
}

func (s *stubGateway) CreateOrder(ctx context.Context, req payments.GatewayOrderRequest) (payments.GatewayOrder, error) {
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return payments.GatewayOrder{ID: "gw_order_stub"}, nil
}

func (s *stubGateway) VerifySignature(input payments.VerificationInput) error {
	if s.verifyFn != nil {
		return s.verifyFn(input)
	}
	return nil
}

type stubPublisher struct {
	events []OrderEvent
	err    error
}

func (s *stubPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	s.events = append(s.events, event)
	return s.err
}

type stubRemover struct {
	removed []string
	err     error
}

func (s *stubRemover) Remove(_ context.Context, url string) error {
	s.removed = append(s.removed, url)
	return s.err
}
