package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/repositories"
)

var (
	// ErrStatsInvalidInput signals the caller provided invalid data.
	ErrStatsInvalidInput = errors.New("stats: invalid input")
	// ErrStatsForbidden indicates the acting admin failed re-verification.
	ErrStatsForbidden = errors.New("stats: forbidden")
)

const recentWindow = 24 * time.Hour

// StatsServiceDeps bundles constructor inputs for the stats service.
type StatsServiceDeps struct {
	Orders    repositories.OrderRepository
	OrderLogs repositories.OrderLogRepository
	Settings  repositories.SettingsRepository
	Users     repositories.UserRepository
	// VerifyPassword compares a stored hash against a plaintext password.
	VerifyPassword func(hash, password string) error
	Clock          func() time.Time
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type statsService struct {
	orders         repositories.OrderRepository
	orderLogs      repositories.OrderLogRepository
	settings       repositories.SettingsRepository
	users          repositories.UserRepository
	verifyPassword func(hash, password string) error
	clock          func() time.Time
	logger         func(context.Context, string, map[string]any)
}

// NewStatsService wires dependencies into a concrete StatsService implementation.
func NewStatsService(deps StatsServiceDeps) (StatsService, error) {
	if deps.Orders == nil {
		return nil, errors.New("stats service: order repository is required")
	}
	if deps.OrderLogs == nil {
		return nil, errors.New("stats service: order log repository is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("stats service: settings repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("stats service: user repository is required")
	}

	verify := deps.VerifyPassword
	if verify == nil {
		verify = func(hash, password string) error {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &statsService{
		orders:         deps.Orders,
		orderLogs:      deps.OrderLogs,
		settings:       deps.Settings,
		users:          deps.Users,
		verifyPassword: verify,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// statsSources carries the raw tallies fed into reconcileStats.
type statsSources struct {
	CounterTotalOrders     int64
	CounterCompletedOrders int64
	CounterCancelledOrders int64
	CounterTotalRevenue    int64

	LedgerTotal  int64
	LedgerRecent int64
	LedgerToday  int64

	LiveTotal     int64
	LiveCompleted int64
	LiveCancelled int64
	LiveRevenue   int64
	LiveRecent    int64
	LiveToday     int64

	PendingOrders  int64
	PendingRevenue int64

	Users UserCounts
}

// reconcileStats merges the permanent counters, the order ledger, and
// live order tallies into one snapshot. Counters win when present; the
// ledger covers deleted orders; live queries are the fallback for
// installations predating the counters.
func reconcileStats(src statsSources) StatsSnapshot {
	useLedger := src.LedgerTotal > 0

	snapshot := StatsSnapshot{
		PendingOrders:        src.PendingOrders,
		PendingRevenue:       src.PendingRevenue,
		TotalUsers:           src.Users.Total,
		VerifiedUsers:        src.Users.Verified,
		PendingVerifications: src.Users.PendingVerifications,
	}

	snapshot.TotalOrders = src.CounterTotalOrders
	if snapshot.TotalOrders == 0 {
		if useLedger {
			snapshot.TotalOrders = src.LedgerTotal
		} else {
			snapshot.TotalOrders = src.LiveTotal
		}
	}

	snapshot.CompletedOrders = src.CounterCompletedOrders
	if snapshot.CompletedOrders == 0 {
		snapshot.CompletedOrders = src.LiveCompleted
	}

	snapshot.CancelledOrders = src.CounterCancelledOrders
	if snapshot.CancelledOrders == 0 {
		snapshot.CancelledOrders = src.LiveCancelled
	}

	snapshot.TotalRevenue = src.CounterTotalRevenue
	if snapshot.TotalRevenue == 0 {
		snapshot.TotalRevenue = src.LiveRevenue
	}

	if useLedger {
		snapshot.RecentOrders = src.LedgerRecent
		snapshot.TodayOrders = src.LedgerToday
	} else {
		snapshot.RecentOrders = src.LiveRecent
		snapshot.TodayOrders = src.LiveToday
	}

	return snapshot
}

func (s *statsService) GetStats(ctx context.Context) (StatsSnapshot, error) {
	now := s.clock()
	recentCutoff := now.Add(-recentWindow)
	todayCutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ledgerTotal, err := s.orderLogs.CountAll(ctx)
	if err != nil {
		return StatsSnapshot{}, err
	}
	liveTotal, err := s.orders.Count(ctx, repositories.OrderListFilter{})
	if err != nil {
		return StatsSnapshot{}, err
	}

	// Self-heal: an empty ledger with live orders means entries were
	// lost or the ledger predates this deployment. Rebuild it from the
	// surviving orders; duplicates are skipped by construction.
	if ledgerTotal == 0 && liveTotal > 0 {
		if err := s.backfillLedger(ctx); err != nil {
			s.logger(ctx, "stats.backfill_failed", map[string]any{"error": err.Error()})
		} else if ledgerTotal, err = s.orderLogs.CountAll(ctx); err != nil {
			return StatsSnapshot{}, err
		}
	}

	src := statsSources{LedgerTotal: ledgerTotal, LiveTotal: liveTotal}

	if ledgerTotal > 0 {
		if src.LedgerRecent, err = s.orderLogs.CountSince(ctx, recentCutoff); err != nil {
			return StatsSnapshot{}, err
		}
		if src.LedgerToday, err = s.orderLogs.CountSince(ctx, todayCutoff); err != nil {
			return StatsSnapshot{}, err
		}
	} else {
		if src.LiveRecent, err = s.orders.Count(ctx, repositories.OrderListFilter{CreatedAfter: &recentCutoff}); err != nil {
			return StatsSnapshot{}, err
		}
		if src.LiveToday, err = s.orders.Count(ctx, repositories.OrderListFilter{CreatedAfter: &todayCutoff}); err != nil {
			return StatsSnapshot{}, err
		}
	}

	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return StatsSnapshot{}, err
	}

	// Seed the permanent total once: from the ledger when it is usable,
	// else from the live order count.
	if settings.TotalOrders == 0 && (ledgerTotal > 0 || liveTotal > 0) {
		seed := liveTotal
		if ledgerTotal > 0 {
			seed = ledgerTotal
		}
		if err := s.settings.SetCounters(ctx, seed, settings.CompletedOrders, settings.CancelledOrders, settings.TotalRevenue); err != nil {
			s.logger(ctx, "stats.seed_total_failed", map[string]any{"error": err.Error()})
		} else {
			settings.TotalOrders = seed
		}
	}

	src.CounterTotalOrders = settings.TotalOrders
	src.CounterCompletedOrders = settings.CompletedOrders
	src.CounterCancelledOrders = settings.CancelledOrders
	src.CounterTotalRevenue = settings.TotalRevenue

	if src.CounterCompletedOrders == 0 {
		if src.LiveCompleted, err = s.orders.Count(ctx, repositories.OrderListFilter{
			Status: []domain.OrderStatus{domain.OrderStatusCompleted},
		}); err != nil {
			return StatsSnapshot{}, err
		}
	}
	if src.CounterCancelledOrders == 0 {
		if src.LiveCancelled, err = s.orders.Count(ctx, repositories.OrderListFilter{
			Status: []domain.OrderStatus{domain.OrderStatusCancelled},
		}); err != nil {
			return StatsSnapshot{}, err
		}
	}
	if src.CounterTotalRevenue == 0 {
		if src.LiveRevenue, err = s.orders.SumTotalAmount(ctx, repositories.OrderListFilter{
			Status:        []domain.OrderStatus{domain.OrderStatusCompleted},
			PaymentStatus: []domain.PaymentStatus{domain.PaymentStatusPaid},
		}); err != nil {
			return StatsSnapshot{}, err
		}
	}

	if src.PendingOrders, err = s.orders.Count(ctx, repositories.OrderListFilter{
		Status: []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusPrinting},
	}); err != nil {
		return StatsSnapshot{}, err
	}
	if src.PendingRevenue, err = s.orders.SumTotalAmount(ctx, repositories.OrderListFilter{
		PaymentStatus: []domain.PaymentStatus{domain.PaymentStatusUnpaid, domain.PaymentStatusPending},
	}); err != nil {
		return StatsSnapshot{}, err
	}

	if src.Users, err = s.users.Counts(ctx); err != nil {
		return StatsSnapshot{}, err
	}

	return reconcileStats(src), nil
}

func (s *statsService) backfillLedger(ctx context.Context) error {
	orders, err := s.orders.List(ctx, repositories.OrderListFilter{Sort: domain.SortAsc})
	if err != nil {
		return err
	}
	entries := make([]OrderLogEntry, 0, len(orders))
	for _, order := range orders {
		entries = append(entries, OrderLogEntry{
			OrderID:     order.ID,
			TotalAmount: order.TotalAmount,
			CreatedAt:   order.CreatedAt,
		})
	}
	if err := s.orderLogs.AppendMany(ctx, entries); err != nil {
		return err
	}
	s.logger(ctx, "stats.ledger_backfilled", map[string]any{"entries": len(entries)})
	return nil
}

// ResetStats wipes the ledger and zeroes every permanent counter after
// re-verifying the acting admin's password.
func (s *statsService) ResetStats(ctx context.Context, cmd ResetStatsCommand) error {
	adminID := strings.TrimSpace(cmd.AdminID)
	if adminID == "" {
		return fmt.Errorf("%w: admin id is required", ErrStatsInvalidInput)
	}
	if cmd.Password == "" {
		return fmt.Errorf("%w: password is required", ErrStatsInvalidInput)
	}

	admin, err := s.users.FindByID(ctx, adminID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return ErrStatsForbidden
		}
		return err
	}
	if admin.Role != domain.RoleAdmin || admin.IsDeleted {
		return ErrStatsForbidden
	}
	if admin.PasswordHash == "" || s.verifyPassword(admin.PasswordHash, cmd.Password) != nil {
		return ErrStatsForbidden
	}

	if err := s.orderLogs.Purge(ctx); err != nil {
		return err
	}
	if err := s.settings.SetCounters(ctx, 0, 0, 0, 0); err != nil {
		return err
	}

	s.logger(ctx, "stats.reset", map[string]any{"admin_id": adminID})
	return nil
}
