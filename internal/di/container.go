package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/raman-prints/api/internal/payments"
	"github.com/raman-prints/api/internal/platform/config"
	"github.com/raman-prints/api/internal/repositories"
	"github.com/raman-prints/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Orders   services.OrderService
	Payments services.PaymentService
	Settings services.SettingsService
	Stats    services.StatsService
	Feedback services.FeedbackService
	Users    services.UserService
	Audit    services.AuditLogService
}

// ContainerDeps carries the infrastructure adapters wired outside the container.
type ContainerDeps struct {
	Registry repositories.Registry
	Gateway  payments.Provider
	Events   services.OrderEventPublisher
	Files    services.StoredFileRemover
	Sanitize func(string) string
	Logger   *zap.Logger
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations, while tests can supply in-memory registries and stub adapters.
func NewContainer(_ context.Context, cfg config.Config, deps ContainerDeps) (*Container, error) {
	if deps.Registry == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: deps.Registry,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(deps ContainerDeps) (Services, error) {
	reg := deps.Registry

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logFn := eventLogger(logger)

	var svc Services

	auditSvc, err := services.NewAuditLogService(services.AuditLogServiceDeps{
		Repository: reg.AuditLogs(),
		Clock:      time.Now,
		Logger:     logger.Sugar(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build audit log service: %w", err)
	}
	svc.Audit = auditSvc

	userSvc, err := services.NewUserService(services.UserServiceDeps{
		Users:  reg.Users(),
		Logger: logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build user service: %w", err)
	}
	svc.Users = userSvc

	settingsSvc, err := services.NewSettingsService(services.SettingsServiceDeps{
		Settings: reg.Settings(),
		Clock:    time.Now,
		Sanitize: deps.Sanitize,
		Logger:   logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build settings service: %w", err)
	}
	svc.Settings = settingsSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:    reg.Orders(),
		OrderLogs: reg.OrderLogs(),
		Settings:  reg.Settings(),
		Gateway:   deps.Gateway,
		Files:     deps.Files,
		Events:    deps.Events,
		Clock:     time.Now,
		Sanitize:  deps.Sanitize,
		Logger:    logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	paymentSvc, err := services.NewPaymentService(services.PaymentServiceDeps{
		Orders:   reg.Orders(),
		Settings: reg.Settings(),
		Gateway:  deps.Gateway,
		Events:   deps.Events,
		Clock:    time.Now,
		Logger:   logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build payment service: %w", err)
	}
	svc.Payments = paymentSvc

	statsSvc, err := services.NewStatsService(services.StatsServiceDeps{
		Orders:    reg.Orders(),
		OrderLogs: reg.OrderLogs(),
		Settings:  reg.Settings(),
		Users:     reg.Users(),
		Clock:     time.Now,
		Logger:    logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build stats service: %w", err)
	}
	svc.Stats = statsSvc

	feedbackSvc, err := services.NewFeedbackService(services.FeedbackServiceDeps{
		Feedback: reg.Feedback(),
		Clock:    time.Now,
		Sanitize: deps.Sanitize,
		Logger:   logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build feedback service: %w", err)
	}
	svc.Feedback = feedbackSvc

	return svc, nil
}

func eventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(event, zapFields...)
	}
}
