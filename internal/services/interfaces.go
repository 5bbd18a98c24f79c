package services

import (
	"context"
	"time"

	domain "github.com/raman-prints/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	SortOrder     = domain.SortOrder
	Order         = domain.Order
	OrderStatus   = domain.OrderStatus
	PaymentStatus = domain.PaymentStatus
	PaymentMethod = domain.PaymentMethod
	PrintSide     = domain.PrintSide
	OrderFile     = domain.OrderFile
	ServiceLine   = domain.ServiceLine
	OrderLogEntry = domain.OrderLogEntry
	CatalogItem   = domain.CatalogItem
	Settings      = domain.Settings
	CounterDeltas = domain.CounterDeltas
	StatsSnapshot = domain.StatsSnapshot
	UserAccount   = domain.UserAccount
	UserCounts    = domain.UserCounts
	Feedback      = domain.Feedback
	AuditLogEntry = domain.AuditLogEntry
	Role          = domain.Role
)

// CreateOrderCommand carries the payload for placing a new order.
type CreateOrderCommand struct {
	UserID        string
	Files         []OrderFile
	Services      []ServiceLine
	DeclaredTotal int64
	PaymentMethod PaymentMethod
	PrintSide     PrintSide
	Message       string
}

// OrderListFilter narrows order listings on the service surface.
type OrderListFilter struct {
	UserID        string
	Status        []OrderStatus
	PaymentStatus []PaymentStatus
	Sort          SortOrder
}

// OrderReadOptions scopes a single-order read to the requesting identity.
type OrderReadOptions struct {
	RequesterID string
	AdminAccess bool
}

// ChangeOrderStatusCommand moves an order through the fulfillment pipeline.
type ChangeOrderStatusCommand struct {
	OrderID string
	Target  OrderStatus
	Actor   string
}

// CancelRequestCommand carries a user-initiated cancellation request or its undo.
type CancelRequestCommand struct {
	OrderID string
	UserID  string
}

// ApproveCancelCommand locks a cancellation request and cancels the order.
type ApproveCancelCommand struct {
	OrderID string
	Actor   string
}

// DeleteOrderCommand removes an order and its stored files.
type DeleteOrderCommand struct {
	OrderID string
	Actor   string
}

// OrderService encapsulates the order lifecycle, cancellation workflow, and counter side effects.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error)
	GetOrder(ctx context.Context, orderID string, opts OrderReadOptions) (Order, error)
	ChangeStatus(ctx context.Context, cmd ChangeOrderStatusCommand) (Order, error)
	RequestCancel(ctx context.Context, cmd CancelRequestCommand) (Order, error)
	UndoCancelRequest(ctx context.Context, cmd CancelRequestCommand) (Order, error)
	ApproveCancel(ctx context.Context, cmd ApproveCancelCommand) (Order, error)
	DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) error
}

// VerifyPaymentCommand carries the gateway callback fields.
type VerifyPaymentCommand struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// MarkPaidCommand settles a cash order.
type MarkPaidCommand struct {
	OrderID string
	Actor   string
}

// PaymentService verifies gateway callbacks and settles cash orders,
// recognising revenue exactly once.
type PaymentService interface {
	VerifyOnlinePayment(ctx context.Context, cmd VerifyPaymentCommand) (Order, error)
	MarkCodPaid(ctx context.Context, cmd MarkPaidCommand) (Order, error)
}

// UpdateSettingsCommand patches shop flags, contact fields, and optionally the full catalog.
type UpdateSettingsCommand struct {
	IsServiceAvailable *bool
	IsCodEnabled       *bool
	AdminContactName   *string
	AdminContactPhone  *string
	ServiceItems       *[]CatalogItem
}

// CatalogItemCommand adds or updates one catalog entry. Nil fields are
// left unchanged on update.
type CatalogItemCommand struct {
	Name     string
	Price    *int64
	IsActive *bool
}

// SettingsService manages the shop settings singleton and its service catalog.
type SettingsService interface {
	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, cmd UpdateSettingsCommand) (Settings, error)
	AddCatalogItem(ctx context.Context, cmd CatalogItemCommand) (Settings, error)
	UpdateCatalogItem(ctx context.Context, index int, cmd CatalogItemCommand) (Settings, error)
	RemoveCatalogItem(ctx context.Context, index int) (Settings, error)
}

// ResetStatsCommand re-verifies the acting admin before wiping statistics.
type ResetStatsCommand struct {
	AdminID  string
	Password string
}

// StatsService reconciles the dashboard statistics and owns the reset flow.
type StatsService interface {
	GetStats(ctx context.Context) (StatsSnapshot, error)
	ResetStats(ctx context.Context, cmd ResetStatsCommand) error
}

// SubmitFeedbackCommand carries new user feedback.
type SubmitFeedbackCommand struct {
	UserID  string
	Message string
	Rating  *int
}

// ReplyFeedbackCommand attaches a staff reply to existing feedback.
type ReplyFeedbackCommand struct {
	FeedbackID string
	Reply      string
	Actor      string
}

// FeedbackService manages user feedback and staff moderation.
type FeedbackService interface {
	Submit(ctx context.Context, cmd SubmitFeedbackCommand) (Feedback, error)
	ListForUser(ctx context.Context, userID string) ([]Feedback, error)
	ListAll(ctx context.Context) ([]Feedback, error)
	Reply(ctx context.Context, cmd ReplyFeedbackCommand) (Feedback, error)
}

// UserService exposes the thin user directory surface and the
// active-account gate applied at order placement.
type UserService interface {
	RequireActiveUser(ctx context.Context, userID string) (UserAccount, error)
	ListUsers(ctx context.Context) ([]UserAccount, error)
	SetVerified(ctx context.Context, userID string, verified bool) (UserAccount, error)
	DeleteUser(ctx context.Context, userID string) error
	Counts(ctx context.Context) (UserCounts, error)
}

// AuditLogRecord captures one admin action before normalisation.
type AuditLogRecord struct {
	Actor      string
	Action     string
	TargetRef  string
	Metadata   map[string]any
	RequestID  string
	OccurredAt time.Time
}

// AuditLogService records admin actions. Failures never interrupt the primary mutation.
type AuditLogService interface {
	Record(ctx context.Context, record AuditLogRecord)
	List(ctx context.Context, limit int) ([]AuditLogEntry, error)
}

// OrderEvent is the payload published on order lifecycle changes.
type OrderEvent struct {
	Type          string
	OrderID       string
	UserID        string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Amount        int64
	OccurredAt    time.Time
}

// Order event types.
const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status_changed"
	OrderEventPaymentPaid   = "order.payment_paid"
	OrderEventDeleted       = "order.deleted"
)

// OrderEventPublisher fans order lifecycle events out to interested consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// StoredFileRemover deletes an uploaded object referenced by an order file URL.
type StoredFileRemover interface {
	Remove(ctx context.Context, url string) error
}
