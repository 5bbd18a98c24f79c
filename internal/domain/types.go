package domain

import (
	"time"
)

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// OrderStatus enumerates fulfillment states for print orders.
type OrderStatus string

const (
	// OrderStatusPending indicates the order has been placed and awaits printing.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusPrinting indicates staff are actively printing the order.
	OrderStatusPrinting OrderStatus = "PRINTING"
	// OrderStatusReady indicates the order is printed and ready for pickup.
	OrderStatusReady OrderStatus = "READY"
	// OrderStatusCompleted indicates the order was handed over to the customer.
	OrderStatusCompleted OrderStatus = "COMPLETED"
	// OrderStatusCancelled indicates the order was cancelled.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus enumerates payment states tracked independently of fulfillment.
type PaymentStatus string

const (
	// PaymentStatusPending indicates an online payment is awaiting gateway confirmation.
	PaymentStatusPending PaymentStatus = "PENDING"
	// PaymentStatusPaid indicates the payment has been received.
	PaymentStatusPaid PaymentStatus = "PAID"
	// PaymentStatusUnpaid indicates a cash-on-delivery order not yet settled.
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	// PaymentStatusFailed indicates the gateway reported a failed payment.
	PaymentStatusFailed PaymentStatus = "FAILED"
)

// PaymentMethod enumerates how a customer pays for an order.
type PaymentMethod string

const (
	// PaymentMethodOnline routes payment through the gateway.
	PaymentMethodOnline PaymentMethod = "ONLINE"
	// PaymentMethodCOD settles in cash when the order is collected.
	PaymentMethodCOD PaymentMethod = "CASH_ON_DELIVERY"
)

// PrintSide selects single- or double-sided printing.
type PrintSide string

const (
	// PrintSideSingle prints on one side of each page.
	PrintSideSingle PrintSide = "SINGLE"
	// PrintSideDouble prints on both sides of each page.
	PrintSideDouble PrintSide = "DOUBLE"
)

// OrderFile describes one uploaded document attached to an order.
type OrderFile struct {
	Name      string
	URL       string
	SizeBytes int64
}

// ServiceLine is a priced service selected on an order (printing, binding, ...).
type ServiceLine struct {
	Name      string
	UnitPrice int64
	Quantity  int
}

// Total returns the line total for the selected quantity.
func (l ServiceLine) Total() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Order is one print job owned by a single user.
type Order struct {
	ID                    string
	UserID                string
	Files                 []OrderFile
	Services              []ServiceLine
	TotalAmount           int64
	PaymentMethod         PaymentMethod
	Status                OrderStatus
	PaymentStatus         PaymentStatus
	PrintSide             PrintSide
	Message               string
	GatewayOrderID        string
	GatewayPaymentID      string
	CancelRequested       bool
	CancelRequestedAt     *time.Time
	CancelApprovedByAdmin bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OrderLogEntry is the append-only ledger record that outlives its order.
type OrderLogEntry struct {
	OrderID     string
	TotalAmount int64
	CreatedAt   time.Time
}

// CatalogItem is a purchasable service in the shop catalog.
type CatalogItem struct {
	Name     string
	Price    int64
	IsActive bool
}

// Settings is the singleton aggregate holding the catalog, availability
// flags, and permanent lifetime counters. Exactly one document exists,
// created lazily on first access.
type Settings struct {
	ServiceItems       []CatalogItem
	IsServiceAvailable bool
	IsCodEnabled       bool
	AdminContactName   string
	AdminContactPhone  string
	TotalOrders        int64
	CompletedOrders    int64
	CancelledOrders    int64
	TotalRevenue       int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CounterDeltas carries increments applied atomically to the Settings counters.
// Zero fields are left untouched.
type CounterDeltas struct {
	TotalOrders     int64
	CompletedOrders int64
	CancelledOrders int64
	TotalRevenue    int64
}

// IsZero reports whether no counter would change.
func (d CounterDeltas) IsZero() bool {
	return d.TotalOrders == 0 && d.CompletedOrders == 0 && d.CancelledOrders == 0 && d.TotalRevenue == 0
}

// Role enumerates account roles.
type Role string

const (
	// RoleUser is a regular customer account.
	RoleUser Role = "USER"
	// RoleAdmin is a staff account with full access.
	RoleAdmin Role = "ADMIN"
)

// UserAccount is the projection of a customer account referenced by orders.
type UserAccount struct {
	ID             string
	FullName       string
	WhatsappNumber string
	Year           string
	Role           Role
	IsVerified     bool
	IsDeleted      bool
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Feedback captures user-submitted feedback with an optional staff reply.
type Feedback struct {
	ID             string
	UserID         string
	Message        string
	Rating         *int
	AdminReply     string
	AdminRepliedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StatsSnapshot is the reconciled dashboard view combining Settings
// counters, the order ledger, and live order queries.
type StatsSnapshot struct {
	TotalOrders          int64
	PendingOrders        int64
	CompletedOrders      int64
	CancelledOrders      int64
	TotalRevenue         int64
	PendingRevenue       int64
	TotalUsers           int64
	VerifiedUsers        int64
	PendingVerifications int64
	RecentOrders         int64
	TodayOrders          int64
}

// UserCounts aggregates user-directory tallies surfaced on the dashboard.
type UserCounts struct {
	Total                int64
	Verified             int64
	PendingVerifications int64
}

// AuditLogEntry stores normalized audit information for admin actions.
type AuditLogEntry struct {
	ID        string
	Actor     string
	Action    string
	TargetRef string
	Metadata  map[string]any
	RequestID string
	CreatedAt time.Time
}

// SignedUploadResponse returns signed URL payloads for document upload flows.
type SignedUploadResponse struct {
	ObjectName string
	URL        string
	ExpiresAt  time.Time
	Method     string
	Headers    map[string]string
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// ValidStatusTransitions is the allowed fulfillment state graph. Counter
// side effects fire on first entry into COMPLETED or CANCELLED; terminal
// states have no outgoing edges.
var ValidStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:  {OrderStatusPrinting, OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusPrinting: {OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusReady:    {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransition reports whether an order may move from current to target.
func CanTransition(current, target OrderStatus) bool {
	if current == target {
		return true
	}
	for _, next := range ValidStatusTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// DefaultCatalog is the seed service catalog used when the Settings
// document is created on first access.
func DefaultCatalog() []CatalogItem {
	return []CatalogItem{
		{Name: "Black & White Printing", Price: 2, IsActive: true},
		{Name: "Color Printing", Price: 5, IsActive: true},
		{Name: "Spiral Binding", Price: 20, IsActive: true},
		{Name: "Lamination (per page)", Price: 10, IsActive: true},
	}
}

// DefaultSettings builds the Settings document written on first access.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		ServiceItems:       DefaultCatalog(),
		IsServiceAvailable: true,
		IsCodEnabled:       true,
		AdminContactName:   "Raman Prints",
		AdminContactPhone:  "+91 98765 43210",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
