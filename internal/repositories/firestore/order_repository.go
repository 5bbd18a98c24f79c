package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/raman-prints/api/internal/domain"
	pfirestore "github.com/raman-prints/api/internal/platform/firestore"
	"github.com/raman-prints/api/internal/repositories"
)

const ordersCollection = "orders"

type orderFileDocument struct {
	Name      string `firestore:"name"`
	URL       string `firestore:"url"`
	SizeBytes int64  `firestore:"sizeBytes"`
}

type serviceLineDocument struct {
	Name      string `firestore:"name"`
	UnitPrice int64  `firestore:"unitPrice"`
	Quantity  int    `firestore:"quantity"`
}

type orderDocument struct {
	UserID                string                `firestore:"userId"`
	Files                 []orderFileDocument   `firestore:"files"`
	Services              []serviceLineDocument `firestore:"services"`
	TotalAmount           int64                 `firestore:"totalAmount"`
	PaymentMethod         string                `firestore:"paymentMethod"`
	Status                string                `firestore:"status"`
	PaymentStatus         string                `firestore:"paymentStatus"`
	PrintSide             string                `firestore:"printSide"`
	Message               string                `firestore:"message,omitempty"`
	GatewayOrderID        string                `firestore:"gatewayOrderId,omitempty"`
	GatewayPaymentID      string                `firestore:"gatewayPaymentId,omitempty"`
	CancelRequested       bool                  `firestore:"cancelRequested"`
	CancelRequestedAt     *time.Time            `firestore:"cancelRequestedAt,omitempty"`
	CancelApprovedByAdmin bool                  `firestore:"cancelApprovedByAdmin"`
	CreatedAt             time.Time             `firestore:"createdAt"`
	UpdatedAt             time.Time             `firestore:"updatedAt"`
}

// OrderRepository implements repositories.OrderRepository backed by Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		orders:   pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil),
	}, nil
}

// Insert writes a new order document, failing when the ID already exists.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.orders.Create(ctx, order.ID, encodeOrder(order))
	return err
}

// Update replaces the stored order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.orders.Set(ctx, order.ID, encodeOrder(order))
	return err
}

// Delete removes the order document. The order ledger is never touched here.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	return r.orders.Delete(ctx, orderID)
}

// FindByID fetches a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrder(doc.ID, doc.Data), nil
}

// FindByGatewayOrderID resolves the order holding the given gateway order handle.
func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error) {
	id := strings.TrimSpace(gatewayOrderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: gateway order id is required")
	}
	docs, err := r.orders.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("gatewayOrderId", "==", id).Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(docs) == 0 {
		return domain.Order{}, pfirestore.WrapError("orders.findByGatewayOrderId", status.Error(codes.NotFound, "order not found"))
	}
	return decodeOrder(docs[0].ID, docs[0].Data), nil
}

// List returns orders matching the filter, ordered by creation time.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	docs, err := r.orders.Query(ctx, orderQueryBuilder(filter, true))
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrder(doc.ID, doc.Data))
	}
	return orders, nil
}

// Count returns the number of orders matching the filter using a server-side aggregation.
func (r *OrderRepository) Count(ctx context.Context, filter repositories.OrderListFilter) (int64, error) {
	return r.orders.Count(ctx, orderQueryBuilder(filter, false))
}

// SumTotalAmount aggregates totalAmount over orders matching the filter.
func (r *OrderRepository) SumTotalAmount(ctx context.Context, filter repositories.OrderListFilter) (int64, error) {
	return r.orders.Sum(ctx, "totalAmount", orderQueryBuilder(filter, false))
}

func orderQueryBuilder(filter repositories.OrderListFilter, ordered bool) pfirestore.QueryBuilder {
	return func(query firestore.Query) firestore.Query {
		if uid := strings.TrimSpace(filter.UserID); uid != "" {
			query = query.Where("userId", "==", uid)
		}
		if len(filter.Status) == 1 {
			query = query.Where("status", "==", string(filter.Status[0]))
		} else if len(filter.Status) > 1 {
			query = query.Where("status", "in", statusValues(filter.Status))
		}
		if len(filter.PaymentStatus) == 1 {
			query = query.Where("paymentStatus", "==", string(filter.PaymentStatus[0]))
		} else if len(filter.PaymentStatus) > 1 {
			query = query.Where("paymentStatus", "in", paymentStatusValues(filter.PaymentStatus))
		}
		if filter.CreatedAfter != nil {
			query = query.Where("createdAt", ">=", filter.CreatedAfter.UTC())
		}
		if ordered {
			direction := firestore.Desc
			if filter.Sort == domain.SortAsc {
				direction = firestore.Asc
			}
			query = query.OrderBy("createdAt", direction)
		}
		return query
	}
}

func statusValues(statuses []domain.OrderStatus) []string {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	return values
}

func paymentStatusValues(statuses []domain.PaymentStatus) []string {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	return values
}

func encodeOrder(order domain.Order) orderDocument {
	files := make([]orderFileDocument, 0, len(order.Files))
	for _, f := range order.Files {
		files = append(files, orderFileDocument{Name: f.Name, URL: f.URL, SizeBytes: f.SizeBytes})
	}
	services := make([]serviceLineDocument, 0, len(order.Services))
	for _, s := range order.Services {
		services = append(services, serviceLineDocument{Name: s.Name, UnitPrice: s.UnitPrice, Quantity: s.Quantity})
	}
	doc := orderDocument{
		UserID:                order.UserID,
		Files:                 files,
		Services:              services,
		TotalAmount:           order.TotalAmount,
		PaymentMethod:         string(order.PaymentMethod),
		Status:                string(order.Status),
		PaymentStatus:         string(order.PaymentStatus),
		PrintSide:             string(order.PrintSide),
		Message:               order.Message,
		GatewayOrderID:        order.GatewayOrderID,
		GatewayPaymentID:      order.GatewayPaymentID,
		CancelRequested:       order.CancelRequested,
		CancelApprovedByAdmin: order.CancelApprovedByAdmin,
		CreatedAt:             order.CreatedAt.UTC(),
		UpdatedAt:             order.UpdatedAt.UTC(),
	}
	if order.CancelRequestedAt != nil {
		at := order.CancelRequestedAt.UTC()
		doc.CancelRequestedAt = &at
	}
	return doc
}

func decodeOrder(id string, doc orderDocument) domain.Order {
	files := make([]domain.OrderFile, 0, len(doc.Files))
	for _, f := range doc.Files {
		files = append(files, domain.OrderFile{Name: f.Name, URL: f.URL, SizeBytes: f.SizeBytes})
	}
	services := make([]domain.ServiceLine, 0, len(doc.Services))
	for _, s := range doc.Services {
		services = append(services, domain.ServiceLine{Name: s.Name, UnitPrice: s.UnitPrice, Quantity: s.Quantity})
	}
	return domain.Order{
		ID:                    id,
		UserID:                doc.UserID,
		Files:                 files,
		Services:              services,
		TotalAmount:           doc.TotalAmount,
		PaymentMethod:         domain.PaymentMethod(doc.PaymentMethod),
		Status:                domain.OrderStatus(doc.Status),
		PaymentStatus:         domain.PaymentStatus(doc.PaymentStatus),
		PrintSide:             domain.PrintSide(doc.PrintSide),
		Message:               doc.Message,
		GatewayOrderID:        doc.GatewayOrderID,
		GatewayPaymentID:      doc.GatewayPaymentID,
		CancelRequested:       doc.CancelRequested,
		CancelRequestedAt:     doc.CancelRequestedAt,
		CancelApprovedByAdmin: doc.CancelApprovedByAdmin,
		CreatedAt:             doc.CreatedAt,
		UpdatedAt:             doc.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.OrderRepository = (*OrderRepository)(nil)
