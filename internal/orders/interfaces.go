package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines persistence for the orders table and its customer mirror.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrders(ctx context.Context, orders []models.Order, mirrors []models.CustomerOrder) error
	ListCustomerOrders(ctx context.Context, customerID string, params pagination.Params) ([]models.CustomerOrder, error)
	FindCustomerOrder(ctx context.Context, customerID, orderID string) (*models.CustomerOrder, error)
	FindOrder(ctx context.Context, orderID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to enums.OrderStatus, at time.Time) (bool, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status enums.PaymentStatus, at time.Time) error
	FindAwaitingPayment(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	ClaimPayment(ctx context.Context, paymentID, parentOrderID string) error
	PaymentClaim(ctx context.Context, paymentID string) (string, error)
	ParentTotal(ctx context.Context, parentOrderID string) (int64, error)
}
