package orders

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ErrPaymentClaimed reports a payment id already bound to another checkout.
var ErrPaymentClaimed = errors.New("payment already used by another order")

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrders writes the global rows first so the mirror's foreign key resolves.
func (r *repository) CreateOrders(ctx context.Context, orders []models.Order, mirrors []models.CustomerOrder) error {
	if len(orders) == 0 {
		return nil
	}
	if len(orders) != len(mirrors) {
		return errors.New("every order needs a customer mirror")
	}
	db := r.db.WithContext(ctx)
	if err := db.Create(&orders).Error; err != nil {
		return err
	}
	return db.Create(&mirrors).Error
}

func (r *repository) ListCustomerOrders(ctx context.Context, customerID string, params pagination.Params) ([]models.CustomerOrder, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND order_id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.CustomerOrder
	err = query.
		Order("created_at DESC").
		Order("order_id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindCustomerOrder(ctx context.Context, customerID, orderID string) (*models.CustomerOrder, error) {
	var row models.CustomerOrder
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND order_id = ?", customerID, orderID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var row models.Order
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateStatus moves both rows from `from` to `to`. It returns false when the
// global row was no longer in `from`, leaving both rows untouched.
func (r *repository) UpdateStatus(ctx context.Context, orderID string, from, to enums.OrderStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"order_status": to,
		"updated_at":   at,
	}
	if to == enums.OrderStatusCancelled {
		updates["cancelled_at"] = at
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&models.Order{}).
		Where("order_id = ? AND order_status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := db.Model(&models.CustomerOrder{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"order_status": to,
			"updated_at":   at,
		}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, orderID string, status enums.PaymentStatus, at time.Time) error {
	updates := map[string]any{
		"payment_status": status,
		"updated_at":     at,
	}
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Order{}).Where("order_id = ?", orderID).Updates(updates).Error; err != nil {
		return err
	}
	return db.Model(&models.CustomerOrder{}).Where("order_id = ?", orderID).Updates(updates).Error
}

// FindAwaitingPayment lists online orders created before cutoff that carry a
// gateway payment id but were never confirmed.
func (r *repository) FindAwaitingPayment(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = pagination.MaxLimit
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("order_status = ?", enums.OrderStatusPending).
		Where("payment_method = ?", enums.PaymentMethodOnline).
		Where("payment_status = ?", enums.PaymentStatusPending).
		Where("payment_id IS NOT NULL AND payment_id <> ''").
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ClaimPayment binds paymentID to parentOrderID. Claiming again for the same
// parent is a no-op; any other parent gets ErrPaymentClaimed.
func (r *repository) ClaimPayment(ctx context.Context, paymentID, parentOrderID string) error {
	db := r.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.OrderPayment{PaymentID: paymentID, ParentOrderID: parentOrderID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	owner, err := r.PaymentClaim(ctx, paymentID)
	if err != nil {
		return err
	}
	if owner != parentOrderID {
		return ErrPaymentClaimed
	}
	return nil
}

// PaymentClaim returns the parent order that claimed paymentID.
func (r *repository) PaymentClaim(ctx context.Context, paymentID string) (string, error) {
	var row models.OrderPayment
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&row).Error; err != nil {
		return "", err
	}
	return row.ParentOrderID, nil
}

// ParentTotal sums the totals of every child order under parentOrderID.
func (r *repository) ParentTotal(ctx context.Context, parentOrderID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("parent_order_id = ?", parentOrderID).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
