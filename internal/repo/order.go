package repo

import (
	"context"
	"errors"

	"github.com/Joris1Jansen/BulkyBook/internal/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

// HeaderFilter is a typed filter for order header queries. Zero values mean
// "no constraint".
type HeaderFilter struct {
	UserID        uint
	OrderStatus   models.OrderStatus
	PaymentStatus models.PaymentStatus
}

type OrderRepo struct {
	DB *gorm.DB
}

func (r *OrderRepo) GetHeader(ctx context.Context, id uint) (*models.OrderHeader, error) {
	var header models.OrderHeader
	if err := r.DB.WithContext(ctx).First(&header, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &header, nil
}

// GetDetails loads the order's line items. withBooks controls the explicit
// eager load of the book relation.
func (r *OrderRepo) GetDetails(ctx context.Context, orderID uint, withBooks bool) ([]models.OrderDetail, error) {
	q := r.DB.WithContext(ctx).Where("order_id = ?", orderID)
	if withBooks {
		q = q.Preload("Book")
	}

	var details []models.OrderDetail
	if err := q.Find(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}

func (r *OrderRepo) List(ctx context.Context, f HeaderFilter) ([]models.OrderHeader, error) {
	q := r.DB.WithContext(ctx).Model(&models.OrderHeader{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.OrderStatus != "" {
		q = q.Where("order_status = ?", f.OrderStatus)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}

	var headers []models.OrderHeader
	if err := q.Order("id DESC").Find(&headers).Error; err != nil {
		return nil, err
	}
	return headers, nil
}

func (r *OrderRepo) Save(ctx context.Context, header *models.OrderHeader) error {
	return r.DB.WithContext(ctx).Save(header).Error
}

// UpdateStatus sets the order status and, when paymentStatus is non-empty,
// the payment status in one write.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, orderStatus models.OrderStatus, paymentStatus models.PaymentStatus) error {
	updates := map[string]interface{}{"order_status": orderStatus}
	if paymentStatus != "" {
		updates["payment_status"] = paymentStatus
	}
	return r.updateHeader(ctx, id, updates)
}

func (r *OrderRepo) UpdatePaymentStatus(ctx context.Context, id uint, paymentStatus models.PaymentStatus) error {
	return r.updateHeader(ctx, id, map[string]interface{}{"payment_status": paymentStatus})
}

// UpdatePaymentID stores the gateway handles for the order's checkout
// session. A later call overwrites them: one active session per order.
func (r *OrderRepo) UpdatePaymentID(ctx context.Context, id uint, sessionID, paymentIntentID string) error {
	return r.updateHeader(ctx, id, map[string]interface{}{
		"session_id":        sessionID,
		"payment_intent_id": paymentIntentID,
	})
}

func (r *OrderRepo) updateHeader(ctx context.Context, id uint, updates map[string]interface{}) error {
	tx := r.DB.WithContext(ctx).Model(&models.OrderHeader{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
