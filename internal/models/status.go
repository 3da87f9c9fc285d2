package models

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleUser     = "user"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusInProcess OrderStatus = "inprocess"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

type PaymentStatus string

const (
	// PaymentStatusDelayed is pay-later/on-credit: the order exists but
	// nothing has been captured yet.
	PaymentStatusDelayed   PaymentStatus = "delayed"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payable reports whether a checkout session may still be created for an
// order in this state.
func (s OrderStatus) Payable() bool {
	return s == OrderStatusPending || s == OrderStatusApproved || s == OrderStatusInProcess
}
