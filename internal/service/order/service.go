package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Joris1Jansen/BulkyBook/internal/models"
	"github.com/Joris1Jansen/BulkyBook/internal/payment"
	"github.com/Joris1Jansen/BulkyBook/internal/repo"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrForbidden          = errors.New("forbidden")           // 403
	ErrNotFound           = errors.New("not found")           // 404
	ErrGatewayUnavailable = errors.New("payment service unavailable") // 502
)

// Gateway is the slice of the payment client the lifecycle needs. Tests
// substitute a fake that records calls.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params payment.CreateSessionParams) (*payment.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error)
	CreateRefund(ctx context.Context, params payment.RefundParams) (*payment.Refund, error)
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) Staff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleEmployee
}

// Service owns the OrderStatus x PaymentStatus state machine. Every
// transition loads the order by id, mutates, and persists in one save.
type Service struct {
	Repo    *repo.OrderRepo
	Gateway Gateway

	// BaseURL is the public origin used to build the gateway's success and
	// cancel redirect URLs.
	BaseURL string
}

// requireStaff is the single policy check consulted before every mutating
// transition, handlers do not branch on roles themselves.
func requireStaff(actor Actor) error {
	if !actor.Staff() {
		return fmt.Errorf("%w: admin or employee role required", ErrForbidden)
	}
	return nil
}

// CreateCheckoutSession asks the gateway for a hosted payment page for the
// order and stores the issued handles. Calling it again replaces the stored
// handles, an order has at most one live session.
func (s *Service) CreateCheckoutSession(ctx context.Context, orderID uint) (string, error) {
	header, err := s.getHeader(ctx, orderID)
	if err != nil {
		return "", err
	}
	if !header.OrderStatus.Payable() {
		return "", fmt.Errorf("%w: order %d is not payable in status %q", ErrValidation, orderID, header.OrderStatus)
	}
	if header.PaymentStatus == models.PaymentStatusApproved {
		return "", fmt.Errorf("%w: order %d is already paid", ErrValidation, orderID)
	}

	details, err := s.Repo.GetDetails(ctx, orderID, true)
	if err != nil {
		return "", err
	}
	if len(details) == 0 {
		return "", fmt.Errorf("%w: order %d has no line items", ErrValidation, orderID)
	}

	params := payment.CreateSessionParams{
		SuccessURL: fmt.Sprintf("%s/api/v1/orders/%d/payment-confirmation", s.BaseURL, orderID),
		CancelURL:  fmt.Sprintf("%s/api/v1/orders/%d", s.BaseURL, orderID),
	}
	for _, d := range details {
		name := fmt.Sprintf("book %d", d.BookID)
		if d.Book != nil {
			name = d.Book.Title
		}
		params.LineItems = append(params.LineItems, payment.LineItem{
			Name:       name,
			UnitAmount: int64(d.Price * 100), // 20.00 -> 2000
			Currency:   "usd",
			Quantity:   d.Count,
		})
	}

	session, err := s.Gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if err := s.Repo.UpdatePaymentID(ctx, orderID, session.ID, session.PaymentIntentID); err != nil {
		return "", err
	}
	return session.URL, nil
}

// ConfirmPayment checks the gateway session of a delayed-payment order and
// marks the payment approved when the gateway reports it paid. The order
// status is untouched. Confirming an already approved order is a no-op with
// no gateway call.
func (s *Service) ConfirmPayment(ctx context.Context, orderID uint) (*models.OrderHeader, error) {
	header, err := s.getHeader(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if header.PaymentStatus != models.PaymentStatusDelayed {
		return header, nil
	}
	if header.SessionID == "" {
		return nil, fmt.Errorf("%w: order %d has no checkout session", ErrValidation, orderID)
	}

	session, err := s.Gateway.GetCheckoutSession(ctx, header.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if session.PaymentStatus == "paid" {
		if err := s.Repo.UpdatePaymentStatus(ctx, orderID, models.PaymentStatusApproved); err != nil {
			return nil, err
		}
		header.PaymentStatus = models.PaymentStatusApproved
	}
	return header, nil
}

func (s *Service) StartProcessing(ctx context.Context, actor Actor, orderID uint) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if _, err := s.getHeader(ctx, orderID); err != nil {
		return err
	}
	return s.Repo.UpdateStatus(ctx, orderID, models.OrderStatusInProcess, "")
}

// Ship sets the tracking fields and marks the order shipped. For
// pay-later orders the payment falls due 30 days after shipping.
func (s *Service) Ship(ctx context.Context, actor Actor, orderID uint, carrier, trackingNumber string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if carrier == "" || trackingNumber == "" {
		return fmt.Errorf("%w: carrier and tracking number required", ErrValidation)
	}

	header, err := s.getHeader(ctx, orderID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	header.Carrier = carrier
	header.TrackingNumber = trackingNumber
	header.OrderStatus = models.OrderStatusShipped
	header.ShippingDate = now.Unix()
	if header.PaymentStatus == models.PaymentStatusDelayed {
		header.PaymentDueDate = now.AddDate(0, 0, 30).Unix()
	}
	return s.Repo.Save(ctx, header)
}

// Cancel cancels the order. Captured payments are refunded through the
// gateway first; when nothing was captured the cancellation is a plain
// status change with no refund call.
func (s *Service) Cancel(ctx context.Context, actor Actor, orderID uint) error {
	if err := requireStaff(actor); err != nil {
		return err
	}

	header, err := s.getHeader(ctx, orderID)
	if err != nil {
		return err
	}

	if header.PaymentStatus == models.PaymentStatusApproved {
		_, err := s.Gateway.CreateRefund(ctx, payment.RefundParams{
			PaymentIntentID: header.PaymentIntentID,
			Reason:          payment.ReasonRequestedByCustomer,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return s.Repo.UpdateStatus(ctx, orderID, models.OrderStatusCancelled, models.PaymentStatusRefunded)
	}

	return s.Repo.UpdateStatus(ctx, orderID, models.OrderStatusCancelled, models.PaymentStatusCancelled)
}

// ShipmentPatch carries the editable contact and tracking fields. Carrier
// and tracking number are only applied when non-empty.
type ShipmentPatch struct {
	Name           string `json:"name"`
	PhoneNumber    string `json:"phone_number"`
	StreetAddress  string `json:"street_address"`
	City           string `json:"city"`
	State          string `json:"state"`
	PostalCode     string `json:"postal_code"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

// UpdateShipmentDetails patches contact and tracking fields without touching
// either status.
func (s *Service) UpdateShipmentDetails(ctx context.Context, actor Actor, orderID uint, patch ShipmentPatch) (*models.OrderHeader, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	header, err := s.getHeader(ctx, orderID)
	if err != nil {
		return nil, err
	}

	header.Name = patch.Name
	header.PhoneNumber = patch.PhoneNumber
	header.StreetAddress = patch.StreetAddress
	header.City = patch.City
	header.State = patch.State
	header.PostalCode = patch.PostalCode
	if patch.Carrier != "" {
		header.Carrier = patch.Carrier
	}
	if patch.TrackingNumber != "" {
		header.TrackingNumber = patch.TrackingNumber
	}

	if err := s.Repo.Save(ctx, header); err != nil {
		return nil, err
	}
	return header, nil
}

// Details returns the header with its line items. Ordinary users only see
// their own orders.
func (s *Service) Details(ctx context.Context, actor Actor, orderID uint) (*models.OrderHeader, []models.OrderDetail, error) {
	header, err := s.getHeader(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.Staff() && header.UserID != actor.UserID {
		return nil, nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}

	details, err := s.Repo.GetDetails(ctx, orderID, true)
	if err != nil {
		return nil, nil, err
	}
	return header, details, nil
}

// List returns orders filtered by a status bucket. Staff sees all orders,
// everyone else only their own.
func (s *Service) List(ctx context.Context, actor Actor, bucket string) ([]models.OrderHeader, error) {
	filter := repo.HeaderFilter{}
	if !actor.Staff() {
		filter.UserID = actor.UserID
	}

	switch bucket {
	case "pending":
		filter.PaymentStatus = models.PaymentStatusDelayed
	case "inprocess":
		filter.OrderStatus = models.OrderStatusInProcess
	case "completed":
		filter.OrderStatus = models.OrderStatusShipped
	case "approved":
		filter.OrderStatus = models.OrderStatusApproved
	case "":
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, bucket)
	}

	return s.Repo.List(ctx, filter)
}

func (s *Service) getHeader(ctx context.Context, orderID uint) (*models.OrderHeader, error) {
	header, err := s.Repo.GetHeader(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return header, nil
}
