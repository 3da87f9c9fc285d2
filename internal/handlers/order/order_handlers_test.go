package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Joris1Jansen/BulkyBook/internal/models"
	"github.com/Joris1Jansen/BulkyBook/internal/mykafka"
	"github.com/Joris1Jansen/BulkyBook/internal/payment"
	"github.com/Joris1Jansen/BulkyBook/internal/repo"
	ordersvc "github.com/Joris1Jansen/BulkyBook/internal/service/order"
)

type stubGateway struct {
	session payment.CheckoutSession
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, params payment.CreateSessionParams) (*payment.CheckoutSession, error) {
	s := g.session
	return &s, nil
}

func (g *stubGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	s := g.session
	return &s, nil
}

func (g *stubGateway) CreateRefund(ctx context.Context, params payment.RefundParams) (*payment.Refund, error) {
	return &payment.Refund{ID: "re_1", PaymentIntentID: params.PaymentIntentID, Status: "succeeded"}, nil
}

func newOrderTestHandler(t *testing.T, gw ordersvc.Gateway) (*echo.Echo, *OrderHandler, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Book{}, &models.OrderHeader{}, &models.OrderDetail{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	h := &OrderHandler{
		Svc: &ordersvc.Service{
			Repo:    &repo.OrderRepo{DB: db},
			Gateway: gw,
			BaseURL: "https://shop.example.com",
		},
		Producer: &mykafka.Producer{},
	}
	return echo.New(), h, db
}

func orderRequest(e *echo.Echo, method, target, id string, userID uint, role string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	c.Set("userID", userID)
	c.Set("role", role)
	return rec, c
}

func TestPayNowRedirectsToHostedPage(t *testing.T) {
	gw := &stubGateway{session: payment.CheckoutSession{
		ID:              "cs_1",
		PaymentIntentID: "pi_1",
		URL:             "https://pay.example.com/cs_1",
		PaymentStatus:   "unpaid",
	}}
	e, h, db := newOrderTestHandler(t, gw)

	db.Create(&models.OrderHeader{
		UserID:        1,
		OrderStatus:   models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusDelayed,
		OrderTotal:    25,
	})

	rec, c := orderRequest(e, http.MethodPost, "/api/v1/orders/1/pay", "1", 1, models.RoleUser)
	require.NoError(t, h.PayNow(c))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "https://pay.example.com/cs_1", rec.Header().Get("Location"))

	var header models.OrderHeader
	require.NoError(t, db.First(&header, 1).Error)
	require.Equal(t, "cs_1", header.SessionID)
	require.Equal(t, "pi_1", header.PaymentIntentID)
}

func TestPayNowForeignOrderHidden(t *testing.T) {
	e, h, db := newOrderTestHandler(t, &stubGateway{})

	db.Create(&models.OrderHeader{
		UserID:        2,
		OrderStatus:   models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusDelayed,
	})

	_, c := orderRequest(e, http.MethodPost, "/api/v1/orders/1/pay", "1", 1, models.RoleUser)
	err := h.PayNow(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestPaymentConfirmationApprovesPayment(t *testing.T) {
	gw := &stubGateway{session: payment.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: "paid",
	}}
	e, h, db := newOrderTestHandler(t, gw)

	db.Create(&models.OrderHeader{
		UserID:        1,
		OrderStatus:   models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusDelayed,
		SessionID:     "cs_1",
	})

	rec, c := orderRequest(e, http.MethodGet, "/api/v1/orders/1/payment-confirmation", "1", 1, models.RoleUser)
	require.NoError(t, h.PaymentConfirmation(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.OrderHeader
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, models.PaymentStatusApproved, resp.PaymentStatus)
	require.Equal(t, models.OrderStatusPending, resp.OrderStatus)
}

func TestCancelOrderRequiresStaff(t *testing.T) {
	e, h, db := newOrderTestHandler(t, &stubGateway{})

	db.Create(&models.OrderHeader{
		UserID:        1,
		OrderStatus:   models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusDelayed,
	})

	_, c := orderRequest(e, http.MethodPost, "/api/v1/admin/orders/1/cancel", "1", 1, models.RoleUser)
	err := h.CancelOrder(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestGetAllInvalidStatusBucket(t *testing.T) {
	e, h, _ := newOrderTestHandler(t, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=bogus", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("userID", uint(1))
	c.Set("role", models.RoleUser)

	err := h.GetAll(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}
