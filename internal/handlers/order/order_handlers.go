package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Joris1Jansen/BulkyBook/internal/logging"
	"github.com/Joris1Jansen/BulkyBook/internal/mykafka"
	ordersvc "github.com/Joris1Jansen/BulkyBook/internal/service/order"
	"github.com/Joris1Jansen/BulkyBook/internal/service/token"
)

type OrderHandler struct {
	Svc      *ordersvc.Service
	Producer *mykafka.Producer
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ordersvc.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ordersvc.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
	case errors.Is(err, ordersvc.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, ordersvc.ErrGatewayUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "payment service unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func actorFrom(c echo.Context) (ordersvc.Actor, error) {
	userID, role, err := token.UserFrom(c)
	if err != nil {
		return ordersvc.Actor{}, err
	}
	return ordersvc.Actor{UserID: userID, Role: role}, nil
}

func orderID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return uint(id), nil
}

func (h *OrderHandler) GetAll(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	headers, err := h.Svc.List(c.Request().Context(), actor, c.QueryParam("status"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": headers})
}

func (h *OrderHandler) Details(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	header, details, err := h.Svc.Details(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_header": header,
		"order_detail": details,
	})
}

// PayNow creates a gateway checkout session and answers 303 with the hosted
// payment page in Location, the way a browser form expects.
func (h *OrderHandler) PayNow(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay_now", "order_id", id)

	// the order must be visible to the caller before a session is created
	if _, _, err := h.Svc.Details(ctx, actor, id); err != nil {
		return httpError(err)
	}

	redirectURL, err := h.Svc.CreateCheckoutSession(ctx, id)
	if err != nil {
		l.Warn("create_session_error", "error", err)
		return httpError(err)
	}

	l.Info("checkout_session_created")
	h.publish(c, map[string]any{
		"type":    "checkout_session_created",
		"orderID": id,
		"userID":  actor.UserID,
	})

	c.Response().Header().Set("Location", redirectURL)
	return c.NoContent(http.StatusSeeOther)
}

func (h *OrderHandler) PaymentConfirmation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.payment_confirmation", "order_id", id)

	if _, _, err := h.Svc.Details(ctx, actor, id); err != nil {
		return httpError(err)
	}

	header, err := h.Svc.ConfirmPayment(ctx, id)
	if err != nil {
		l.Warn("confirm_payment_error", "error", err)
		return httpError(err)
	}

	l.Info("payment_confirmed", "payment_status", header.PaymentStatus)
	h.publish(c, map[string]any{
		"type":           "payment_confirmed",
		"orderID":        id,
		"payment_status": header.PaymentStatus,
	})

	return c.JSON(http.StatusOK, header)
}

func (h *OrderHandler) StartProcessing(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.StartProcessing(c.Request().Context(), actor, id); err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{"type": "order_processing", "orderID": id})
	return c.JSON(http.StatusOK, echo.Map{"message": "order status updated successfully"})
}

func (h *OrderHandler) ShipOrder(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req struct {
		Carrier        string `json:"carrier"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.Ship(c.Request().Context(), actor, id, req.Carrier, req.TrackingNumber); err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":     "order_shipped",
		"orderID":  id,
		"carrier":  req.Carrier,
		"tracking": req.TrackingNumber,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "order shipped successfully"})
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel", "order_id", id)

	if err := h.Svc.Cancel(ctx, actor, id); err != nil {
		l.Warn("cancel_order_error", "error", err)
		return httpError(err)
	}

	l.Info("order_cancelled")
	h.publish(c, map[string]any{"type": "order_cancelled", "orderID": id})
	return c.JSON(http.StatusOK, echo.Map{"message": "order cancelled successfully"})
}

func (h *OrderHandler) UpdateOrderDetail(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var patch ordersvc.ShipmentPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	header, err := h.Svc.UpdateShipmentDetails(c.Request().Context(), actor, id, patch)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{"type": "order_details_updated", "orderID": id})
	return c.JSON(http.StatusOK, header)
}
