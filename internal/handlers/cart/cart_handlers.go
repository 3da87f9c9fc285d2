package cart

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Joris1Jansen/BulkyBook/internal/cartcache"
	"github.com/Joris1Jansen/BulkyBook/internal/models"
	"github.com/Joris1Jansen/BulkyBook/internal/mykafka"
	"github.com/Joris1Jansen/BulkyBook/internal/service/token"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Cache    *cartcache.Cache
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, _, err := token.UserFrom(c)
	if err != nil {
		return err
	}

	var items []models.CartItem
	if err := h.DB.Where("user_id=?", userID).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, items)
}

// GetCount serves the storefront cart badge from the redis cache, falling
// back to a DB count on miss.
func (h *CartHandler) GetCount(c echo.Context) error {
	userID, _, err := token.UserFrom(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if n, ok := h.Cache.Get(ctx, userID); ok {
		return c.JSON(http.StatusOK, echo.Map{"count": n})
	}

	var n int64
	if err := h.DB.Model(&models.CartItem{}).Where("user_id=?", userID).Count(&n).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.Cache.Set(ctx, userID, n); err != nil {
		c.Logger().Errorf("cart cache set error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, _, err := token.UserFrom(c)
	if err != nil {
		return err
	}

	var req struct {
		BookID uint `json:"book_id"`
		Count  uint `json:"count"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Count < 1 {
		req.Count = 1
	}

	var book models.Book
	if err := h.DB.First(&book, req.BookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var item models.CartItem
	tx := h.DB.Where("user_id = ? AND book_id = ?", userID, req.BookID).First(&item)
	if tx.Error == nil {
		item.Count += req.Count
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.invalidateCount(c, userID)
		h.publish(c, map[string]any{
			"type":   "cart_item_added",
			"userID": userID,
			"bookID": req.BookID,
			"count":  item.Count,
		})
		return c.JSON(http.StatusOK, item)
	}
	if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, tx.Error.Error())
	}

	newItem := models.CartItem{
		UserID: userID,
		BookID: req.BookID,
		Count:  req.Count,
	}
	if err := h.DB.Create(&newItem).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.invalidateCount(c, userID)
	h.publish(c, map[string]any{
		"type":   "cart_item_added",
		"userID": userID,
		"bookID": req.BookID,
		"count":  newItem.Count,
	})
	return c.JSON(http.StatusOK, newItem)
}

func (h *CartHandler) DeleteOneFromCart(c echo.Context) error {
	userID, _, err := token.UserFrom(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if item.Count > 1 {
		item.Count -= 1
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.invalidateCount(c, userID)
		h.publish(c, map[string]any{
			"type":      "cart_item_decremented",
			"userID":    userID,
			"id":        item.ID,
			"new_count": item.Count,
		})
		return c.JSON(http.StatusOK, item)
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.invalidateCount(c, userID)
	h.publish(c, map[string]any{
		"type":         "cart_item_deleted",
		"userID":       userID,
		"deleted_item": id,
	})
	return c.JSON(http.StatusOK, map[string]any{"deleted_item": id})
}

func (h *CartHandler) DeleteAllFromCart(c echo.Context) error {
	userID, _, err := token.UserFrom(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.invalidateCount(c, userID)

	var remaining []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Find(&remaining).Error; err != nil {
		c.Logger().Errorf("DB read after delete error: %v", err)
	}

	h.publish(c, map[string]any{
		"type":         "cart_item_deleted",
		"userID":       userID,
		"deleted_item": id,
	})
	return c.JSON(http.StatusOK, remaining)
}

// Checkout turns the cart into an order: header plus line items are created
// in one transaction with the unit price snapshotted from the current book
// price, then the cart is cleared. Payment starts as delayed, nothing is
// captured here.
func (h *CartHandler) Checkout(c echo.Context) error {
	userID, _, err := token.UserFrom(c)
	if err != nil {
		return err
	}

	var (
		header  models.OrderHeader
		details []models.OrderDetail
	)

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", userID).Find(&items).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if len(items) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "no items in cart")
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		var total float64
		type line struct {
			bookID uint
			count  uint
			price  float64
		}
		lines := make([]line, 0, len(items))
		for _, it := range items {
			var b models.Book
			if err := tx.First(&b, it.BookID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusBadRequest, "book not found")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			lines = append(lines, line{bookID: b.ID, count: it.Count, price: b.Price})
			total += float64(it.Count) * b.Price
		}

		header = models.OrderHeader{
			UserID:        userID,
			OrderStatus:   models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusDelayed,
			Name:          user.Name,
			PhoneNumber:   user.PhoneNumber,
			StreetAddress: user.StreetAddress,
			City:          user.City,
			State:         user.State,
			PostalCode:    user.PostalCode,
			OrderTotal:    total,
			OrderDate:     time.Now().Unix(),
		}
		if err := tx.Create(&header).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		details = make([]models.OrderDetail, 0, len(lines))
		for _, l := range lines {
			d := models.OrderDetail{
				OrderID: header.ID,
				BookID:  l.bookID,
				Count:   l.count,
				Price:   l.price,
			}
			if err := tx.Create(&d).Error; err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			details = append(details, d)
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return nil
	})

	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.invalidateCount(c, userID)
	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": header.ID,
		"total":   header.OrderTotal,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":       header.ID,
		"order_total":    header.OrderTotal,
		"order_status":   header.OrderStatus,
		"payment_status": header.PaymentStatus,
		"items":          details,
	})
}
