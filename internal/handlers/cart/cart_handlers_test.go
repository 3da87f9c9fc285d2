package cart

import (
	"bytes"
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
)

type testEnv struct {
	E  *echo.Echo
	H  *CartHandler
	DB *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Book{}, &models.CartItem{},
		&models.OrderHeader{}, &models.OrderDetail{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return &testEnv{
		E:  echo.New(),
		H:  &CartHandler{DB: db, Producer: &mykafka.Producer{}},
		DB: db,
	}
}

func (env *testEnv) doJSONRequest(t *testing.T, method, target string, body any, userID uint) (*httptest.ResponseRecorder, echo.Context) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	c.Set("userID", userID)
	c.Set("role", models.RoleUser)
	return rec, c
}

func TestGetCart(t *testing.T) {
	env := newTestEnv(t)

	env.DB.Create(&models.CartItem{UserID: 1, BookID: 2, Count: 3})
	env.DB.Create(&models.CartItem{UserID: 9, BookID: 2, Count: 1})

	rec, c := env.doJSONRequest(t, http.MethodGet, "/api/v1/cart", nil, 1)
	require.NoError(t, env.H.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []models.CartItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, uint(2), resp[0].BookID)
	require.Equal(t, uint(3), resp[0].Count)
}

func TestAddToCartIncrementsExistingRow(t *testing.T) {
	env := newTestEnv(t)

	book := models.Book{Title: "DDD", Author: "Evans", ISBN: "978", Price: 30}
	env.DB.Create(&book)

	load := map[string]uint{"book_id": book.ID, "count": 2}

	_, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/cart", load, 1)
	require.NoError(t, env.H.AddToCart(c))

	rec, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/cart", load, 1)
	require.NoError(t, env.H.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.CartItem
	require.NoError(t, env.DB.Where("user_id = ?", 1).Find(&items).Error)
	require.Len(t, items, 1, "duplicate add must not create a second row")
	require.Equal(t, uint(4), items[0].Count)
}

func TestAddToCartUnknownBook(t *testing.T) {
	env := newTestEnv(t)

	load := map[string]uint{"book_id": 123, "count": 1}
	_, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/cart", load, 1)

	err := env.H.AddToCart(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestDeleteOneFromCartDecrements(t *testing.T) {
	env := newTestEnv(t)

	env.DB.Create(&models.CartItem{UserID: 1, BookID: 1, Count: 2})

	rec, c := env.doJSONRequest(t, http.MethodDelete, "/api/v1/cart/1", nil, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.H.DeleteOneFromCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var item models.CartItem
	require.NoError(t, env.DB.First(&item, 1).Error)
	require.Equal(t, uint(1), item.Count)
}

func TestCheckoutCreatesOrderWithPriceSnapshot(t *testing.T) {
	env := newTestEnv(t)

	user := models.User{
		Username:     "reader",
		PasswordHash: "x",
		Role:         models.RoleUser,
		Name:         "Reader One",
		City:         "Amsterdam",
	}
	env.DB.Create(&user)

	book := models.Book{Title: "TDD", Author: "Beck", ISBN: "978", Price: 25}
	env.DB.Create(&book)
	env.DB.Create(&models.CartItem{UserID: user.ID, BookID: book.ID, Count: 4})

	rec, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/cart/checkout", nil, user.ID)
	require.NoError(t, env.H.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var header models.OrderHeader
	require.NoError(t, env.DB.First(&header).Error)
	require.Equal(t, models.OrderStatusPending, header.OrderStatus)
	require.Equal(t, models.PaymentStatusDelayed, header.PaymentStatus)
	require.Equal(t, float64(100), header.OrderTotal)
	require.Equal(t, "Reader One", header.Name)
	require.NotZero(t, header.OrderDate)

	var details []models.OrderDetail
	require.NoError(t, env.DB.Where("order_id = ?", header.ID).Find(&details).Error)
	require.Len(t, details, 1)
	require.Equal(t, float64(25), details[0].Price)
	require.Equal(t, uint(4), details[0].Count)

	// price snapshot must survive later book price changes
	env.DB.Model(&models.Book{}).Where("id = ?", book.ID).Update("price", 99)
	require.NoError(t, env.DB.Where("order_id = ?", header.ID).Find(&details).Error)
	require.Equal(t, float64(25), details[0].Price)

	var remaining []models.CartItem
	require.NoError(t, env.DB.Where("user_id = ?", user.ID).Find(&remaining).Error)
	require.Len(t, remaining, 0, "checkout must clear the cart")
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	user := models.User{Username: "empty", PasswordHash: "x", Role: models.RoleUser}
	env.DB.Create(&user)

	_, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/cart/checkout", nil, user.ID)

	err := env.H.Checkout(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetCountFallsBackToDB(t *testing.T) {
	env := newTestEnv(t)

	env.DB.Create(&models.CartItem{UserID: 1, BookID: 1, Count: 2})
	env.DB.Create(&models.CartItem{UserID: 1, BookID: 2, Count: 1})

	rec, c := env.doJSONRequest(t, http.MethodGet, "/api/v1/cart/count", nil, 1)
	require.NoError(t, env.H.GetCount(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(2), resp["count"])
}
