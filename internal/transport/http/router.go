package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Joris1Jansen/BulkyBook/internal/handlers"
	"github.com/Joris1Jansen/BulkyBook/internal/handlers/cart"
	"github.com/Joris1Jansen/BulkyBook/internal/handlers/order"
	"github.com/Joris1Jansen/BulkyBook/internal/middleware/csrf"
	"github.com/Joris1Jansen/BulkyBook/internal/service/token"
)

type Deps struct {
	DB            *gorm.DB
	AuthHandler   *handlers.AuthHandler
	BookHandler   *handlers.BookHandler
	SearchHandler *handlers.SearchHandler
	CartHandler   *cart.CartHandler
	OrderHandler  *order.OrderHandler
	TokenService  *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)

	v1.GET("/search", d.SearchHandler.Search)
	v1.GET("/books", d.BookHandler.GetBooks)
	v1.GET("/books/:id", d.BookHandler.GetBook)
	v1.GET("/categories", d.BookHandler.GetCategories)
	v1.GET("/covertypes", d.BookHandler.GetCoverTypes)

	cartGrp := v1.Group("/cart", d.TokenService.AutoRefreshMiddleware)
	cartGrp.GET("", d.CartHandler.GetCart)
	cartGrp.GET("/count", d.CartHandler.GetCount)
	cartGrp.POST("", d.CartHandler.AddToCart)
	cartGrp.POST("/checkout", d.CartHandler.Checkout)
	cartGrp.DELETE("/:id", d.CartHandler.DeleteOneFromCart)
	cartGrp.DELETE("/:id/all", d.CartHandler.DeleteAllFromCart)

	orders := v1.Group("/orders", d.TokenService.AutoRefreshMiddleware)
	orders.GET("", d.OrderHandler.GetAll)
	orders.GET("/:id", d.OrderHandler.Details)
	orders.POST("/:id/pay", d.OrderHandler.PayNow)
	orders.GET("/:id/payment-confirmation", d.OrderHandler.PaymentConfirmation)

	// mutating admin surface: role policy plus anti-forgery for the
	// cookie-authenticated forms
	admin := v1.Group("/admin",
		d.TokenService.AutoRefreshMiddleware,
		d.TokenService.RequireStaff,
		csrf.Middleware(csrf.Config{Secure: true}),
	)

	admin.POST("/books", d.BookHandler.CreateBook)
	admin.PATCH("/books/:id", d.BookHandler.PatchBook)
	admin.DELETE("/books/:id", d.BookHandler.DeleteBook)

	admin.POST("/orders/:id/processing", d.OrderHandler.StartProcessing)
	admin.POST("/orders/:id/ship", d.OrderHandler.ShipOrder)
	admin.POST("/orders/:id/cancel", d.OrderHandler.CancelOrder)
	admin.PATCH("/orders/:id", d.OrderHandler.UpdateOrderDetail)
}
