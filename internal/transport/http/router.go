package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/handlers"
	"github.com/lawravasco2207/phone-store-sub001/internal/handlers/cart"
	"github.com/lawravasco2207/phone-store-sub001/internal/handlers/checkout"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
)

type Deps struct {
	DB              *gorm.DB
	Tokens          *token.TokenService
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	SearchHandler   *handlers.SearchHandler
	ReviewHandler   *handlers.ReviewHandler
	SupportHandler  *handlers.SupportHandler
	ChatHandler     *handlers.ChatHandler
	OrderHandler    *handlers.OrderHandler
	AuditHandler    *handlers.AuditHandler
	ImportHandler   *handlers.ImportHandler
	CartHandler     *cart.CartHandler
	CheckoutHandler *checkout.CheckoutHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.POST("/refresh", d.AuthHandler.Refresh)

	v1.GET("/search", d.SearchHandler.Handler)
	v1.GET("/categories", d.ProductHandler.GetCategories)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.GET("/:id/reviews", d.ReviewHandler.ListReviews)
	products.POST("/:id/reviews", d.ReviewHandler.CreateReview, d.Tokens.RequireLogin)

	v1.DELETE("/reviews/:reviewID", d.ReviewHandler.DeleteReview, d.Tokens.RequireLogin)

	cartGroup := v1.Group("/cart", d.Tokens.RequireLogin)
	cartGroup.GET("", d.CartHandler.GetCart)
	cartGroup.POST("", d.CartHandler.AddToCart)
	cartGroup.DELETE("/:id", d.CartHandler.DeleteOneFromCart)
	cartGroup.DELETE("/:id/all", d.CartHandler.DeleteAllFromCart)

	v1.POST("/checkout", d.CheckoutHandler.Checkout, d.Tokens.RequireLogin)
	v1.POST("/payments/mpesa/callback", d.CheckoutHandler.MpesaCallback)

	orders := v1.Group("/orders", d.Tokens.RequireLogin)
	orders.GET("", d.OrderHandler.ListMyOrders)
	orders.GET("/:id", d.OrderHandler.GetMyOrder)

	support := v1.Group("/support", d.Tokens.RequireLogin)
	support.POST("", d.SupportHandler.CreateTicket)
	support.GET("", d.SupportHandler.ListMyTickets)
	support.GET("/:id", d.SupportHandler.GetTicket)
	support.POST("/:id/messages", d.SupportHandler.AddMessage)

	chat := v1.Group("/chat", d.Tokens.RequireLogin)
	chat.POST("", d.ChatHandler.Ask)
	chat.GET("", d.ChatHandler.History)

	admin := v1.Group("/admin", d.Tokens.RequireAdmin)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.POST("/products/import", d.ImportHandler.ImportProducts)
	admin.GET("/orders", d.OrderHandler.ListAllOrders)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)
	admin.GET("/support", d.SupportHandler.ListAllTickets)
	admin.PATCH("/support/:id/status", d.SupportHandler.UpdateStatus)
	admin.GET("/audit", d.AuditHandler.ListAuditLogs)
}
