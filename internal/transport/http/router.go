package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/petcarevet/clinic/internal/handlers"
	"github.com/petcarevet/clinic/internal/handlers/appointment"
	"github.com/petcarevet/clinic/internal/handlers/auth"
	"github.com/petcarevet/clinic/internal/handlers/cart"
	"github.com/petcarevet/clinic/internal/service/token"
)

type Deps struct {
	DB                 *gorm.DB
	AuthHandler        *auth.AuthHandler
	ProductHandler     *handlers.ProductHandler
	CartHandler        *cart.CartHandler
	CouponHandler      *handlers.CouponHandler
	OrderHandler       *handlers.OrderHandler
	AppointmentHandler *appointment.AppointmentHandler
	PetHandler         *handlers.PetHandler
	ProfileHandler     *handlers.ProfileHandler
	CheckoutHandler    *handlers.CheckoutHandler
	WebhookAdmin       *handlers.WebhookAdminHandler
	SearchHandler      *handlers.SearchHandler
	ServiceHandler     *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.POST("/password-reset", d.AuthHandler.RequestPasswordReset)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	user := v1.Group("", d.ServiceHandler.AutoRefreshMiddleware)

	user.GET("/cart", d.CartHandler.GetCart)
	user.POST("/cart", d.CartHandler.AddToCart)
	user.POST("/cart/order", d.CartHandler.MakeOrder)
	user.DELETE("/cart/:id", d.CartHandler.DeleteOneFromCart)
	user.DELETE("/cart/:id/all", d.CartHandler.DeleteAllFromCart)

	user.POST("/coupons/validate", d.CouponHandler.ValidateCoupon)

	user.GET("/orders", d.OrderHandler.ListMyOrders)

	user.POST("/appointments", d.AppointmentHandler.Create)
	user.GET("/appointments", d.AppointmentHandler.ListMine)
	user.POST("/appointments/:id/webhook", d.AppointmentHandler.ResendWebhook)

	user.GET("/pets", d.PetHandler.ListPets)
	user.POST("/pets", d.PetHandler.CreatePet)
	user.PATCH("/pets/:id", d.PetHandler.PatchPet)
	user.DELETE("/pets/:id", d.PetHandler.DeletePet)

	user.GET("/profile", d.ProfileHandler.GetMyProfile)
	user.PATCH("/profile", d.ProfileHandler.UpdateMyProfile)

	if d.CheckoutHandler != nil {
		user.POST("/checkout", d.CheckoutHandler.CreateSession)
		user.GET("/checkout/session/:id", d.CheckoutHandler.GetSession)
	}

	admin := v1.Group("/admin", d.ServiceHandler.AutoRefreshMiddlewareAdmin)

	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	admin.GET("/coupons", d.CouponHandler.ListCoupons)
	admin.POST("/coupons", d.CouponHandler.CreateCoupon)
	admin.PATCH("/coupons/:id", d.CouponHandler.PatchCoupon)
	admin.DELETE("/coupons/:id", d.CouponHandler.DeleteCoupon)

	admin.GET("/orders", d.OrderHandler.ListAllOrders)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateOrderStatus)

	admin.GET("/appointments", d.AppointmentHandler.ListAll)
	admin.PATCH("/appointments/:id/status", d.AppointmentHandler.Transition)

	admin.GET("/webhooks/configs", d.WebhookAdmin.ListConfigs)
	admin.POST("/webhooks/configs", d.WebhookAdmin.CreateConfig)
	admin.PATCH("/webhooks/configs/:id", d.WebhookAdmin.PatchConfig)
	admin.DELETE("/webhooks/configs/:id", d.WebhookAdmin.DeleteConfig)
	admin.GET("/webhooks/logs", d.WebhookAdmin.ListLogs)
}
