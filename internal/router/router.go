package router

import (
	"github.com/stitchline/stitchline-server/internal/config"
	adminhandlers "github.com/stitchline/stitchline-server/internal/http/handlers/admin"
	publichandlers "github.com/stitchline/stitchline-server/internal/http/handlers/public"
	"github.com/stitchline/stitchline-server/internal/logger"
	"github.com/stitchline/stitchline-server/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the gin engine with all API routes.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// Storefront catalog
		apiV1.GET("/products", publicHandler.ListProducts)
		apiV1.GET("/products/:slug", publicHandler.GetProduct)

		// Account auth
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", publicHandler.Login)
		}

		// Cart and checkout work for guests and accounts alike; the
		// optional middleware attaches the user when a token is sent.
		shop := apiV1.Group("")
		shop.Use(OptionalUserJWTMiddleware(c.AuthService))
		{
			shop.GET("/cart", publicHandler.GetCart)
			shop.POST("/cart/items", publicHandler.AddCartItem)
			shop.PUT("/cart/items/:id", publicHandler.UpdateCartItem)
			shop.DELETE("/cart/items/:id", publicHandler.RemoveCartItem)
			shop.DELETE("/cart", publicHandler.ClearCart)
			shop.POST("/checkout", publicHandler.Checkout)
		}

		// Account orders
		user := apiV1.Group("")
		user.Use(UserJWTMiddleware(c.AuthService))
		{
			user.GET("/orders", publicHandler.ListMyOrders)
			user.GET("/orders/:id", publicHandler.GetMyOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelMyOrder)
		}

		// Guest order lookup by reference plus email
		apiV1.GET("/guest/orders/:reference", publicHandler.LookupGuestOrder)

		// Payments
		apiV1.GET("/payments/verify/:reference", publicHandler.VerifyPayment)
		apiV1.POST("/payments/webhook/paystack", publicHandler.PaystackWebhook)

		// Back office
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", adminHandler.Login)

			authorized := admin.Use(AdminJWTMiddleware(c.AuthService))
			{
				authorized.GET("/me", adminHandler.Me)
				authorized.PUT("/password", adminHandler.ChangePassword)

				authorized.GET("/products", adminHandler.ListProducts)
				authorized.GET("/products/:id", adminHandler.GetProduct)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.POST("/products/:id/restock", adminHandler.RestockProduct)
				authorized.PATCH("/products/:id/active", adminHandler.SetProductActive)
				authorized.DELETE("/products/:id", adminHandler.DeleteProduct)

				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.POST("/orders/:id/confirm", adminHandler.ConfirmOrder)
				authorized.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
				authorized.POST("/orders/:id/notes", adminHandler.AppendOrderNote)
			}
		}
	}

	return r
}
