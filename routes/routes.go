package routes

import (
	"foodninja/controllers"
	"foodninja/middleware"

	"github.com/gin-gonic/gin"
)

type Options struct {
	AdminToken string
	Health     controllers.Pinger
}

func RegisterRoutes(r *gin.Engine, h *controllers.Handler, opts Options) {
	r.GET("/healthz", controllers.Healthz(opts.Health))

	api := r.Group("/api")
	{
		api.GET("/foods", h.GetFoods)
		api.GET("/foods/:id", h.GetFoodByID)

		cart := api.Group("/cart")
		{
			cart.POST("/add", h.AddToCart)
			cart.POST("/remove", h.RemoveFromCart)
			cart.PATCH("/quantity/:user/:foodId", h.UpdateCartQuantity)
			cart.GET("/:user", h.GetCart)
			cart.DELETE("/:user", h.ClearCart)
		}

		api.POST("/payment/intent", h.CreatePaymentIntent)
		api.POST("/webhook", h.StripeWebhook)

		api.GET("/orders/:user", h.GetUserOrders)

		admin := api.Group("/admin")
		admin.Use(middleware.AdminMiddleware(opts.AdminToken))
		{
			admin.GET("/orders", h.GetOrdersAdmin)
			admin.GET("/orders/:id", h.GetOrderByIDAdmin)
			admin.PATCH("/orders/:id", h.UpdateOrderStatus)

			admin.POST("/foods", h.CreateFood)
			admin.PATCH("/foods/:id", h.UpdateFood)
			admin.DELETE("/foods/:id", h.DeleteFood)
		}
	}
}
