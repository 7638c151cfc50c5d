// Package server assembles the HTTP routes.
package server

import (
	"net/http"

	"ecommerce-backend/internal/controller"
	"ecommerce-backend/internal/metrics"
	"ecommerce-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Auth       middleware.TokenValidator
	Orders     *controller.OrderController
	Catalog    *controller.CatalogController
	Customers  *controller.UserController
	Staff      *controller.UserController
	Accounts   *controller.AuthController
	Metrics    *metrics.Metrics
	Log        *zap.Logger
	Production bool
}

func NewRouter(d Deps) *gin.Engine {
	controller.RegisterValidators()

	r := gin.New()
	r.Use(
		middleware.Recovery(d.Log),
		middleware.RequestLogger(d.Log),
		middleware.SecureHeaders(d.Production),
		d.Metrics.Middleware(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "This is a health check"})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	authed := middleware.AuthMiddleware(d.Auth)
	optional := middleware.OptionalAuth(d.Auth)

	// Auth
	r.POST("/auth/login", d.Accounts.Login)
	r.POST("/auth/forgot-password", d.Accounts.ForgotPassword)
	r.POST("/auth/reset-password", d.Accounts.ResetPassword)
	r.PATCH("/auth/change-password", authed, d.Accounts.ChangePassword)

	// Orders
	o := d.Orders
	r.POST("/orders", optional, o.Create)
	r.GET("/orders/track", o.Track)
	r.POST("/orders/confirm-delivery", optional, o.ConfirmDelivery)
	r.GET("/orders", authed, o.List)
	r.GET("/orders/user", authed, o.ListMine)
	r.GET("/orders/user/:userId", authed, middleware.AdminOrStaff(), o.ListForUser)
	r.GET("/orders/:id", authed, o.Get)
	r.PATCH("/orders/complete-payment/:id", authed, o.CompletePayment)
	r.PATCH("/orders/in-transit/:id", authed, o.MarkInTransit)
	r.PATCH("/orders/complete-order/:id", authed, o.CompleteOrder)
	r.PATCH("/orders/cancel/:id", authed, o.Cancel)
	r.DELETE("/orders/delete/:id", authed, middleware.AdminOrStaff(), o.Delete)
	r.GET("/sales-summary", authed, o.SalesSummary)

	// Products and categories
	cat := d.Catalog
	r.GET("/products", cat.ListProducts)
	r.GET("/products/:id", cat.GetProduct)
	r.GET("/categories", cat.ListCategories)
	r.GET("/categories/:id", cat.GetCategory)

	catalog := r.Group("/", authed, middleware.AdminOrStaff())
	catalog.POST("/products", cat.CreateProduct)
	catalog.PUT("/products/update/:id", cat.UpdateProduct)
	catalog.DELETE("/products/softdelete/:id", cat.SoftDeleteProduct)
	catalog.DELETE("/products/delete/:id", cat.DeleteProduct)
	catalog.PATCH("/products/:id/check-stock", cat.CheckStock)
	catalog.PATCH("/products/:id/update-stock", cat.UpdateStock)
	catalog.PATCH("/products/:id/apply-offer", cat.ApplyOffer)
	catalog.POST("/categories", cat.CreateCategory)
	catalog.PUT("/categories/:id", cat.UpdateCategory)
	catalog.DELETE("/categories/:id", cat.DeleteCategory)

	// Customers. Registration is open; reads and updates of a single account
	// are limited to its owner or admin and staff.
	cu := d.Customers
	r.POST("/user", cu.Create)
	r.PUT("/user/update/:userId", authed, cu.Update)
	r.GET("/users", authed, middleware.AdminOrStaff(), cu.List)
	r.GET("/user/:userId", authed, cu.Get)

	customerAdmin := r.Group("/user", authed, middleware.AdminOnly())
	customerAdmin.PATCH("/softDelete/:userId", cu.SoftDelete)
	customerAdmin.PATCH("/restore/:userId", cu.Restore)
	customerAdmin.DELETE("/delete/:userId", cu.Delete)

	// Staff
	st := d.Staff
	staff := r.Group("/staff", authed, middleware.AdminOnly())
	staff.POST("", st.Create)
	staff.GET("", st.List)
	staff.GET("/:userId", st.Get)
	staff.PUT("/update/:userId", st.Update)
	staff.PATCH("/softDelete/:userId", st.SoftDelete)
	staff.PATCH("/restore/:userId", st.Restore)
	staff.DELETE("/delete/:userId", st.Delete)

	return r
}
