package controller

import (
	"context"
	"net/http"
	"time"

	"ecommerce-backend/internal/dto"
	"ecommerce-backend/internal/middleware"
	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderService interface {
	Create(ctx context.Context, actor *model.Actor, in service.CreateOrderInput) (*model.Order, error)
	Get(ctx context.Context, id string) (*model.OrderView, error)
	List(ctx context.Context) ([]*model.OrderView, error)
	ListByPlacer(ctx context.Context, userID string) ([]*model.OrderView, error)
	Delete(ctx context.Context, id string) (*model.Order, error)
	CompletePayment(ctx context.Context, id string) (*model.Order, error)
	MarkInTransit(ctx context.Context, id string, actor *model.Actor, location string) (*model.Order, error)
	ConfirmDelivery(ctx context.Context, actor *model.Actor, in service.ConfirmDeliveryInput) (*model.Order, error)
	CompleteOrder(ctx context.Context, id string, actor *model.Actor, location string) (*model.Order, error)
	CancelOrder(ctx context.Context, id string, actor *model.Actor) (*model.Order, error)
	TrackByPurchaseNumber(ctx context.Context, purchaseNumber string) (*model.TrackingView, error)
	SalesSummary(ctx context.Context, now time.Time) (*model.SalesSummary, error)
}

type OrderController struct {
	Service OrderService
	log     *zap.Logger
}

func NewOrderController(s OrderService, log *zap.Logger) *OrderController {
	return &OrderController{Service: s, log: log}
}

// POST /orders (token optional; guests send guestInfo)
func (ctl *OrderController) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in := service.CreateOrderInput{Products: make([]service.OrderItemInput, 0, len(req.Products))}
	for _, p := range req.Products {
		in.Products = append(in.Products, service.OrderItemInput{ProductID: p.ProductID, Quantity: p.Quantity})
	}
	if g := req.GuestInfo; g != nil {
		in.GuestInfo = &model.GuestInfo{
			FullName:        g.FullName,
			Email:           g.Email,
			PhoneNumber:     g.PhoneNumber,
			DeliveryAddress: g.DeliveryAddress,
		}
	}

	order, err := ctl.Service.Create(c.Request.Context(), middleware.CurrentActor(c), in)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusCreated, "Order placed successfully", gin.H{"order": order})
}

// GET /orders
func (ctl *OrderController) List(c *gin.Context) {
	orders, err := ctl.Service.List(c.Request.Context())
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ctl.writeOrders(c, orders)
}

// GET /orders/user
func (ctl *OrderController) ListMine(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	orders, err := ctl.Service.ListByPlacer(c.Request.Context(), actor.ID.Hex())
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ctl.writeOrders(c, orders)
}

// GET /orders/user/:userId (admin or staff)
func (ctl *OrderController) ListForUser(c *gin.Context) {
	orders, err := ctl.Service.ListByPlacer(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ctl.writeOrders(c, orders)
}

func (ctl *OrderController) writeOrders(c *gin.Context, orders []*model.OrderView) {
	if len(orders) == 0 {
		ok(c, http.StatusOK, "No orders found.", gin.H{"orders": []*model.OrderView{}})
		return
	}
	ok(c, http.StatusOK, "", gin.H{"orders": orders})
}

// GET /orders/:id
func (ctl *OrderController) Get(c *gin.Context) {
	order, err := ctl.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"order": order})
}

// DELETE /orders/delete/:id
func (ctl *OrderController) Delete(c *gin.Context) {
	order, err := ctl.Service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Order deleted successfully", gin.H{"order": order})
}

// PATCH /orders/complete-payment/:id
func (ctl *OrderController) CompletePayment(c *gin.Context) {
	order, err := ctl.Service.CompletePayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Payment completed successfully.", gin.H{"order": order})
}

// PATCH /orders/in-transit/:id
func (ctl *OrderController) MarkInTransit(c *gin.Context) {
	var req dto.LocationRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := ctl.Service.MarkInTransit(c.Request.Context(), c.Param("id"), middleware.CurrentActor(c), req.Location)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "This order is in transit now.", gin.H{"order": order})
}

// PATCH /orders/complete-order/:id
func (ctl *OrderController) CompleteOrder(c *gin.Context) {
	var req dto.LocationRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := ctl.Service.CompleteOrder(c.Request.Context(), c.Param("id"), middleware.CurrentActor(c), req.Location)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Order delivered and completed successfully.", gin.H{"order": order})
}

// PATCH /orders/cancel/:id
func (ctl *OrderController) Cancel(c *gin.Context) {
	order, err := ctl.Service.CancelOrder(c.Request.Context(), c.Param("id"), middleware.CurrentActor(c))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Order cancelled successfully.", gin.H{"order": order})
}

// POST /orders/confirm-delivery (token optional)
func (ctl *OrderController) ConfirmDelivery(c *gin.Context) {
	var req dto.ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := ctl.Service.ConfirmDelivery(c.Request.Context(), middleware.CurrentActor(c), service.ConfirmDeliveryInput{
		PurchaseNumber: req.PurchaseNumber,
		Signature:      req.Signature,
		ReceivedBy:     req.ReceivedBy,
		Notes:          req.Notes,
		Location:       req.Location,
	})
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Delivery confirmed", gin.H{"orderStatus": order.FulfillmentStatus})
}

// GET /orders/track?purchaseNumber=
func (ctl *OrderController) Track(c *gin.Context) {
	view, err := ctl.Service.TrackByPurchaseNumber(c.Request.Context(), c.Query("purchaseNumber"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Order status retrieved", gin.H{"orderStatus": view})
}

// GET /sales-summary
func (ctl *OrderController) SalesSummary(c *gin.Context) {
	summary, err := ctl.Service.SalesSummary(c.Request.Context(), time.Now())
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{
		"dailySales":  summary.DailySales,
		"weeklySales": summary.WeeklySales,
		"totalSales":  summary.TotalSales,
	})
}
