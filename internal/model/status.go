package model

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
)

// FulfillmentStatus tracks physical delivery. Cancellation is only ever
// recorded on OrderStatus.
type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "Pending"
	FulfillmentProcessing FulfillmentStatus = "Processing"
	FulfillmentInTransit  FulfillmentStatus = "InTransit"
	FulfillmentDelivered  FulfillmentStatus = "Delivered"
	FulfillmentCompleted  FulfillmentStatus = "Completed"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderCompleted  OrderStatus = "Completed"
	OrderCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleCustomer:
		return true
	}
	return false
}
