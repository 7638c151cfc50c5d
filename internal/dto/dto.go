// dto.go
package dto

// OrderItemRequest is one line of a new order.
type OrderItemRequest struct {
	ProductID string `json:"productId" binding:"required,objectid"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type GuestInfoRequest struct {
	FullName        string `json:"fullName" binding:"required"`
	Email           string `json:"email" binding:"omitempty,email"`
	PhoneNumber     string `json:"phoneNumber"`
	DeliveryAddress string `json:"deliveryAddress"`
}

// CreateOrderRequest is accepted from registered users and guests. Status
// fields sent by clients are ignored.
type CreateOrderRequest struct {
	Products  []OrderItemRequest `json:"products" binding:"required,min=1,dive"`
	GuestInfo *GuestInfoRequest  `json:"guestInfo" binding:"omitempty"`
}

// LocationRequest is the optional body of dispatch and completion calls.
type LocationRequest struct {
	Location string `json:"location"`
}

type ConfirmDeliveryRequest struct {
	PurchaseNumber string `json:"purchaseNumber" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
	ReceivedBy     string `json:"receivedBy"`
	Notes          string `json:"notes"`
	Location       string `json:"location"`
}

type ProductRequest struct {
	ProductName        string  `json:"productName" binding:"required"`
	ProductDescription string  `json:"productDescription"`
	InitialPrice       float64 `json:"initialPrice" binding:"gte=0"`
	Price              float64 `json:"price" binding:"required,gt=0"`
	ProductQuantity    int     `json:"productQuantity" binding:"gte=0"`
	ProductImage       string  `json:"productImage" binding:"omitempty,url"`
	Category           string  `json:"category" binding:"required,objectid"`
	OnOffer            bool    `json:"onOffer"`
	OfferPrice         float64 `json:"offerPrice" binding:"gte=0"`
}

// ProductQuery binds the listing filters from the query string.
type ProductQuery struct {
	Category  string   `form:"category" binding:"omitempty,objectid"`
	IsActive  *bool    `form:"isActive"`
	Search    string   `form:"search"`
	SortBy    string   `form:"sortBy" binding:"omitempty,oneof=productName price createdAt quantity"`
	SortOrder string   `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
	Page      int64    `form:"page" binding:"omitempty,min=1"`
	Limit     int64    `form:"limit" binding:"omitempty,min=1,max=100"`
	MinPrice  *float64 `form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice  *float64 `form:"maxPrice" binding:"omitempty,gte=0"`
}

type UpdateStockRequest struct {
	ProductQuantity *int `json:"productQuantity" binding:"required,gte=0"`
}

type ApplyOfferRequest struct {
	OfferPrice float64 `json:"offerPrice" binding:"required,gt=0"`
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateUserRequest struct {
	FullName    string `json:"fullName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password" binding:"required,min=6"`
}

type UpdateUserRequest struct {
	FullName    *string `json:"fullName" binding:"omitempty,min=1"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber"`
	Password    *string `json:"password" binding:"omitempty,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}
