package controller

import (
	"context"
	"net/http"

	"ecommerce-backend/internal/dto"
	"ecommerce-backend/internal/middleware"
	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CatalogService interface {
	CreateProduct(ctx context.Context, actor *model.Actor, in service.ProductInput) (*model.Product, error)
	ListProducts(ctx context.Context, f model.ProductFilter) (*service.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor *model.Actor, id string, in service.ProductInput) (*model.Product, error)
	SoftDeleteProduct(ctx context.Context, id string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) (*model.Product, error)
	CheckStock(ctx context.Context, id string) (*model.Product, bool, error)
	UpdateStock(ctx context.Context, id string, quantity int) (*model.Product, error)
	ApplyOffer(ctx context.Context, id string, offerPrice float64) (*model.Product, error)

	CreateCategory(ctx context.Context, actor *model.Actor, name, description string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	UpdateCategory(ctx context.Context, id, name, description string) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type CatalogController struct {
	Service CatalogService
	log     *zap.Logger
}

func NewCatalogController(s CatalogService, log *zap.Logger) *CatalogController {
	return &CatalogController{Service: s, log: log}
}

func productInput(req dto.ProductRequest) service.ProductInput {
	return service.ProductInput{
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		InitialPrice:       req.InitialPrice,
		Price:              req.Price,
		ProductQuantity:    req.ProductQuantity,
		ProductImage:       req.ProductImage,
		Category:           req.Category,
		OnOffer:            req.OnOffer,
		OfferPrice:         req.OfferPrice,
	}
}

// POST /products
func (ctl *CatalogController) CreateProduct(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ctl.Service.CreateProduct(c.Request.Context(), middleware.CurrentActor(c), productInput(req))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusCreated, "Product created successfully", gin.H{"product": p})
}

// GET /products
func (ctl *CatalogController) ListProducts(c *gin.Context) {
	var q dto.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	f := model.ProductFilter{
		IsActive: q.IsActive,
		Search:   q.Search,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		SortBy:   q.SortBy,
		Desc:     q.SortOrder == "desc",
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if q.Category != "" {
		// already checked by the objectid rule
		oid, _ := primitive.ObjectIDFromHex(q.Category)
		f.Category = &oid
	}

	page, err := ctl.Service.ListProducts(c.Request.Context(), f)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	if len(page.Products) == 0 {
		ok(c, http.StatusOK, "No products found.", gin.H{"data": page})
		return
	}
	ok(c, http.StatusOK, "", gin.H{"data": page})
}

// GET /products/:id
func (ctl *CatalogController) GetProduct(c *gin.Context) {
	p, err := ctl.Service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"product": p})
}

// PUT /products/update/:id
func (ctl *CatalogController) UpdateProduct(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ctl.Service.UpdateProduct(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), productInput(req))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Product updated successfully", gin.H{"product": p})
}

// DELETE /products/softdelete/:id
func (ctl *CatalogController) SoftDeleteProduct(c *gin.Context) {
	p, err := ctl.Service.SoftDeleteProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Product deactivated successfully", gin.H{"product": p})
}

// DELETE /products/delete/:id
func (ctl *CatalogController) DeleteProduct(c *gin.Context) {
	p, err := ctl.Service.DeleteProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Product deleted successfully", gin.H{"product": p})
}

// PATCH /products/:id/check-stock
func (ctl *CatalogController) CheckStock(c *gin.Context) {
	p, deactivated, err := ctl.Service.CheckStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	if deactivated {
		ok(c, http.StatusOK, "Product deactivated due to no stock", gin.H{"product": p})
		return
	}
	ok(c, http.StatusOK, "Product is in stock", gin.H{"product": p})
}

// PATCH /products/:id/update-stock
func (ctl *CatalogController) UpdateStock(c *gin.Context) {
	var req dto.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ctl.Service.UpdateStock(c.Request.Context(), c.Param("id"), *req.ProductQuantity)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Product stock updated", gin.H{"product": p})
}

// PATCH /products/:id/apply-offer
func (ctl *CatalogController) ApplyOffer(c *gin.Context) {
	var req dto.ApplyOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ctl.Service.ApplyOffer(c.Request.Context(), c.Param("id"), req.OfferPrice)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Offer applied successfully", gin.H{"product": p})
}

// POST /categories
func (ctl *CatalogController) CreateCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := ctl.Service.CreateCategory(c.Request.Context(), middleware.CurrentActor(c), req.Name, req.Description)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusCreated, "Category created successfully", gin.H{"category": cat})
}

// GET /categories
func (ctl *CatalogController) ListCategories(c *gin.Context) {
	cats, err := ctl.Service.ListCategories(c.Request.Context())
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	if len(cats) == 0 {
		ok(c, http.StatusOK, "No categories found.", gin.H{"categories": []*model.Category{}})
		return
	}
	ok(c, http.StatusOK, "", gin.H{"categories": cats})
}

// GET /categories/:id
func (ctl *CatalogController) GetCategory(c *gin.Context) {
	cat, err := ctl.Service.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"category": cat})
}

// PUT /categories/:id
func (ctl *CatalogController) UpdateCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := ctl.Service.UpdateCategory(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Category updated successfully", gin.H{"category": cat})
}

// DELETE /categories/:id
func (ctl *CatalogController) DeleteCategory(c *gin.Context) {
	if err := ctl.Service.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Category deleted successfully", nil)
}
