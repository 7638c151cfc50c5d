package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ProductRepository interface {
	ProductReader
	Insert(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	FindByName(ctx context.Context, name string) (*model.Product, error)
	List(ctx context.Context, f model.ProductFilter) ([]*model.Product, int64, error)
	Replace(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
}

type CategoryRepository interface {
	Insert(ctx context.Context, c *model.Category) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	FindAll(ctx context.Context) ([]*model.Category, error)
	Replace(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type AuditLogRepository interface {
	Insert(ctx context.Context, l *model.AuditLog) error
}

var (
	ErrInvalidCategory   = apperr.New(apperr.CodeInvalidInput, "InvalidCategory", "invalid category")
	ErrProductExists     = apperr.New(apperr.CodeConflict, "ProductExists", "product already exists")
	ErrCategoryExists    = apperr.New(apperr.CodeConflict, "CategoryExists", "category already exists")
	ErrCategoryNotFound  = apperr.New(apperr.CodeNotFound, "CategoryNotFound", "category not found")
	ErrInvalidOfferPrice = apperr.New(apperr.CodeInvalidInput, "InvalidOfferPrice", "offer price must be greater than zero")
)

const (
	defaultPageSize    = 10
	auditUpdateProduct = "UPDATE_PRODUCT"
)

type ProductInput struct {
	ProductName        string
	ProductDescription string
	InitialPrice       float64
	Price              float64
	ProductQuantity    int
	ProductImage       string
	Category           string
	OnOffer            bool
	OfferPrice         float64
}

type ProductPage struct {
	Products    []*model.Product `json:"products"`
	TotalCount  int64            `json:"totalCount"`
	TotalPages  int64            `json:"totalPages"`
	CurrentPage int64            `json:"currentPage"`
}

type CatalogService struct {
	products   ProductRepository
	categories CategoryRepository
	audit      AuditLogRepository
	log        *zap.Logger
}

func NewCatalogService(products ProductRepository, categories CategoryRepository, audit AuditLogRepository, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{products: products, categories: categories, audit: audit, log: log}
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor *model.Actor, in ProductInput) (*model.Product, error) {
	categoryID, err := s.requireCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.ProductName)
	if _, err := s.products.FindByName(ctx, name); err == nil {
		return nil, ErrProductExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unexpected(err, "checking product name")
	}

	p := &model.Product{
		ProductName:        name,
		ProductDescription: in.ProductDescription,
		InitialPrice:       in.InitialPrice,
		Price:              in.Price,
		ProductQuantity:    in.ProductQuantity,
		ProductImage:       in.ProductImage,
		Category:           categoryID,
		OnOffer:            in.OnOffer,
		OfferPrice:         in.OfferPrice,
		IsActive:           true,
		CreatedBy:          actor.IDPtr(),
	}
	if err := s.products.Insert(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProductExists
		}
		return nil, apperr.Unexpected(err, "saving product")
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f model.ProductFilter) (*ProductPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	items, total, err := s.products.List(ctx, f)
	if err != nil {
		return nil, apperr.Unexpected(err, "listing products")
	}
	if items == nil {
		items = []*model.Product{}
	}
	return &ProductPage{
		Products:    items,
		TotalCount:  total,
		TotalPages:  int64(math.Ceil(float64(total) / float64(f.Limit))),
		CurrentPage: f.Page,
	}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, oid)
	if err != nil {
		return nil, notFoundAs(err, ErrProductNotFound, "loading product")
	}
	return p, nil
}

// UpdateProduct replaces the editable fields and records the before and
// after values in the audit log.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor *model.Actor, id string, in ProductInput) (*model.Product, error) {
	categoryID, err := s.requireCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	old := auditSnapshot(p)

	p.ProductName = strings.TrimSpace(in.ProductName)
	p.ProductDescription = in.ProductDescription
	p.Price = in.Price
	p.ProductQuantity = in.ProductQuantity
	p.ProductImage = in.ProductImage
	p.Category = categoryID
	if err := s.saveProduct(ctx, p); err != nil {
		return nil, err
	}

	entry := &model.AuditLog{
		Action:         auditUpdateProduct,
		CollectionName: "products",
		DocumentID:     p.ID,
		PerformedBy:    actor.IDPtr(),
		Payload:        map[string]any{"oldData": old, "newData": auditSnapshot(p)},
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Error("audit log not written", zap.String("product_id", p.ID.Hex()), zap.Error(err))
	}
	return p, nil
}

func auditSnapshot(p *model.Product) map[string]any {
	return map[string]any{
		"productName":        p.ProductName,
		"productDescription": p.ProductDescription,
		"price":              p.Price,
		"productQuantity":    p.ProductQuantity,
		"productImage":       p.ProductImage,
		"category":           p.Category,
	}
}

// SoftDeleteProduct hides a product from the storefront.
func (s *CatalogService) SoftDeleteProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = false
	if err := s.saveProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) (*model.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.products.Delete(ctx, oid)
	if err != nil {
		return nil, notFoundAs(err, ErrProductNotFound, "deleting product")
	}
	return p, nil
}

// CheckStock deactivates a product that ran out. The boolean reports whether
// it was deactivated.
func (s *CatalogService) CheckStock(ctx context.Context, id string) (*model.Product, bool, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if p.ProductQuantity > 0 {
		return p, false, nil
	}
	p.IsActive = false
	if err := s.saveProduct(ctx, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// UpdateStock sets the quantity on hand and reactivates restocked products.
func (s *CatalogService) UpdateStock(ctx context.Context, id string, quantity int) (*model.Product, error) {
	if quantity < 0 {
		return nil, apperr.InvalidInput("quantity cannot be negative")
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ProductQuantity = quantity
	if quantity > 0 {
		p.IsActive = true
	}
	if err := s.saveProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) ApplyOffer(ctx context.Context, id string, offerPrice float64) (*model.Product, error) {
	if offerPrice <= 0 {
		return nil, ErrInvalidOfferPrice
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.OnOffer = true
	p.OfferPrice = offerPrice
	if err := s.saveProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) saveProduct(ctx context.Context, p *model.Product) error {
	err := s.products.Replace(ctx, p)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrProductExists
	default:
		return apperr.Unexpected(err, "saving product")
	}
}

func (s *CatalogService) requireCategory(ctx context.Context, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidCategory
	}
	if _, err := s.categories.FindByID(ctx, oid); err != nil {
		return primitive.NilObjectID, notFoundAs(err, ErrInvalidCategory, "loading category")
	}
	return oid, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor *model.Actor, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if _, err := s.categories.FindByName(ctx, name); err == nil {
		return nil, ErrCategoryExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unexpected(err, "checking category name")
	}
	c := &model.Category{Name: name, Description: description, CreatedBy: actor.IDPtr()}
	if err := s.categories.Insert(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategoryExists
		}
		return nil, apperr.Unexpected(err, "saving category")
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	cats, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err, "listing categories")
	}
	if cats == nil {
		cats = []*model.Category{}
	}
	return cats, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	c, err := s.categories.FindByID(ctx, oid)
	if err != nil {
		return nil, notFoundAs(err, ErrCategoryNotFound, "loading category")
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id, name, description string) (*model.Category, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(name)
	c.Description = description
	err = s.categories.Replace(ctx, c)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrCategoryNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrCategoryExists
	default:
		return nil, apperr.Unexpected(err, "saving category")
	}
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, oid); err != nil {
		return notFoundAs(err, ErrCategoryNotFound, "deleting category")
	}
	return nil
}
