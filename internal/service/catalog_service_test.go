package service

import (
	"context"
	"testing"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newCatalog(t *testing.T) (*CatalogService, *fakeProducts, *model.Category, *fakeAudit) {
	t.Helper()
	cat := &model.Category{Name: "Lighting"}
	products := newFakeProducts()
	audit := &fakeAudit{}
	return NewCatalogService(products, newFakeCategories(cat), audit, nil), products, cat, audit
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	svc, _, cat, _ := newCatalog(t)
	admin := &model.Actor{ID: primitive.NewObjectID(), Role: model.RoleAdmin}

	p, err := svc.CreateProduct(ctx, admin, ProductInput{ProductName: " Lamp ", Price: 25, ProductQuantity: 3, Category: cat.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.ProductName)
	assert.True(t, p.IsActive)
	assert.Equal(t, admin.ID, *p.CreatedBy)

	_, err = svc.CreateProduct(ctx, admin, ProductInput{ProductName: "Lamp", Price: 30, Category: cat.ID.Hex()})
	assert.ErrorIs(t, err, ErrProductExists)

	_, err = svc.CreateProduct(ctx, admin, ProductInput{ProductName: "Desk", Price: 30, Category: primitive.NewObjectID().Hex()})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestUpdateProductWritesAuditLog(t *testing.T) {
	ctx := context.Background()
	svc, _, cat, audit := newCatalog(t)
	admin := &model.Actor{ID: primitive.NewObjectID(), Role: model.RoleAdmin}

	p, err := svc.CreateProduct(ctx, admin, ProductInput{ProductName: "Lamp", Price: 25, Category: cat.ID.Hex()})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, admin, p.ID.Hex(), ProductInput{ProductName: "Desk Lamp", Price: 30, ProductQuantity: 7, Category: cat.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", updated.ProductName)
	assert.Equal(t, 30.0, updated.Price)

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, "UPDATE_PRODUCT", entry.Action)
	assert.Equal(t, p.ID, entry.DocumentID)
	payload, ok := entry.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Lamp", payload["oldData"].(map[string]any)["productName"])
	assert.Equal(t, "Desk Lamp", payload["newData"].(map[string]any)["productName"])
}

func TestStockAndOffers(t *testing.T) {
	ctx := context.Background()
	svc, products, cat, _ := newCatalog(t)

	p, err := svc.CreateProduct(ctx, nil, ProductInput{ProductName: "Lamp", Price: 25, ProductQuantity: 0, Category: cat.ID.Hex()})
	require.NoError(t, err)

	checked, deactivated, err := svc.CheckStock(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.True(t, deactivated)
	assert.False(t, checked.IsActive)

	restocked, err := svc.UpdateStock(ctx, p.ID.Hex(), 4)
	require.NoError(t, err)
	assert.True(t, restocked.IsActive)
	assert.Equal(t, 4, restocked.ProductQuantity)

	_, deactivated, err = svc.CheckStock(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.False(t, deactivated)

	_, err = svc.UpdateStock(ctx, p.ID.Hex(), -1)
	assertCode(t, err, apperr.CodeInvalidInput)

	offered, err := svc.ApplyOffer(ctx, p.ID.Hex(), 19.5)
	require.NoError(t, err)
	assert.True(t, offered.OnOffer)
	assert.Equal(t, 19.5, offered.EffectivePrice())

	_, err = svc.ApplyOffer(ctx, p.ID.Hex(), 0)
	assert.ErrorIs(t, err, ErrInvalidOfferPrice)

	soft, err := svc.SoftDeleteProduct(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.False(t, soft.IsActive)

	_, err = svc.DeleteProduct(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, products.byID)
	_, err = svc.GetProduct(ctx, p.ID.Hex())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListProductsPaginates(t *testing.T) {
	ctx := context.Background()
	svc, _, cat, _ := newCatalog(t)
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		_, err := svc.CreateProduct(ctx, nil, ProductInput{ProductName: name, Price: 1, Category: cat.ID.Hex()})
		require.NoError(t, err)
	}

	page, err := svc.ListProducts(ctx, model.ProductFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalCount)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Equal(t, int64(2), page.CurrentPage)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "C", page.Products[0].ProductName)

	page, err = svc.ListProducts(ctx, model.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalPages)
	assert.Len(t, page.Products, 5)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	svc, _, cat, _ := newCatalog(t)

	_, err := svc.CreateCategory(ctx, nil, "Lighting", "")
	assert.ErrorIs(t, err, ErrCategoryExists)

	c, err := svc.CreateCategory(ctx, nil, "Garden", "outdoor")
	require.NoError(t, err)

	all, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	updated, err := svc.UpdateCategory(ctx, c.ID.Hex(), "Garden & Patio", "outdoor")
	require.NoError(t, err)
	assert.Equal(t, "Garden & Patio", updated.Name)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID.Hex()))
	_, err = svc.GetCategory(ctx, cat.ID.Hex())
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, cat.ID.Hex()), ErrCategoryNotFound)
}
