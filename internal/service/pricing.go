package service

import (
	"context"
	"fmt"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/model"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductReader interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Product, error)
}

// OrderLine is one requested product and quantity.
type OrderLine struct {
	ProductID primitive.ObjectID
	Quantity  int
}

// Pricer snapshots catalog prices into order lines. Money is summed as
// decimals and rounded to cents.
type Pricer struct {
	products ProductReader
}

func NewPricer(products ProductReader) *Pricer {
	return &Pricer{products: products}
}

func (p *Pricer) Price(ctx context.Context, lines []OrderLine) ([]model.OrderProduct, float64, error) {
	ids := make([]primitive.ObjectID, 0, len(lines))
	seen := make(map[primitive.ObjectID]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}

	found, err := p.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, apperr.Unexpected(err, "loading products")
	}
	byID := make(map[primitive.ObjectID]*model.Product, len(found))
	for _, prod := range found {
		byID[prod.ID] = prod
	}

	total := decimal.Zero
	out := make([]model.OrderProduct, 0, len(lines))
	for _, l := range lines {
		prod, ok := byID[l.ProductID]
		if !ok {
			return nil, 0, apperr.New(apperr.CodeNotFound, ErrProductNotFound.Reason(), fmt.Sprintf("product %s not found", l.ProductID.Hex()))
		}
		unit := decimal.NewFromFloat(prod.EffectivePrice()).Round(2)
		subtotal := unit.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		total = total.Add(subtotal)

		out = append(out, model.OrderProduct{
			Product:     prod.ID,
			ProductName: prod.ProductName,
			UnitPrice:   unit.InexactFloat64(),
			Quantity:    l.Quantity,
			Subtotal:    subtotal.InexactFloat64(),
		})
	}
	return out, total.Round(2).InexactFloat64(), nil
}
