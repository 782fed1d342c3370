package catalogue

import (
	"context"
	"fmt"

	"github.com/museeloquente/storefront/internal/api"
	"github.com/museeloquente/storefront/internal/cart"
	pkgerrors "github.com/museeloquente/storefront/pkg/errors"
)

type productAPI interface {
	ListProducts(ctx context.Context) ([]api.Product, error)
}

// Service reads the catalogue and resolves product ids into cart lines.
type Service struct {
	backend productAPI
}

func NewService(backend productAPI) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	return &Service{backend: backend}, nil
}

func (s *Service) List(ctx context.Context) ([]api.Product, error) {
	return s.backend.ListProducts(ctx)
}

// Find returns the catalogue record for the given id.
func (s *Service) Find(ctx context.Context, productID int64) (*api.Product, error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == productID {
			return &products[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no product with id %d", productID))
}

// CartLine converts a catalogue record into the cart's line shape, freezing
// the title and price at add time.
func CartLine(product api.Product) cart.Item {
	return cart.Item{
		ProductID:      product.ID,
		Title:          product.Title,
		UnitPriceCents: product.PriceCents,
	}
}
