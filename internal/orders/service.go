package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/museeloquente/storefront/internal/api"
	pkgerrors "github.com/museeloquente/storefront/pkg/errors"
)

type ordersAPI interface {
	ListOrders(ctx context.Context) ([]api.Order, error)
	DownloadLink(ctx context.Context, productID int64) (*api.DownloadResponse, error)
	BaseURL() string
}

// Service exposes the shopper's order history and the download gate. The
// history listing is the authoritative copy of every past order; the client
// never persists orders locally.
type Service struct {
	backend ordersAPI
}

func NewService(backend ordersAPI) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	return &Service{backend: backend}, nil
}

func (s *Service) List(ctx context.Context) ([]api.Order, error) {
	return s.backend.ListOrders(ctx)
}

// Downloadable checks, against an already-loaded history, whether the
// product can be downloaded. Products outside any paid order are rejected
// here, with no network call.
func Downloadable(orders []api.Order, productID int64) error {
	owned := false
	for _, order := range orders {
		for _, item := range order.Items {
			if item.ProductID != productID {
				continue
			}
			owned = true
			if order.Paid() {
				return nil
			}
		}
	}
	if !owned {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d is not part of any of your orders", productID))
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("the order containing product %d is not paid yet", productID))
}

// DownloadURL gates client-side first, then asks the backend for the signed
// link. Relative links are resolved against the API origin, mirroring how
// the catalogue serves static assets.
func (s *Service) DownloadURL(ctx context.Context, history []api.Order, productID int64) (string, error) {
	if err := Downloadable(history, productID); err != nil {
		return "", err
	}

	res, err := s.backend.DownloadLink(ctx, productID)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(res.URL, "http") {
		return res.URL, nil
	}
	return strings.TrimRight(s.backend.BaseURL(), "/") + res.URL, nil
}
