package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/repository"
)

const maxCartQuantity = 100

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) ([]*domain.CartItem, error) {
	return s.repo.ListCartItems(ctx, userID)
}

// AddItem upserts on (owner, product): repeat adds accumulate into the
// existing row.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	if quantity < 1 || quantity > maxCartQuantity {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, &ProductMissingError{ProductID: productID}
	}
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}

	return s.repo.AddCartItem(ctx, userID, product.ID, quantity)
}

// UpdateQuantity sets an absolute quantity; zero removes the row. A nil item
// with nil error means the row was deleted.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.CartItem, error) {
	if quantity < 0 || quantity > maxCartQuantity {
		return nil, ErrInvalidQuantity
	}
	return s.repo.SetCartItemQuantity(ctx, userID, itemID, quantity)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	return s.repo.RemoveCartItem(ctx, userID, itemID)
}
