package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/cache"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/repository"
	"golang.org/x/sync/singleflight"
)

type ProductService struct {
	repo  repository.ProductRepository
	cache cache.ProductCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewProductService(repo repository.ProductRepository, cache cache.ProductCache) *ProductService {
	return &ProductService{
		repo:  repo,
		cache: cache,
	}
}

// GetProduct serves single-product reads through the cache; concurrent
// misses for the same ID collapse into one repository query.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		product, err := s.cache.Get(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("product cache get error: %v", err)
		}

		product, errGet := s.repo.GetProduct(ctx, id)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(cacheCtx, product); errSet != nil {
				log.Printf("product cache set error: %v", errSet)
			}
		}()

		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (s *ProductService) ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	return s.repo.ListProducts(ctx, filter)
}

func (s *ProductService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.repo.CreateProduct(ctx, p)
}

func (s *ProductService) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return err
	}
	s.invalidate(p.ID)
	return nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *ProductService) invalidate(productID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, productID); err != nil {
		log.Printf("product cache invalidate error: %v", err)
	}
}

func validateProduct(p *domain.Product) error {
	verr := &ValidationError{}
	if p.Name == "" {
		verr.add("name", "Name is required")
	} else if len(p.Name) > 100 {
		verr.add("name", "Name must be at most 100 characters")
	}
	if p.Price <= 0 {
		verr.add("price", "Price must be positive")
	}
	if len(p.SKU) < 3 {
		verr.add("sku", "SKU must be at least 3 characters")
	} else if len(p.SKU) > 20 {
		verr.add("sku", "SKU must be at most 20 characters")
	}
	if p.Category == "" {
		verr.add("category", "Category is required")
	}
	if p.Stock < 0 {
		verr.add("stock", "Stock must be non-negative")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
