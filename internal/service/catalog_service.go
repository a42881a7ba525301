package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grocery-api/internal/domain"
	"grocery-api/internal/repository"

	"github.com/google/uuid"
)

// CatalogService exposes the read-mostly product and category catalog.
// Create/Update/Delete are admin operations; the transport layer gates them.
type CatalogService interface {
	ListProducts(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, name, description string, price float64, categoryID uuid.UUID, imageURL string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository) CatalogService {
	return &catalogService{products: products, categories: categories}
}

func (s *catalogService) ListProducts(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	return s.products.List(ctx, categoryID, page, pageSize, sortBy, sortOrder)
}

func (s *catalogService) SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return s.products.Search(ctx, query, page, pageSize)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// CreateProduct validates the category reference before inserting
func (s *catalogService) CreateProduct(ctx context.Context, name, description string, price float64, categoryID uuid.UUID, imageURL string) (*domain.Product, error) {
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to check category: %w", err)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Price:       price,
		CategoryID:  categoryID,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now().UTC()
	return s.products.Update(ctx, product)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}
