package service

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// AllCategories disables the category filter, as does an empty CategoryID.
const AllCategories = "all"

// ProductFilter is applied to the product list after it has been fetched.
type ProductFilter struct {
	CategoryID string
	Search     string
}

// Match reports whether p passes both the category and the text filter.
// The text filter is a case-insensitive substring match on name or description.
func (f ProductFilter) Match(p domain.Product) bool {
	if f.CategoryID != "" && f.CategoryID != AllCategories && p.CategoryID != f.CategoryID {
		return false
	}

	term := fold(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(fold(p.Name), term) || strings.Contains(fold(p.Description), term)
}

func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

type CatalogService struct {
	repo port.CatalogRepository
}

func NewCatalogService(repo port.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, storageError("list categories", err)
	}
	return categories, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, storageError("list products", err)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, storageError("get product", err)
	}
	return product, nil
}

// Browse lists products and keeps the ones matching filter, preserving order.
func (s *CatalogService) Browse(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if filter.Match(p) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (s *CatalogService) Featured(ctx context.Context) ([]domain.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	featured := make([]domain.Product, 0)
	for _, p := range products {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	return featured, nil
}
