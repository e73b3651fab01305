package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/policy"
)

const productColumns = `products.id, products.name, products.description, products.price,
	products.image_url, products.category_id, products.stock, products.featured, products.created_at`

// Catalog rows are public, so reads go through the policy as the anonymous caller.
var catalogReader = domain.Identity{}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	scope, err := policy.Scope(catalogReader, policy.Categories, policy.Select)
	if err != nil {
		return nil, err
	}
	clause, args := where(scope)

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT categories.id, categories.name, categories.slug, categories.description
		FROM categories WHERE `+clause+`
		ORDER BY categories.name`), args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	scope, err := policy.Scope(catalogReader, policy.Products, policy.Select)
	if err != nil {
		return nil, err
	}
	clause, args := where(scope)

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+productColumns+`
		FROM products WHERE `+clause+`
		ORDER BY products.created_at DESC, products.id`), args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.getProduct(ctx, s.db, productID)
}

func (s *Store) getProduct(ctx context.Context, q querier, productID string) (*domain.Product, error) {
	scope, err := policy.Scope(catalogReader, policy.Products, policy.Select)
	if err != nil {
		return nil, err
	}
	clause, args := where(scope, cond("products.id = ?", productID))

	p, err := scanProduct(q.QueryRowContext(ctx, s.q(`
		SELECT `+productColumns+`
		FROM products WHERE `+clause), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p          domain.Product
		categoryID sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price,
		&p.ImageURL, &categoryID, &p.Stock, &p.Featured, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("scan product: %w", err)
	}
	p.CategoryID = categoryID.String
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// ImportResult counts what ImportCatalog wrote.
type ImportResult struct {
	Categories int
	Products   int
}

// ImportCatalog loads categories and products for operators. Catalog writes
// have no policy rule, so this path is only reachable from the CLI. Existing
// categories (by slug) and products (by name) are left untouched, which makes
// repeated imports safe.
//
// Products reference their category by slug through CategoryID.
func (s *Store) ImportCatalog(ctx context.Context, categories []domain.Category, products []domain.Product) (ImportResult, error) {
	var res ImportResult

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ids := make(map[string]string, len(categories))

		for _, c := range categories {
			var existing string
			err := tx.QueryRowContext(ctx, s.q(`SELECT id FROM categories WHERE slug = ?`), c.Slug).Scan(&existing)
			switch {
			case err == nil:
				ids[c.Slug] = existing
				continue
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("lookup category %s: %w", c.Slug, err)
			}

			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO categories (id, name, slug, description) VALUES (?, ?, ?, ?)`),
				c.ID, c.Name, c.Slug, c.Description,
			); err != nil {
				return fmt.Errorf("insert category %s: %w", c.Slug, err)
			}
			ids[c.Slug] = c.ID
			res.Categories++
		}

		for _, p := range products {
			var existing string
			err := tx.QueryRowContext(ctx, s.q(`SELECT id FROM products WHERE name = ?`), p.Name).Scan(&existing)
			switch {
			case err == nil:
				continue
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("lookup product %s: %w", p.Name, err)
			}

			var categoryID sql.NullString
			if p.CategoryID != "" {
				id, ok := ids[p.CategoryID]
				if !ok {
					return fmt.Errorf("product %s: unknown category %q", p.Name, p.CategoryID)
				}
				categoryID = sql.NullString{String: id, Valid: true}
			}
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if p.CreatedAt.IsZero() {
				p.CreatedAt = s.now()
			}

			if _, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO products (id, name, description, price, image_url, category_id, stock, featured, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
				p.ID, p.Name, p.Description, p.Price, p.ImageURL, categoryID, p.Stock, p.Featured, p.CreatedAt,
			); err != nil {
				return fmt.Errorf("insert product %s: %w", p.Name, err)
			}
			res.Products++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}
