// Package seed holds the demo catalog loaded by "storefront seed".
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/storefront/internal/core/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Categories []categoryEntry `yaml:"categories"`
	Products   []productEntry  `yaml:"products"`
}

type categoryEntry struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

type productEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	ImageURL    string `yaml:"image_url"`
	Category    string `yaml:"category"`
	Stock       int    `yaml:"stock"`
	Featured    bool   `yaml:"featured"`
}

// Catalog is a parsed catalog file. Product.CategoryID holds the category
// slug until the store resolves it.
type Catalog struct {
	Categories []domain.Category
	Products   []domain.Product
}

// Default returns the embedded demo catalog.
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog. Products are stamped a second apart
// in file order, so the first product listed is the oldest.
func Parse(data []byte) (Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}

	slugs := make(map[string]bool, len(file.Categories))
	var c Catalog
	for _, e := range file.Categories {
		if e.Name == "" || e.Slug == "" {
			return Catalog{}, fmt.Errorf("category %q: name and slug are required", e.Name)
		}
		if slugs[e.Slug] {
			return Catalog{}, fmt.Errorf("category %q: duplicate slug", e.Slug)
		}
		slugs[e.Slug] = true
		c.Categories = append(c.Categories, domain.Category{Name: e.Name, Slug: e.Slug, Description: e.Description})
	}

	base := time.Now().UTC().Truncate(time.Second).Add(-time.Duration(len(file.Products)) * time.Second)
	for i, e := range file.Products {
		if e.Name == "" {
			return Catalog{}, fmt.Errorf("product %d: name is required", i+1)
		}
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return Catalog{}, fmt.Errorf("product %q: price: %w", e.Name, err)
		}
		if price.IsNegative() {
			return Catalog{}, fmt.Errorf("product %q: price must not be negative", e.Name)
		}
		if e.Stock < 0 {
			return Catalog{}, fmt.Errorf("product %q: stock must not be negative", e.Name)
		}
		if e.Category != "" && !slugs[e.Category] {
			return Catalog{}, fmt.Errorf("product %q: unknown category %q", e.Name, e.Category)
		}

		c.Products = append(c.Products, domain.Product{
			Name:        e.Name,
			Description: e.Description,
			Price:       price,
			ImageURL:    e.ImageURL,
			CategoryID:  e.Category,
			Stock:       e.Stock,
			Featured:    e.Featured,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		})
	}
	return c, nil
}
