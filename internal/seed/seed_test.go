package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Len(t, c.Categories, 3)
	require.Len(t, c.Products, 6)

	headphones := c.Products[0]
	assert.Equal(t, "Wireless Headphones", headphones.Name)
	assert.Equal(t, "199.99", headphones.Price.StringFixed(2))
	assert.Equal(t, 50, headphones.Stock)
	assert.Equal(t, "audio", headphones.CategoryID)
	assert.True(t, headphones.Featured)

	for i := 1; i < len(c.Products); i++ {
		assert.True(t, c.Products[i].CreatedAt.After(c.Products[i-1].CreatedAt))
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad yaml":         "categories: [",
		"missing slug":     "categories:\n  - name: A\n",
		"duplicate slug":   "categories:\n  - {name: A, slug: a}\n  - {name: B, slug: a}\n",
		"bad price":        "products:\n  - {name: P, price: cheap}\n",
		"negative price":   "products:\n  - {name: P, price: \"-1\"}\n",
		"negative stock":   "products:\n  - {name: P, price: \"1\", stock: -2}\n",
		"unknown category": "products:\n  - {name: P, price: \"1\", category: nope}\n",
		"missing name":     "products:\n  - {price: \"1\"}\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - {name: Tea, slug: tea}\nproducts:\n  - {name: Sencha, price: \"8.5\", category: tea, stock: 3}\n"), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, c.Products, 1)
	assert.Equal(t, "8.50", c.Products[0].Price.StringFixed(2))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
