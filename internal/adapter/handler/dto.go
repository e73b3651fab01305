package handler

import (
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Wire types shared by the HTTP API and the gRPC JSON codec. Money is sent as
// a fixed two-decimal string so clients never round through a float.

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"image_url"`
	CategoryID  string    `json:"category_id,omitempty"`
	Stock       int       `json:"stock"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
}

type CartLineResponse struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
	Price        string `json:"price"`
	Quantity     int    `json:"quantity"`
	Stock        int    `json:"stock"`
	Subtotal     string `json:"subtotal"`
}

type CartResponse struct {
	Lines     []CartLineResponse `json:"lines"`
	ItemCount int                `json:"item_count"`
	Total     string             `json:"total"`
}

type OrderLineResponse struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id,omitempty"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
	Price        string `json:"price"`
	Quantity     int    `json:"quantity"`
	Subtotal     string `json:"subtotal"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	Total           string              `json:"total"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerAddress string              `json:"customer_address"`
	CreatedAt       time.Time           `json:"created_at"`
	Lines           []OrderLineResponse `json:"lines"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SetQuantityRequest struct {
	LineID   string `json:"line_id,omitempty"`
	Quantity int    `json:"quantity"`
}

type RemoveLineRequest struct {
	LineID string `json:"line_id"`
}

type PlaceOrderRequest struct {
	RequestID string `json:"request_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
}

type ListProductsRequest struct {
	Category string `json:"category"`
	Query    string `json:"q"`
}

type GetOrderRequest struct {
	OrderID string `json:"order_id"`
}

type Empty struct{}

func toCategories(in []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(in))
	for _, c := range in {
		out = append(out, CategoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description})
	}
	return out
}

func toProduct(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		ImageURL:    p.ImageURL,
		CategoryID:  p.CategoryID,
		Stock:       p.Stock,
		Featured:    p.Featured,
		CreatedAt:   p.CreatedAt,
	}
}

func toProducts(in []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(in))
	for _, p := range in {
		out = append(out, toProduct(p))
	}
	return out
}

func toCartLine(l domain.CartLine) CartLineResponse {
	return CartLineResponse{
		ID:           l.ID,
		ProductID:    l.ProductID,
		ProductName:  l.ProductName,
		ProductImage: l.ProductImage,
		Price:        l.Price.StringFixed(2),
		Quantity:     l.Quantity,
		Stock:        l.Stock,
		Subtotal:     l.Subtotal().StringFixed(2),
	}
}

func toCart(c domain.Cart) CartResponse {
	lines := make([]CartLineResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, toCartLine(l))
	}
	return CartResponse{Lines: lines, ItemCount: c.ItemCount(), Total: c.Total().StringFixed(2)}
}

func toOrder(o domain.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineResponse{
			ID:           l.ID,
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			ProductImage: l.ProductImage,
			Price:        l.Price.StringFixed(2),
			Quantity:     l.Quantity,
			Subtotal:     l.Subtotal().StringFixed(2),
		})
	}
	return OrderResponse{
		ID:              o.ID,
		Status:          string(o.Status),
		Total:           o.Total.StringFixed(2),
		CustomerName:    o.Customer.Name,
		CustomerEmail:   o.Customer.Email,
		CustomerAddress: o.Customer.Address,
		CreatedAt:       o.CreatedAt,
		Lines:           lines,
	}
}

func toOrders(in []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(in))
	for _, o := range in {
		out = append(out, toOrder(o))
	}
	return out
}
