package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/policy"
	"github.com/rl1809/storefront/internal/port"
)

const orderColumns = `orders.id, orders.user_id, orders.total, orders.status,
	orders.customer_name, orders.customer_email, orders.customer_address, orders.created_at`

// CheckoutCart runs the whole checkout in one transaction: read the cart with
// current prices and stock, let build price it, write the order and its lines,
// then clear the cart. Any error rolls everything back.
func (s *Store) CheckoutCart(ctx context.Context, id domain.Identity, build port.OrderBuilder) (domain.Order, error) {
	deleteScope, err := policy.Scope(id, policy.CartItems, policy.Delete)
	if err != nil {
		return domain.Order{}, err
	}

	var order domain.Order
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		cart, err := s.listCartLines(ctx, tx, id, s.dialect.lockCartRows)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return domain.ErrEmptyCart
		}

		order, err = build(cart)
		if err != nil {
			return err
		}

		if err := s.insertOrder(ctx, tx, id, order); err != nil {
			return err
		}

		clause, args := where(deleteScope)
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM cart_items WHERE `+clause), args...); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *Store) insertOrder(ctx context.Context, tx *sql.Tx, id domain.Identity, order domain.Order) error {
	owner := policy.Ownership{UserID: order.UserID}
	if err := policy.Check(id, policy.Orders, policy.Insert, owner); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO orders (id, user_id, total, status, customer_name, customer_email, customer_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		order.ID, order.UserID, order.Total, string(order.Status),
		order.Customer.Name, order.Customer.Email, order.Customer.Address, order.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	// lines are owned through their order
	if err := policy.Check(id, policy.OrderItems, policy.Insert, owner); err != nil {
		return err
	}
	for _, l := range order.Lines {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO order_items (id, order_id, product_id, quantity, price, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`),
			l.ID, order.ID, nullable(l.ProductID), l.Quantity, l.Price, l.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

// ListOrders loads the caller's orders and then all their lines with a
// single joined query.
func (s *Store) ListOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error) {
	scope, err := policy.Scope(id, policy.Orders, policy.Select)
	if err != nil {
		return nil, err
	}
	clause, args := where(scope)

	orders, err := s.queryOrders(ctx, s.q(`
		SELECT `+orderColumns+`
		FROM orders WHERE `+clause+`
		ORDER BY orders.created_at DESC, orders.id`), args...)
	if err != nil {
		return nil, err
	}

	if err := s.attachLines(ctx, id, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) GetOrder(ctx context.Context, id domain.Identity, orderID string) (*domain.Order, error) {
	scope, err := policy.Scope(id, policy.Orders, policy.Select)
	if err != nil {
		return nil, err
	}
	clause, args := where(scope, cond("orders.id = ?", orderID))

	o, err := scanOrder(s.db.QueryRowContext(ctx, s.q(`
		SELECT `+orderColumns+` FROM orders WHERE `+clause), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	orders := []domain.Order{o}
	if err := s.attachLines(ctx, id, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// attachLines fills Lines on every order. Lines whose product was deleted
// keep their price snapshot with empty display fields.
func (s *Store) attachLines(ctx context.Context, id domain.Identity, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	scope, err := policy.Scope(id, policy.OrderItems, policy.Select)
	if err != nil {
		return err
	}

	index := make(map[string]int, len(orders))
	orderIDs := make([]any, 0, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		orders[i].Lines = make([]domain.OrderLine, 0)
		orderIDs = append(orderIDs, o.ID)
	}
	clause, args := where(scope, cond("order_items.order_id IN ("+placeholders(len(orderIDs))+")", orderIDs...))

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT order_items.id, order_items.order_id, order_items.product_id, order_items.quantity,
			order_items.price, order_items.created_at, products.name, products.image_url
		FROM order_items LEFT JOIN products ON products.id = order_items.product_id
		WHERE `+clause+`
		ORDER BY order_items.created_at, order_items.id`), args...)
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l                  domain.OrderLine
			productID          sql.NullString
			productName, image sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &productID, &l.Quantity,
			&l.Price, &l.CreatedAt, &productName, &image); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		l.ProductID = productID.String
		l.ProductName = productName.String
		l.ProductImage = image.String
		l.CreatedAt = l.CreatedAt.UTC()

		if i, ok := index[l.OrderID]; ok {
			orders[i].Lines = append(orders[i].Lines, l)
		}
	}
	return rows.Err()
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Total, &status,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Address, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return o, err
	}
	if err != nil {
		return o, fmt.Errorf("scan order: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
