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

const cartLineColumns = `cart_items.id, cart_items.user_id, cart_items.product_id, cart_items.quantity,
	cart_items.created_at, products.name, products.image_url, products.price, products.stock`

// UpsertCartLine adds delta to the caller's line for productID in a single
// statement, so concurrent adds of the same product never lose an increment.
func (s *Store) UpsertCartLine(ctx context.Context, id domain.Identity, productID string, delta int) (domain.CartLine, error) {
	owner := policy.Ownership{UserID: id.UserID}
	if err := policy.Check(id, policy.CartItems, policy.Insert, owner); err != nil {
		return domain.CartLine{}, err
	}
	if err := policy.Check(id, policy.CartItems, policy.Update, owner); err != nil {
		return domain.CartLine{}, err
	}

	var line domain.CartLine
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getProduct(ctx, tx, productID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, s.q(s.dialect.upsertCartLine),
			uuid.NewString(), id.UserID, productID, delta, s.now(),
		); err != nil {
			return fmt.Errorf("upsert cart line: %w", err)
		}

		scope, err := policy.Scope(id, policy.CartItems, policy.Select)
		if err != nil {
			return err
		}
		clause, args := where(scope, cond("cart_items.product_id = ?", productID))

		line, err = scanCartLine(tx.QueryRowContext(ctx, s.q(`
			SELECT `+cartLineColumns+`
			FROM cart_items JOIN products ON products.id = cart_items.product_id
			WHERE `+clause), args...))
		return err
	})
	if err != nil {
		return domain.CartLine{}, err
	}
	return line, nil
}

// SetCartLineQuantity reports domain.ErrNotFound for lines the caller cannot
// see. The row is looked up first because MySQL reports zero affected rows
// when the quantity does not change.
func (s *Store) SetCartLineQuantity(ctx context.Context, id domain.Identity, lineID string, quantity int) error {
	scope, err := policy.Scope(id, policy.CartItems, policy.Update)
	if err != nil {
		return err
	}
	clause, args := where(scope, cond("cart_items.id = ?", lineID))

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var found string
		err := tx.QueryRowContext(ctx, s.q(`SELECT cart_items.id FROM cart_items WHERE `+clause), args...).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup cart line: %w", err)
		}

		if _, err := tx.ExecContext(ctx, s.q(`UPDATE cart_items SET quantity = ? WHERE `+clause),
			append([]any{quantity}, args...)...,
		); err != nil {
			return fmt.Errorf("update cart line: %w", err)
		}
		return nil
	})
}

// DeleteCartLine is idempotent: deleting a line that is gone, or was never
// visible to the caller, succeeds without touching anything.
func (s *Store) DeleteCartLine(ctx context.Context, id domain.Identity, lineID string) error {
	scope, err := policy.Scope(id, policy.CartItems, policy.Delete)
	if err != nil {
		return err
	}
	clause, args := where(scope, cond("cart_items.id = ?", lineID))

	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM cart_items WHERE `+clause), args...); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}

func (s *Store) ListCartLines(ctx context.Context, id domain.Identity) ([]domain.CartLine, error) {
	return s.listCartLines(ctx, s.db, id, "")
}

func (s *Store) listCartLines(ctx context.Context, q querier, id domain.Identity, suffix string) ([]domain.CartLine, error) {
	scope, err := policy.Scope(id, policy.CartItems, policy.Select)
	if err != nil {
		return nil, err
	}
	clause, args := where(scope)

	rows, err := q.QueryContext(ctx, s.q(`
		SELECT `+cartLineColumns+`
		FROM cart_items JOIN products ON products.id = cart_items.product_id
		WHERE `+clause+`
		ORDER BY cart_items.created_at, cart_items.id`+suffix), args...)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		l, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanCartLine(row rowScanner) (domain.CartLine, error) {
	var l domain.CartLine
	err := row.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity,
		&l.CreatedAt, &l.ProductName, &l.ProductImage, &l.Price, &l.Stock)
	if err != nil {
		return l, fmt.Errorf("scan cart line: %w", err)
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return l, nil
}
