package storage

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

var (
	//go:embed schema/sqlite.sql
	sqliteSchema string
	//go:embed schema/mysql.sql
	mysqlSchema string
	//go:embed schema/postgres.sql
	postgresSchema string
)

// Dialect carries what differs between the supported databases. Queries are
// written once with '?' placeholders and rebound per dialect.
type Dialect struct {
	Name       string
	DriverName string

	schema string
	rebind func(string) string

	// upsertCartLine inserts (id, user_id, product_id, quantity, created_at),
	// adding quantity to the existing row on a (user_id, product_id) conflict.
	upsertCartLine string

	// lockCartRows is appended to the checkout snapshot read.
	lockCartRows string
}

var SQLite = Dialect{
	Name:       "sqlite",
	DriverName: "sqlite3",
	schema:     sqliteSchema,
	rebind:     keepPlaceholders,
	upsertCartLine: `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + excluded.quantity`,
	// one connection, writes are already serialised
	lockCartRows: "",
}

var MySQL = Dialect{
	Name:       "mysql",
	DriverName: "mysql",
	schema:     mysqlSchema,
	rebind:     keepPlaceholders,
	upsertCartLine: `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at)
		VALUES (?, ?, ?, ?, ?) AS incoming
		ON DUPLICATE KEY UPDATE quantity = cart_items.quantity + incoming.quantity`,
	lockCartRows: " FOR UPDATE OF cart_items",
}

var Postgres = Dialect{
	Name:       "postgres",
	DriverName: "postgres",
	schema:     postgresSchema,
	rebind:     dollarPlaceholders,
	upsertCartLine: `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
	lockCartRows: " FOR UPDATE OF cart_items",
}

// DialectFor maps a configured driver name to its dialect.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
}

// statements splits the embedded schema into single statements; not every
// driver accepts several statements in one Exec.
func (d Dialect) statements() []string {
	var stmts []string
	for _, s := range strings.Split(d.schema, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func keepPlaceholders(q string) string { return q }

func dollarPlaceholders(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
