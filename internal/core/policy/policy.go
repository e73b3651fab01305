// Package policy is the authorization model of the storefront.
//
// Every table carries per-operation rules evaluated against the caller's
// identity. Storage enforces them by appending the predicate returned from
// Scope to its queries, and checks rows it builds in memory with Check before
// writing them. A missing rule and an ownership mismatch both surface as
// domain.ErrNotFound, so callers cannot discover rows they do not own.
package policy

import (
	"fmt"
	"strings"

	"github.com/rl1809/storefront/internal/core/domain"
)

type Table string

const (
	Categories Table = "categories"
	Products   Table = "products"
	CartItems  Table = "cart_items"
	Orders     Table = "orders"
	OrderItems Table = "order_items"
)

// Tables lists every governed table in schema order.
var Tables = []Table{Categories, Products, CartItems, Orders, OrderItems}

type Operation string

const (
	Select Operation = "select"
	Insert Operation = "insert"
	Update Operation = "update"
	Delete Operation = "delete"
)

var Operations = []Operation{Select, Insert, Update, Delete}

// Parent resolves ownership through a referenced row.
type Parent struct {
	Table Table
	Key   string // foreign key column on the governed table
	Owner string // owner column on the parent table
}

// Rule grants one operation on one table.
type Rule struct {
	Table     Table
	Operation Operation
	Public    bool    // granted to everyone, anonymous callers included
	Owner     string  // column that must equal the caller's user id
	Via       *Parent // ownership checked on the parent row instead
}

var orderParent = &Parent{Table: Orders, Key: "order_id", Owner: "user_id"}

var rules = []Rule{
	{Table: Categories, Operation: Select, Public: true},
	{Table: Products, Operation: Select, Public: true},

	{Table: CartItems, Operation: Select, Owner: "user_id"},
	{Table: CartItems, Operation: Insert, Owner: "user_id"},
	{Table: CartItems, Operation: Update, Owner: "user_id"},
	{Table: CartItems, Operation: Delete, Owner: "user_id"},

	{Table: Orders, Operation: Select, Owner: "user_id"},
	{Table: Orders, Operation: Insert, Owner: "user_id"},

	{Table: OrderItems, Operation: Select, Via: orderParent},
	{Table: OrderItems, Operation: Insert, Via: orderParent},
}

func lookup(t Table, op Operation) (Rule, bool) {
	for _, r := range rules {
		if r.Table == t && r.Operation == op {
			return r, true
		}
	}
	return Rule{}, false
}

// Predicate is a SQL boolean expression with '?' placeholders.
type Predicate struct {
	SQL  string
	Args []any
}

// Scope returns the row filter the caller is allowed to see for op on t.
// Column references are qualified with the table name.
func Scope(id domain.Identity, t Table, op Operation) (Predicate, error) {
	r, ok := lookup(t, op)
	if !ok {
		return Predicate{}, domain.ErrNotFound
	}
	if r.Public {
		return Predicate{SQL: "1 = 1"}, nil
	}
	if id.Anonymous() {
		return Predicate{}, domain.ErrAuthenticationRequired
	}
	if r.Via != nil {
		return Predicate{
			SQL:  fmt.Sprintf("%s.%s IN (SELECT id FROM %s WHERE %s.%s = ?)", t, r.Via.Key, r.Via.Table, r.Via.Table, r.Via.Owner),
			Args: []any{id.UserID},
		}, nil
	}
	return Predicate{
		SQL:  fmt.Sprintf("%s.%s = ?", t, r.Owner),
		Args: []any{id.UserID},
	}, nil
}

// Ownership describes who owns a row: its own user id, or the parent
// order's user id for tables governed through a parent.
type Ownership struct {
	UserID string
}

// Check evaluates the rule for op on t against a row the caller is about to
// write or has already loaded.
func Check(id domain.Identity, t Table, op Operation, owner Ownership) error {
	r, ok := lookup(t, op)
	if !ok {
		return domain.ErrNotFound
	}
	if r.Public {
		return nil
	}
	if id.Anonymous() {
		return domain.ErrAuthenticationRequired
	}
	if owner.UserID != id.UserID {
		return domain.ErrNotFound
	}
	return nil
}

// Describe renders the rule matrix, one table per line.
func Describe() string {
	var b strings.Builder
	writeRow(&b, "TABLE", "SELECT", "INSERT", "UPDATE", "DELETE")
	for _, t := range Tables {
		cells := []string{string(t)}
		for _, op := range Operations {
			cells = append(cells, describeRule(t, op))
		}
		writeRow(&b, cells...)
	}
	return b.String()
}

func describeRule(t Table, op Operation) string {
	r, ok := lookup(t, op)
	switch {
	case !ok:
		return "-"
	case r.Public:
		return "public"
	case r.Via != nil:
		return "via " + string(r.Via.Table)
	default:
		return "owner"
	}
}

func writeRow(b *strings.Builder, cells ...string) {
	var line strings.Builder
	for _, c := range cells {
		fmt.Fprintf(&line, "%-13s", c)
	}
	b.WriteString(strings.TrimRight(line.String(), " "))
	b.WriteByte('\n')
}
