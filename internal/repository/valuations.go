package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/rongwang/deductible-server/internal/models"
)

// defaultValuations is the thrift-store price guide for common donated items,
// in dollars per item in good used condition.
var defaultValuations = []models.Valuation{
	{Name: "Blouse", MinValue: 3, MaxValue: 12},
	{Name: "Boots", MinValue: 6, MaxValue: 25},
	{Name: "Coat", MinValue: 10, MaxValue: 40},
	{Name: "Dress", MinValue: 5, MaxValue: 25},
	{Name: "Jeans", MinValue: 4, MaxValue: 15},
	{Name: "Shoes", MinValue: 4, MaxValue: 25},
	{Name: "Suit", MinValue: 15, MaxValue: 60},
	{Name: "Sweater", MinValue: 3, MaxValue: 12},
	{Name: "T-Shirt", MinValue: 2, MaxValue: 6},
	{Name: "Blanket", MinValue: 3, MaxValue: 12},
	{Name: "Bed Frame", MinValue: 25, MaxValue: 100},
	{Name: "Bookcase", MinValue: 10, MaxValue: 60},
	{Name: "Chair", MinValue: 5, MaxValue: 30},
	{Name: "Desk", MinValue: 20, MaxValue: 100},
	{Name: "Dresser", MinValue: 20, MaxValue: 120},
	{Name: "Sofa", MinValue: 40, MaxValue: 200},
	{Name: "Table", MinValue: 15, MaxValue: 100},
	{Name: "Lamp", MinValue: 4, MaxValue: 20},
	{Name: "Dishes (set)", MinValue: 5, MaxValue: 25},
	{Name: "Pots and Pans (set)", MinValue: 5, MaxValue: 30},
	{Name: "Microwave", MinValue: 10, MaxValue: 50},
	{Name: "Coffee Maker", MinValue: 4, MaxValue: 15},
	{Name: "Television", MinValue: 50, MaxValue: 200},
	{Name: "Computer Monitor", MinValue: 15, MaxValue: 60},
	{Name: "Laptop", MinValue: 50, MaxValue: 300},
	{Name: "Book (hardcover)", MinValue: 1, MaxValue: 4},
	{Name: "Book (paperback)", MinValue: 0.5, MaxValue: 2},
	{Name: "Board Game", MinValue: 2, MaxValue: 10},
	{Name: "Bicycle", MinValue: 10, MaxValue: 100},
	{Name: "Stroller", MinValue: 5, MaxValue: 50},
}

// SeedValuations inserts the default price guide and returns how many rows
// were new. Existing names are left untouched.
func (s *store) SeedValuations(ctx context.Context) (int, error) {
	query := s.h.Rebind(`
		INSERT INTO valuations (name, min_value, max_value) VALUES (?, ?, ?)
		ON CONFLICT (name) DO NOTHING
	`)

	inserted := 0
	err := s.h.RunTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		inserted = 0
		for _, v := range defaultValuations {
			res, err := tx.ExecContext(ctx, query, v.Name, v.MinValue, v.MaxValue)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// SuggestValuations returns up to 10 guide entries whose name contains query,
// ignoring case.
func (s *store) SuggestValuations(ctx context.Context, query string) ([]models.Valuation, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	valuations := []models.Valuation{}
	err := s.selectAll(ctx, &valuations, `
		SELECT name, min_value, max_value FROM valuations
		WHERE LOWER(name) LIKE ? ESCAPE '\'
		ORDER BY name
		LIMIT 10
	`, pattern)
	if err != nil {
		return nil, err
	}
	return valuations, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
