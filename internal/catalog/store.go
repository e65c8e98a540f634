package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProductNotFound is returned when no product matches the given slug.
var ErrProductNotFound = errors.New("catalog: product not found")

// Store reads and writes catalog configuration in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// GetProductBySlug loads one product's pricing configuration.
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	const q = `
		SELECT id::text, slug, title, base_price, mode, max_extra_laps, formula_supplement
		FROM products
		WHERE slug = $1`
	var p Product
	err := s.Pool.QueryRow(ctx, q, slug).Scan(
		&p.ID, &p.Slug, &p.Title, &p.BasePrice, &p.Mode, &p.MaxExtraLaps, &p.FormulaSupplement,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("get product by slug: %w", err)
	}
	return p, nil
}

// ListVehicles returns the product's vehicles ordered by slug.
func (s *Store) ListVehicles(ctx context.Context, productID string) ([]Vehicle, error) {
	const q = `
		SELECT slug, display_name, category, supplement_base
		FROM vehicles
		WHERE product_id = $1::uuid
		ORDER BY slug`
	rows, err := s.Pool.Query(ctx, q, productID)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()
	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.DisplayName, &v.Category, &v.SupplementBase); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListLapPrices returns per-category extra-lap prices ordered by category.
func (s *Store) ListLapPrices(ctx context.Context, productID string) ([]LapPrice, error) {
	const q = `
		SELECT category, price_per_lap
		FROM category_lap_prices
		WHERE product_id = $1::uuid
		ORDER BY category`
	rows, err := s.Pool.Query(ctx, q, productID)
	if err != nil {
		return nil, fmt.Errorf("list lap prices: %w", err)
	}
	defer rows.Close()
	var out []LapPrice
	for rows.Next() {
		var lp LapPrice
		if err := rows.Scan(&lp.Category, &lp.PricePerLap); err != nil {
			return nil, fmt.Errorf("scan lap price: %w", err)
		}
		out = append(out, lp)
	}
	return out, rows.Err()
}

// ListCombos returns combo discounts ordered by vehicle count.
func (s *Store) ListCombos(ctx context.Context, productID string) ([]ComboDiscount, error) {
	const q = `
		SELECT vehicle_count, discount_percent
		FROM combo_discounts
		WHERE product_id = $1::uuid
		ORDER BY vehicle_count`
	rows, err := s.Pool.Query(ctx, q, productID)
	if err != nil {
		return nil, fmt.Errorf("list combos: %w", err)
	}
	defer rows.Close()
	var out []ComboDiscount
	for rows.Next() {
		var c ComboDiscount
		if err := rows.Scan(&c.VehicleCount, &c.DiscountPercent); err != nil {
			return nil, fmt.Errorf("scan combo: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListPromos returns date promotions ordered by date.
func (s *Store) ListPromos(ctx context.Context, productID string) ([]DatePromo, error) {
	const q = `
		SELECT to_char(promo_date, 'YYYY-MM-DD'), discount_percent
		FROM date_promos
		WHERE product_id = $1::uuid
		ORDER BY promo_date`
	rows, err := s.Pool.Query(ctx, q, productID)
	if err != nil {
		return nil, fmt.Errorf("list promos: %w", err)
	}
	defer rows.Close()
	var out []DatePromo
	for rows.Next() {
		var p DatePromo
		if err := rows.Scan(&p.Date, &p.DiscountPercent); err != nil {
			return nil, fmt.Errorf("scan promo: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListOptions returns the product's add-on options ordered by slug.
func (s *Store) ListOptions(ctx context.Context, productID string) ([]Option, error) {
	const q = `
		SELECT slug, label, price
		FROM product_options
		WHERE product_id = $1::uuid
		ORDER BY slug`
	rows, err := s.Pool.Query(ctx, q, productID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer rows.Close()
	var out []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Label, &o.Price); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListDateGroups returns the product's date groups with their event dates.
func (s *Store) ListDateGroups(ctx context.Context, productID string) ([]DateGroup, error) {
	const q = `
		SELECT g.name, to_char(d.event_date, 'YYYY-MM-DD')
		FROM date_groups g
		JOIN event_dates d ON d.group_id = g.id
		WHERE g.product_id = $1::uuid
		ORDER BY g.name, d.event_date`
	rows, err := s.Pool.Query(ctx, q, productID)
	if err != nil {
		return nil, fmt.Errorf("list date groups: %w", err)
	}
	defer rows.Close()
	var out []DateGroup
	byName := make(map[string]int)
	for rows.Next() {
		var name, date string
		if err := rows.Scan(&name, &date); err != nil {
			return nil, fmt.Errorf("scan date group: %w", err)
		}
		idx, ok := byName[name]
		if !ok {
			out = append(out, DateGroup{Name: name})
			idx = len(out) - 1
			byName[name] = idx
		}
		out[idx].Dates = append(out[idx].Dates, date)
	}
	return out, rows.Err()
}

// ReplacePromos swaps the full promo table of a product in one transaction.
func (s *Store) ReplacePromos(ctx context.Context, productID string, promos []DatePromo) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM date_promos WHERE product_id = $1::uuid`, productID); err != nil {
			return fmt.Errorf("clear promos: %w", err)
		}
		for _, p := range promos {
			_, err := tx.Exec(ctx, `
				INSERT INTO date_promos (product_id, promo_date, discount_percent)
				VALUES ($1::uuid, $2::date, $3)`,
				productID, p.Date, p.DiscountPercent)
			if err != nil {
				return fmt.Errorf("insert promo %s: %w", p.Date, err)
			}
		}
		return nil
	})
}

// ReplaceCombos swaps the full combo table of a product in one transaction.
func (s *Store) ReplaceCombos(ctx context.Context, productID string, combos []ComboDiscount) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM combo_discounts WHERE product_id = $1::uuid`, productID); err != nil {
			return fmt.Errorf("clear combos: %w", err)
		}
		for _, c := range combos {
			_, err := tx.Exec(ctx, `
				INSERT INTO combo_discounts (product_id, vehicle_count, discount_percent)
				VALUES ($1::uuid, $2, $3)`,
				productID, c.VehicleCount, c.DiscountPercent)
			if err != nil {
				return fmt.Errorf("insert combo %d: %w", c.VehicleCount, err)
			}
		}
		return nil
	})
}

// ReplaceLapPrices swaps the category lap-price table of a product.
func (s *Store) ReplaceLapPrices(ctx context.Context, productID string, prices []LapPrice) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM category_lap_prices WHERE product_id = $1::uuid`, productID); err != nil {
			return fmt.Errorf("clear lap prices: %w", err)
		}
		for _, lp := range prices {
			_, err := tx.Exec(ctx, `
				INSERT INTO category_lap_prices (product_id, category, price_per_lap)
				VALUES ($1::uuid, $2, $3)`,
				productID, lp.Category, lp.PricePerLap)
			if err != nil {
				return fmt.Errorf("insert lap price %s: %w", lp.Category, err)
			}
		}
		return nil
	})
}

// ReplaceDateGroups swaps all date groups and their event dates.
func (s *Store) ReplaceDateGroups(ctx context.Context, productID string, groups []DateGroup) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM date_groups WHERE product_id = $1::uuid`, productID); err != nil {
			return fmt.Errorf("clear date groups: %w", err)
		}
		for _, g := range groups {
			var groupID string
			err := tx.QueryRow(ctx, `
				INSERT INTO date_groups (product_id, name)
				VALUES ($1::uuid, $2)
				RETURNING id::text`,
				productID, g.Name).Scan(&groupID)
			if err != nil {
				return fmt.Errorf("insert date group %s: %w", g.Name, err)
			}
			for _, d := range g.Dates {
				_, err := tx.Exec(ctx, `
					INSERT INTO event_dates (group_id, event_date)
					VALUES ($1::uuid, $2::date)
					ON CONFLICT DO NOTHING`,
					groupID, d)
				if err != nil {
					return fmt.Errorf("insert event date %s: %w", d, err)
				}
			}
		}
		return nil
	})
}

// UpsertVehicle creates or updates a vehicle keyed by its slug.
func (s *Store) UpsertVehicle(ctx context.Context, productID string, v Vehicle) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO vehicles (product_id, slug, display_name, category, supplement_base)
		VALUES ($1::uuid, $2, $3, $4, $5)
		ON CONFLICT (product_id, slug) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    category = EXCLUDED.category,
		    supplement_base = EXCLUDED.supplement_base`,
		productID, v.ID, v.DisplayName, v.Category, v.SupplementBase)
	if err != nil {
		return fmt.Errorf("upsert vehicle %s: %w", v.ID, err)
	}
	return nil
}

// UpsertOption creates or updates an add-on option keyed by its slug.
func (s *Store) UpsertOption(ctx context.Context, productID string, o Option) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO product_options (product_id, slug, label, price)
		VALUES ($1::uuid, $2, $3, $4)
		ON CONFLICT (product_id, slug) DO UPDATE
		SET label = EXCLUDED.label,
		    price = EXCLUDED.price`,
		productID, o.ID, o.Label, o.Price)
	if err != nil {
		return fmt.Errorf("upsert option %s: %w", o.ID, err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
