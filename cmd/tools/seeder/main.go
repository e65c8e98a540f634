package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close(ctx)

	productID := seedProduct(ctx, conn)
	seedVehicles(ctx, conn, productID)
	seedLapPrices(ctx, conn, productID)
	seedCombos(ctx, conn, productID)
	seedPromos(ctx, conn, productID)
	seedOptions(ctx, conn, productID)
	seedDateGroups(ctx, conn, productID)

	log.Println("Seeding completed successfully!")
}

func seedProduct(ctx context.Context, conn *pgx.Conn) string {
	var id string
	err := conn.QueryRow(ctx, `
		INSERT INTO products (slug, title, base_price, mode, max_extra_laps)
		VALUES ('gtro-experience', 'GT Road Opera Experience', 200, 'laps', 10)
		ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title
		RETURNING id::text`).Scan(&id)
	if err != nil {
		log.Fatalf("Failed to seed product: %v", err)
	}
	log.Printf("Product ID: %s", id)
	return id
}

func seedVehicles(ctx context.Context, conn *pgx.Conn, productID string) {
	vehicles := []struct {
		slug, name, category string
		supplement           float64
	}{
		{"gt3-rs", "Porsche 911 GT3 RS", "gt", 50},
		{"huracan", "Lamborghini Huracan", "gt", 50},
		{"f4-monoplace", "F4 Monoplace", "monoplace", 80},
		{"radical-sr3", "Radical SR3", "proto", 110},
	}
	for _, v := range vehicles {
		_, err := conn.Exec(ctx, `
			INSERT INTO vehicles (product_id, slug, display_name, category, supplement_base)
			VALUES ($1::uuid, $2, $3, $4, $5)
			ON CONFLICT (product_id, slug) DO UPDATE
			SET display_name = EXCLUDED.display_name,
			    category = EXCLUDED.category,
			    supplement_base = EXCLUDED.supplement_base`,
			productID, v.slug, v.name, v.category, v.supplement)
		if err != nil {
			log.Fatalf("Failed to seed vehicle %s: %v", v.slug, err)
		}
	}
	log.Printf("Seeded %d vehicles", len(vehicles))
}

func seedLapPrices(ctx context.Context, conn *pgx.Conn, productID string) {
	prices := map[string]float64{"gt": 30, "monoplace": 45, "proto": 55}
	for category, price := range prices {
		_, err := conn.Exec(ctx, `
			INSERT INTO category_lap_prices (product_id, category, price_per_lap)
			VALUES ($1::uuid, $2, $3)
			ON CONFLICT (product_id, category) DO UPDATE
			SET price_per_lap = EXCLUDED.price_per_lap`,
			productID, category, price)
		if err != nil {
			log.Fatalf("Failed to seed lap price %s: %v", category, err)
		}
	}
	log.Printf("Seeded %d lap prices", len(prices))
}

func seedCombos(ctx context.Context, conn *pgx.Conn, productID string) {
	combos := map[int]float64{2: 10, 3: 15, 4: 20}
	for count, percent := range combos {
		_, err := conn.Exec(ctx, `
			INSERT INTO combo_discounts (product_id, vehicle_count, discount_percent)
			VALUES ($1::uuid, $2, $3)
			ON CONFLICT (product_id, vehicle_count) DO UPDATE
			SET discount_percent = EXCLUDED.discount_percent`,
			productID, count, percent)
		if err != nil {
			log.Fatalf("Failed to seed combo %d: %v", count, err)
		}
	}
	log.Printf("Seeded %d combo discounts", len(combos))
}

func seedPromos(ctx context.Context, conn *pgx.Conn, productID string) {
	promos := map[string]float64{"2026-04-18": 20, "2026-10-03": 15}
	for date, percent := range promos {
		_, err := conn.Exec(ctx, `
			INSERT INTO date_promos (product_id, promo_date, discount_percent)
			VALUES ($1::uuid, $2::date, $3)
			ON CONFLICT (product_id, promo_date) DO UPDATE
			SET discount_percent = EXCLUDED.discount_percent`,
			productID, date, percent)
		if err != nil {
			log.Fatalf("Failed to seed promo %s: %v", date, err)
		}
	}
	log.Printf("Seeded %d promos", len(promos))
}

func seedOptions(ctx context.Context, conn *pgx.Conn, productID string) {
	options := []struct {
		slug, label string
		price       float64
	}{
		{"video", "Onboard video", 15},
		{"photos", "Photo pack", 29},
		{"insurance", "Damage waiver", 49},
	}
	for _, o := range options {
		_, err := conn.Exec(ctx, `
			INSERT INTO product_options (product_id, slug, label, price)
			VALUES ($1::uuid, $2, $3, $4)
			ON CONFLICT (product_id, slug) DO UPDATE
			SET label = EXCLUDED.label, price = EXCLUDED.price`,
			productID, o.slug, o.label, o.price)
		if err != nil {
			log.Fatalf("Failed to seed option %s: %v", o.slug, err)
		}
	}
	log.Printf("Seeded %d options", len(options))
}

func seedDateGroups(ctx context.Context, conn *pgx.Conn, productID string) {
	groups := map[string][]string{
		"spring": {"2026-04-18", "2026-04-19"},
		"summer": {"2026-06-20", "2026-06-21"},
		"autumn": {"2026-10-03", "2026-10-04"},
	}
	for name, dates := range groups {
		var groupID string
		err := conn.QueryRow(ctx, `
			INSERT INTO date_groups (product_id, name)
			VALUES ($1::uuid, $2)
			ON CONFLICT (product_id, name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id::text`,
			productID, name).Scan(&groupID)
		if err != nil {
			log.Fatalf("Failed to seed date group %s: %v", name, err)
		}
		for _, d := range dates {
			_, err := conn.Exec(ctx, `
				INSERT INTO event_dates (group_id, event_date)
				VALUES ($1::uuid, $2::date)
				ON CONFLICT DO NOTHING`,
				groupID, d)
			if err != nil {
				log.Fatalf("Failed to seed event date %s: %v", d, err)
			}
		}
	}
	log.Printf("Seeded %d date groups", len(groups))
}
