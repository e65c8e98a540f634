package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/BrunoPirard/gtro-pricing/internal/pricing"
)

const dateLayout = "2006-01-02"

// Product is the per-event configuration driving a price computation.
type Product struct {
	ID                string       `json:"id"`
	Slug              string       `json:"slug"`
	Title             string       `json:"title"`
	BasePrice         float64      `json:"basePrice"`
	Mode              pricing.Mode `json:"mode"`
	MaxExtraLaps      int          `json:"maxExtraLaps"`
	FormulaSupplement float64      `json:"formulaSupplement"`
}

// Vehicle is a bookable vehicle attached to a product.
type Vehicle struct {
	ID             string  `json:"id"`
	DisplayName    string  `json:"displayName"`
	Category       string  `json:"category"`
	SupplementBase float64 `json:"supplementBase"`
}

// LapPrice is the per-extra-lap price of a vehicle category.
type LapPrice struct {
	Category    string  `json:"category"`
	PricePerLap float64 `json:"pricePerLap"`
}

// ComboDiscount is a percentage discount for an exact selected vehicle count.
type ComboDiscount struct {
	VehicleCount    int     `json:"vehicleCount"`
	DiscountPercent float64 `json:"discountPercent"`
}

// DatePromo is a percentage discount tied to one calendar date.
type DatePromo struct {
	Date            string  `json:"date"`
	DiscountPercent float64 `json:"discountPercent"`
}

// Option is a flat additive add-on.
type Option struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// DateGroup is an admin-defined named list of bookable event dates.
type DateGroup struct {
	Name  string   `json:"name"`
	Dates []string `json:"dates"`
}

// Snapshot is the immutable catalog view a single pricing request reads.
// It is assembled fresh (or from the TTL cache) per request, so admin
// edits become visible without any in-process invalidation.
type Snapshot struct {
	Product    Product         `json:"product"`
	Vehicles   []Vehicle       `json:"vehicles"`
	LapPrices  []LapPrice      `json:"lapPrices"`
	Combos     []ComboDiscount `json:"combos"`
	Promos     []DatePromo     `json:"promos"`
	Options    []Option        `json:"options"`
	DateGroups []DateGroup     `json:"dateGroups"`
}

// PricingCatalog projects the snapshot into the engine's lookup tables.
func (s Snapshot) PricingCatalog() pricing.Catalog {
	cat := pricing.Catalog{
		Vehicles:          make(map[string]pricing.Vehicle, len(s.Vehicles)),
		LapPrices:         make(map[string]float64, len(s.LapPrices)),
		Combos:            make([]pricing.ComboDiscount, 0, len(s.Combos)),
		Promos:            make(map[string]float64, len(s.Promos)),
		Options:           make(map[string]pricing.Option, len(s.Options)),
		Mode:              s.Product.Mode,
		FormulaSupplement: s.Product.FormulaSupplement,
		MaxExtraLaps:      s.Product.MaxExtraLaps,
	}
	for _, v := range s.Vehicles {
		cat.Vehicles[v.ID] = pricing.Vehicle{
			ID:             v.ID,
			DisplayName:    v.DisplayName,
			Category:       v.Category,
			SupplementBase: v.SupplementBase,
		}
	}
	for _, lp := range s.LapPrices {
		cat.LapPrices[lp.Category] = lp.PricePerLap
	}
	for _, c := range s.Combos {
		cat.Combos = append(cat.Combos, pricing.ComboDiscount{
			VehicleCount:    c.VehicleCount,
			DiscountPercent: c.DiscountPercent,
		})
	}
	for _, p := range s.Promos {
		cat.Promos[p.Date] = p.DiscountPercent
	}
	for _, o := range s.Options {
		cat.Options[o.ID] = pricing.Option{ID: o.ID, Label: o.Label, Price: o.Price}
	}
	return cat
}

// BookableDates returns the sorted union of all date-group dates.
func (s Snapshot) BookableDates() []string {
	seen := make(map[string]struct{})
	for _, g := range s.DateGroups {
		for _, d := range g.Dates {
			seen[d] = struct{}{}
		}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// IsBookable reports whether the date belongs to any date group.
func (s Snapshot) IsBookable(date string) bool {
	for _, g := range s.DateGroups {
		for _, d := range g.Dates {
			if d == date {
				return true
			}
		}
	}
	return false
}

// Validate checks the snapshot invariants: parseable ISO dates, unique
// promo dates, and positive combo vehicle counts. Admin-defined groups
// are validated here at load time instead of at field-definition time.
func (s Snapshot) Validate() error {
	seenPromo := make(map[string]struct{}, len(s.Promos))
	for _, p := range s.Promos {
		if _, err := time.Parse(dateLayout, p.Date); err != nil {
			return fmt.Errorf("promo date %q: %w", p.Date, err)
		}
		if _, dup := seenPromo[p.Date]; dup {
			return fmt.Errorf("duplicate promo date %q", p.Date)
		}
		seenPromo[p.Date] = struct{}{}
	}
	for _, g := range s.DateGroups {
		if g.Name == "" {
			return fmt.Errorf("date group with empty name")
		}
		for _, d := range g.Dates {
			if _, err := time.Parse(dateLayout, d); err != nil {
				return fmt.Errorf("date group %q date %q: %w", g.Name, d, err)
			}
		}
	}
	for _, c := range s.Combos {
		if c.VehicleCount < 2 {
			return fmt.Errorf("combo discount vehicle count %d must be at least 2", c.VehicleCount)
		}
	}
	return nil
}
