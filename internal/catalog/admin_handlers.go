package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/BrunoPirard/gtro-pricing/internal/common"
)

// AdminHandler exposes catalog configuration writes. All routes are
// mounted behind the admin JWT middleware.
type AdminHandler struct {
	Svc      *Service
	Validate *validator.Validate
}

type promoPayload struct {
	Promos []struct {
		Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
		DiscountPercent float64 `json:"discountPercent" validate:"gte=0,lte=100"`
	} `json:"promos" validate:"dive"`
}

type comboPayload struct {
	Combos []struct {
		VehicleCount    int     `json:"vehicleCount" validate:"gte=2"`
		DiscountPercent float64 `json:"discountPercent" validate:"gte=0,lte=100"`
	} `json:"combos" validate:"dive"`
}

type lapPricePayload struct {
	LapPrices []struct {
		Category    string  `json:"category" validate:"required"`
		PricePerLap float64 `json:"pricePerLap" validate:"gte=0"`
	} `json:"lapPrices" validate:"dive"`
}

type dateGroupPayload struct {
	DateGroups []struct {
		Name  string   `json:"name" validate:"required"`
		Dates []string `json:"dates" validate:"required,dive,datetime=2006-01-02"`
	} `json:"dateGroups" validate:"dive"`
}

type vehiclePayload struct {
	Slug           string  `json:"slug" validate:"required"`
	DisplayName    string  `json:"displayName" validate:"required"`
	Category       string  `json:"category" validate:"required"`
	SupplementBase float64 `json:"supplementBase" validate:"gte=0"`
}

type optionPayload struct {
	Slug  string  `json:"slug" validate:"required"`
	Label string  `json:"label" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// ReplacePromos handles PUT /api/v1/admin/products/{slug}/promos.
func (h *AdminHandler) ReplacePromos(w http.ResponseWriter, r *http.Request) {
	var payload promoPayload
	if !h.decode(w, r, &payload) {
		return
	}
	promos := make([]DatePromo, 0, len(payload.Promos))
	for _, p := range payload.Promos {
		promos = append(promos, DatePromo{Date: p.Date, DiscountPercent: p.DiscountPercent})
	}
	h.apply(w, r, func() error {
		return h.Svc.ReplacePromos(r.Context(), chi.URLParam(r, "slug"), promos)
	})
}

// ReplaceCombos handles PUT /api/v1/admin/products/{slug}/combos.
func (h *AdminHandler) ReplaceCombos(w http.ResponseWriter, r *http.Request) {
	var payload comboPayload
	if !h.decode(w, r, &payload) {
		return
	}
	combos := make([]ComboDiscount, 0, len(payload.Combos))
	for _, c := range payload.Combos {
		combos = append(combos, ComboDiscount{VehicleCount: c.VehicleCount, DiscountPercent: c.DiscountPercent})
	}
	h.apply(w, r, func() error {
		return h.Svc.ReplaceCombos(r.Context(), chi.URLParam(r, "slug"), combos)
	})
}

// ReplaceLapPrices handles PUT /api/v1/admin/products/{slug}/lap-prices.
func (h *AdminHandler) ReplaceLapPrices(w http.ResponseWriter, r *http.Request) {
	var payload lapPricePayload
	if !h.decode(w, r, &payload) {
		return
	}
	prices := make([]LapPrice, 0, len(payload.LapPrices))
	for _, lp := range payload.LapPrices {
		prices = append(prices, LapPrice{Category: lp.Category, PricePerLap: lp.PricePerLap})
	}
	h.apply(w, r, func() error {
		return h.Svc.ReplaceLapPrices(r.Context(), chi.URLParam(r, "slug"), prices)
	})
}

// ReplaceDateGroups handles PUT /api/v1/admin/products/{slug}/date-groups.
func (h *AdminHandler) ReplaceDateGroups(w http.ResponseWriter, r *http.Request) {
	var payload dateGroupPayload
	if !h.decode(w, r, &payload) {
		return
	}
	groups := make([]DateGroup, 0, len(payload.DateGroups))
	for _, g := range payload.DateGroups {
		groups = append(groups, DateGroup{Name: g.Name, Dates: g.Dates})
	}
	h.apply(w, r, func() error {
		return h.Svc.ReplaceDateGroups(r.Context(), chi.URLParam(r, "slug"), groups)
	})
}

// UpsertVehicle handles PUT /api/v1/admin/products/{slug}/vehicles.
func (h *AdminHandler) UpsertVehicle(w http.ResponseWriter, r *http.Request) {
	var payload vehiclePayload
	if !h.decode(w, r, &payload) {
		return
	}
	h.apply(w, r, func() error {
		return h.Svc.UpsertVehicle(r.Context(), chi.URLParam(r, "slug"), Vehicle{
			ID:             payload.Slug,
			DisplayName:    payload.DisplayName,
			Category:       payload.Category,
			SupplementBase: payload.SupplementBase,
		})
	})
}

// UpsertOption handles PUT /api/v1/admin/products/{slug}/options.
func (h *AdminHandler) UpsertOption(w http.ResponseWriter, r *http.Request) {
	var payload optionPayload
	if !h.decode(w, r, &payload) {
		return
	}
	h.apply(w, r, func() error {
		return h.Svc.UpsertOption(r.Context(), chi.URLParam(r, "slug"), Option{
			ID:    payload.Slug,
			Label: payload.Label,
			Price: payload.Price,
		})
	})
}

func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return false
		}
	}
	return true
}

func (h *AdminHandler) apply(w http.ResponseWriter, r *http.Request, fn func() error) {
	if err := fn(); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"updated": true})
}
