package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BrunoPirard/gtro-pricing/internal/common"
)

// Handler exposes public catalog endpoints used by the booking preview.
type Handler struct {
	Svc *Service
}

// bookingConfig is the payload the client preview renders its calendar,
// vehicle picker, and option list from.
type bookingConfig struct {
	Product       Product     `json:"product"`
	Vehicles      []Vehicle   `json:"vehicles"`
	Options       []Option    `json:"options"`
	BookableDates []string    `json:"bookableDates"`
	Promos        []DatePromo `json:"promos"`
}

// BookingConfig handles GET /api/v1/products/{slug}/booking.
func (h *Handler) BookingConfig(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	slug := chi.URLParam(r, "slug")
	snap, err := h.Svc.Snapshot(r.Context(), slug)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, bookingConfig{
		Product:       snap.Product,
		Vehicles:      snap.Vehicles,
		Options:       snap.Options,
		BookableDates: snap.BookableDates(),
		Promos:        snap.Promos,
	})
}
