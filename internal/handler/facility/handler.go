package facility

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swasthya-ai/backend/internal/model/facility"
	"github.com/swasthya-ai/backend/pkg/utils"
)

// Handler serves the nearby-facility directory.
type Handler struct {
	facilities []facility.Facility
}

// New creates a facility handler.
func New(facilities []facility.Facility) *Handler {
	return &Handler{
		facilities: facilities,
	}
}

// RegisterRoutes registers facility routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/facilities", h.handleListFacilities)
}

func (h *Handler) handleListFacilities(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		facility.Facility
		MapsURL string `json:"mapsUrl"`
		TelURL  string `json:"telUrl"`
	}

	entries := make([]entry, 0, len(h.facilities))
	for _, f := range h.facilities {
		entries = append(entries, entry{Facility: f, MapsURL: f.MapsURL(), TelURL: f.TelURL()})
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}
