package language

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swasthya-ai/backend/internal/model/language"
	"github.com/swasthya-ai/backend/pkg/utils"
)

// Handler serves the supported-language catalog.
type Handler struct {
	languages language.Store
}

// New creates a language handler.
func New(languages language.Store) *Handler {
	return &Handler{
		languages: languages,
	}
}

// RegisterRoutes registers language routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/languages", h.handleListLanguages)
}

func (h *Handler) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.languages.List())
}
