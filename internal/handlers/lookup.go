package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/carlog/internal/lookup"
)

// LookupHandler proxies the vehicle catalogue endpoints used by the add-car
// form: makes, models and engine variants.
type LookupHandler struct {
	client *lookup.Client
}

// NewLookupHandler creates the handler.
func NewLookupHandler(client *lookup.Client) *LookupHandler {
	return &LookupHandler{client: client}
}

// Routes registers the lookup endpoints on the mux.
func (h *LookupHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/lookup/makes", h.Makes)
	mux.HandleFunc("GET /api/v1/lookup/models", h.Models)
	mux.HandleFunc("GET /api/v1/lookup/variants", h.Variants)
}

// Makes lists all known vehicle makes.
func (h *LookupHandler) Makes(w http.ResponseWriter, r *http.Request) {
	makes, err := h.client.Makes(r.Context())
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, makes)
}

// Models lists the models for the make in the query string.
func (h *LookupHandler) Models(w http.ResponseWriter, r *http.Request) {
	make := r.URL.Query().Get("make")
	if make == "" {
		http.Error(w, "Query parameter make is required", http.StatusBadRequest)
		return
	}

	models, err := h.client.Models(r.Context(), make)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models)
}

// Variants lists the engine variants for the make and model in the query
// string.
func (h *LookupHandler) Variants(w http.ResponseWriter, r *http.Request) {
	make := r.URL.Query().Get("make")
	model := r.URL.Query().Get("model")
	if make == "" || model == "" {
		http.Error(w, "Query parameters make and model are required", http.StatusBadRequest)
		return
	}

	variants, err := h.client.Variants(r.Context(), make, model)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, variants)
}

func writeLookupError(w http.ResponseWriter, err error) {
	var malformed *lookup.MalformedResponseError
	if errors.As(err, &malformed) {
		log.WithError(err).Error("Catalogue returned a malformed payload")
		http.Error(w, "Catalogue unavailable", http.StatusBadGateway)
		return
	}
	log.WithError(err).Error("Catalogue request failed")
	http.Error(w, "Catalogue unavailable", http.StatusBadGateway)
}
