package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datakeep/apiserver/internal/services"
	"github.com/datakeep/apiserver/internal/store"
	"github.com/datakeep/apiserver/types"
)

// DataHandler provides HTTP handlers for opaque document records.
type DataHandler struct {
	documentService *services.DocumentService
}

func NewDataHandler(documentService *services.DocumentService) *DataHandler {
	return &DataHandler{documentService: documentService}
}

// DataRouter registers document record routes on the given router.
func DataRouter(r chi.Router, documentService *services.DocumentService, authService *services.AuthService) {
	handler := NewDataHandler(documentService)

	r.With(RequireToken(authService, StaticAction("Insert data"))).Post("/", handler.InsertRecord)
	r.With(RequireToken(authService, ParamAction("Get data from DB by id", "id"))).Get("/{id}", handler.GetRecord)
}

func (h *DataHandler) InsertRecord(w http.ResponseWriter, r *http.Request) {
	var record types.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid record")
		return
	}

	if err := h.documentService.Insert(r.Context(), record); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "id already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to insert record")
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// GetRecord answers with every record stored under the id. Zero matches and
// an unknown id are the same observable outcome: 404.
func (h *DataHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := h.documentService.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch record")
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	writeJSON(w, http.StatusOK, records)
}
