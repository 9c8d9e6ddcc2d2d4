package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handler) ListDesigns(w http.ResponseWriter, r *http.Request) {
	designs, err := h.store.List(r.Context())
	if err != nil {
		slog.Error("list designs failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, designs)
}

func (h *Handler) DeleteDesign(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["designId"]
	if err := h.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	slog.Info("design deleted", "design", id)
	w.WriteHeader(http.StatusNoContent)
}
