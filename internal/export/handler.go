// Package export serves stored designs as downloads: the snapshot file
// itself and the generated Phaser code.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/vecdraw/internal/codegen"
	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/store"
)

type Handler struct {
	store         store.Store
	width, height int
}

func NewHandler(s store.Store, width, height int) *Handler {
	return &Handler{store: s, width: width, height: height}
}

// Download sends the design's snapshot as a JSON attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	body := []byte(d.Snapshot)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", attachment(d.Name, "json"))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Write(body)
}

// Code sends Phaser code that draws the design.
func (h *Handler) Code(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	doc, err := document.Import(d.Snapshot)
	if err != nil {
		slog.Error("import stored design", "design", d.ID, "error", err)
		http.Error(w, "stored design is unreadable", http.StatusInternalServerError)
		return
	}
	code := codegen.Phaser(doc, h.width, h.height)

	slog.Info("code exported", "design", d.ID)
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(d.Name, "js"))
	w.Write([]byte(code))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (store.Design, bool) {
	id := mux.Vars(r)["designId"]
	d, err := h.store.Load(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "design not found", http.StatusNotFound)
		return d, false
	case errors.Is(err, store.ErrInvalidID):
		http.Error(w, "invalid design id", http.StatusBadRequest)
		return d, false
	case err != nil:
		slog.Error("load design", "design", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return d, false
	}
	return d, true
}

func attachment(name, ext string) string {
	return fmt.Sprintf(`attachment; filename="%s.%s"`, sanitize(name), ext)
}

// sanitize keeps a name safe for a filename.
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.TrimSpace(name))
	if strings.Trim(name, "-") == "" {
		return "design"
	}
	return name
}
