package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/application"
	"github.com/SAMZalaf/bmomtm/internal/domain"
)

func (h *Handler) handleAPITree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.menu.Tree(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *Handler) handleAPIListButtons(w http.ResponseWriter, r *http.Request) {
	var (
		items []domain.Button
		err   error
	)
	if r.URL.Query().Has("parentId") {
		var parentID *uint
		if parentID, err = optionalParent(r, "parentId"); err != nil {
			h.writeError(w, r, err)
			return
		}
		items, err = h.menu.Children(r.Context(), parentID)
	} else {
		items, err = h.menu.List(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAPIPages(w http.ResponseWriter, r *http.Request) {
	parentID, err := optionalParent(r, "parentId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	visibleOnly := r.URL.Query().Get("visibleOnly") == "true"
	pages, err := h.menu.Pages(r.Context(), parentID, visibleOnly)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (h *Handler) handleAPIGetButton(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.menu.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handleAPICreateButton(w http.ResponseWriter, r *http.Request) {
	var req domain.ButtonDraft
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.menu.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleAPIUpdateButton(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch domain.ButtonPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.menu.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handleAPIDeleteButton(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	deleted, err := h.menu.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// handleAPIBatchCreate accepts either a bare array of drafts or {"buttons": [...]}.
func (h *Handler) handleAPIBatchCreate(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	drafts, err := decodeBatch(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.menu.BatchCreate(r.Context(), drafts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"buttons": created, "count": len(created)})
}

func decodeBatch(raw []byte) ([]domain.ButtonDraft, error) {
	trimmed := bytes.TrimSpace(raw)
	var drafts []domain.ButtonDraft
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &drafts); err != nil {
			return nil, domain.Invalid("buttons", "invalid JSON: "+err.Error())
		}
		return drafts, nil
	}
	var envelope struct {
		Buttons []domain.ButtonDraft `json:"buttons"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, domain.Invalid("buttons", "must be an array of buttons")
	}
	return envelope.Buttons, nil
}

func (h *Handler) handleAPICopy(w http.ResponseWriter, r *http.Request) {
	var req application.CopyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.menu.Copy(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleAPIReorder(w http.ResponseWriter, r *http.Request) {
	var req application.ReorderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.menu.Reorder(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := h.menu.Import(r.Context(), raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": n})
}

func (h *Handler) handleAPIReset(w http.ResponseWriter, r *http.Request) {
	if err := h.menu.Reset(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleAPIClick(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.menu.Click(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleAPIExport(w http.ResponseWriter, r *http.Request) {
	tree, err := h.menu.Export(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("telegram-bot-buttons-%s.json", time.Now().UTC().Format(time.DateOnly))
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	writeJSON(w, http.StatusOK, tree)
}
