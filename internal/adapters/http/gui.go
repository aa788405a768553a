package http

import (
	"fmt"
	"net/http"

	"github.com/SAMZalaf/bmomtm/internal/application"
	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/SAMZalaf/bmomtm/internal/observability"
	"github.com/SAMZalaf/bmomtm/internal/ui"
	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticateRequest(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := ui.LoginPage("").Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	token, err := h.auth.Login(r.Context(), r.Form.Get("password"))
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = ui.LoginPage("invalid password").Render(r.Context(), w)
		return
	}
	setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	for _, token := range requestTokens(r) {
		_ = h.auth.Logout(r.Context(), token)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleTreePage(w http.ResponseWriter, r *http.Request) {
	tree, err := h.menu.Tree(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	status, err := h.menu.BotStatus(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := ui.TreePage(tree, status).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type commandSignals struct {
	ButtonID uint   `json:"buttonId"`
	TargetID uint   `json:"targetId"`
	Position string `json:"position"`
}

func (h *Handler) readCommand(w http.ResponseWriter, r *http.Request) (commandSignals, bool) {
	var sig commandSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		renderFlash(r.Context(), w, http.StatusBadRequest, "invalid signals")
		return sig, false
	}
	if sig.ButtonID == 0 {
		renderFlash(r.Context(), w, http.StatusBadRequest, "no button selected")
		return sig, false
	}
	return sig, true
}

func (h *Handler) handleToggleCommand(w http.ResponseWriter, r *http.Request) {
	sig, ok := h.readCommand(w, r)
	if !ok {
		return
	}
	current, err := h.menu.Get(r.Context(), sig.ButtonID)
	if err != nil {
		h.renderCommandError(w, r, err)
		return
	}
	enabled := !current.IsEnabled
	updated, err := h.menu.Update(r.Context(), sig.ButtonID, domain.ButtonPatch{IsEnabled: &enabled})
	if err != nil {
		h.renderCommandError(w, r, err)
		return
	}
	state := "disabled"
	if updated.IsEnabled {
		state = "enabled"
	}
	h.renderTree(w, r, fmt.Sprintf("Button %q %s", updated.ButtonKey, state))
}

func (h *Handler) handleDeleteCommand(w http.ResponseWriter, r *http.Request) {
	sig, ok := h.readCommand(w, r)
	if !ok {
		return
	}
	deleted, err := h.menu.Delete(r.Context(), sig.ButtonID)
	if err != nil {
		h.renderCommandError(w, r, err)
		return
	}
	h.renderTree(w, r, fmt.Sprintf("Deleted %d buttons", deleted))
}

func (h *Handler) handleReorderCommand(w http.ResponseWriter, r *http.Request) {
	sig, ok := h.readCommand(w, r)
	if !ok {
		return
	}
	err := h.menu.Reorder(r.Context(), application.ReorderRequest{
		ButtonID: sig.ButtonID,
		TargetID: sig.TargetID,
		Position: domain.ReorderPosition(sig.Position),
	})
	if err != nil {
		h.renderCommandError(w, r, err)
		return
	}
	h.renderTree(w, r, "Order updated")
}

// renderTree answers a command with the flash and a fresh tree fragment.
func (h *Handler) renderTree(w http.ResponseWriter, r *http.Request, message string) {
	tree, err := h.menu.Tree(r.Context())
	if err != nil {
		h.renderCommandError(w, r, err)
		return
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK,
		ui.Flash(message, "info"),
		ui.TreeFragment(tree),
	)
}

func (h *Handler) renderCommandError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorCode(err)
	message := err.Error()
	if code == codeInternal {
		observability.LoggerFrom(r.Context(), h.log).Error("command failed", zap.Error(err))
		message = "internal server error"
	}
	renderFlash(r.Context(), w, statusForCode[code], message)
}
