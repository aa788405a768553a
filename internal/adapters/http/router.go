package http

import (
	"net/http"

	"github.com/SAMZalaf/bmomtm/internal/application"
	"github.com/SAMZalaf/bmomtm/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const sessionCookieName = "bm_session"

type Handler struct {
	menu *application.MenuService
	auth *application.AuthService
	log  *zap.Logger
}

// NewRouter wires the JSON API, the GUI and, when metrics is not nil, the
// Prometheus endpoint.
func NewRouter(menu *application.MenuService, auth *application.AuthService, log *zap.Logger, metrics *observability.Metrics) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{menu: menu, auth: auth, log: log}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	if metrics != nil {
		r.Use(metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
	r.Post("/logout", h.handleLogout)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", h.handleAPILogin)
		api.Post("/auth/verify", h.handleAPIVerify)

		api.Group(func(p chi.Router) {
			p.Use(h.requireAuthAPI)

			p.Post("/auth/logout", h.handleAPILogout)
			p.Post("/auth/password", h.handleAPIChangePassword)

			p.Get("/buttons/tree", h.handleAPITree)
			p.Get("/buttons/pages", h.handleAPIPages)
			p.Get("/buttons", h.handleAPIListButtons)
			p.Post("/buttons", h.handleAPICreateButton)
			p.Post("/buttons/batch", h.handleAPIBatchCreate)
			p.Post("/buttons/copy-with-children", h.handleAPICopy)
			p.Post("/buttons/reorder", h.handleAPIReorder)
			p.Post("/buttons/import", h.handleAPIImport)
			p.Post("/buttons/reset", h.handleAPIReset)
			p.Get("/buttons/{id}", h.handleAPIGetButton)
			p.Patch("/buttons/{id}", h.handleAPIUpdateButton)
			p.Put("/buttons/{id}", h.handleAPIUpdateButton)
			p.Delete("/buttons/{id}", h.handleAPIDeleteButton)
			p.Post("/buttons/{id}/click", h.handleAPIClick)
			p.Get("/export", h.handleAPIExport)

			p.Get("/settings", h.handleAPIGetSettings)
			p.Post("/settings", h.handleAPIUpdateSettings)
			p.Get("/orders", h.handleAPIListOrders)
			p.Get("/orders/{orderId}", h.handleAPIGetOrder)
			p.Get("/orders/{orderId}/path", h.handleAPIOrderPath)
			p.Get("/bot/status", h.handleAPIBotStatus)
			p.Post("/bot/status", h.handleAPISetBotStatus)
			p.Post("/bot/restart", h.handleAPIRestartBot)
			p.Get("/logs", h.handleAPIListLogs)
		})
	})

	r.Group(func(gui chi.Router) {
		gui.Use(h.requireAuthGUI)
		gui.Get("/", h.handleTreePage)
		gui.Post("/commands/toggle", h.handleToggleCommand)
		gui.Post("/commands/delete", h.handleDeleteCommand)
		gui.Post("/commands/reorder", h.handleReorderCommand)
	})

	return r
}
