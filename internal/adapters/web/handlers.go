package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockroom/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public API) ─────────────────────────────────────────────────────
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// Auth
		r.Get("/api/auth/me", h.me)

		// ── Location hierarchy ────────────────────────────────────────────────
		r.Get("/api/nodes/roots", h.apiListRoots)
		r.Post("/api/nodes", h.apiCreateNode)
		r.Get("/api/nodes/by-ref/{ref}", h.apiGetNodeByRef)
		r.Get("/api/nodes/{id}", h.apiGetNode)
		r.Patch("/api/nodes/{id}", h.apiUpdateNode)
		r.Delete("/api/nodes/{id}", h.apiDeleteNode)
		r.Get("/api/nodes/{id}/children", h.apiListChildren)
		r.Get("/api/nodes/{id}/path", h.apiGetPath)

		// ── Cascading container selection ────────────────────────────────────
		r.Post("/api/selection/resolve", h.apiResolveSelection)

		// ── Stock ledger ──────────────────────────────────────────────────────
		r.Put("/api/stock", h.apiSetStock)
		r.Delete("/api/stock", h.apiRemoveStock)
		r.Get("/api/stock/{productID}", h.apiGetStock)
		r.Get("/api/stock/{productID}/total", h.apiGetTotalStock)

		// ── AI assistant ──────────────────────────────────────────────────────
		r.Post("/api/assistant/interpret", h.apiInterpretCommand)
		r.Post("/api/assistant/ask", h.apiAskQuestion)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
