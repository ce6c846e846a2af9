package web

import (
	"net/http"

	"stockroom/internal/app"

	"github.com/go-chi/chi/v5"
)

// apiListRoots handles GET /api/nodes/roots?kind=warehouse.
func (h *Handler) apiListRoots(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListRoots(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateNode handles POST /api/nodes.
func (h *Handler) apiCreateNode(w http.ResponseWriter, r *http.Request) {
	var req app.CreateNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	node, err := h.svc.CreateNode(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, node)
}

// apiGetNode handles GET /api/nodes/{id}. Soft-deleted nodes are still
// returned so historical stock rows keep a resolvable location.
func (h *Handler) apiGetNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.svc.GetNode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, node)
}

// apiGetNodeByRef handles GET /api/nodes/by-ref/{ref} — live nodes only.
func (h *Handler) apiGetNodeByRef(w http.ResponseWriter, r *http.Request) {
	node, err := h.svc.GetNodeByRef(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, node)
}

// apiUpdateNode handles PATCH /api/nodes/{id}.
func (h *Handler) apiUpdateNode(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	node, err := h.svc.UpdateNode(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, node)
}

// apiDeleteNode handles DELETE /api/nodes/{id} — a soft delete. Returns 409
// while the node still has live children.
func (h *Handler) apiDeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SoftDeleteNode(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiListChildren handles GET /api/nodes/{id}/children. Pass
// include_inactive=true to also list children whose status is off.
func (h *Handler) apiListChildren(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	result, err := h.svc.ListChildren(r.Context(), chi.URLParam(r, "id"), includeInactive)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetPath handles GET /api/nodes/{id}/path.
func (h *Handler) apiGetPath(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetPath(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiResolveSelection handles POST /api/selection/resolve. The client posts
// the IDs it has picked so far; the response carries the committed steps
// (auto-selected singletons included), the options at the current level, and
// the container ref once the drill-down is complete.
func (h *Handler) apiResolveSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Chosen []string `json:"chosen"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	state, err := h.svc.ResolveSelection(r.Context(), req.Chosen)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, state)
}
