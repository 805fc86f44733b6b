package dashboard

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
)

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	projects, err := h.Backend.ListMyProjects(r.Context(), skip, limit)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to load projects")
		return
	}
	if projects == nil {
		projects = []construction.Project{}
	}
	h.WriteJSON(w, http.StatusOK, ProjectsResponse{Projects: projects})
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	project, err := h.Backend.GetMyProject(r.Context(), id)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to load project")
		return
	}
	h.WriteJSON(w, http.StatusOK, project)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req construction.CreateProjectRequest
	if err := h.DecodeBody(r, &req, func(values map[string][]string) {
		req.Name = strings.TrimSpace(first(values, "name"))
		req.CompanyID = formID(values, "company_id")
		req.EngineerIDs = formIDs(values, "engineer_ids")
	}); err != nil {
		h.writeBackendError(w, r, err, "Invalid project form")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeBackendError(w, r, err, "Invalid project form")
		return
	}
	if req.EngineerIDs == nil {
		req.EngineerIDs = []int64{}
	}

	project, err := h.Backend.CreateProject(r.Context(), &req)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to create project")
		return
	}
	h.mutated(w, r, http.StatusCreated, project, "Project created")
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Backend.DeleteProject(r.Context(), id); err != nil {
		h.writeBackendError(w, r, err, "Failed to delete project")
		return
	}
	h.mutated(w, r, http.StatusOK, nil, "Project deleted")
}

func (h *Handler) AddProjectEngineers(w http.ResponseWriter, r *http.Request) {
	h.changeEngineers(w, r, true)
}

func (h *Handler) RemoveProjectEngineers(w http.ResponseWriter, r *http.Request) {
	h.changeEngineers(w, r, false)
}

func (h *Handler) changeEngineers(w http.ResponseWriter, r *http.Request, add bool) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req construction.EngineersRequest
	if err := h.DecodeBody(r, &req, func(values map[string][]string) {
		req.EngineerIDs = formIDs(values, "engineer_ids")
	}); err != nil {
		h.writeBackendError(w, r, err, "Invalid engineers form")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeBackendError(w, r, err, "Invalid engineers form")
		return
	}

	call, fallback := h.Backend.AddProjectEngineers, "Failed to add engineers"
	if !add {
		call, fallback = h.Backend.RemoveProjectEngineers, "Failed to remove engineers"
	}
	ack, err := call(r.Context(), id, &req)
	if err != nil {
		h.writeBackendError(w, r, err, fallback)
		return
	}
	h.mutated(w, r, http.StatusOK, ack, ack.Message)
}

func (h *Handler) AssignProjectManager(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req construction.AssignManagerRequest
	if err := h.DecodeBody(r, &req, func(values map[string][]string) {
		req.ManagerID = formID(values, "manager_id")
	}); err != nil {
		h.writeBackendError(w, r, err, "Invalid manager form")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeBackendError(w, r, err, "Invalid manager form")
		return
	}

	ack, err := h.Backend.AssignProjectManager(r.Context(), id, &req)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to assign manager")
		return
	}
	h.mutated(w, r, http.StatusOK, ack, ack.Message)
}

func (h *Handler) RemoveProjectManager(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	ack, err := h.Backend.RemoveProjectManager(r.Context(), id)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to remove manager")
		return
	}
	h.mutated(w, r, http.StatusOK, ack, ack.Message)
}
