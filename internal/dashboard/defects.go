package dashboard

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
)

func (h *Handler) ListDefects(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	defects, err := h.Backend.ListMyDefects(r.Context(), skip, limit)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to load defects")
		return
	}
	if defects == nil {
		defects = []construction.Defect{}
	}
	h.WriteJSON(w, http.StatusOK, DefectsResponse{Defects: defects})
}

func (h *Handler) GetDefect(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	defect, err := h.Backend.GetMyDefect(r.Context(), id)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to load defect")
		return
	}
	h.WriteJSON(w, http.StatusOK, defect)
}

func (h *Handler) CreateDefect(w http.ResponseWriter, r *http.Request) {
	var req construction.CreateDefectRequest
	if err := h.DecodeBody(r, &req, func(values map[string][]string) {
		req.Name = strings.TrimSpace(first(values, "name"))
		req.ProjectID = formID(values, "project_id")
	}); err != nil {
		h.writeBackendError(w, r, err, "Invalid defect form")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeBackendError(w, r, err, "Invalid defect form")
		return
	}

	defect, err := h.Backend.CreateDefect(r.Context(), &req)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to create defect")
		return
	}
	h.mutated(w, r, http.StatusCreated, defect, "Defect created")
}

func (h *Handler) DeleteDefect(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Backend.DeleteDefect(r.Context(), id); err != nil {
		h.writeBackendError(w, r, err, "Failed to delete defect")
		return
	}
	h.mutated(w, r, http.StatusOK, nil, "Defect deleted")
}

func (h *Handler) AssignDefectEngineer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req construction.AssignEngineerRequest
	if err := h.DecodeBody(r, &req, func(values map[string][]string) {
		req.EngineerID = formID(values, "engineer_id")
	}); err != nil {
		h.writeBackendError(w, r, err, "Invalid engineer form")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeBackendError(w, r, err, "Invalid engineer form")
		return
	}

	ack, err := h.Backend.AssignDefectEngineer(r.Context(), id, &req)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to assign engineer")
		return
	}
	h.mutated(w, r, http.StatusOK, ack, ack.Message)
}

func (h *Handler) RemoveDefectEngineer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	ack, err := h.Backend.RemoveDefectEngineer(r.Context(), id)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to remove engineer")
		return
	}
	h.mutated(w, r, http.StatusOK, ack, ack.Message)
}
