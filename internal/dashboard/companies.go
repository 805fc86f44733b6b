package dashboard

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/internal/auth"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
)

func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Backend.ListCompanies(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to load companies")
		return
	}
	if companies == nil {
		companies = []construction.CompanySummary{}
	}
	h.WriteJSON(w, http.StatusOK, CompaniesResponse{Companies: companies})
}

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	company, err := h.Backend.GetCompany(r.Context(), id)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to load company")
		return
	}
	h.WriteJSON(w, http.StatusOK, company)
}

// OwnCompany shows the company the signed-in user belongs to.
func (h *Handler) OwnCompany(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}
	if !u.HasCompany() {
		h.WriteAppError(w, internal.NewNotFoundError("You are not assigned to a company", internal.ErrCodeResourceNotFound))
		return
	}

	company, err := h.Backend.GetCompany(r.Context(), *u.CompanyID)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to load company")
		return
	}
	h.WriteJSON(w, http.StatusOK, company)
}

func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req construction.CreateCompanyRequest
	if err := h.DecodeBody(r, &req, func(values map[string][]string) {
		req.Name = strings.TrimSpace(first(values, "name"))
	}); err != nil {
		h.writeBackendError(w, r, err, "Invalid company form")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeBackendError(w, r, err, "Invalid company form")
		return
	}

	company, err := h.Backend.CreateCompany(r.Context(), &req)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to create company")
		return
	}
	h.mutated(w, r, http.StatusCreated, company, "Company created")
}

func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Backend.DeleteCompany(r.Context(), id); err != nil {
		h.writeBackendError(w, r, err, "Failed to delete company")
		return
	}
	h.mutated(w, r, http.StatusOK, nil, "Company deleted")
}

func (h *Handler) AddCompanyUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req construction.AddUserRequest
	if err := h.DecodeBody(r, &req, func(values map[string][]string) {
		req.UserID = formID(values, "user_id")
	}); err != nil {
		h.writeBackendError(w, r, err, "Invalid membership form")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeBackendError(w, r, err, "Invalid membership form")
		return
	}

	ack, err := h.Backend.AddUserToCompany(r.Context(), id, &req)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to add user to company")
		return
	}
	h.mutated(w, r, http.StatusOK, ack, ack.Message)
}

func (h *Handler) RemoveCompanyUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	ack, err := h.Backend.RemoveUserFromCompany(r.Context(), id, userID)
	if err != nil {
		h.writeBackendError(w, r, err, "Failed to remove user from company")
		return
	}
	h.mutated(w, r, http.StatusOK, ack, ack.Message)
}
