package dashboard

import (
	"net/http"

	"github.com/frahmantamala/construction-dashboard/internal/auth"
)

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, auth.LandingPath, http.StatusSeeOther)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}

	menu := auth.VisibleMenu(u)
	quick := make([]auth.MenuItem, 0, len(menu))
	for _, item := range menu {
		if item.Key == "dashboard" || item.Key == "profile" {
			continue
		}
		quick = append(quick, item)
	}

	h.WriteJSON(w, http.StatusOK, DashboardResponse{
		User:            u,
		RoleLabel:       u.Role.Label(),
		RoleDescription: u.Role.Description(),
		Stats:           h.freshStats(r.Context()),
		Menu:            menu,
		Actions:         h.Checker.AllowedActions(u),
		QuickLinks:      quick,
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}

	h.WriteJSON(w, http.StatusOK, ProfileResponse{
		User:            u,
		RoleLabel:       u.Role.Label(),
		RoleDescription: u.Role.Description(),
		Stats:           h.freshStats(r.Context()),
	})
}
