package dashboard_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal/auth"
	"github.com/frahmantamala/construction-dashboard/internal/backend"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/dashboard"
	"github.com/frahmantamala/construction-dashboard/internal/session"
	"github.com/frahmantamala/construction-dashboard/internal/stats"
	"github.com/frahmantamala/construction-dashboard/internal/transport"
	"github.com/frahmantamala/construction-dashboard/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func signedIn(role user.Role, companyID *int64) session.Snapshot {
	return session.Snapshot{
		Version: 1,
		Token:   "tok",
		User:    &user.User{ID: 7, Username: "sam", Email: "sam@example.com", Role: role, CompanyID: companyID},
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}

// newRouter mounts the handlers behind the same gates the server uses.
func newRouter(h *dashboard.Handler, sessions auth.SessionReader) *chi.Mux {
	rbac := auth.NewRBACAuthorization(sessions, nil, logger.Discard())
	r := chi.NewRouter()

	r.Get(auth.LoginPath, h.LoginPage)
	r.Post(auth.LoginPath, h.Login)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)

	r.Group(func(pr chi.Router) {
		pr.Use(rbac.RequireRoles())
		pr.Get("/", h.Index)
		pr.Get(auth.LandingPath, h.Dashboard)
		pr.Get("/profile", h.Profile)
	})
	r.With(rbac.RequireRoles(auth.RouteRoles("company")...)).Get("/company", h.OwnCompany)

	r.Route("/companies", func(cr chi.Router) {
		cr.Use(rbac.RequireRoles(auth.RouteRoles("companies")...))
		cr.Get("/", h.ListCompanies)
		cr.With(rbac.RequireAction(auth.ActionCreateCompany)).Post("/", h.CreateCompany)
		cr.With(rbac.RequireAction(auth.ActionManageMembers)).Post("/{id}/users", h.AddCompanyUser)
		cr.With(rbac.RequireAction(auth.ActionManageMembers)).Delete("/{id}/users/{userID}", h.RemoveCompanyUser)
	})
	r.Route("/projects", func(pr chi.Router) {
		pr.Use(rbac.RequireRoles(auth.RouteRoles("projects")...))
		pr.Get("/", h.ListProjects)
		pr.With(rbac.RequireAction(auth.ActionCreateProject)).Post("/", h.CreateProject)
		pr.With(rbac.RequireAction(auth.ActionManageEngineers)).Post("/{id}/engineers", h.AddProjectEngineers)
		pr.With(rbac.RequireAction(auth.ActionManageEngineers)).Delete("/{id}/engineers", h.RemoveProjectEngineers)
		pr.With(rbac.RequireAction(auth.ActionAssignManager)).Patch("/{id}/manager", h.AssignProjectManager)
	})
	r.Route("/defects", func(dr chi.Router) {
		dr.Use(rbac.RequireRoles(auth.RouteRoles("defects")...))
		dr.Get("/", h.ListDefects)
		dr.Get("/{id}", h.GetDefect)
		dr.With(rbac.RequireAction(auth.ActionCreateDefect)).Post("/", h.CreateDefect)
		dr.With(rbac.RequireAction(auth.ActionAssignDefectOwner)).Patch("/{id}/engineer", h.AssignDefectEngineer)
		dr.With(rbac.RequireAction(auth.ActionAssignDefectOwner)).Delete("/{id}/engineer", h.RemoveDefectEngineer)
	})
	return r
}

func form(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

var _ = Describe("Dashboard Handler", func() {
	var (
		sessions *fakeSessions
		counts   *fakeStats
		api      *fakeBackend
		router   *chi.Mux
	)

	BeforeEach(func() {
		sessions = &fakeSessions{}
		counts = &fakeStats{stats: stats.Stats{Companies: 1, Projects: 2, Defects: 3, Engineers: 4}}
		api = &fakeBackend{}
		handler := dashboard.NewHandler(transport.NewBaseHandler(logger.Discard()), sessions, counts, api, nil)
		router = newRouter(handler, sessions)
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeError := func(w *httptest.ResponseRecorder) transport.ErrorResponse {
		var resp transport.ErrorResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp
	}

	Describe("session forms", func() {
		It("describes the login form", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/login", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var page dashboard.LoginPage
			Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
			Expect(page.Action).To(Equal("/login"))
			Expect(page.Fields).To(ConsistOf("username", "password"))
			Expect(page.Authenticated).To(BeFalse())
		})

		It("redirects to the dashboard after a form login", func() {
			sessions.loginOK = true
			sessions.loginUser = &user.User{ID: 7, Role: user.RoleEngineer}

			w := serve(form(http.MethodPost, "/login", url.Values{"username": {" sam "}, "password": {"secret"}}))

			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/dashboard"))
			Expect(sessions.loginArgs).To(Equal([]string{"sam", "secret"}))
		})

		It("keeps a failed JSON login inline", func() {
			w := serve(jsonRequest(http.MethodPost, "/login", `{"username":"sam","password":"wrong"}`))

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(decodeError(w).Error).To(Equal("Incorrect username or password"))
		})

		It("rejects an invalid registration with field details", func() {
			w := serve(form(http.MethodPost, "/register", url.Values{"username": {"sam"}, "email": {"nope"}, "password": {"123"}, "role": {"admin"}}))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			resp := decodeError(w)
			fields := make([]string, 0, len(resp.Details))
			for _, d := range resp.Details {
				fields = append(fields, d.Field)
			}
			Expect(fields).To(ContainElements("email", "password"))
		})

		It("sends a registered user to the login form without signing in", func() {
			w := serve(form(http.MethodPost, "/register", url.Values{
				"username": {"sam"}, "email": {"sam@example.com"}, "password": {"secret1"},
				"role": {"Client"}, "company_id": {"12"},
			}))

			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/login"))
			Expect(sessions.registered.Role).To(Equal(user.RoleClient))
			Expect(*sessions.registered.CompanyID).To(Equal(int64(12)))
			Expect(sessions.Current().Authenticated()).To(BeFalse())
		})

		It("shows the backend's registration detail", func() {
			sessions.registerErr = &backend.APIError{StatusCode: http.StatusBadRequest, Detail: "Username already registered"}

			w := serve(jsonRequest(http.MethodPost, "/register", `{"username":"sam","email":"sam@example.com","password":"secret1","role":"engineer"}`))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error).To(Equal("Username already registered"))
		})

		It("logs out and lands on login even when the store fails", func() {
			sessions.snap = signedIn(user.RoleAdmin, nil)
			sessions.logoutErr = errors.New("disk full")

			w := serve(httptest.NewRequest(http.MethodPost, "/logout", nil))

			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/login"))
			Expect(sessions.loggedOut).To(BeTrue())
		})
	})

	Describe("views", func() {
		It("asks the caller to retry while the session is restored", func() {
			sessions.snap = session.Snapshot{Loading: true}

			w := serve(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(w.Header().Get("Retry-After")).To(Equal("1"))
			Expect(counts.Calls()).To(BeZero())
		})

		It("sends anonymous visitors to login", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/login"))
		})

		It("redirects the root to the dashboard", func() {
			sessions.snap = signedIn(user.RoleClient, nil)

			w := serve(httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/dashboard"))
		})

		It("renders the manager dashboard with stats, menu and actions", func() {
			sessions.snap = signedIn(user.RoleManager, int64Ptr(3))

			w := serve(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp dashboard.DashboardResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.RoleLabel).To(Equal("Manager"))
			Expect(resp.RoleDescription).NotTo(BeEmpty())
			Expect(resp.Stats).To(Equal(counts.stats))

			keys := make([]string, 0, len(resp.Menu))
			for _, item := range resp.Menu {
				keys = append(keys, item.Key)
			}
			Expect(keys).To(Equal([]string{"dashboard", "projects", "defects", "profile"}))
			Expect(resp.QuickLinks).To(HaveLen(2))
			Expect(resp.Actions).To(ContainElement(auth.ActionAssignManager))
			Expect(resp.Actions).NotTo(ContainElement(auth.ActionCreateCompany))
		})

		It("renders zero stats when they cannot be computed", func() {
			sessions.snap = signedIn(user.RoleEngineer, nil)
			counts.err = stats.ErrStale

			w := serve(httptest.NewRequest(http.MethodGet, "/profile", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp dashboard.ProfileResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.RoleLabel).To(Equal("Engineer"))
			Expect(resp.Stats).To(Equal(stats.Stats{}))
		})
	})

	Describe("companies", func() {
		BeforeEach(func() {
			sessions.snap = signedIn(user.RoleAdmin, nil)
		})

		It("lists companies for an admin", func() {
			api.companies = []construction.CompanySummary{{ID: 1, Name: "Acme", ProjectsCount: 2, UsersCount: 5}}

			w := serve(httptest.NewRequest(http.MethodGet, "/companies", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp dashboard.CompaniesResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Companies).To(HaveLen(1))
		})

		It("keeps other roles out of company management", func() {
			sessions.snap = signedIn(user.RoleManager, int64Ptr(3))

			w := serve(httptest.NewRequest(http.MethodGet, "/companies", nil))

			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/dashboard"))
			Expect(api.Calls()).To(BeEmpty())
		})

		It("creates a company and returns fresh stats", func() {
			w := serve(jsonRequest(http.MethodPost, "/companies", `{"name":"Acme"}`))

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp dashboard.MutationResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Message).To(Equal("Company created"))
			Expect(resp.Stats).To(Equal(counts.stats))
			Expect(counts.Calls()).To(Equal(1))
			Expect(api.createdCompany.Name).To(Equal("Acme"))
		})

		It("validates before calling the backend", func() {
			w := serve(form(http.MethodPost, "/companies", url.Values{"name": {"  "}}))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Details).NotTo(BeEmpty())
			Expect(api.Calls()).To(BeEmpty())
		})

		It("adds and removes members", func() {
			w := serve(form(http.MethodPost, "/companies/2/users", url.Values{"user_id": {"11"}}))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(api.member.UserID).To(Equal(int64(11)))

			w = serve(httptest.NewRequest(http.MethodDelete, "/companies/2/users/11", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(api.Calls()).To(Equal([]string{"AddUserToCompany", "RemoveUserFromCompany"}))
			Expect(api.ids).To(Equal([]int64{2, 2, 11}))
		})

		It("rejects a non-numeric id", func() {
			w := serve(httptest.NewRequest(http.MethodDelete, "/companies/abc/users/11", nil))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(api.Calls()).To(BeEmpty())
		})
	})

	Describe("own company", func() {
		It("shows the client's company", func() {
			sessions.snap = signedIn(user.RoleClient, int64Ptr(5))
			api.company = &construction.Company{ID: 5, Name: "Acme"}

			w := serve(httptest.NewRequest(http.MethodGet, "/company", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(api.ids).To(Equal([]int64{5}))
		})

		It("is not found for a user without a company", func() {
			sessions.snap = signedIn(user.RoleClient, nil)

			w := serve(httptest.NewRequest(http.MethodGet, "/company", nil))

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(api.Calls()).To(BeEmpty())
		})
	})

	Describe("projects", func() {
		BeforeEach(func() {
			sessions.snap = signedIn(user.RoleManager, int64Ptr(3))
		})

		It("passes pagination through", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/projects?skip=10&limit=5", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(api.ids).To(Equal([]int64{10, 5}))
			Expect(w.Body.String()).To(ContainSubstring(`"projects":[]`))
		})

		It("creates a project with engineers from a form", func() {
			w := serve(form(http.MethodPost, "/projects", url.Values{
				"name": {"Tower"}, "company_id": {"3"}, "engineer_ids": {"4, 5", "6"},
			}))

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(api.createdProject.EngineerIDs).To(Equal([]int64{4, 5, 6}))
		})

		It("rejects garbage engineer ids", func() {
			w := serve(form(http.MethodPost, "/projects/1/engineers", url.Values{"engineer_ids": {"4,x"}}))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(api.Calls()).To(BeEmpty())
		})

		It("removes engineers with a JSON body", func() {
			w := serve(jsonRequest(http.MethodDelete, "/projects/1/engineers", `{"engineer_ids":[4]}`))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(api.Calls()).To(Equal([]string{"RemoveProjectEngineers"}))
			Expect(api.engineers.EngineerIDs).To(Equal([]int64{4}))
		})

		It("assigns a manager", func() {
			w := serve(jsonRequest(http.MethodPatch, "/projects/1/manager", `{"manager_id":8}`))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp dashboard.MutationResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Message).To(Equal("Manager assigned"))
			Expect(api.manager.ManagerID).To(Equal(int64(8)))
		})
	})

	Describe("defects", func() {
		It("lets an engineer report but not reassign", func() {
			sessions.snap = signedIn(user.RoleEngineer, nil)

			w := serve(jsonRequest(http.MethodPost, "/defects", `{"name":"Crack","project_id":2}`))
			Expect(w.Code).To(Equal(http.StatusCreated))

			w = serve(httptest.NewRequest(http.MethodDelete, "/defects/4/engineer", nil))
			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/dashboard"))
			Expect(api.Calls()).To(Equal([]string{"CreateDefect"}))
		})

		It("keeps clients out", func() {
			sessions.snap = signedIn(user.RoleClient, int64Ptr(1))

			w := serve(httptest.NewRequest(http.MethodGet, "/defects", nil))

			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/dashboard"))
		})

		It("shows who each defect is assigned to", func() {
			sessions.snap = signedIn(user.RoleEngineer, int64Ptr(1))
			api.defects = []construction.Defect{
				{ID: 4, Name: "Crack", ProjectID: 2, EngineerID: int64Ptr(9), Engineer: &user.User{ID: 9, Username: "erin", Email: "erin@example.com"}},
			}

			w := serve(httptest.NewRequest(http.MethodGet, "/defects", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var body map[string][]map[string]interface{}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body["defects"][0]["engineer"]).To(HaveKeyWithValue("username", "erin"))
		})

		It("assigns an engineer", func() {
			sessions.snap = signedIn(user.RoleAdmin, nil)

			w := serve(form(http.MethodPatch, "/defects/4/engineer", url.Values{"engineer_id": {"9"}}))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(api.engineer.EngineerID).To(Equal(int64(9)))
		})
	})

	Describe("backend failures", func() {
		BeforeEach(func() {
			sessions.snap = signedIn(user.RoleAdmin, nil)
		})

		It("sends the caller to login when the token was rejected", func() {
			api.err = &backend.APIError{Method: http.MethodGet, Path: "/defect/my-defects", StatusCode: http.StatusUnauthorized}

			w := serve(httptest.NewRequest(http.MethodGet, "/defects", nil))

			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/login"))
		})

		It("shows the backend's validation detail", func() {
			api.err = &backend.APIError{StatusCode: http.StatusUnprocessableEntity, Detail: "Project does not exist"}

			w := serve(jsonRequest(http.MethodPost, "/defects", `{"name":"Crack","project_id":99}`))

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(decodeError(w).Error).To(Equal("Project does not exist"))
		})

		It("hides transport failures behind a generic message", func() {
			api.err = errors.New("dial tcp: connection refused")

			w := serve(httptest.NewRequest(http.MethodGet, "/defects/4", nil))

			Expect(w.Code).To(Equal(http.StatusBadGateway))
			Expect(decodeError(w).Error).To(Equal("Failed to load defect"))
		})

		It("does not recompute stats for a failed mutation", func() {
			api.err = errors.New("timeout")

			w := serve(jsonRequest(http.MethodPost, "/companies", `{"name":"Acme"}`))

			Expect(w.Code).To(Equal(http.StatusBadGateway))
			Expect(counts.Calls()).To(BeZero())
		})
	})
})
