package construction

import (
	"encoding/json"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
)

// Company is the full company detail returned by /company/my-companies.
type Company struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Projects  []Project   `json:"projects"`
	Engineers []user.User `json:"engineers"`
	Managers  []user.User `json:"managers"`
}

// Project belongs to exactly one company. ManagerID is nil when unassigned.
type Project struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	CompanyID int64       `json:"company_id"`
	ManagerID *int64      `json:"manager_id"`
	Engineers []user.User `json:"engineers"`
	Defects   []Defect    `json:"defects"`
}

// Defect belongs to exactly one project. EngineerID is nil when unassigned;
// Engineer is set only when the backend embeds the assignee.
type Defect struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	ProjectID  int64      `json:"project_id"`
	EngineerID *int64     `json:"engineer_id"`
	Engineer   *user.User `json:"engineer,omitempty"`
}

// The backend names the foreign keys user_manager_id and user_engineer_id on
// some endpoints; both spellings are accepted.

func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	var wire struct {
		plain
		UserManagerID *int64 `json:"user_manager_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Project(wire.plain)
	if p.ManagerID == nil {
		p.ManagerID = wire.UserManagerID
	}
	return nil
}

func (d *Defect) UnmarshalJSON(data []byte) error {
	type plain Defect
	var wire struct {
		plain
		UserEngineerID *int64 `json:"user_engineer_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*d = Defect(wire.plain)
	if d.EngineerID == nil {
		d.EngineerID = wire.UserEngineerID
	}
	if d.EngineerID == nil && d.Engineer != nil {
		id := d.Engineer.ID
		d.EngineerID = &id
	}
	return nil
}

// DefectCount sums defects across the given projects.
func DefectCount(projects []Project) int {
	n := 0
	for _, p := range projects {
		n += len(p.Defects)
	}
	return n
}

// IDSet collects project ids.
func IDSet(projects []Project) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(projects))
	for _, p := range projects {
		ids[p.ID] = struct{}{}
	}
	return ids
}

// CompanySummary is one row of /company/all.
type CompanySummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ProjectsCount int    `json:"projects_count"`
	UsersCount    int    `json:"users_count"`
}

// UnmarshalJSON accepts the counts either as *_count numbers or as "projects"
// and "users" holding a number or a list.
func (s *CompanySummary) UnmarshalJSON(data []byte) error {
	type plain CompanySummary
	var wire struct {
		plain
		Projects json.RawMessage `json:"projects"`
		Users    json.RawMessage `json:"users"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = CompanySummary(wire.plain)
	if n, ok := countOf(wire.Projects); ok && s.ProjectsCount == 0 {
		s.ProjectsCount = n
	}
	if n, ok := countOf(wire.Users); ok && s.UsersCount == 0 {
		s.UsersCount = n
	}
	return nil
}

func countOf(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return len(items), true
	}
	return 0, false
}
