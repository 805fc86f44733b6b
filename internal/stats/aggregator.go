package stats

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"golang.org/x/sync/errgroup"
)

// Backend is the read-only slice of the backend client the aggregator uses.
type Backend interface {
	ListCompanies(ctx context.Context) ([]construction.CompanySummary, error)
	GetCompany(ctx context.Context, id int64) (*construction.Company, error)
	ListMyProjects(ctx context.Context, skip, limit int) ([]construction.Project, error)
	ListMyDefects(ctx context.Context, skip, limit int) ([]construction.Defect, error)
}

type Aggregator struct {
	backend Backend
	logger  *slog.Logger
}

func NewAggregator(backend Backend, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{backend: backend, logger: logger}
}

// Compute never fails: any fetch error yields zero stats for the whole role.
func (a *Aggregator) Compute(ctx context.Context, id Identity) Result {
	var (
		s   Stats
		err error
	)

	switch id.Role {
	case user.RoleAdmin:
		s, err = a.admin(ctx)
	case user.RoleManager:
		s, err = a.manager(ctx, id)
	case user.RoleEngineer:
		s, err = a.engineer(ctx)
	case user.RoleClient:
		s, err = a.client(ctx, id)
	default:
		return Result{Identity: id}
	}

	if err != nil {
		a.logger.WarnContext(ctx, "stats aggregation failed",
			"role", id.Role.String(),
			"user_id", id.UserID,
			"error", err)
		return Result{Identity: id, Err: err}
	}
	return Result{Identity: id, Stats: s}
}

// admin sums every company's detail. Projects belong to one company, so
// nothing is counted twice.
func (a *Aggregator) admin(ctx context.Context) (Stats, error) {
	companies, err := a.backend.ListCompanies(ctx)
	if err != nil {
		return Stats{}, err
	}

	details := make([]*construction.Company, len(companies))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range companies {
		i, id := i, c.ID
		g.Go(func() error {
			detail, err := a.backend.GetCompany(gctx, id)
			if err != nil {
				return err
			}
			details[i] = detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	s := Stats{Companies: len(companies)}
	for _, d := range details {
		s.Projects += len(d.Projects)
		s.Defects += construction.DefectCount(d.Projects)
		s.Engineers += len(d.Engineers)
	}
	return s, nil
}

// manager counts only the manager's own projects: defects are summed over the
// company projects whose id is in the owned set and engineers are deduplicated.
func (a *Aggregator) manager(ctx context.Context, id Identity) (Stats, error) {
	if id.CompanyID == nil {
		return Stats{}, nil
	}

	var (
		mine    []construction.Project
		company *construction.Company
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mine, err = a.backend.ListMyProjects(gctx, 0, 0)
		return err
	})
	g.Go(func() error {
		var err error
		company, err = a.backend.GetCompany(gctx, *id.CompanyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	mineIDs := construction.IDSet(mine)
	engineers := make(map[int64]struct{})
	for _, p := range mine {
		for _, e := range p.Engineers {
			engineers[e.ID] = struct{}{}
		}
	}

	defects := 0
	for _, p := range company.Projects {
		if _, owned := mineIDs[p.ID]; !owned {
			continue
		}
		defects += len(p.Defects)
		for _, e := range p.Engineers {
			engineers[e.ID] = struct{}{}
		}
	}

	return Stats{
		Companies: 1,
		Projects:  len(mine),
		Defects:   defects,
		Engineers: len(engineers),
	}, nil
}

// engineer sees only their own defects and the distinct projects they touch.
func (a *Aggregator) engineer(ctx context.Context) (Stats, error) {
	defects, err := a.backend.ListMyDefects(ctx, 0, 0)
	if err != nil {
		return Stats{}, err
	}

	projects := make(map[int64]struct{}, len(defects))
	for _, d := range defects {
		projects[d.ProjectID] = struct{}{}
	}
	return Stats{Projects: len(projects), Defects: len(defects)}, nil
}

// client sees the whole of their company.
func (a *Aggregator) client(ctx context.Context, id Identity) (Stats, error) {
	if id.CompanyID == nil {
		return Stats{}, nil
	}

	company, err := a.backend.GetCompany(ctx, *id.CompanyID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Companies: 1,
		Projects:  len(company.Projects),
		Defects:   construction.DefectCount(company.Projects),
		Engineers: len(company.Engineers),
	}, nil
}
