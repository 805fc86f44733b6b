package stats_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/session"
	"github.com/frahmantamala/construction-dashboard/internal/stats"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeBackend serves canned collections and counts calls.
type fakeBackend struct {
	mu        sync.Mutex
	companies map[int64]*construction.Company
	projects  []construction.Project
	defects   []construction.Defect
	failOn    map[string]error
	calls     map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		companies: map[int64]*construction.Company{},
		failOn:    map[string]error{},
		calls:     map[string]int{},
	}
}

func (f *fakeBackend) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.failOn[name]
}

func (f *fakeBackend) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) ListCompanies(context.Context) ([]construction.CompanySummary, error) {
	if err := f.record("ListCompanies"); err != nil {
		return nil, err
	}
	out := make([]construction.CompanySummary, 0, len(f.companies))
	for id, c := range f.companies {
		out = append(out, construction.CompanySummary{ID: id, Name: c.Name})
	}
	return out, nil
}

func (f *fakeBackend) GetCompany(_ context.Context, id int64) (*construction.Company, error) {
	if err := f.record("GetCompany"); err != nil {
		return nil, err
	}
	c, ok := f.companies[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return c, nil
}

func (f *fakeBackend) ListMyProjects(context.Context, int, int) ([]construction.Project, error) {
	if err := f.record("ListMyProjects"); err != nil {
		return nil, err
	}
	return f.projects, nil
}

func (f *fakeBackend) ListMyDefects(context.Context, int, int) ([]construction.Defect, error) {
	if err := f.record("ListMyDefects"); err != nil {
		return nil, err
	}
	return f.defects, nil
}

func defects(projectID int64, n int) []construction.Defect {
	out := make([]construction.Defect, n)
	for i := range out {
		out[i] = construction.Defect{ID: projectID*100 + int64(i), ProjectID: projectID}
	}
	return out
}

func engineers(ids ...int64) []user.User {
	out := make([]user.User, len(ids))
	for i, id := range ids {
		out[i] = user.User{ID: id, Role: user.RoleEngineer}
	}
	return out
}

func companyID(id int64) *int64 {
	return &id
}

var _ = Describe("Aggregator", func() {
	var (
		ctx        context.Context
		fake       *fakeBackend
		aggregator *stats.Aggregator
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = newFakeBackend()
		aggregator = stats.NewAggregator(fake, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	Context("admin", func() {
		BeforeEach(func() {
			fake.companies[1] = &construction.Company{ID: 1, Name: "A",
				Projects:  []construction.Project{{ID: 1, Defects: defects(1, 1)}, {ID: 2, Defects: defects(2, 3)}},
				Engineers: engineers(10, 11),
			}
			fake.companies[2] = &construction.Company{ID: 2, Name: "B",
				Projects:  []construction.Project{{ID: 3}},
				Engineers: engineers(12),
			}
		})

		It("sums projects and defects over every company", func() {
			res := aggregator.Compute(ctx, stats.Identity{UserID: 1, Role: user.RoleAdmin})

			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.Stats).To(Equal(stats.Stats{Companies: 2, Projects: 3, Defects: 4, Engineers: 3}))
			Expect(fake.calls["GetCompany"]).To(Equal(2))
		})

		It("zeroes everything when one detail fetch fails", func() {
			fake.failOn["GetCompany"] = errors.New("502")

			res := aggregator.Compute(ctx, stats.Identity{UserID: 1, Role: user.RoleAdmin})

			Expect(res.Err).To(HaveOccurred())
			Expect(res.Stats).To(Equal(stats.Stats{}))
		})

		It("is idempotent without intervening mutations", func() {
			id := stats.Identity{UserID: 1, Role: user.RoleAdmin}
			Expect(aggregator.Compute(ctx, id).Stats).To(Equal(aggregator.Compute(ctx, id).Stats))
		})
	})

	Context("manager", func() {
		var id stats.Identity

		BeforeEach(func() {
			id = stats.Identity{UserID: 7, Role: user.RoleManager, CompanyID: companyID(3)}
			fake.companies[3] = &construction.Company{ID: 3,
				Projects: []construction.Project{
					{ID: 1, Defects: defects(1, 2), Engineers: engineers(20)},
					{ID: 2, Defects: defects(2, 5), Engineers: engineers(21, 22)},
					{ID: 3, Defects: defects(3, 1), Engineers: engineers(20)},
				},
				Engineers: engineers(20, 21, 22),
			}
			fake.projects = []construction.Project{
				{ID: 1, Engineers: engineers(20)},
				{ID: 3, Engineers: engineers(20)},
			}
		})

		It("counts defects only on owned projects", func() {
			res := aggregator.Compute(ctx, id)

			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.Stats.Projects).To(Equal(2))
			Expect(res.Stats.Defects).To(Equal(3))
			Expect(res.Stats.Companies).To(Equal(1))
		})

		It("counts an engineer on two owned projects once", func() {
			res := aggregator.Compute(ctx, id)

			Expect(res.Stats.Engineers).To(Equal(1))
		})

		It("has an empty scope without a company", func() {
			id.CompanyID = nil

			res := aggregator.Compute(ctx, id)

			Expect(res.Stats).To(Equal(stats.Stats{}))
			Expect(fake.totalCalls()).To(BeZero())
		})

		It("zeroes everything when the company fetch fails", func() {
			fake.failOn["GetCompany"] = errors.New("timeout")

			res := aggregator.Compute(ctx, id)

			Expect(res.Err).To(HaveOccurred())
			Expect(res.Stats).To(Equal(stats.Stats{}))
		})
	})

	Context("engineer", func() {
		It("deduplicates projects across own defects", func() {
			fake.defects = append(defects(7, 2), defects(9, 1)...)

			res := aggregator.Compute(ctx, stats.Identity{UserID: 20, Role: user.RoleEngineer, CompanyID: companyID(3)})

			Expect(res.Stats).To(Equal(stats.Stats{Projects: 2, Defects: 3}))
			Expect(fake.calls).NotTo(HaveKey("GetCompany"))
		})
	})

	Context("client", func() {
		It("counts the whole company", func() {
			fake.companies[3] = &construction.Company{ID: 3,
				Projects:  []construction.Project{{ID: 1, Defects: defects(1, 2)}, {ID: 2, Defects: defects(2, 5)}},
				Engineers: engineers(20, 21),
			}

			res := aggregator.Compute(ctx, stats.Identity{UserID: 30, Role: user.RoleClient, CompanyID: companyID(3)})

			Expect(res.Stats).To(Equal(stats.Stats{Companies: 1, Projects: 2, Defects: 7, Engineers: 2}))
		})

		It("resolves to zeros when the company detail fails", func() {
			fake.failOn["GetCompany"] = errors.New("connection refused")

			var res stats.Result
			Expect(func() {
				res = aggregator.Compute(ctx, stats.Identity{UserID: 30, Role: user.RoleClient, CompanyID: companyID(3)})
			}).NotTo(Panic())
			Expect(res.Stats).To(Equal(stats.Stats{}))
			Expect(res.Err).To(MatchError("connection refused"))
		})

		It("is all zeros without a company", func() {
			res := aggregator.Compute(ctx, stats.Identity{UserID: 30, Role: user.RoleClient})
			Expect(res.Stats).To(Equal(stats.Stats{}))
			Expect(fake.totalCalls()).To(BeZero())
		})
	})

	It("issues no calls without a role", func() {
		res := aggregator.Compute(ctx, stats.Identity{})

		Expect(res.Stats).To(Equal(stats.Stats{}))
		Expect(fake.totalCalls()).To(BeZero())
	})
})

// shiftingSession returns each snapshot in turn, then repeats the last.
type shiftingSession struct {
	mu    sync.Mutex
	snaps []session.Snapshot
}

func (s *shiftingSession) Current() session.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snaps[0]
	if len(s.snaps) > 1 {
		s.snaps = s.snaps[1:]
	}
	return snap
}

var _ = Describe("Service", func() {
	var fake *fakeBackend

	signedIn := func(version uint64, role user.Role, company *int64) session.Snapshot {
		return session.Snapshot{Version: version, Token: "tok", User: &user.User{ID: 1, Role: role, CompanyID: company}}
	}

	BeforeEach(func() {
		fake = newFakeBackend()
		fake.companies[3] = &construction.Company{ID: 3, Projects: []construction.Project{{ID: 1}}}
		fake.defects = defects(1, 4)
	})

	newService := func(snaps ...session.Snapshot) *stats.Service {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		return stats.NewService(stats.NewAggregator(fake, logger), &shiftingSession{snaps: snaps}, logger)
	}

	It("returns zeros without a session", func() {
		res := newService(session.Snapshot{}).ForSession(context.Background())
		Expect(res.Stats).To(Equal(stats.Stats{}))
		Expect(fake.totalCalls()).To(BeZero())
	})

	It("recomputes when the identity changed during the computation", func() {
		client := signedIn(1, user.RoleClient, companyID(3))
		engineer := signedIn(2, user.RoleEngineer, nil)

		res := newService(client, engineer).ForSession(context.Background())

		Expect(res.Identity.Role).To(Equal(user.RoleEngineer))
		Expect(res.Stats).To(Equal(stats.Stats{Projects: 1, Defects: 4}))
	})

	It("gives up with zeros when the session keeps changing", func() {
		res := newService(
			signedIn(1, user.RoleClient, companyID(3)),
			signedIn(2, user.RoleEngineer, nil),
			signedIn(3, user.RoleClient, companyID(3)),
		).ForSession(context.Background())

		Expect(res.Err).To(MatchError(stats.ErrStale))
		Expect(res.Stats).To(Equal(stats.Stats{}))
	})

	It("discards a result once the user signs out", func() {
		res := newService(signedIn(1, user.RoleClient, companyID(3)), session.Snapshot{Version: 2}).ForSession(context.Background())

		Expect(res.Stats).To(Equal(stats.Stats{}))
		Expect(res.Identity.UserID).To(BeZero())
	})
})
