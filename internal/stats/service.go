package stats

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/construction-dashboard/internal/session"
)

type SessionReader interface {
	Current() session.Snapshot
}

// Service binds the aggregator to the live session.
type Service struct {
	aggregator *Aggregator
	sessions   SessionReader
	logger     *slog.Logger
}

func NewService(aggregator *Aggregator, sessions SessionReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{aggregator: aggregator, sessions: sessions, logger: logger}
}

// ForSession computes stats for the current session. A result computed for an
// identity that changed meanwhile is discarded and computed once more.
func (s *Service) ForSession(ctx context.Context) Result {
	snap := s.sessions.Current()
	for attempt := 0; attempt < 2; attempt++ {
		if !snap.Authenticated() {
			return Result{Identity: IdentityOf(snap)}
		}

		res := s.aggregator.Compute(ctx, IdentityOf(snap))
		latest := s.sessions.Current()
		if res.Current(latest) {
			return res
		}

		s.logger.DebugContext(ctx, "discarding stale stats",
			"computed_version", res.Identity.Version,
			"current_version", latest.Version)
		snap = latest
	}
	return Result{Identity: IdentityOf(snap), Err: ErrStale}
}
