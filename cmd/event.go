package cmd

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/construction-dashboard/internal/core/events"
)

// watchSessionEvents logs every session transition of a long running
// dashboard and returns the func that stops it.
func watchSessionEvents(bus *events.EventBus, logger *slog.Logger) func() {
	logEvent := func(level slog.Level, msg string) events.Handler {
		return func(ctx context.Context, event events.Event) error {
			logger.Log(ctx, level, msg,
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"payload", event.Payload())
			return nil
		}
	}

	stopChanged := bus.Subscribe(events.EventTypeSessionChanged, logEvent(slog.LevelInfo, "session changed"))
	stopForced := bus.Subscribe(events.EventTypeSessionForcedLogout, logEvent(slog.LevelWarn, "session ended by backend"))

	return func() {
		stopChanged()
		stopForced()
	}
}
