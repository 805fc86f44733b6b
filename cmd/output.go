package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/internal/backend"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// backendFailure turns a backend error into a message the user can act on.
// Outages keep their cause.
func backendFailure(err error, fallback string) error {
	if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrNoToken) {
		return errNotSignedIn
	}
	appErr := backend.ToAppError(err, fallback)
	if appErr.Type == internal.ErrorTypeExternal {
		return fmt.Errorf("%s: %w", appErr.GetDetailedMessage(), err)
	}
	return errors.New(appErr.GetDetailedMessage())
}
