package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"golang.org/x/oauth2"
)

const (
	pathRegister = "/auth/register"
	pathToken    = "/auth/token"
	pathMe       = "/auth/users/me/"
)

// AuthClient covers the endpoints that run before a session exists. It never
// goes through the unauthorized interceptor: a rejected password or a stale
// token under validation is reported to the caller instead of forcing logout.
type AuthClient struct {
	requester
	oauth *oauth2.Config
}

func NewAuthClient(cfg Config, logger *slog.Logger) *AuthClient {
	r := newRequester(cfg, baseTransport(cfg), logger)
	return &AuthClient{
		requester: r,
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  r.endpoint(pathToken, nil),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// Register creates an account. It does not sign in. The returned user is nil
// when the backend acknowledges without echoing the account.
func (c *AuthClient) Register(ctx context.Context, req *user.RegisterRequest) (*user.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, pathRegister, nil, req, &raw, nil); err != nil {
		return nil, err
	}
	var created user.User
	if err := json.Unmarshal(raw, &created); err != nil || created.ID == 0 {
		return nil, nil
	}
	return &created, nil
}

// Token exchanges credentials for a bearer token using the form-encoded
// password grant.
func (c *AuthClient) Token(ctx context.Context, username, password string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := c.oauth.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return "", &APIError{
				Method:     http.MethodPost,
				Path:       pathToken,
				StatusCode: re.Response.StatusCode,
				Detail:     ExtractDetail(re.Body),
			}
		}
		c.logger.WarnContext(ctx, "token request failed", "error", err)
		return "", fmt.Errorf("POST %s: %w", pathToken, err)
	}
	return tok.AccessToken, nil
}

// Me resolves token to the current user.
func (c *AuthClient) Me(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	var u user.User
	if err := c.do(ctx, http.MethodGet, pathMe, nil, nil, &u, header); err != nil {
		return nil, err
	}
	if u.ID == 0 || !u.Role.Valid() {
		return nil, fmt.Errorf("GET %s: user payload without id or valid role: %w", pathMe, ErrMalformedResponse)
	}
	return &u, nil
}
