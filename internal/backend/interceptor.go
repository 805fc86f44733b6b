package backend

import (
	"net/http"

	"golang.org/x/oauth2"
)

// TokenSource supplies the bearer token of the current session.
type TokenSource interface {
	CurrentToken() (string, bool)
}

// UnauthorizedPolicy is invoked once for every authenticated response the
// backend answers with 401.
type UnauthorizedPolicy interface {
	OnUnauthorized(req *http.Request)
}

type UnauthorizedFunc func(req *http.Request)

func (f UnauthorizedFunc) OnUnauthorized(req *http.Request) {
	f(req)
}

type sessionTokenSource struct {
	src TokenSource
}

func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	tok, ok := s.src.CurrentToken()
	if !ok || tok == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

type unauthorizedTransport struct {
	next   http.RoundTripper
	policy UnauthorizedPolicy
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && t.policy != nil {
		t.policy.OnUnauthorized(req)
	}
	return resp, nil
}

// authenticatedTransport chains the 401 policy over bearer injection over base.
func authenticatedTransport(base http.RoundTripper, src TokenSource, policy UnauthorizedPolicy) http.RoundTripper {
	return &unauthorizedTransport{
		next: &oauth2.Transport{
			Source: sessionTokenSource{src: src},
			Base:   base,
		},
		policy: policy,
	}
}
