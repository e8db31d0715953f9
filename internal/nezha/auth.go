package nezha

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/nezhatop/nezhatop/internal/config"
)

// expirySkew treats a session as expired slightly early so a request does not
// race the server-side deadline.
const expirySkew = 30 * time.Second

// Session is a bearer token obtained by logging in.
type Session struct {
	Token      string
	ObtainedAt time.Time
	// ExpiresAt is zero when the server did not report an expiry.
	ExpiresAt time.Time
}

func (s Session) valid(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt.Add(-expirySkew))
}

type sessionKey struct {
	baseURL  string
	username string
	password string
}

// Authenticator turns credentials into an Authorization header value. It
// caches one Session per credential value and serializes logins.
type Authenticator struct {
	transport Transport
	userAgent string
	now       func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]Session
}

// NewAuthenticator returns an Authenticator that logs in through transport.
func NewAuthenticator(transport Transport, userAgent string) *Authenticator {
	return &Authenticator{
		transport: transport,
		userAgent: userAgent,
		now:       time.Now,
		sessions:  make(map[sessionKey]Session),
	}
}

// Authorization returns the header value for dash. Static tokens are returned
// unchanged without a network call; username/password credentials reuse a
// cached session or log in.
func (a *Authenticator) Authorization(ctx context.Context, dash config.Dashboard) (string, error) {
	switch creds := dash.Credentials.(type) {
	case config.Token:
		return creds.APIToken, nil
	case config.UsernamePassword:
		session, err := a.Session(ctx, dash.BaseURL(), creds)
		if err != nil {
			return "", err
		}
		return "Bearer " + session.Token, nil
	default:
		return "", config.ErrMissingConfiguration
	}
}

// Session returns a valid session for creds, logging in when none is cached.
func (a *Authenticator) Session(ctx context.Context, baseURL string, creds config.UsernamePassword) (Session, error) {
	key := sessionKey{baseURL: baseURL, username: creds.Username, password: creds.Password}

	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.sessions[key]; ok && s.valid(a.now()) {
		return s, nil
	}
	delete(a.sessions, key)

	s, err := a.login(ctx, baseURL, creds)
	if err != nil {
		return Session{}, err
	}
	a.sessions[key] = s
	return s, nil
}

// Invalidate drops any cached session for dash.
func (a *Authenticator) Invalidate(dash config.Dashboard) {
	creds, ok := dash.Credentials.(config.UsernamePassword)
	if !ok {
		return
	}
	a.mu.Lock()
	delete(a.sessions, sessionKey{baseURL: dash.BaseURL(), username: creds.Username, password: creds.Password})
	a.mu.Unlock()
}

func (a *Authenticator) login(ctx context.Context, baseURL string, creds config.UsernamePassword) (Session, error) {
	body, err := json.Marshal(map[string]string{"username": creds.Username, "password": creds.Password})
	if err != nil {
		return Session{}, &AuthError{Err: err}
	}
	resp, err := a.transport.Send(ctx, Request{
		Method: http.MethodPost,
		URL:    baseURL + "/api/v1/login",
		Header: jsonHeader(a.userAgent),
		Body:   body,
	})
	if err != nil {
		return Session{}, &AuthError{Err: err}
	}

	result, err := Decode[LoginResult](resp.Body, ShapeModern)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) && !success(resp.StatusCode) {
			err = backendStatusError(resp.StatusCode, resp.Status)
		}
		return Session{}, &AuthError{Err: err}
	}
	if result.Token == "" {
		return Session{}, &AuthError{Err: &InvalidResponseError{Description: "login returned an empty token"}}
	}
	return Session{Token: result.Token, ObtainedAt: a.now(), ExpiresAt: result.Expire}, nil
}

func jsonHeader(userAgent string) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	return h
}

func success(status int) bool {
	return status >= 200 && status < 300
}
