package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingConfiguration reports that the host or credentials are not set.
var ErrMissingConfiguration = errors.New("missing dashboard configuration")

// Credentials is either Token or UsernamePassword.
type Credentials interface {
	credentials()
}

// Token is a pre-issued API token sent as-is.
type Token struct {
	APIToken string
}

// UsernamePassword is exchanged for a short-lived bearer token via login.
type UsernamePassword struct {
	Username string
	Password string
}

func (Token) credentials()            {}
func (UsernamePassword) credentials() {}

// Dashboard is an immutable snapshot of what is needed to reach the backend.
// All fields are comparable, so two resolutions of unchanged settings are ==.
type Dashboard struct {
	Host        string
	UseTLS      bool
	Credentials Credentials
}

// BaseURL returns scheme://host.
func (d Dashboard) BaseURL() string {
	scheme := "http"
	if d.UseTLS {
		scheme = "https"
	}
	return scheme + "://" + d.Host
}

// Resolver produces a Dashboard at call time.
type Resolver interface {
	Resolve() (Dashboard, error)
}

// FileResolver re-reads the settings file on every call so edits apply to
// the next request without a restart.
type FileResolver struct {
	Path      string
	Overrides Overrides
}

// Resolve implements Resolver.
func (r FileResolver) Resolve() (Dashboard, error) {
	cfg, err := LoadLayered(r.Path, r.Overrides)
	if err != nil {
		return Dashboard{}, err
	}
	return cfg.Dashboard()
}

// Static always resolves to the wrapped settings.
type Static Settings

// Resolve implements Resolver.
func (s Static) Resolve() (Dashboard, error) {
	return Settings(s).Dashboard()
}

// Dashboard validates the settings and derives the connection snapshot.
// A non-empty token wins over a username/password pair.
func (c Settings) Dashboard() (Dashboard, error) {
	host, useTLS := splitHost(c.Host, c.TLS)
	if host == "" {
		return Dashboard{}, fmt.Errorf("%w: host is empty", ErrMissingConfiguration)
	}

	dash := Dashboard{Host: host, UseTLS: useTLS}
	token := strings.TrimSpace(c.Token)
	username := strings.TrimSpace(c.Username)
	switch {
	case token != "":
		dash.Credentials = Token{APIToken: token}
	case username != "" && c.Password != "":
		dash.Credentials = UsernamePassword{Username: username, Password: c.Password}
	case username != "" || c.Password != "":
		return Dashboard{}, fmt.Errorf("%w: username and password must both be set", ErrMissingConfiguration)
	default:
		return Dashboard{}, fmt.Errorf("%w: no token or username/password", ErrMissingConfiguration)
	}
	return dash, nil
}

// splitHost accepts "host", "host:port" or a URL and returns the bare host
// plus the effective TLS flag. An explicit scheme overrides the flag.
func splitHost(raw string, useTLS bool) (string, bool) {
	host := strings.TrimSpace(raw)
	lower := strings.ToLower(host)
	switch {
	case strings.HasPrefix(lower, "https://"):
		host, useTLS = host[len("https://"):], true
	case strings.HasPrefix(lower, "http://"):
		host, useTLS = host[len("http://"):], false
	}
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	return host, useTLS
}
