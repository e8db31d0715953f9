package nezha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/nezhatop/nezhatop/internal/config"
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Transport     Transport
	Authenticator *Authenticator
	Logger        *zap.Logger
	// Version is reported in the User-Agent header.
	Version string
}

// Client calls the dashboard REST API. Every method resolves the current
// dashboard settings, so configuration edits apply to the next call.
type Client struct {
	resolver  config.Resolver
	transport Transport
	auth      *Authenticator
	logger    *zap.Logger
	userAgent string
}

// NewClient builds a Client reading settings from resolver.
func NewClient(resolver config.Resolver, opts Options) *Client {
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}
	userAgent := "nezhatop/" + version

	transport := opts.Transport
	if transport == nil {
		transport = NewHTTPTransport(defaultRequestTimeout)
	}
	auth := opts.Authenticator
	if auth == nil {
		auth = NewAuthenticator(transport, userAgent)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		resolver:  resolver,
		transport: transport,
		auth:      auth,
		logger:    logger.Named("nezha"),
		userAgent: userAgent,
	}
}

// Authenticator exposes the session cache, mainly for login verification.
func (c *Client) Authenticator() *Authenticator { return c.auth }

// call describes one REST operation.
type call struct {
	method    string
	path      string
	query     url.Values
	body      any
	anonymous bool
	shape     Shape
}

func get(path string) call { return call{method: http.MethodGet, path: path} }

func post(path string, body any) call { return call{method: http.MethodPost, path: path, body: body} }

func patch(path string, body any) call { return call{method: http.MethodPatch, path: path, body: body} }

func (c call) withQuery(q url.Values) call {
	c.query = q
	return c
}

// public marks an endpoint that is sent without Authorization.
func (c call) public() call {
	c.anonymous = true
	return c
}

func (c call) legacy() call {
	c.shape = ShapeLegacy
	return c
}

// fetch runs call and decodes its payload as T.
func fetch[T any](ctx context.Context, c *Client, op call) (T, error) {
	var out T
	err := c.do(ctx, op, func(raw []byte) error {
		v, err := Decode[T](raw, op.shape)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// exec runs call and only checks the envelope.
func (c *Client) exec(ctx context.Context, op call) error {
	return c.do(ctx, op, func(raw []byte) error { return DecodeEmpty(raw, op.shape) })
}

// do sends op and interprets the response with decode. An authentication
// failure on username/password credentials invalidates the session and
// retries exactly once.
func (c *Client) do(ctx context.Context, op call, decode func([]byte) error) error {
	dash, err := c.resolver.Resolve()
	if err != nil {
		return err
	}

	var body []byte
	if op.body != nil {
		if body, err = json.Marshal(op.body); err != nil {
			return fmt.Errorf("encode %s %s: %w", op.method, op.path, err)
		}
	}

	_, refreshable := dash.Credentials.(config.UsernamePassword)
	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, dash, op, body)
		if err != nil {
			return err
		}
		err = c.interpret(op, resp, decode)
		if err == nil {
			return nil
		}
		if attempt == 0 && refreshable && !op.anonymous && isAuthFailure(resp.StatusCode, err) {
			c.logger.Info("session rejected, logging in again",
				zap.String("method", op.method),
				zap.String("path", op.path),
				zap.Int("status", resp.StatusCode))
			c.auth.Invalidate(dash)
			continue
		}
		return err
	}
}

func (c *Client) send(ctx context.Context, dash config.Dashboard, op call, body []byte) (Response, error) {
	header := jsonHeader(c.userAgent)
	if body == nil {
		header.Del("Content-Type")
	}
	if !op.anonymous {
		authorization, err := c.auth.Authorization(ctx, dash)
		if err != nil {
			return Response{}, err
		}
		header.Set("Authorization", authorization)
	}

	target := dash.BaseURL() + op.path
	if len(op.query) > 0 {
		target += "?" + op.query.Encode()
	}
	c.logger.Debug("request", zap.String("method", op.method), zap.String("path", op.path))
	return c.transport.Send(ctx, Request{Method: op.method, URL: target, Header: header, Body: body})
}

func (c *Client) interpret(op call, resp Response, decode func([]byte) error) error {
	err := decode(resp.Body)

	if !success(resp.StatusCode) {
		var backendErr *BackendError
		if errors.As(err, &backendErr) {
			backendErr.StatusCode = resp.StatusCode
			return backendErr
		}
		return backendStatusError(resp.StatusCode, resp.Status)
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		c.logger.Warn("decode failed",
			zap.String("method", op.method),
			zap.String("path", op.path),
			zap.String("kind", decodeErr.Kind.String()),
			zap.String("detail", decodeErr.Detail))
	}
	return err
}

func idPath(prefix string, id uint64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}

// ServerFetcher is the slice of the Client the monitor depends on.
type ServerFetcher interface {
	ServerDetails(ctx context.Context) ([]Server, error)
	StreamServers(ctx context.Context, fn func(StreamFrame)) error
}

// Ensure Client implements ServerFetcher at compile time.
var _ ServerFetcher = (*Client)(nil)
