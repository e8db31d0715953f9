package nezha

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nezhatop/nezhatop/internal/config"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func tokenClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	resolver := config.Static(config.Settings{Host: server.URL, Token: "abc"})
	return NewClient(resolver, Options{Version: "test"})
}

func passwordClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	resolver := config.Static(config.Settings{Host: server.URL, Username: "admin", Password: "secret"})
	return NewClient(resolver, Options{Version: "test"})
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func TestServerDetails_ColdStartWithToken(t *testing.T) {
	t.Parallel()

	var gotAuth, gotUserAgent, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/server/details" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		writeJSON(w, `{"success":true,"data":[{"id":1,"name":"srv1"}]}`)
	}))
	t.Cleanup(server.Close)

	servers, err := tokenClient(t, server).ServerDetails(testContext(t))
	if err != nil {
		t.Fatalf("ServerDetails returned error: %v", err)
	}
	if len(servers) != 1 || servers[0].Name != "srv1" {
		t.Fatalf("servers = %#v, want one srv1", servers)
	}
	if gotAuth != "abc" {
		t.Fatalf("Authorization = %q, want static token as-is", gotAuth)
	}
	if gotUserAgent != "nezhatop/test" {
		t.Fatalf("User-Agent = %q, want nezhatop/test", gotUserAgent)
	}
	if gotAccept != "application/json" {
		t.Fatalf("Accept = %q, want application/json", gotAccept)
	}
}

func TestAuthenticator_ReusesSession(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "admin" || body["password"] != "secret" {
			writeJSON(w, `{"success":false,"error":"bad credentials"}`)
			return
		}
		logins.Add(1)
		writeJSON(w, `{"success":true,"data":{"token":"jwt-1","expire":"2999-01-01T00:00:00Z"}}`)
	}))
	t.Cleanup(server.Close)

	auth := NewAuthenticator(NewHTTPTransport(time.Second), "nezhatop/test")
	dash := config.Dashboard{Host: server.Listener.Addr().String(), Credentials: config.UsernamePassword{Username: "admin", Password: "secret"}}

	for i := 0; i < 2; i++ {
		got, err := auth.Authorization(testContext(t), dash)
		if err != nil {
			t.Fatalf("Authorization returned error: %v", err)
		}
		if got != "Bearer jwt-1" {
			t.Fatalf("Authorization = %q, want Bearer jwt-1", got)
		}
	}
	if n := logins.Load(); n != 1 {
		t.Fatalf("logins = %d, want 1", n)
	}

	auth.Invalidate(dash)
	if _, err := auth.Authorization(testContext(t), dash); err != nil {
		t.Fatalf("Authorization after Invalidate returned error: %v", err)
	}
	if n := logins.Load(); n != 2 {
		t.Fatalf("logins after Invalidate = %d, want 2", n)
	}
}

func TestAuthenticator_ConcurrentColdStartLogsInOnce(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		time.Sleep(20 * time.Millisecond)
		writeJSON(w, `{"success":true,"data":{"token":"jwt"}}`)
	}))
	t.Cleanup(server.Close)

	auth := NewAuthenticator(NewHTTPTransport(time.Second), "")
	dash := config.Dashboard{Host: server.Listener.Addr().String(), Credentials: config.UsernamePassword{Username: "u", Password: "p"}}

	ctx := testContext(t)
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := auth.Authorization(ctx, dash)
			errs <- err
		}()
	}
	for i := 0; i < 4; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Authorization returned error: %v", err)
		}
	}
	if n := logins.Load(); n != 1 {
		t.Fatalf("logins = %d, want 1", n)
	}
}

func TestAuthenticator_ExpiredSessionLogsInAgain(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		writeJSON(w, `{"success":true,"data":{"token":"jwt","expire":"2030-01-01T00:00:00Z"}}`)
	}))
	t.Cleanup(server.Close)

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Minute)
	auth := NewAuthenticator(NewHTTPTransport(time.Second), "")
	auth.now = func() time.Time { return now }
	dash := config.Dashboard{Host: server.Listener.Addr().String(), Credentials: config.UsernamePassword{Username: "u", Password: "p"}}

	if _, err := auth.Authorization(testContext(t), dash); err != nil {
		t.Fatalf("Authorization returned error: %v", err)
	}
	if _, err := auth.Authorization(testContext(t), dash); err != nil {
		t.Fatalf("Authorization returned error: %v", err)
	}
	if n := logins.Load(); n != 1 {
		t.Fatalf("logins before skew = %d, want 1", n)
	}

	now = now.Add(45 * time.Second)
	if _, err := auth.Authorization(testContext(t), dash); err != nil {
		t.Fatalf("Authorization returned error: %v", err)
	}
	if n := logins.Load(); n != 2 {
		t.Fatalf("logins within skew = %d, want 2", n)
	}
}

func TestAuthenticator_FailedLoginIsNotCached(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		writeJSON(w, `{"success":false,"error":"invalid username or password"}`)
	}))
	t.Cleanup(server.Close)

	auth := NewAuthenticator(NewHTTPTransport(time.Second), "")
	dash := config.Dashboard{Host: server.Listener.Addr().String(), Credentials: config.UsernamePassword{Username: "u", Password: "p"}}

	for i := 0; i < 2; i++ {
		_, err := auth.Authorization(testContext(t), dash)
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("Authorization error = %v, want *AuthError", err)
		}
		var backendErr *BackendError
		if !errors.As(err, &backendErr) || backendErr.Message != "invalid username or password" {
			t.Fatalf("Authorization error = %v, want wrapped backend message", err)
		}
	}
	if n := logins.Load(); n != 2 {
		t.Fatalf("logins = %d, want 2", n)
	}
}

func TestClient_AuthFailureThenRecovery(t *testing.T) {
	t.Parallel()

	var logins, calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/login":
			n := logins.Add(1)
			writeJSON(w, `{"success":true,"data":{"token":"jwt-`+string(rune('0'+n))+`"}}`)
		case "/api/v1/server/details":
			if calls.Add(1) == 1 {
				writeJSON(w, `{"success":false,"error":"unauthorized"}`)
				return
			}
			if got := r.Header.Get("Authorization"); got != "Bearer jwt-2" {
				writeJSON(w, `{"success":false,"error":"unexpected token `+got+`"}`)
				return
			}
			writeJSON(w, `{"success":true,"data":[{"id":1,"name":"srv1"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	servers, err := passwordClient(t, server).ServerDetails(testContext(t))
	if err != nil {
		t.Fatalf("ServerDetails returned error: %v", err)
	}
	if len(servers) != 1 {
		t.Fatalf("servers = %#v, want one", servers)
	}
	if l, c := logins.Load(), calls.Load(); l != 2 || c != 2 {
		t.Fatalf("logins=%d calls=%d, want 2 and 2", l, c)
	}
}

func TestClient_RetriesOnlyOnce(t *testing.T) {
	t.Parallel()

	var logins, calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/login" {
			logins.Add(1)
			writeJSON(w, `{"success":true,"data":{"token":"jwt"}}`)
			return
		}
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, `{"success":false,"error":"ApiErrorUnauthorized"}`)
	}))
	t.Cleanup(server.Close)

	_, err := passwordClient(t, server).ListCrons(testContext(t))
	var backendErr *BackendError
	if !errors.As(err, &backendErr) || backendErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("ListCrons error = %v, want backend 401", err)
	}
	if l, c := logins.Load(), calls.Load(); l != 2 || c != 2 {
		t.Fatalf("logins=%d calls=%d, want 2 and 2", l, c)
	}
}

func TestClient_TokenCredentialsNeverRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	_, err := tokenClient(t, server).ServerDetails(testContext(t))
	var backendErr *BackendError
	if !errors.As(err, &backendErr) || backendErr.StatusCode != http.StatusForbidden {
		t.Fatalf("ServerDetails error = %v, want backend 403", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
}

func TestClient_NonJSONErrorStatusIsBackendError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	t.Cleanup(server.Close)

	_, err := tokenClient(t, server).ServerDetails(testContext(t))
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("ServerDetails error = %v, want *BackendError", err)
	}
	if backendErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("StatusCode = %d, want 502", backendErr.StatusCode)
	}
}

func TestClient_MalformedSuccessIsDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"success":true,"data":[{"id":1}]}`)
	}))
	t.Cleanup(server.Close)

	_, err := tokenClient(t, server).ServerDetails(testContext(t))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Kind != DecodeMissingKey {
		t.Fatalf("ServerDetails error = %v, want missingKey", err)
	}
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	c := tokenClient(t, server)
	server.Close()

	_, err := c.ServerDetails(testContext(t))
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("ServerDetails error = %v, want *NetworkError", err)
	}
}

func TestClient_MissingConfigurationSendsNothing(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	c := NewClient(config.Static(config.Settings{Host: server.URL}), Options{})
	_, err := c.ServerDetails(testContext(t))
	if !errors.Is(err, ErrMissingConfiguration) {
		t.Fatalf("ServerDetails error = %v, want ErrMissingConfiguration", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("calls = %d, want 0", calls.Load())
	}
}

func TestClient_EndpointRequests(t *testing.T) {
	t.Parallel()

	type seen struct {
		method string
		path   string
		query  string
		auth   string
		body   string
	}
	requests := make(chan seen, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- seen{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization"), string(body)}
		switch r.URL.Path {
		case "/api/v1/cron":
			writeJSON(w, `{"success":true,"data":42}`)
		case "/api/v1/server/list":
			writeJSON(w, `{"code":0,"message":"","result":[{"id":3,"name":"old"}]}`)
		case "/api/v1/service":
			writeJSON(w, `{"success":true,"data":{"services":{"1":{"service_name":"web","total_up":3,"total_down":1}}}}`)
		default:
			writeJSON(w, `{"success":true}`)
		}
	}))
	t.Cleanup(server.Close)

	c := tokenClient(t, server)
	ctx := testContext(t)

	id, err := c.AddCron(ctx, CronForm{Name: "backup", Scheduler: "0 0 3 * * *", Command: "backup.sh", Servers: []uint64{1}})
	if err != nil || id != 42 {
		t.Fatalf("AddCron = %d, %v; want 42", id, err)
	}
	got := <-requests
	if got.method != http.MethodPost || got.path != "/api/v1/cron" {
		t.Fatalf("AddCron request = %s %s", got.method, got.path)
	}
	var form CronForm
	if err := json.Unmarshal([]byte(got.body), &form); err != nil || form.Name != "backup" {
		t.Fatalf("AddCron body = %q (%v)", got.body, err)
	}

	if err := c.RunCron(ctx, 42); err != nil {
		t.Fatalf("RunCron returned error: %v", err)
	}
	if got = <-requests; got.method != http.MethodGet || got.path != "/api/v1/cron/42/manual" {
		t.Fatalf("RunCron request = %s %s", got.method, got.path)
	}

	if err := c.UpdateServer(ctx, 5, ServerForm{Name: "renamed"}); err != nil {
		t.Fatalf("UpdateServer returned error: %v", err)
	}
	if got = <-requests; got.method != http.MethodPatch || got.path != "/api/v1/server/5" {
		t.Fatalf("UpdateServer request = %s %s", got.method, got.path)
	}

	if err := c.DeleteServers(ctx, []uint64{1, 2}); err != nil {
		t.Fatalf("DeleteServers returned error: %v", err)
	}
	if got = <-requests; got.path != "/api/v1/batch-delete/server" || got.body != "[1,2]" {
		t.Fatalf("DeleteServers request = %s body %q", got.path, got.body)
	}

	if err := c.DeleteAlertRules(ctx, nil); err != nil {
		t.Fatalf("DeleteAlertRules returned error: %v", err)
	}
	if got = <-requests; got.body != "[]" {
		t.Fatalf("DeleteAlertRules body = %q, want []", got.body)
	}

	legacy, err := c.LegacyServerList(ctx, "prod")
	if err != nil || len(legacy) != 1 || legacy[0].ID != 3 {
		t.Fatalf("LegacyServerList = %#v, %v", legacy, err)
	}
	if got = <-requests; got.query != "tag=prod" {
		t.Fatalf("LegacyServerList query = %q, want tag=prod", got.query)
	}

	overview, err := c.ServiceOverview(ctx)
	if err != nil {
		t.Fatalf("ServiceOverview returned error: %v", err)
	}
	if up := overview.Services["1"].Uptime(); up != 75 {
		t.Fatalf("uptime = %v, want 75", up)
	}
	if got = <-requests; got.auth != "" {
		t.Fatalf("ServiceOverview sent Authorization %q, want none", got.auth)
	}
}
