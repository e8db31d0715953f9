package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PollInterval.Duration != defaultPollInterval {
		t.Fatalf("PollInterval = %v, want %v", cfg.PollInterval.Duration, defaultPollInterval)
	}
	if cfg.Feed != FeedPoll {
		t.Fatalf("Feed = %q, want %q", cfg.Feed, FeedPoll)
	}
	if !strings.HasPrefix(cfg.Log.File, home) {
		t.Fatalf("Log.File = %q, want it under HOME %q", cfg.Log.File, home)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
host = "  demo.example.com  "
tls = true
token = " abc "
poll_interval = "2s"
feed = "STREAM"

[log]
level = "DEBUG"
file = "~/logs/n.log"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Host != "demo.example.com" || cfg.Token != "abc" || !cfg.TLS {
		t.Fatalf("cfg = %#v, want trimmed host/token and tls", cfg)
	}
	if cfg.PollInterval.Duration != 2*time.Second {
		t.Fatalf("PollInterval = %v, want 2s", cfg.PollInterval.Duration)
	}
	if cfg.Feed != FeedStream {
		t.Fatalf("Feed = %q, want stream", cfg.Feed)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.File != filepath.Join(home, "logs/n.log") {
		t.Fatalf("Log.File = %q, want expanded path", cfg.Log.File)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := writeConfig(t, `host = [`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	path := writeConfig(t, `poll_interval = "soon"`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load returned nil error, want duration error")
	}
}

func TestLoadLayered_Precedence(t *testing.T) {
	path := writeConfig(t, `
host = "file.example.com"
token = "file-token"
`)
	t.Setenv("NEZHA_HOST", "env.example.com")
	t.Setenv("NEZHA_TLS", "true")
	t.Setenv("NEZHA_TOKEN", "env-token")

	cfg, err := LoadLayered(path, Overrides{Token: "cli-token"})
	if err != nil {
		t.Fatalf("LoadLayered returned error: %v", err)
	}
	if cfg.Host != "env.example.com" {
		t.Errorf("Host = %q, want env override", cfg.Host)
	}
	if !cfg.TLS {
		t.Errorf("TLS = false, want env override true")
	}
	if cfg.Token != "cli-token" {
		t.Errorf("Token = %q, want CLI override", cfg.Token)
	}
}

func TestSettingsDashboard(t *testing.T) {
	tests := []struct {
		name    string
		in      Settings
		want    Dashboard
		wantErr bool
	}{
		{
			name: "token over https",
			in:   Settings{Host: "demo.example.com", TLS: true, Token: "abc", Username: "u", Password: "p"},
			want: Dashboard{Host: "demo.example.com", UseTLS: true, Credentials: Token{APIToken: "abc"}},
		},
		{
			name: "username password over http",
			in:   Settings{Host: "10.0.0.1:8008", Username: "admin", Password: "secret"},
			want: Dashboard{Host: "10.0.0.1:8008", Credentials: UsernamePassword{Username: "admin", Password: "secret"}},
		},
		{
			name: "scheme in host wins",
			in:   Settings{Host: "https://demo.example.com/dashboard/", Token: "abc"},
			want: Dashboard{Host: "demo.example.com", UseTLS: true, Credentials: Token{APIToken: "abc"}},
		},
		{name: "empty host", in: Settings{Token: "abc"}, wantErr: true},
		{name: "no credentials", in: Settings{Host: "h"}, wantErr: true},
		{name: "half a pair", in: Settings{Host: "h", Username: "admin"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Dashboard()
			if tt.wantErr {
				if !errors.Is(err, ErrMissingConfiguration) {
					t.Fatalf("Dashboard error = %v, want ErrMissingConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dashboard returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Dashboard = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	if got := (Dashboard{Host: "a.example", UseTLS: true}).BaseURL(); got != "https://a.example" {
		t.Fatalf("BaseURL = %q, want https://a.example", got)
	}
	if got := (Dashboard{Host: "a.example"}).BaseURL(); got != "http://a.example" {
		t.Fatalf("BaseURL = %q, want http://a.example", got)
	}
}

func TestFileResolver_IdempotentAndSeesEdits(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
host = "demo.example.com"
tls = true
token = "abc"
`)
	r := FileResolver{Path: path}

	first, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	second, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if first != second {
		t.Fatalf("Resolve not idempotent: %#v != %#v", first, second)
	}

	if err := os.WriteFile(path, []byte("host = \"other.example.com\"\ntoken = \"abc\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	third, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if third.Host != "other.example.com" || third.UseTLS {
		t.Fatalf("Resolve after edit = %#v, want new host over http", third)
	}
}

func TestFileResolver_MissingFileIsMissingConfiguration(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := FileResolver{Path: filepath.Join(t.TempDir(), "none.toml")}.Resolve()
	if !errors.Is(err, ErrMissingConfiguration) {
		t.Fatalf("Resolve error = %v, want ErrMissingConfiguration", err)
	}
}

func TestSave_RoundTripStampsLastModified(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	in := Defaults()
	in.Host = "demo.example.com"
	in.Username = "admin"
	in.Password = "secret"

	before := time.Now().Add(-time.Second)
	saved, err := Save(path, in)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.LastModified.Before(before) {
		t.Fatalf("LastModified = %v, want >= %v", saved.LastModified, before)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm = %o, want 600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Host != in.Host || loaded.Username != in.Username || loaded.Password != in.Password {
		t.Fatalf("loaded = %#v, want host/username/password preserved", loaded)
	}
	if !loaded.LastModified.Equal(saved.LastModified) {
		t.Fatalf("LastModified = %v, want %v", loaded.LastModified, saved.LastModified)
	}
}

func TestReconcile_LastWriteWins(t *testing.T) {
	now := time.Now()
	local := Settings{Host: "local", LastModified: now}
	remote := Settings{Host: "remote", LastModified: now.Add(time.Minute)}

	if got := Reconcile(local, remote); got.Host != "remote" {
		t.Fatalf("Reconcile = %q, want remote", got.Host)
	}
	remote.LastModified = now.Add(-time.Minute)
	if got := Reconcile(local, remote); got.Host != "local" {
		t.Fatalf("Reconcile = %q, want local", got.Host)
	}
	remote.LastModified = now
	if got := Reconcile(local, remote); got.Host != "local" {
		t.Fatalf("Reconcile tie = %q, want local", got.Host)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if want := filepath.Join(home, "a/b"); got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
