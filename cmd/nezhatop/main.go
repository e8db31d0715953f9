package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nezhatop/nezhatop/internal/app"
	"github.com/nezhatop/nezhatop/internal/config"
	"github.com/nezhatop/nezhatop/internal/nezha"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nezhatop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "settings file (default ~/.config/nezhatop/config.toml)")
	prefsPath := fs.String("prefs", "", "UI preferences file (default ~/.config/nezhatop/prefs.toml)")
	host := fs.String("host", "", "dashboard host, host:port or URL")
	useTLS := fs.Bool("tls", false, "use https")
	token := fs.String("token", "", "API token")
	username := fs.String("username", "", "dashboard username")
	poll := fs.Duration("poll", 0, "server refresh interval (e.g. 5s)")
	feed := fs.String("feed", "", "server feed: poll or stream")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	overrides := config.Overrides{
		Host:         *host,
		Token:        *token,
		Username:     *username,
		PollInterval: *poll,
		Feed:         *feed,
		LogLevel:     *logLevel,
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "tls" {
			overrides.TLS = useTLS
		}
	})
	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Overrides:  overrides,
		Version:    version,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rest := fs.Args()
	if len(rest) == 0 {
		if err := app.Run(ctx, opts); err != nil {
			fmt.Fprintf(stderr, "nezhatop: %v\n", err)
			return 1
		}
		return 0
	}

	cmd := command{ctx: ctx, opts: opts, stdout: stdout, stderr: stderr}
	var err error
	switch rest[0] {
	case "servers":
		err = cmd.servers(rest[1:])
	case "services":
		err = cmd.services(rest[1:])
	case "cron":
		err = cmd.cron(rest[1:])
	case "login":
		err = cmd.login(rest[1:], os.Stdin)
	case "import":
		err = cmd.importSettings(rest[1:])
	case "version":
		fmt.Fprintf(stdout, "nezhatop %s\n", version)
	case "help":
		usage(fs)
	default:
		fmt.Fprintf(stderr, "nezhatop: unknown command %q\n", rest[0])
		usage(fs)
		return 2
	}
	if err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "nezhatop %s: %v\n", rest[0], err)
			return 2
		}
		fmt.Fprintf(stderr, "nezhatop %s: %s\n", rest[0], nezha.UserMessage(err))
		return 1
	}
	return 0
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, `Usage: nezhatop [flags] [command]

Without a command nezhatop opens the dashboard TUI.

Commands:
  servers [-o table|json|yaml]   list servers and their live state
  services                       print the 30 day uptime overview
  cron list                      list scheduled tasks
  cron run <id>                  trigger a task now
  login                          save username and password after verifying them
  import <file>                  adopt another settings file if it is newer
  version                        print the version

Flags:`)
	fs.PrintDefaults()
}

// usageError marks bad command-line input, reported with exit status 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// command carries what every subcommand needs.
type command struct {
	ctx    context.Context
	opts   app.Options
	stdout io.Writer
	stderr io.Writer
}

// env builds an environment that also logs to stderr.
func (c command) env() (*app.Env, error) {
	opts := c.opts
	opts.Console = c.stderr
	return app.Setup(opts)
}

// withTimeout bounds a one-shot call by the configured request timeout plus
// room for a login.
func (c command) withTimeout(env *app.Env) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.ctx, 2*env.Settings.RequestTimeout.Duration+time.Second)
}
