package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/nezhatop/nezhatop/internal/config"
	"github.com/nezhatop/nezhatop/internal/nezha"
	"github.com/nezhatop/nezhatop/internal/ui"
)

// serverRow is the flattened server shape printed by `servers`.
type serverRow struct {
	ID          uint64    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Online      bool      `json:"online" yaml:"online"`
	CPU         float64   `json:"cpu" yaml:"cpu"`
	MemPercent  float64   `json:"mem_percent" yaml:"mem_percent"`
	DiskPercent float64   `json:"disk_percent" yaml:"disk_percent"`
	NetInSpeed  uint64    `json:"net_in_speed" yaml:"net_in_speed"`
	NetOutSpeed uint64    `json:"net_out_speed" yaml:"net_out_speed"`
	Uptime      uint64    `json:"uptime" yaml:"uptime"`
	Platform    string    `json:"platform,omitempty" yaml:"platform,omitempty"`
	LastActive  time.Time `json:"last_active" yaml:"last_active"`
}

func serverRows(servers []nezha.Server, now time.Time) []serverRow {
	sorted := append([]nezha.Server(nil), servers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DisplayIndex != sorted[j].DisplayIndex {
			return sorted[i].DisplayIndex > sorted[j].DisplayIndex
		}
		return sorted[i].ID < sorted[j].ID
	})
	rows := make([]serverRow, 0, len(sorted))
	for _, srv := range sorted {
		rows = append(rows, serverRow{
			ID:          srv.ID,
			Name:        srv.Name,
			Online:      srv.Online(now, ui.DefaultOnlineWindow),
			CPU:         srv.State.CPU,
			MemPercent:  srv.MemPercent(),
			DiskPercent: srv.DiskPercent(),
			NetInSpeed:  srv.State.NetInSpeed,
			NetOutSpeed: srv.State.NetOutSpeed,
			Uptime:      srv.State.Uptime,
			Platform:    strings.TrimSpace(srv.Host.Platform + " " + srv.Host.PlatformVersion),
			LastActive:  srv.LastActive,
		})
	}
	return rows
}

func writeServers(w io.Writer, rows []serverRow, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCPU\tMEM\tDISK\tIN\tOUT\tUPTIME")
	for _, r := range rows {
		status := "offline"
		if r.Online {
			status = "online"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f%%\t%.1f%%\t%.1f%%\t%s/s\t%s/s\t%s\n",
			r.ID, r.Name, status, r.CPU, r.MemPercent, r.DiskPercent,
			humanize.IBytes(r.NetInSpeed), humanize.IBytes(r.NetOutSpeed), ui.FormatUptime(r.Uptime))
	}
	return tw.Flush()
}

func (c command) servers(args []string) error {
	fs := flag.NewFlagSet("servers", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	format := fs.String("o", "table", "output format: table, json or yaml")
	if err := fs.Parse(args); err != nil {
		return usagef("%v", err)
	}
	switch *format {
	case "table", "json", "yaml":
	default:
		return usagef("unknown output format %q", *format)
	}

	env, err := c.env()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := c.withTimeout(env)
	defer cancel()
	servers, err := env.Client.ServerDetails(ctx)
	if err != nil {
		return err
	}
	return writeServers(c.stdout, serverRows(servers, time.Now()), *format)
}

func writeServices(w io.Writer, overview nezha.ServiceOverview) error {
	names := make([]string, 0, len(overview.Services))
	for id := range overview.Services {
		names = append(names, id)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := overview.Services[names[i]], overview.Services[names[j]]
		if a.ServiceName != b.ServiceName {
			return strings.ToLower(a.ServiceName) < strings.ToLower(b.ServiceName)
		}
		return names[i] < names[j]
	})

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSERVICE\tUPTIME\tDELAY\tUP\tDOWN")
	for _, id := range names {
		s := overview.Services[id]
		delay := "-"
		if n := len(s.Delay); n > 0 {
			delay = fmt.Sprintf("%.0fms", s.Delay[n-1])
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t%s\t%d\t%d\n",
			id, s.ServiceName, s.Uptime(), delay, s.TotalUp, s.TotalDown)
	}
	return tw.Flush()
}

func (c command) services(args []string) error {
	if len(args) > 0 {
		return usagef("unexpected arguments %v", args)
	}
	env, err := c.env()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := c.withTimeout(env)
	defer cancel()
	overview, err := env.Client.ServiceOverview(ctx)
	if err != nil {
		return err
	}
	return writeServices(c.stdout, overview)
}

func writeCrons(w io.Writer, crons []nezha.Cron) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSCHEDULE\tSERVERS\tLAST RUN\tRESULT")
	for _, cr := range crons {
		last, result := "never", "-"
		if !cr.LastExecutedAt.IsZero() {
			last = humanize.Time(cr.LastExecutedAt)
			result = "failed"
			if cr.LastResult {
				result = "ok"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			cr.ID, cr.Name, cr.Scheduler, len(cr.Servers), last, result)
	}
	return tw.Flush()
}

func (c command) cron(args []string) error {
	if len(args) == 0 {
		return usagef("expected list or run <id>")
	}

	var id uint64
	switch args[0] {
	case "list":
		if len(args) != 1 {
			return usagef("list takes no arguments")
		}
	case "run":
		if len(args) != 2 {
			return usagef("run takes exactly one task id")
		}
		parsed, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return usagef("invalid task id %q", args[1])
		}
		id = parsed
	default:
		return usagef("unknown cron command %q", args[0])
	}

	env, err := c.env()
	if err != nil {
		return err
	}
	defer env.Close()
	ctx, cancel := c.withTimeout(env)
	defer cancel()

	if args[0] == "list" {
		crons, err := env.Client.ListCrons(ctx)
		if err != nil {
			return err
		}
		return writeCrons(c.stdout, crons)
	}
	if err := env.Client.RunCron(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "triggered task %d\n", id)
	return nil
}

// login verifies a username and password against the dashboard and stores
// them in the settings file. A stored token is cleared so the password is
// used from now on.
func (c command) login(args []string, stdin *os.File) error {
	if len(args) > 0 {
		return usagef("unexpected arguments %v", args)
	}
	env, err := c.env()
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.Settings
	if cfg.Host == "" {
		return usagef("no dashboard host configured; pass -host")
	}

	reader := bufio.NewReader(stdin)
	username := cfg.Username
	if username == "" {
		fmt.Fprint(c.stderr, "Username: ")
		if username, err = readLine(reader); err != nil {
			return err
		}
	}
	fmt.Fprint(c.stderr, "Password: ")
	password, err := readPassword(stdin, reader)
	fmt.Fprintln(c.stderr)
	if err != nil {
		return err
	}
	if username == "" || password == "" {
		return usagef("username and password are required")
	}

	creds := config.UsernamePassword{Username: username, Password: password}
	probe := cfg
	probe.Token = ""
	probe.Username, probe.Password = username, password
	client := nezha.NewClient(config.Static(probe), nezha.Options{
		Transport: nezha.NewHTTPTransport(cfg.RequestTimeout.Duration),
		Logger:    env.Logger,
		Version:   version,
	})

	ctx, cancel := c.withTimeout(env)
	defer cancel()
	result, err := client.Login(ctx, creds)
	if err != nil {
		return err
	}

	// Persist the file layer only so environment overrides stay out of it.
	path := env.ConfigPath()
	stored, err := config.Load(path)
	if err != nil {
		return err
	}
	stored.Host = cfg.Host
	stored.TLS = cfg.TLS
	stored.Token = ""
	stored.Username, stored.Password = username, password
	if _, err := config.Save(path, stored); err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "logged in as %s, saved to %s", username, path)
	if !result.Expire.IsZero() {
		fmt.Fprintf(c.stdout, " (session valid until %s)", result.Expire.Local().Format(time.RFC1123))
	}
	fmt.Fprintln(c.stdout)
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo from a terminal and falls back to a plain
// line for piped input.
func readPassword(stdin *os.File, r *bufio.Reader) (string, error) {
	fd := int(stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return readLine(r)
}

// importSettings adopts another copy of the settings file when its
// last_modified is newer than the local one.
func (c command) importSettings(args []string) error {
	if len(args) != 1 {
		return usagef("expected exactly one settings file")
	}
	path := c.opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	local, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("local settings: %w", err)
	}
	remote, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("import settings: %w", err)
	}

	if chosen := config.Reconcile(local, remote); chosen.LastModified.Equal(local.LastModified) {
		fmt.Fprintf(c.stdout, "kept %s, it is not older than %s\n", path, args[0])
		return nil
	}
	if _, err := config.Save(path, remote); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "imported %s into %s\n", args[0], path)
	return nil
}
