// Package ui provides the nezhatop terminal dashboard.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds all view state and is driven
// by three message sources: key presses, a refresh tick that copies the
// latest state.Store snapshot, and command results (service overview, CPU
// history, log tail). The UI never talks to the monitor's fetch loop
// directly; it reads published snapshots and asks for an immediate refresh
// through the Retrier interface.
//
// # Package Structure
//
//   - app.go: Model, Options, Init/Update/View and Run
//   - keys.go: key bindings (bubbles/key)
//   - header.go: status bar and command bar
//   - servers.go, detail.go: server table, sorting and detail pane
//   - services.go: uptime overview
//   - logs.go: tail of the client's own JSON log with search
//   - theme.go, style_helpers.go: lipgloss palettes and background helpers
//   - format.go, strings.go: byte, duration, bar and sparkline formatting
//
// # Views
//
//   - Servers: every server with online dot, CPU, memory and network rates;
//     the detail pane adds host facts, usage gauges and a CPU sparkline read
//     from the local history.
//   - Services: 30-day uptime per service, fetched each time the view opens.
//   - Logs: the last lines of the log file, filterable by minimum level.
//
// # Key Bindings
//
//   - 1/2/3 or Tab: Servers, Services, Logs
//   - j/k, g/G, ctrl+d/u: move
//   - s: cycle server sort (index, name, cpu, mem)
//   - r: refresh now
//   - Space, /, n/N, L: follow, search, next/prev match, minimum level (logs)
//   - T: cycle theme
//   - h or ?: help
//   - q or Ctrl+C: quit
//
// Theme, sort and current view are written to the prefs file whenever the
// theme or sort changes.
package ui
