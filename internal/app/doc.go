// Package app is the composition root for nezhatop.
//
// Setup loads layered settings (defaults, config file, NEZHA_* environment,
// flags), opens the zap logger and builds the dashboard client. Every
// command needs that much. The TUI additionally calls Start, which opens the
// optional sample history and starts the monitor feeding a state.Store:
//
//	Setup ──> config.LoadLayered
//	      ├─> logging.New         JSON log file, optional console
//	      └─> nezha.NewClient     re-resolves the config file per request
//	Start ──> history.Open        only when [history] enabled
//	      └─> monitor.Start       poll or stream feed into state.Store
//	Run   ──> ui.Run              blocks until quit or ctx cancel
//
// Fetch failures never end the session. They surface in the header and the
// monitor keeps retrying. Only settings that cannot be parsed and a log file
// that cannot be opened are fatal.
package app
