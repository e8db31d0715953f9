// Package logtail reads the tail of the application's own JSON log for the
// in-app log view.
//
// Read returns raw lines, oldest first, without loading more than a small
// multiple of the requested window. Parse understands zap's JSON encoding
// (time, level, logger, msg plus arbitrary fields); other lines pass through
// unchanged so a hand-edited or truncated file still displays.
//
// A missing log file is not an error: the view simply shows nothing until
// the first entry is written.
package logtail
