package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

const maxLineBytes = 1 << 20

// Read returns the last maxLines lines of the file at path, oldest first.
// maxLines <= 0 returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var window []string
	for scanner.Scan() {
		window = append(window, scanner.Text())
		if maxLines > 0 && len(window) > 2*maxLines {
			// Compact periodically instead of on every line.
			window = append(window[:0], window[len(window)-maxLines:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	if maxLines > 0 && len(window) > maxLines {
		window = window[len(window)-maxLines:]
	}
	return window, nil
}

// Entry is one parsed line of the JSON log.
type Entry struct {
	Time    time.Time
	Level   string
	Logger  string
	Message string
	Fields  map[string]string
	Raw     string
}

var reservedKeys = map[string]bool{"time": true, "level": true, "logger": true, "msg": true, "caller": true, "stacktrace": true}

// Parse decodes a zap JSON line. Lines that are not JSON objects come back
// with only Raw and Message set and ok false.
func Parse(line string) (entry Entry, ok bool) {
	entry = Entry{Raw: line, Message: line}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return entry, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return entry, false
	}

	entry.Level = stringField(obj, "level")
	entry.Logger = stringField(obj, "logger")
	entry.Message = stringField(obj, "msg")
	if ts := stringField(obj, "time"); ts != "" {
		entry.Time = parseTime(ts)
	}
	for key, value := range obj {
		if reservedKeys[key] {
			continue
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]string)
		}
		entry.Fields[key] = fieldString(value)
	}
	return entry, true
}

// Tail reads and parses the last maxLines lines of path, keeping entries at
// or above minLevel.
func Tail(path string, maxLines int, minLevel string) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	floor := levelRank(minLevel)
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, _ := Parse(line)
		if levelRank(entry.Level) < floor {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Format renders an entry as a single plain line:
//
//	15:04:05 WARN  monitor  server fetch failed  error=timeout
func (e Entry) Format() string {
	if e.Level == "" && e.Time.IsZero() {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(e.Level))
	if e.Logger != "" {
		b.WriteString(e.Logger)
		b.WriteString("  ")
	}
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("  ")
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

func levelRank(level string) int {
	switch strings.ToLower(level) {
	case "debug":
		return 0
	case "", "info":
		return 1
	case "warn", "warning":
		return 2
	case "error":
		return 3
	default:
		// dpanic, panic, fatal
		return 4
	}
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func fieldString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

func parseTime(ts string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
