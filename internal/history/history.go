// Package history keeps a rolling on-disk record of polled server samples so
// the UI can draw trends across restarts.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nezhatop/nezhatop/internal/nezha"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS samples (
		server_id     INTEGER NOT NULL,
		at            INTEGER NOT NULL,
		cpu           REAL    NOT NULL,
		mem_used      INTEGER NOT NULL,
		mem_total     INTEGER NOT NULL,
		net_in_speed  INTEGER NOT NULL,
		net_out_speed INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS samples_server_at ON samples (server_id, at)`,
}

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("history store is closed")

// Sample is one server reading at a point in time.
type Sample struct {
	ServerID    uint64
	At          time.Time
	CPU         float64
	MemUsed     uint64
	MemTotal    uint64
	NetInSpeed  uint64
	NetOutSpeed uint64
}

// MemPercent returns memory usage in percent, or 0 when the total is unknown.
func (s Sample) MemPercent() float64 {
	if s.MemTotal == 0 {
		return 0
	}
	return float64(s.MemUsed) / float64(s.MemTotal) * 100
}

// Store is a sqlite-backed sample log. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates or opens the database at path, creating parent directories.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init history schema: %w", err)
		}
	}
	return &Store{db: db, logger: logger.Named("history")}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one sample per server in a single transaction.
func (s *Store) Record(ctx context.Context, at time.Time, servers []nezha.Server) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if len(servers) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples
		(server_id, at, cpu, mem_used, mem_total, net_in_speed, net_out_speed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare record: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	ms := at.UnixMilli()
	for _, srv := range servers {
		if _, err := stmt.ExecContext(ctx,
			int64(srv.ID), ms, srv.State.CPU,
			int64(srv.State.MemUsed), int64(srv.Host.MemTotal),
			int64(srv.State.NetInSpeed), int64(srv.State.NetOutSpeed),
		); err != nil {
			return fmt.Errorf("record server %d: %w", srv.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Recent returns up to n of the newest samples for serverID, oldest first.
func (s *Store) Recent(ctx context.Context, serverID uint64, n int) ([]Sample, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT at, cpu, mem_used, mem_total, net_in_speed, net_out_speed
		FROM samples WHERE server_id = ? ORDER BY at DESC LIMIT ?`, int64(serverID), n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Sample
	for rows.Next() {
		var (
			ms                               int64
			memUsed, memTotal, netIn, netOut int64
			sample                           = Sample{ServerID: serverID}
		)
		if err := rows.Scan(&ms, &sample.CPU, &memUsed, &memTotal, &netIn, &netOut); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		sample.At = time.UnixMilli(ms)
		sample.MemUsed, sample.MemTotal = uint64(memUsed), uint64(memTotal)
		sample.NetInSpeed, sample.NetOutSpeed = uint64(netIn), uint64(netOut)
		out = append(out, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Prune deletes samples taken before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM samples WHERE at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	if n > 0 {
		s.logger.Debug("pruned samples", zap.Int64("rows", n), zap.Time("before", cutoff))
	}
	return n, nil
}

// Recorder returns a hook that records each snapshot and prunes samples older
// than retention. Failures are logged, never returned.
func (s *Store) Recorder(ctx context.Context, retention time.Duration) func(time.Time, []nezha.Server) {
	return func(at time.Time, servers []nezha.Server) {
		if err := s.Record(ctx, at, servers); err != nil {
			s.logger.Warn("record history failed", zap.Error(err))
			return
		}
		if retention > 0 {
			if _, err := s.Prune(ctx, at.Add(-retention)); err != nil {
				s.logger.Warn("prune history failed", zap.Error(err))
			}
		}
	}
}
