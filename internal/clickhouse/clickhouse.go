package clickhouse

import (
	"context"
	"fmt"
	"time"

	clickhouse_go "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/flexprice/flexprice/internal/config"
	"github.com/flexprice/flexprice/internal/logger"
)

// Store wraps the ClickHouse driver connection used to hold the
// UsageEvent fact table (spec §3's hot time-series path).
type Store struct {
	conn driver.Conn
	log  *logger.Logger
}

func NewStore(cfg *config.Configuration, log *logger.Logger) (*Store, error) {
	options := cfg.ClickHouse.GetClientOptions()
	conn, err := clickhouse_go.Open(options)
	if err != nil {
		return nil, fmt.Errorf("init clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &Store{conn: conn, log: log}, nil
}

// Conn returns a logging-instrumented connection, the ClickHouse
// analogue of internal/postgres's TracedQuerier.
func (s *Store) Conn() driver.Conn {
	return &tracedConn{conn: s.conn, log: s.log}
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Health(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// tracedConn wraps driver.Conn with query-duration logging.
type tracedConn struct {
	conn driver.Conn
	log  *logger.Logger
}

func (tc *tracedConn) done(op, query string, start time.Time, err error) {
	fields := []interface{}{"op", op, "duration_ms", time.Since(start).Milliseconds(), "query", truncateQuery(query)}
	if err != nil {
		tc.log.Errorw("clickhouse query failed", append(fields, "error", err.Error())...)
		return
	}
	tc.log.Debugw("clickhouse query completed", fields...)
}

func (tc *tracedConn) Contributors() []string { return tc.conn.Contributors() }

func (tc *tracedConn) ServerVersion() (*driver.ServerVersion, error) { return tc.conn.ServerVersion() }

func (tc *tracedConn) Select(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()
	err := tc.conn.Select(ctx, dest, query, args...)
	tc.done("select", query, start, err)
	return err
}

func (tc *tracedConn) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	start := time.Now()
	rows, err := tc.conn.Query(ctx, query, args...)
	tc.done("query", query, start, err)
	return rows, err
}

func (tc *tracedConn) QueryRow(ctx context.Context, query string, args ...any) driver.Row {
	start := time.Now()
	row := tc.conn.QueryRow(ctx, query, args...)
	tc.done("query_row", query, start, nil)
	return row
}

func (tc *tracedConn) PrepareBatch(ctx context.Context, query string) (driver.Batch, error) {
	start := time.Now()
	batch, err := tc.conn.PrepareBatch(ctx, query)
	tc.done("prepare_batch", query, start, err)
	return batch, err
}

func (tc *tracedConn) Exec(ctx context.Context, query string, args ...any) error {
	start := time.Now()
	err := tc.conn.Exec(ctx, query, args...)
	tc.done("exec", query, start, err)
	return err
}

func (tc *tracedConn) AsyncInsert(ctx context.Context, query string, wait bool) error {
	start := time.Now()
	err := tc.conn.AsyncInsert(ctx, query, wait)
	tc.done("async_insert", query, start, err)
	return err
}

func (tc *tracedConn) Ping(ctx context.Context) error { return tc.conn.Ping(ctx) }

func (tc *tracedConn) Stats() driver.Stats { return tc.conn.Stats() }

func (tc *tracedConn) Close() error { return tc.conn.Close() }

func truncateQuery(query string) string {
	const maxQueryLength = 1000
	if len(query) > maxQueryLength {
		return query[:maxQueryLength] + "..."
	}
	return query
}
