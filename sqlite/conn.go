package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultFile       = "oppam.db"
	connRetryInterval = time.Second
	connMaxRetries    = 5
)

type options struct {
	dir  string
	file string
}

type OpenOption func(opts *options)

func WithDir(dir string) OpenOption {
	return func(opts *options) {
		opts.dir = dir
	}
}

// WithFile overrides the database file name inside the directory.
func WithFile(name string) OpenOption {
	return func(opts *options) {
		opts.file = name
	}
}

// Open opens the device database in WAL mode and waits until it answers a
// ping. The alarm store relies on the busy timeout to serialize writers from
// the CLI and the daemon.
func Open(ctx context.Context, opts ...OpenOption) (*sql.DB, error) {
	o := options{file: defaultFile}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.file
	if o.dir != "" {
		if err := os.MkdirAll(o.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		path = filepath.Join(o.dir, o.file)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = on;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	if err = waitHealthy(ctx, db); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}

	return db, nil
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func waitHealthy(ctx context.Context, p pinger) error {
	ping := func() error {
		pctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		return p.PingContext(pctx)
	}
	var err error
	for range connMaxRetries {
		if err = ping(); err == nil {
			return nil
		}
		select {
		case <-time.After(connRetryInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("sqlite db unhealthy: %w", err)
}
