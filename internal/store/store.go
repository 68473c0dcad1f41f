package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "state.sqlite"

// Namespaces mirror the two browser storages the dashboard used to rely on:
// local survives logout of the page, session is dropped with the auth session.
const (
	NamespaceLocal   = "local"
	NamespaceSession = "session"
)

// Store is the on-disk state directory (SQLite key/value db + small JSON files).
type Store struct {
	Dir string
}

// StateDir resolves the default state directory.
func StateDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.pitchdesk).
	if v := strings.TrimSpace(os.Getenv("PITCHDESK_STATE_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pitchdesk"), nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store: missing dir")
	}
	return os.MkdirAll(s.Dir, 0o700)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

// KV is a namespaced key/value table shared by every pitchdesk process using the same state dir.
type KV struct {
	db  *sql.DB
	now func() time.Time
}

func (s Store) OpenKV(ctx context.Context) (*KV, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL lets the CLI and a running TUI share the file without "database is locked" errors.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateKV(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &KV{db: db, now: time.Now}, nil
}

func migrateKV(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			namespace TEXT NOT NULL,
			k TEXT NOT NULL,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (namespace, k)
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (kv *KV) Close() error {
	if kv == nil || kv.db == nil {
		return nil
	}
	return kv.db.Close()
}

// Get returns the stored value and whether the key exists.
func (kv *KV) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var v string
	err := kv.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE namespace = ? AND k = ?`, namespace, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (kv *KV) Set(ctx context.Context, namespace, key, value string) error {
	_, err := kv.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv(namespace, k, v, updated_at_unixms) VALUES(?, ?, ?, ?)`,
		namespace, key, value, kv.now().UTC().UnixMilli())
	return err
}

func (kv *KV) Delete(ctx context.Context, namespace string, keys ...string) error {
	tx, err := kv.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE namespace = ? AND k = ?`, namespace, k); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (kv *KV) ClearNamespace(ctx context.Context, namespace string) error {
	_, err := kv.db.ExecContext(ctx, `DELETE FROM kv WHERE namespace = ?`, namespace)
	return err
}

// Keys lists the keys of a namespace in lexical order.
func (kv *KV) Keys(ctx context.Context, namespace string) ([]string, error) {
	rows, err := kv.db.QueryContext(ctx, `SELECT k FROM kv WHERE namespace = ? ORDER BY k`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
