// Package store implements the durable record store backing the loyalty core.
//
// The store is a deliberately small table abstraction: four logical tables,
// each holding JSON documents. Three are keyed by an explicit string key
// (users, promos, meta) and one is keyed by an auto-assigned sequence
// (pending). The typed repositories in internal/repository/record are the
// only consumers — nothing else in the codebase touches persisted bytes.
//
// WHY JSON DOCUMENTS INSTEAD OF COLUMNS?
// The user table's schema is owned by the remote snapshot, which this client
// only reconciles against. Storing each record as the JSON document it arrived
// as (or will be exported as) means the snapshot format and the persisted
// format can never drift apart, and a bulk table replace during reconciliation
// is a byte copy rather than a column mapping.
//
// WHY modernc.org/sqlite?
// Pure-Go translation of SQLite — no CGo, no C toolchain, cross-compiles
// everywhere Go does. ":memory:" gives tests a fresh throwaway database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	// Blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/loyalty-club/internal/apperror"
)

// Logical table names. The store only accepts these — table names are
// interpolated into SQL, so an allowlist keeps that safe.
const (
	TableUsers   = "users"
	TablePromos  = "promos"
	TablePending = "pending"
	TableMeta    = "meta"
)

// keyedTables maps each key-addressed table to true. The pending table is
// sequence-addressed and only reachable through Append/List/Count/Clear.
var keyedTables = map[string]bool{
	TableUsers:  true,
	TablePromos: true,
	TableMeta:   true,
}

// Store wraps a sql.DB connection pool over a single SQLite file.
//
// SQLite serializes writers per database, which is exactly the single-writer
// guarantee the concurrency model asks for: a Put or PutBulk either commits
// durably before returning or fails with nothing applied.
type Store struct {
	conn *sql.DB
}

// Open creates (or opens) the SQLite database at path and ensures the four
// tables exist.
//
// path examples:
//   - "data/loyalty.db" → file-based, persistent
//   - ":memory:"        → throwaway, for tests
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}

	// Ping forces a real connection now. Without it, a bad path or permission
	// problem would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: pinging database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection makes
	// database/sql match that instead of queueing on the file lock, and it
	// keeps ":memory:" databases coherent (each connection would otherwise
	// get its own empty one).
	conn.SetMaxOpenConns(1)

	// WAL mode lets reads proceed while a write is committing. The default
	// rollback journal locks the whole file for every write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: setting WAL mode: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: running migrations: %w", err)
	}

	return s, nil
}

// Close closes the connection pool, flushing the WAL.
// Callers should defer this right after Open.
func (s *Store) Close() error {
	return s.conn.Close()
}

// migrate creates the tables. CREATE TABLE IF NOT EXISTS makes this safe to
// run on every start.
func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			key  TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS promos (
			key  TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key  TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS pending (
			seq  INTEGER PRIMARY KEY AUTOINCREMENT,
			data TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// checkKeyed rejects unknown or sequence-addressed table names.
func checkKeyed(table string) error {
	if !keyedTables[table] {
		return fmt.Errorf("store: %q is not a keyed table", table)
	}
	return nil
}

// GetAll returns every document in a keyed table, ordered by key so scans are
// deterministic. An empty table yields an empty slice, never an error.
func (s *Store) GetAll(ctx context.Context, table string) ([]json.RawMessage, error) {
	if err := checkKeyed(table); err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT data FROM %s ORDER BY key`, table))
	if err != nil {
		return nil, fmt.Errorf("store: scanning %s: %w", table, err)
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("store: reading %s row: %w", table, err)
		}
		docs = append(docs, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating %s: %w", table, err)
	}

	return docs, nil
}

// Get returns the document stored under key, or apperror.ErrNotFound.
func (s *Store) Get(ctx context.Context, table, key string) (json.RawMessage, error) {
	if err := checkKeyed(table); err != nil {
		return nil, err
	}

	var data []byte
	err := s.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT data FROM %s WHERE key = ?`, table), key,
	).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound(table, key)
		}
		return nil, fmt.Errorf("store: getting %s/%s: %w", table, key, err)
	}

	return json.RawMessage(data), nil
}

// Put upserts a single document under key. The write is committed before Put
// returns; a failure means nothing was applied.
func (s *Store) Put(ctx context.Context, table, key string, doc json.RawMessage) error {
	if err := checkKeyed(table); err != nil {
		return err
	}

	_, err := s.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (key, data) VALUES (?, ?)
		             ON CONFLICT(key) DO UPDATE SET data = excluded.data`, table),
		key, string(doc))
	if err != nil {
		return apperror.Store(fmt.Sprintf("put %s/%s", table, key), err)
	}
	return nil
}

// PutBulk upserts a batch of documents inside one transaction. Either every
// document lands or none do — a partial batch is never visible.
func (s *Store) PutBulk(ctx context.Context, table string, docs map[string]json.RawMessage) error {
	if err := checkKeyed(table); err != nil {
		return err
	}
	return s.inTx(ctx, fmt.Sprintf("bulk put %s", table), func(tx *sql.Tx) error {
		return putAll(ctx, tx, table, docs)
	})
}

// Replace atomically swaps a table's entire contents for docs. Used by
// reconciliation, which persists the merged user set and the remote promo
// list as full-table writes.
func (s *Store) Replace(ctx context.Context, table string, docs map[string]json.RawMessage) error {
	if err := checkKeyed(table); err != nil {
		return err
	}
	return s.inTx(ctx, fmt.Sprintf("replace %s", table), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return err
		}
		return putAll(ctx, tx, table, docs)
	})
}

// Append inserts a document into the pending table and returns the sequence
// number the store assigned to it.
func (s *Store) Append(ctx context.Context, doc json.RawMessage) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO pending (data) VALUES (?)`, string(doc))
	if err != nil {
		return 0, apperror.Store("append pending", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, apperror.Store("append pending: reading sequence", err)
	}
	return seq, nil
}

// AppendList returns every pending document in append order, with the
// sequence the store assigned to each.
func (s *Store) AppendList(ctx context.Context) (seqs []int64, docs []json.RawMessage, err error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT seq, data FROM pending ORDER BY seq`)
	if err != nil {
		return nil, nil, fmt.Errorf("store: scanning pending: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var seq int64
		var data []byte
		if err := rows.Scan(&seq, &data); err != nil {
			return nil, nil, fmt.Errorf("store: reading pending row: %w", err)
		}
		seqs = append(seqs, seq)
		docs = append(docs, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("store: iterating pending: %w", err)
	}

	return seqs, docs, nil
}

// Count returns the number of entries in the pending table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: counting pending: %w", err)
	}
	return n, nil
}

// Clear empties the pending table. Only the external exporter's flush path
// calls this, after it has confirmed the user table is persisted elsewhere.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM pending`); err != nil {
		return apperror.Store("clear pending", err)
	}
	return nil
}

// inTx runs fn inside a transaction, committing on success and rolling back
// on failure. Any failure surfaces as a StoreTransactionError so callers know
// nothing was applied.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Store(op+": begin", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return apperror.Store(op, err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.Store(op+": commit", err)
	}
	return nil
}

func putAll(ctx context.Context, tx *sql.Tx, table string, docs map[string]json.RawMessage) error {
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (key, data) VALUES (?, ?)
		             ON CONFLICT(key) DO UPDATE SET data = excluded.data`, table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, doc := range docs {
		if _, err := stmt.ExecContext(ctx, key, string(doc)); err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}
	return nil
}
