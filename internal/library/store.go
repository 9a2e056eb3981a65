// Package library keeps templates in a local SQLite database, addressed by
// the BLAKE3 hash of their compressed envelope.
package library

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"

	"dfcode.dev/internal/template"
)

var (
	ErrNotFound  = errors.New("template not found")
	ErrAmbiguous = errors.New("template reference is ambiguous")
)

// minPrefix is the shortest hash prefix accepted as a reference.
const minPrefix = 6

type Entry struct {
	Hash      string
	Name      string
	Blocks    int
	Size      int // envelope length
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty library path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS templates (
			hash TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			blocks INTEGER NOT NULL,
			envelope TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_templates_name ON templates(name, created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Hash is the hex BLAKE3-256 of an envelope.
func Hash(envelope string) string {
	sum := blake3.Sum256([]byte(envelope))
	return hex.EncodeToString(sum[:])
}

// Put stores t under name. Storing the same template again only renames it.
func (s *Store) Put(ctx context.Context, name string, t template.Template) (Entry, error) {
	env, err := t.Compress()
	if err != nil {
		return Entry{}, err
	}
	if name == "" {
		name = t.Name
	}
	e := Entry{
		Hash:      Hash(env),
		Name:      name,
		Blocks:    len(t.Blocks),
		Size:      len(env),
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates(hash, name, blocks, envelope, created_at) VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET name=excluded.name`,
		e.Hash, e.Name, e.Blocks, env, e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("library put: %w", err)
	}
	return e, nil
}

// Import validates a raw template document and stores it.
func (s *Store) Import(ctx context.Context, name string, doc []byte) (Entry, error) {
	if err := template.ValidateDocument(doc); err != nil {
		return Entry{}, err
	}
	t, err := template.FromDocument(doc)
	if err != nil {
		return Entry{}, err
	}
	return s.Put(ctx, name, t)
}

// Get resolves ref, a hash prefix of at least six characters or a name
// (the newest template with that name wins), and decodes it. The library
// name is reported on the Entry; the template's own Name stays empty.
func (s *Store) Get(ctx context.Context, ref string) (template.Template, Entry, error) {
	e, env, err := s.resolve(ctx, ref)
	if err != nil {
		return template.Template{}, Entry{}, err
	}
	t, err := template.Decompress(env)
	if err != nil {
		return template.Template{}, Entry{}, fmt.Errorf("library %s: %w", e.Hash[:minPrefix], err)
	}
	return t, e, nil
}

func (s *Store) resolve(ctx context.Context, ref string) (Entry, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Entry{}, "", ErrNotFound
	}
	if len(ref) >= minPrefix && isHex(ref) {
		rows, err := s.query(ctx,
			`SELECT hash, name, blocks, envelope, created_at FROM templates WHERE hash LIKE ? ORDER BY hash LIMIT 2`,
			strings.ToLower(ref)+"%")
		if err != nil {
			return Entry{}, "", err
		}
		switch len(rows) {
		case 1:
			return rows[0].Entry, rows[0].envelope, nil
		case 2:
			return Entry{}, "", fmt.Errorf("%w: %s", ErrAmbiguous, ref)
		}
	}
	rows, err := s.query(ctx,
		`SELECT hash, name, blocks, envelope, created_at FROM templates WHERE name = ? ORDER BY created_at DESC LIMIT 1`,
		ref)
	if err != nil {
		return Entry{}, "", err
	}
	if len(rows) == 0 {
		return Entry{}, "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return rows[0].Entry, rows[0].envelope, nil
}

// List returns every entry, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.query(ctx,
		`SELECT hash, name, blocks, envelope, created_at FROM templates ORDER BY created_at DESC, hash`)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Entry)
	}
	return out, nil
}

// Delete removes the template ref resolves to.
func (s *Store) Delete(ctx context.Context, ref string) (Entry, error) {
	e, _, err := s.resolve(ctx, ref)
	if err != nil {
		return Entry{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE hash = ?`, e.Hash); err != nil {
		return Entry{}, fmt.Errorf("library delete: %w", err)
	}
	return e, nil
}

type row struct {
	Entry
	envelope string
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]row, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("library query: %w", err)
	}
	defer rows.Close()
	var out []row
	for rows.Next() {
		var r row
		var created string
		if err := rows.Scan(&r.Hash, &r.Name, &r.Blocks, &r.envelope, &created); err != nil {
			return nil, err
		}
		r.Size = len(r.envelope)
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = ts
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
