// Package store keeps module builds in a SQLite database, one YAML document
// per named workspace.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-scripttree/engine"
	"github.com/robbyt/go-scripttree/internal/helpers"
	"github.com/robbyt/go-scripttree/module"
	"github.com/robbyt/go-scripttree/persist"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	name       TEXT PRIMARY KEY,
	document   BLOB    NOT NULL,
	sha256     TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Entry describes a saved workspace.
type Entry struct {
	Name      string
	SHA256    string
	UpdatedAt time.Time
}

// Store is a SQLite-backed workspace store. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at dsn and applies the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying store option: %w", err)
		}
	}
	logger := cfg.logger
	if logger == nil {
		_, logger = helpers.SetupLogger(cfg.logHandler, "store", "")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dsn, err)
	}
	// a single connection keeps :memory: databases alive and serializes
	// writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Debug("Store opened", "dsn", dsn)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes b under name, replacing any previous version.
func (s *Store) Save(ctx context.Context, name string, b *module.Build) error {
	if name == "" {
		return ErrEmptyName
	}
	w := persist.NewWriter()
	if err := b.Write(w, persist.DefaultSaveOptions()); err != nil {
		return fmt.Errorf("failed to write build %s: %w", b.Name(), err)
	}
	doc, err := w.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode build %s: %w", b.Name(), err)
	}

	sum := helpers.SHA256Bytes(doc)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workspaces (name, document, sha256, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			document = excluded.document,
			sha256 = excluded.sha256,
			updated_at = excluded.updated_at`,
		name, doc, sum, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save workspace %s: %w", name, err)
	}

	s.logger.Info("Workspace saved", "workspace", name, "sha256", sum[:8])
	return nil
}

// Document returns the raw YAML stored under name.
func (s *Store) Document(ctx context.Context, name string) ([]byte, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM workspaces WHERE name = ?`, name,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace %s: %w", name, err)
	}
	return doc, nil
}

// Load recreates the build saved under name. The modules are bound to eng
// and receive opts.
func (s *Store) Load(ctx context.Context, name string, eng engine.Engine, opts ...module.Option) (*module.Build, error) {
	doc, err := s.Document(ctx, name)
	if err != nil {
		return nil, err
	}
	bd, err := persist.DecodeBuild(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("workspace %s: %w", name, err)
	}
	b, err := module.NewBuildFromDocument(eng, bd, opts...)
	if err != nil {
		return nil, fmt.Errorf("workspace %s: %w", name, err)
	}

	s.logger.Debug("Workspace loaded", "workspace", name, "modules", b.Len())
	return b, nil
}

// List returns the saved workspaces ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, sha256, updated_at FROM workspaces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updated int64
		if err := rows.Scan(&e.Name, &e.SHA256, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan workspace row: %w", err)
		}
		e.UpdatedAt = time.Unix(0, updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the workspace saved under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete workspace %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete workspace %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrWorkspaceNotFound, name)
	}
	s.logger.Info("Workspace deleted", "workspace", name)
	return nil
}
