package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/historycourt/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "historycourt.db"

// Store is a SQLite-backed storage for sessions and cases.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in dataDir.
// If dataDir is empty, defaults to ~/.historycourt/historycourt.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".historycourt")
	}
	return Open(filepath.Join(dataDir, DBFileName))
}

// Open creates or opens a SQLite store at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Immediate transactions take the write lock up front, so concurrent
	// UpdateRounds calls queue on busy_timeout instead of failing to upgrade.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// CaseStore returns a CaseStore interface backed by this store.
func (s *Store) CaseStore() driven.CaseStore {
	return &caseStore{store: s}
}

// migrate runs all pending migrations. Each migration records its own
// version in schema_migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Save stores a session.
func (s *sessionStore) Save(ctx context.Context, session *domain.Session) error {
	historyJSON, err := json.Marshal(session.History)
	if err != nil {
		return fmt.Errorf("marshalling history: %w", err)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, history, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET history = excluded.history
	`, session.ID, string(historyJSON), session.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, history, created_at FROM sessions WHERE id = ?
	`, id)

	var session domain.Session
	var historyJSON string
	var createdAt sql.NullTime
	if err := row.Scan(&session.ID, &historyJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	if err := json.Unmarshal([]byte(historyJSON), &session.History); err != nil {
		return nil, fmt.Errorf("unmarshalling history: %w", err)
	}
	if createdAt.Valid {
		session.CreatedAt = createdAt.Time
	}
	return &session, nil
}

// ==================== Case Store ====================

// caseStore implements driven.CaseStore.
type caseStore struct {
	store *Store
}

var _ driven.CaseStore = (*caseStore)(nil)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Save stores a case.
func (s *caseStore) Save(ctx context.Context, c *domain.Case) error {
	roundsJSON, err := json.Marshal(nonNil(c.Rounds))
	if err != nil {
		return fmt.Errorf("marshalling rounds: %w", err)
	}
	tagsJSON, err := json.Marshal(nonNil(c.SelectedTags))
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO cases (id, session_id, selected_tags, rounds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			selected_tags = excluded.selected_tags,
			rounds = excluded.rounds,
			updated_at = excluded.updated_at
	`, c.ID, c.SessionID, string(tagsJSON), string(roundsJSON), c.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("saving case: %w", err)
	}
	return nil
}

// Get retrieves a case by ID.
func (s *caseStore) Get(ctx context.Context, id string) (*domain.Case, error) {
	return getCase(ctx, s.store.db, id)
}

// UpdateRounds applies fn inside one immediate transaction.
func (s *caseStore) UpdateRounds(ctx context.Context, id string, fn driven.RoundsMutation) (*domain.Case, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c, err := getCase(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	rounds, err := fn(c.Rounds)
	if err != nil {
		return nil, err
	}

	roundsJSON, err := json.Marshal(nonNil(rounds))
	if err != nil {
		return nil, fmt.Errorf("marshalling rounds: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE cases SET rounds = ?, updated_at = ? WHERE id = ?
	`, string(roundsJSON), time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("updating rounds: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing rounds: %w", err)
	}

	c.Rounds = rounds
	return c, nil
}

func getCase(ctx context.Context, q queryer, id string) (*domain.Case, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, session_id, selected_tags, rounds, created_at FROM cases WHERE id = ?
	`, id)

	var c domain.Case
	var tagsJSON, roundsJSON string
	var createdAt sql.NullTime
	if err := row.Scan(&c.ID, &c.SessionID, &tagsJSON, &roundsJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning case: %w", err)
	}

	if err := json.Unmarshal([]byte(tagsJSON), &c.SelectedTags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}
	if err := json.Unmarshal([]byte(roundsJSON), &c.Rounds); err != nil {
		return nil, fmt.Errorf("unmarshalling rounds: %w", err)
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	return &c, nil
}

// nonNil keeps empty lists as [] rather than null in stored JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
