// Package store is the SQLite profile registry used by the CLI. Documents
// are stored as JSON keyed by (kind, id); every content change gets a new
// revision id and is kept in the revision history.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/transflow/internal"
	"github.com/valpere/transflow/internal/profile"
)

// ErrNotFound is returned when a profile does not exist.
var ErrNotFound = errors.New("profile not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		document TEXT NOT NULL,
		hash TEXT NOT NULL,
		revision TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (kind, id)
	);

	-- profile_revisions keeps every stored version of a profile
	CREATE TABLE IF NOT EXISTS profile_revisions (
		revision TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		document TEXT NOT NULL,
		hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_revisions_profile ON profile_revisions(kind, id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveProfile inserts or replaces a profile. A document whose content hash
// matches the stored one is left untouched and changed is false.
func (s *Store) SaveProfile(ctx context.Context, kind profile.Kind, doc profile.Document) (rec internal.ProfileRecord, changed bool, err error) {
	k, ok := profile.ParseKind(string(kind))
	if !ok {
		return rec, false, fmt.Errorf("unknown profile kind %q", kind)
	}
	kind = k
	id := normalizeKey(profile.ID(doc))
	if !profile.SafeID(id) {
		return rec, false, fmt.Errorf("invalid profile id %q", id)
	}

	stored := make(profile.Document, len(doc))
	for k, v := range doc {
		stored[k] = v
	}
	stored["id"] = id

	data, err := json.Marshal(stored)
	if err != nil {
		return rec, false, fmt.Errorf("failed to encode profile %s/%s: %w", kind, id, err)
	}
	hash := contentHash(data)

	existing, err := s.GetProfile(ctx, kind, id)
	switch {
	case err == nil && existing.Hash == hash:
		return existing, false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return rec, false, err
	}

	now := time.Now().UTC()
	rec = internal.ProfileRecord{
		Kind:      string(kind),
		ID:        id,
		Revision:  uuid.NewString(),
		Hash:      hash,
		Document:  stored,
		UpdatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (kind, id, document, hash, revision, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(kind, id) DO UPDATE SET document = excluded.document, hash = excluded.hash,
		 revision = excluded.revision, updated_at = excluded.updated_at`,
		rec.Kind, rec.ID, string(data), rec.Hash, rec.Revision, now.UnixNano()); err != nil {
		return rec, false, fmt.Errorf("failed to save profile %s/%s: %w", kind, id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profile_revisions (revision, kind, id, document, hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Revision, rec.Kind, rec.ID, string(data), rec.Hash, now.UnixNano()); err != nil {
		return rec, false, fmt.Errorf("failed to record revision of %s/%s: %w", kind, id, err)
	}

	if err := tx.Commit(); err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// GetProfile returns the current version of a profile.
func (s *Store) GetProfile(ctx context.Context, kind profile.Kind, id string) (internal.ProfileRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT kind, id, document, hash, revision, updated_at FROM profiles WHERE kind = ? AND id = ?`,
		string(kind), normalizeKey(id))

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%w: %s/%s", ErrNotFound, kind, id)
	}
	return rec, err
}

// ListProfiles returns the profiles of kind ordered by id, or every profile
// ordered by kind and id when kind is empty.
func (s *Store) ListProfiles(ctx context.Context, kind profile.Kind) ([]internal.ProfileRecord, error) {
	query := `SELECT kind, id, document, hash, revision, updated_at FROM profiles`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY kind, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []internal.ProfileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// History returns every stored revision of a profile, oldest first.
func (s *Store) History(ctx context.Context, kind profile.Kind, id string) ([]internal.ProfileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, id, document, hash, revision, created_at FROM profile_revisions
		 WHERE kind = ? AND id = ? ORDER BY created_at, revision`,
		string(kind), normalizeKey(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []internal.ProfileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteProfile removes a profile and its history.
func (s *Store) DeleteProfile(ctx context.Context, kind profile.Kind, id string) error {
	id = normalizeKey(id)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, kind, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profile_revisions WHERE kind = ? AND id = ?`, string(kind), id); err != nil {
		return err
	}
	return tx.Commit()
}

// Entries returns every stored profile as loader entries.
func (s *Store) Entries(ctx context.Context) ([]profile.Entry, error) {
	records, err := s.ListProfiles(ctx, "")
	if err != nil {
		return nil, err
	}
	entries := make([]profile.Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, profile.Entry{
			Kind: profile.Kind(rec.Kind),
			Path: "db:" + rec.Kind + "/" + rec.ID,
			Doc:  rec.Document,
		})
	}
	return entries, nil
}

// Index snapshots the registry for cross-reference checks.
func (s *Store) Index(ctx context.Context) (profile.Index, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return profile.Index{}, err
	}
	return profile.NewIndex(entries...), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (internal.ProfileRecord, error) {
	var (
		rec  internal.ProfileRecord
		data string
		ts   int64
	)
	if err := row.Scan(&rec.Kind, &rec.ID, &data, &rec.Hash, &rec.Revision, &ts); err != nil {
		return rec, err
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return rec, fmt.Errorf("corrupt profile %s/%s: %w", rec.Kind, rec.ID, err)
	}
	rec.Document = doc
	rec.UpdatedAt = time.Unix(0, ts).UTC()
	return rec, nil
}

// decodeDocument keeps numbers as json.Number so integers survive a round
// trip unchanged.
func decodeDocument(data string) (profile.Document, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var doc profile.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func contentHash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// normalizeKey trims whitespace and applies Unicode NFC normalization
// so visually identical ids map to one row.
func normalizeKey(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
