package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pauljones0/rentacos/internal/models"
	"github.com/pauljones0/rentacos/internal/validator"
)

//go:embed schema.sql
var sqliteSchema string

// SQLite is a local listing and saved search store used for development and tests.
type SQLite struct {
	db       *sql.DB
	validate *validator.Validator
	now      func() time.Time
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma journal_mode: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLite{db: db, validate: validator.New(), now: utcNow}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

const listingColumns = `id, owner, ltype, title, price, price_unit, city, description, franchise, character_name, tags, images, quantity, status, created_at`

func (s *SQLite) FindListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.City != nil {
		where = append(where, "city = ?")
		args = append(args, *f.City)
	}
	if len(f.Types) > 0 {
		where = append(where, "ltype IN (?"+strings.Repeat(", ?", len(f.Types)-1)+")")
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if !f.CreatedAtGte.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, toNanos(f.CreatedAtGte))
	}

	query := "SELECT " + listingColumns + " FROM listings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		l, err := s.scanListing(rows)
		var derr *models.DecodeError
		if errors.As(err, &derr) {
			slog.Warn("Skipping malformed listing", "id", derr.ID, "error", derr.Err)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return out, nil
}

func (s *SQLite) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM listings WHERE id = ?", id)
	l, err := s.scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return l, err
}

func (s *SQLite) CreateListing(ctx context.Context, l models.Listing) (*models.Listing, error) {
	l.ID = uuid.NewString()
	l.CreatedAt = s.now()
	if err := s.validate.Fields(l); err != nil {
		return nil, err
	}

	tags, err := json.Marshal(nonNil(l.Tags))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	images, err := json.Marshal(nonNil(l.Images))
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.OwnerID, string(l.Type), l.Title, l.Price, string(l.PriceUnit), l.City, l.Description,
		l.Franchise, l.Character, string(tags), string(images), l.Quantity, l.Status, toNanos(l.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}
	return &l, nil
}

// ListSavedSearches returns the saved searches of userID, newest first.
// Malformed rows are reported in a *models.SkippedRecordsError returned with
// the rows that did decode.
func (s *SQLite) ListSavedSearches(ctx context.Context, userID string) ([]models.SavedSearch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, city, ltypes, query_text, last_seen, created_at
		FROM saved_searches
		WHERE user_id = ?
		ORDER BY created_at DESC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query saved searches: %w", err)
	}
	defer rows.Close()

	var (
		out     []models.SavedSearch
		skipped []*models.DecodeError
	)
	for rows.Next() {
		ss, err := s.scanSavedSearch(rows)
		var derr *models.DecodeError
		if errors.As(err, &derr) {
			skipped = append(skipped, derr)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved searches: %w", err)
	}
	if len(skipped) > 0 {
		return out, &models.SkippedRecordsError{Skipped: skipped}
	}
	return out, nil
}

func (s *SQLite) GetSavedSearch(ctx context.Context, id string) (*models.SavedSearch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, city, ltypes, query_text, last_seen, created_at
		FROM saved_searches WHERE id = ?
	`, id)
	ss, err := s.scanSavedSearch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return ss, err
}

func (s *SQLite) CreateSavedSearch(ctx context.Context, d models.SavedSearchDraft) (*models.SavedSearch, error) {
	ss := models.SavedSearch{
		ID:        uuid.NewString(),
		UserID:    d.UserID,
		Criteria:  d.Criteria.Normalize(),
		CreatedAt: s.now(),
	}
	if err := s.validate.Fields(ss); err != nil {
		return nil, err
	}
	types, err := json.Marshal(ss.Types)
	if err != nil {
		return nil, fmt.Errorf("encode types: %w", err)
	}

	var city sql.NullString
	if ss.City != nil {
		city = sql.NullString{String: *ss.City, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_searches (id, user_id, city, ltypes, query_text, last_seen, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`, ss.ID, ss.UserID, city, string(types), ss.Query, toNanos(ss.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert saved search: %w", err)
	}
	return &ss, nil
}

func (s *SQLite) UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE saved_searches SET last_seen = ? WHERE id = ?`, toNanos(lastSeen), id)
	if err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *SQLite) DeleteSavedSearch(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saved_searches WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete saved search: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) scanListing(row scanner) (*models.Listing, error) {
	var (
		l            models.Listing
		ltype, unit  string
		tags, images string
		createdAt    int64
	)
	err := row.Scan(&l.ID, &l.OwnerID, &ltype, &l.Title, &l.Price, &unit, &l.City, &l.Description,
		&l.Franchise, &l.Character, &tags, &images, &l.Quantity, &l.Status, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	l.Type = models.ListingType(ltype)
	l.PriceUnit = models.PriceUnit(unit)
	l.CreatedAt = fromNanos(createdAt)
	if err := json.Unmarshal([]byte(tags), &l.Tags); err != nil {
		return nil, &models.DecodeError{Collection: listingsCollection, ID: l.ID, Err: err}
	}
	if err := json.Unmarshal([]byte(images), &l.Images); err != nil {
		return nil, &models.DecodeError{Collection: listingsCollection, ID: l.ID, Err: err}
	}
	if err := s.validate.Fields(l); err != nil {
		return nil, &models.DecodeError{Collection: listingsCollection, ID: l.ID, Err: err}
	}
	return &l, nil
}

func (s *SQLite) scanSavedSearch(row scanner) (*models.SavedSearch, error) {
	var (
		ss                  models.SavedSearch
		city                sql.NullString
		types               string
		lastSeen, createdAt int64
	)
	err := row.Scan(&ss.ID, &ss.UserID, &city, &types, &ss.Query, &lastSeen, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan saved search: %w", err)
	}
	if city.Valid {
		ss.City = &city.String
	}
	if err := json.Unmarshal([]byte(types), &ss.Types); err != nil {
		return nil, &models.DecodeError{Collection: savedSearchesCollection, ID: ss.ID, Err: err}
	}
	ss.LastSeen = fromNanos(lastSeen)
	ss.CreatedAt = fromNanos(createdAt)
	if err := s.validate.Fields(ss); err != nil {
		return nil, &models.DecodeError{Collection: savedSearchesCollection, ID: ss.ID, Err: err}
	}
	return &ss, nil
}

// toNanos stores the zero time as 0 so an unset watermark sorts before everything.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
