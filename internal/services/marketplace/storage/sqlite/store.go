// Package sqlite provides a SQLite-backed marketplace gateway.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/scrapkart/internal/platform/id"
	"github.com/louisbranch/scrapkart/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/address"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Every transaction takes the write lock up front so a purchase's read and
// write happen under one lock.
const dsnOptions = "?_txlock=immediate" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)"

// Store persists marketplace state in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
	newID func() (string, error)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(generate func() (string, error)) Option {
	return func(s *Store) {
		if generate != nil {
			s.newID = generate
		}
	}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite marketplace store and applies embedded migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	sqlDB, err := sql.Open("sqlite", cleanPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlmigrate.Apply(context.Background(), sqlDB, sqlmigrate.SQLite, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{sqlDB: sqlDB, now: time.Now, newID: id.NewID}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const listingColumns = `id, seller_id, buyer_id, title, description, scrap_types,
        weight_kg, price, image_url, enhanced_image_url, address, status,
        created_at, sold_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (listing.Listing, error) {
	var (
		l          listing.Listing
		scrapTypes string
		status     string
		createdAt  int64
		soldAt     sql.NullInt64
	)
	if err := row.Scan(
		&l.ID,
		&l.SellerID,
		&l.BuyerID,
		&l.Title,
		&l.Description,
		&scrapTypes,
		&l.WeightKg,
		&l.Price,
		&l.ImageURL,
		&l.EnhancedImageURL,
		&l.Address,
		&status,
		&createdAt,
		&soldAt,
	); err != nil {
		return listing.Listing{}, err
	}
	if err := json.Unmarshal([]byte(scrapTypes), &l.ScrapTypes); err != nil {
		return listing.Listing{}, fmt.Errorf("decode scrap types for %s: %w", l.ID, err)
	}
	parsed, err := listing.ParseStatus(status)
	if err != nil {
		return listing.Listing{}, err
	}
	l.Status = parsed
	l.CreatedAt = fromMillis(createdAt)
	if soldAt.Valid {
		at := fromMillis(soldAt.Int64)
		l.SoldAt = &at
	}
	if err := listing.Validate(l); err != nil {
		return listing.Listing{}, fmt.Errorf("stored listing %s: %w", l.ID, err)
	}
	return l, nil
}

// ListListings returns every listing, newest created first.
func (s *Store) ListListings(ctx context.Context) ([]listing.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+listingColumns+`
		   FROM listings
		  ORDER BY created_at DESC, seq DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	out := []listing.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("list listings: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return out, nil
}

// GetListing returns one listing by ID.
func (s *Store) GetListing(ctx context.Context, listingID string) (listing.Listing, error) {
	if err := ctx.Err(); err != nil {
		return listing.Listing{}, err
	}
	if s == nil || s.sqlDB == nil {
		return listing.Listing{}, fmt.Errorf("storage is not configured")
	}
	return getListing(ctx, s.sqlDB, strings.TrimSpace(listingID))
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getListing(ctx context.Context, q queryRower, listingID string) (listing.Listing, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+listingColumns+`
		   FROM listings
		  WHERE id = ?`,
		listingID,
	)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return listing.Listing{}, storage.ErrNotFound
		}
		return listing.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// CreateListing inserts a new available listing.
func (s *Store) CreateListing(ctx context.Context, input listing.CreateInput) (listing.Listing, error) {
	if err := ctx.Err(); err != nil {
		return listing.Listing{}, err
	}
	if s == nil || s.sqlDB == nil {
		return listing.Listing{}, fmt.Errorf("storage is not configured")
	}
	created, err := listing.Create(input, s.now, s.newID)
	if err != nil {
		return listing.Listing{}, err
	}
	scrapTypes, err := json.Marshal(created.ScrapTypes)
	if err != nil {
		return listing.Listing{}, fmt.Errorf("encode scrap types: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO listings (
		   id, seller_id, buyer_id, title, description, scrap_types,
		   weight_kg, price, image_url, enhanced_image_url, address, status,
		   created_at, sold_at
		 ) VALUES (?, ?, '', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		created.ID,
		created.SellerID,
		created.Title,
		created.Description,
		string(scrapTypes),
		created.WeightKg.String(),
		created.Price.String(),
		created.ImageURL,
		created.EnhancedImageURL,
		created.Address,
		string(created.Status),
		toMillis(created.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return listing.Listing{}, fmt.Errorf("create listing %s: duplicate id", created.ID)
		}
		return listing.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	return created, nil
}

// UpdateListingStatus moves an available listing to sold inside one
// immediate transaction.
func (s *Store) UpdateListingStatus(ctx context.Context, listingID string, status listing.Status, buyerID string) (listing.Listing, error) {
	if err := ctx.Err(); err != nil {
		return listing.Listing{}, err
	}
	if s == nil || s.sqlDB == nil {
		return listing.Listing{}, fmt.Errorf("storage is not configured")
	}
	if status != listing.StatusSold {
		return listing.Listing{}, fmt.Errorf("%w: %s", storage.ErrUnsupportedTransition, status)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return listing.Listing{}, fmt.Errorf("begin purchase: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getListing(ctx, tx, strings.TrimSpace(listingID))
	if err != nil {
		return listing.Listing{}, err
	}
	sold, err := listing.Sell(current, buyerID, s.now())
	if err != nil {
		if errors.Is(err, listing.ErrNotAvailable) {
			return listing.Listing{}, fmt.Errorf("%w: %w", storage.ErrConflict, err)
		}
		return listing.Listing{}, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE listings
		    SET status = ?, buyer_id = ?, sold_at = ?
		  WHERE id = ? AND status = ?`,
		string(sold.Status),
		sold.BuyerID,
		toMillis(*sold.SoldAt),
		sold.ID,
		string(listing.StatusAvailable),
	)
	if err != nil {
		return listing.Listing{}, fmt.Errorf("mark listing sold: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return listing.Listing{}, fmt.Errorf("mark listing sold: %w", err)
	}
	if affected != 1 {
		return listing.Listing{}, storage.ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return listing.Listing{}, fmt.Errorf("commit purchase: %w", err)
	}
	return sold, nil
}

// ListAddresses returns the user's addresses in insertion order.
func (s *Store) ListAddresses(ctx context.Context, userID string) ([]address.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, user_id, name, phone, line1, line2, city, state, postal_code, created_at
		   FROM addresses
		  WHERE user_id = ?
		  ORDER BY seq ASC`,
		strings.TrimSpace(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	out := []address.Address{}
	for rows.Next() {
		var a address.Address
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Phone, &a.Line1, &a.Line2, &a.City, &a.State, &a.PostalCode, &createdAt); err != nil {
			return nil, fmt.Errorf("list addresses: %w", err)
		}
		a.CreatedAt = fromMillis(createdAt)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return out, nil
}

// CreateAddress appends an address for the user.
func (s *Store) CreateAddress(ctx context.Context, userID string, input address.CreateInput) (address.Address, error) {
	if err := ctx.Err(); err != nil {
		return address.Address{}, err
	}
	if s == nil || s.sqlDB == nil {
		return address.Address{}, fmt.Errorf("storage is not configured")
	}
	created, err := address.Create(userID, input, s.now, s.newID)
	if err != nil {
		return address.Address{}, err
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO addresses (id, user_id, name, phone, line1, line2, city, state, postal_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID,
		created.UserID,
		created.Name,
		created.Phone,
		created.Line1,
		created.Line2,
		created.City,
		created.State,
		created.PostalCode,
		toMillis(created.CreatedAt),
	)
	if err != nil {
		return address.Address{}, fmt.Errorf("create address: %w", err)
	}
	return created, nil
}

// StoreImage stores bytes content-addressed and returns their path reference.
func (s *Store) StoreImage(ctx context.Context, image storage.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	normalized, err := image.Normalize()
	if err != nil {
		return "", err
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO images (digest, content_type, data, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (digest) DO NOTHING`,
		normalized.Digest(),
		normalized.ContentType,
		normalized.Data,
		toMillis(s.now()),
	)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return storage.ContentRef(normalized), nil
}

// GetImage loads an image stored by StoreImage.
func (s *Store) GetImage(ctx context.Context, ref string) (storage.Image, error) {
	if err := ctx.Err(); err != nil {
		return storage.Image{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Image{}, fmt.Errorf("storage is not configured")
	}
	digest, ok := storage.DigestFromRef(ref)
	if !ok {
		return storage.Image{}, storage.ErrNotFound
	}

	var img storage.Image
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT content_type, data FROM images WHERE digest = ?`,
		digest,
	).Scan(&img.ContentType, &img.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Image{}, storage.ErrNotFound
		}
		return storage.Image{}, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Gateway = (*Store)(nil)
