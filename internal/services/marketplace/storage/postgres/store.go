// Package postgres provides a PostgreSQL-backed marketplace gateway.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/louisbranch/scrapkart/internal/platform/id"
	"github.com/louisbranch/scrapkart/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/address"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage/postgres/migrations"
)

const (
	pingAttempts = 10
	pingBackoff  = 2 * time.Second
	uniqueCode   = pq.ErrorCode("23505")
)

// Store persists marketplace state in PostgreSQL.
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

// Open connects to PostgreSQL, waiting for the server to accept
// connections, and applies embedded migrations.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}

	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = sqlDB.PingContext(ctx); err == nil {
			break
		}
		if attempt == pingAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(pingBackoff):
		}
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}

	if err := sqlmigrate.Apply(ctx, sqlDB, sqlmigrate.Postgres, migrations.FS, ""); err != nil {
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

// Close closes the connection pool.
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
		scrapTypes pq.StringArray
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
	parsed, err := listing.ParseStatus(status)
	if err != nil {
		return listing.Listing{}, err
	}
	l.ScrapTypes = []string(scrapTypes)
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
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`,
		strings.TrimSpace(listingID),
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

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO listings (
		   id, seller_id, buyer_id, title, description, scrap_types,
		   weight_kg, price, image_url, enhanced_image_url, address, status,
		   created_at, sold_at
		 ) VALUES ($1, $2, '', $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULL)`,
		created.ID,
		created.SellerID,
		created.Title,
		created.Description,
		pq.Array(created.ScrapTypes),
		created.WeightKg,
		created.Price,
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

// UpdateListingStatus moves an available listing to sold. The row is locked
// with SELECT ... FOR UPDATE so concurrent purchases serialize on it.
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

	row := tx.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`,
		strings.TrimSpace(listingID),
	)
	current, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return listing.Listing{}, storage.ErrNotFound
		}
		return listing.Listing{}, fmt.Errorf("lock listing: %w", err)
	}
	sold, err := listing.Sell(current, buyerID, s.now())
	if err != nil {
		if errors.Is(err, listing.ErrNotAvailable) {
			return listing.Listing{}, fmt.Errorf("%w: %w", storage.ErrConflict, err)
		}
		return listing.Listing{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE listings SET status = $1, buyer_id = $2, sold_at = $3 WHERE id = $4`,
		string(sold.Status),
		sold.BuyerID,
		toMillis(*sold.SoldAt),
		sold.ID,
	); err != nil {
		return listing.Listing{}, fmt.Errorf("mark listing sold: %w", err)
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
		  WHERE user_id = $1
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
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
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
		 VALUES ($1, $2, $3, $4)
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
		`SELECT content_type, data FROM images WHERE digest = $1`,
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
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueCode
	}
	return false
}

var _ storage.Gateway = (*Store)(nil)
