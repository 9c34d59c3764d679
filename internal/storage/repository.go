package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"oro/internal/core"
	"oro/internal/ports"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so created_at sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const settingSecurityCode = "security_code"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var (
	_ ports.RecordStore   = (*SQLiteRepository)(nil)
	_ ports.SettingsStore = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert implements ports.RecordStore.
func (r *SQLiteRepository) Insert(ctx context.Context, rec core.NewRecord) (core.Investment, error) {
	if err := rec.Validate(); err != nil {
		return core.Investment{}, err
	}
	params := CreateInvestmentParams{
		CreatedAt:      r.now().UTC().Format(timeLayout),
		Amount:         rec.Amount.String(),
		Currency:       string(rec.Category),
		ScreenshotPath: nullString(rec.ScreenshotPath),
		ReceiptURL:     nullString(rec.ReceiptURL),
		Notes:          nullString(rec.Notes),
	}
	if rec.Grams.Valid {
		params.Grams = sql.NullString{String: rec.Grams.Decimal.String(), Valid: true}
	}

	row, err := r.queries.CreateInvestment(ctx, params)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}

	inv, err := toCore(row)
	if err != nil {
		return core.Investment{}, err
	}

	slog.InfoContext(ctx, "Investment saved to SQLite",
		"id", inv.ID,
		"amount", inv.Amount.String(),
		"category", inv.Category,
		"has_screenshot", inv.HasScreenshot())

	return inv, nil
}

// ListAll implements ports.RecordStore.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Investment, error) {
	rows, err := r.queries.ListInvestments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	out := make([]core.Investment, 0, len(rows))
	for _, row := range rows {
		inv, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

// Get implements ports.RecordStore.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Investment, error) {
	row, err := r.queries.GetInvestment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Investment{}, fmt.Errorf("investment %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Investment{}, fmt.Errorf("get investment %d: %w", id, err)
	}
	return toCore(row)
}

// Delete implements ports.RecordStore.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteInvestment(ctx, id)
	if err != nil {
		return fmt.Errorf("delete investment %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("investment %d: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Investment deleted from SQLite", "id", id)
	return nil
}

// SecurityCode implements ports.SettingsStore.
func (r *SQLiteRepository) SecurityCode(ctx context.Context) (string, error) {
	v, err := r.queries.GetSetting(ctx, settingSecurityCode)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("security code: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get security code: %w", err)
	}
	return v, nil
}

// SetSecurityCode implements ports.SettingsStore.
func (r *SQLiteRepository) SetSecurityCode(ctx context.Context, value string) error {
	err := r.queries.UpsertSetting(ctx, UpsertSettingParams{
		Key:       settingSecurityCode,
		Value:     value,
		UpdatedAt: r.now().UTC().Format(timeLayout),
	})
	if err != nil {
		return fmt.Errorf("set security code: %w", err)
	}
	return nil
}

func toCore(row Investment) (core.Investment, error) {
	created, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return core.Investment{}, fmt.Errorf("parse created_at of investment %d: %w", row.ID, err)
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Investment{}, fmt.Errorf("parse amount of investment %d: %w", row.ID, err)
	}
	inv := core.Investment{
		ID:             row.ID,
		CreatedAt:      created,
		Amount:         amount,
		Category:       core.Category(row.Currency),
		ScreenshotPath: row.ScreenshotPath.String,
		ReceiptURL:     row.ReceiptURL.String,
		Notes:          row.Notes.String,
	}
	if row.Grams.Valid {
		g, err := decimal.NewFromString(row.Grams.String)
		if err != nil {
			return core.Investment{}, fmt.Errorf("parse grams of investment %d: %w", row.ID, err)
		}
		inv.Grams = decimal.NewNullDecimal(g)
	}
	return inv, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
