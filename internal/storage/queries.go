package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL statements used by the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a copy bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Investment mirrors a row of the investments table.
type Investment struct {
	ID             int64
	CreatedAt      string
	Amount         string
	Grams          sql.NullString
	Currency       string
	ScreenshotPath sql.NullString
	ReceiptURL     sql.NullString
	Notes          sql.NullString
}

const investmentColumns = `id, created_at, amount, grams, currency, screenshot_path, receipt_url, notes`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvestment(row rowScanner) (Investment, error) {
	var i Investment
	err := row.Scan(
		&i.ID,
		&i.CreatedAt,
		&i.Amount,
		&i.Grams,
		&i.Currency,
		&i.ScreenshotPath,
		&i.ReceiptURL,
		&i.Notes,
	)
	return i, err
}

const createInvestment = `
INSERT INTO investments (created_at, amount, grams, currency, screenshot_path, receipt_url, notes)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + investmentColumns

type CreateInvestmentParams struct {
	CreatedAt      string
	Amount         string
	Grams          sql.NullString
	Currency       string
	ScreenshotPath sql.NullString
	ReceiptURL     sql.NullString
	Notes          sql.NullString
}

func (q *Queries) CreateInvestment(ctx context.Context, arg CreateInvestmentParams) (Investment, error) {
	row := q.db.QueryRowContext(ctx, createInvestment,
		arg.CreatedAt,
		arg.Amount,
		arg.Grams,
		arg.Currency,
		arg.ScreenshotPath,
		arg.ReceiptURL,
		arg.Notes,
	)
	return scanInvestment(row)
}

const listInvestments = `
SELECT ` + investmentColumns + `
FROM investments
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListInvestments(ctx context.Context) ([]Investment, error) {
	rows, err := q.db.QueryContext(ctx, listInvestments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Investment
	for rows.Next() {
		i, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getInvestment = `
SELECT ` + investmentColumns + `
FROM investments
WHERE id = ?`

func (q *Queries) GetInvestment(ctx context.Context, id int64) (Investment, error) {
	row := q.db.QueryRowContext(ctx, getInvestment, id)
	return scanInvestment(row)
}

const deleteInvestment = `DELETE FROM investments WHERE id = ?`

func (q *Queries) DeleteInvestment(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteInvestment, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getSetting = `SELECT setting_value FROM app_settings WHERE setting_key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	row := q.db.QueryRowContext(ctx, getSetting, key)
	var value string
	err := row.Scan(&value)
	return value, err
}

const upsertSetting = `
INSERT INTO app_settings (setting_key, setting_value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (setting_key) DO UPDATE SET
    setting_value = excluded.setting_value,
    updated_at = excluded.updated_at`

type UpsertSettingParams struct {
	Key       string
	Value     string
	UpdatedAt string
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}
