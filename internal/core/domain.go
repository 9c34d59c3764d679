package core

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryGold   Category = "Gold"
	CategorySilver Category = "Silver"

	// MaxNotesLength bounds free-text notes.
	MaxNotesLength = 1000
)

type (
	// Category labels an investment as a gold or silver purchase.
	Category string

	// Investment is a stored purchase record. Records are immutable after
	// creation; the only lifecycle transitions are create and delete.
	Investment struct {
		ID             int64
		CreatedAt      time.Time
		Amount         decimal.Decimal
		Grams          decimal.NullDecimal
		Category       Category
		ScreenshotPath string
		ReceiptURL     string
		Notes          string
	}

	// NewRecord is a validated investment ready to be inserted. The store
	// assigns ID and CreatedAt.
	NewRecord struct {
		Amount         decimal.Decimal
		Grams          decimal.NullDecimal
		Category       Category
		ScreenshotPath string
		ReceiptURL     string
		Notes          string
	}

	// Upload is an image attached to a submission.
	Upload struct {
		Filename string
		Size     int64
		Body     io.Reader
	}

	// Submission carries the raw form values of the entry form.
	Submission struct {
		Amount     string
		Grams      string
		Category   string
		ReceiptURL string
		Notes      string
		Screenshot *Upload
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidGrams    = errors.New("invalid grams")
	ErrInvalidCategory = errors.New("invalid category")
)

// Categories lists the accepted categories in display order.
func Categories() []Category {
	return []Category{CategoryGold, CategorySilver}
}

// ParseCategory accepts "Gold" or "Silver" ignoring case and surrounding space.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (c Category) Valid() bool {
	return c == CategoryGold || c == CategorySilver
}

func (c Category) String() string { return string(c) }

// HasScreenshot reports whether a receipt image is stored for the record.
func (i Investment) HasScreenshot() bool {
	return i.ScreenshotPath != ""
}

// Validate checks the record invariants.
func (r NewRecord) Validate() error {
	if !r.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "Amount must be a positive number", Err: ErrInvalidAmount}
	}
	if r.Grams.Valid && !r.Grams.Decimal.IsPositive() {
		return &ValidationError{Field: "grams", Message: "Grams must be a positive number", Err: ErrInvalidGrams}
	}
	if !r.Category.Valid() {
		return &ValidationError{Field: "category", Message: "Please choose Gold or Silver", Err: ErrInvalidCategory}
	}
	if len([]rune(r.Notes)) > MaxNotesLength {
		return &ValidationError{Field: "notes", Message: fmt.Sprintf("Notes must be at most %d characters", MaxNotesLength)}
	}
	return nil
}

// Record parses and validates the raw form values. The screenshot is not
// inspected here; the caller fills ScreenshotPath after uploading it.
func (s Submission) Record() (NewRecord, error) {
	amount, err := ParseAmount(s.Amount)
	if err != nil {
		return NewRecord{}, &ValidationError{Field: "amount", Message: "Amount must be a positive number", Err: err}
	}

	var grams decimal.NullDecimal
	if strings.TrimSpace(s.Grams) != "" {
		g, err := ParseAmount(s.Grams)
		if err != nil {
			return NewRecord{}, &ValidationError{Field: "grams", Message: "Grams must be a positive number", Err: ErrInvalidGrams}
		}
		grams = decimal.NewNullDecimal(g)
	}

	category, err := ParseCategory(s.Category)
	if err != nil {
		return NewRecord{}, &ValidationError{Field: "category", Message: "Please choose Gold or Silver", Err: err}
	}

	receipt := strings.TrimSpace(s.ReceiptURL)
	if receipt != "" {
		u, err := url.Parse(receipt)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return NewRecord{}, &ValidationError{Field: "receipt_url", Message: "Receipt URL must be a valid http(s) link"}
		}
	}

	rec := NewRecord{
		Amount:     amount,
		Grams:      grams,
		Category:   category,
		ReceiptURL: receipt,
		Notes:      SanitizeText(s.Notes),
	}
	if err := rec.Validate(); err != nil {
		return NewRecord{}, err
	}
	return rec, nil
}

// SanitizeText trims surrounding space and drops control characters other
// than tab, newline and carriage return.
func SanitizeText(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
