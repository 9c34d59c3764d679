package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"oro/internal/blob"
	"oro/internal/cache"
	"oro/internal/core"
	"oro/internal/events"
	"oro/internal/log"
	"oro/internal/ports"
)

const (
	DefaultMaxUploadBytes = 5 << 20
	DefaultSignedURLTTL   = time.Hour
)

// InvestmentOptions tunes InvestmentService.
type InvestmentOptions struct {
	MaxUploadBytes int64
	// CleanupOrphans removes an uploaded screenshot when the record insert
	// that should reference it fails.
	CleanupOrphans bool
	SignedURLTTL   time.Duration
	// URLCache, when set, holds signed links per blob path. Its TTL must be
	// shorter than SignedURLTTL.
	URLCache cache.Cache[string]
}

// InvestmentService orchestrates investment operations across the record
// store, the blob store and the change bus.
type InvestmentService struct {
	records   ports.RecordStore
	blobs     ports.BlobStore
	publisher events.Publisher
	opts      InvestmentOptions
	now       func() time.Time
	logger    *log.StructuredLogger
}

func NewInvestmentService(records ports.RecordStore, blobs ports.BlobStore, publisher events.Publisher, opts InvestmentOptions) *InvestmentService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = DefaultSignedURLTTL
	}
	return &InvestmentService{
		records:   records,
		blobs:     blobs,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
		logger:    log.NewStructuredLogger(log.New(log.Config{Component: log.ComponentInvestment, Handler: slog.Default().Handler()})),
	}
}

// Submit validates a form submission, uploads its screenshot if any and
// stores the record. Nothing is written when validation fails, and the
// record is only inserted after the upload succeeded.
func (s *InvestmentService) Submit(ctx context.Context, sub core.Submission) (core.Investment, error) {
	rec, err := sub.Record()
	if err != nil {
		return core.Investment{}, err
	}

	if sub.Screenshot != nil {
		data, mt, err := s.readScreenshot(sub.Screenshot)
		if err != nil {
			return core.Investment{}, err
		}

		p := blob.NewPath(s.now(), sub.Screenshot.Filename, mt.Extension())
		if err := s.blobs.Upload(ctx, p, mt.String(), bytes.NewReader(data)); err != nil {
			return core.Investment{}, &core.PersistenceError{Op: "upload screenshot", Err: err}
		}
		rec.ScreenshotPath = p
	}

	inv, err := s.records.Insert(ctx, rec)
	if err != nil {
		if rec.ScreenshotPath != "" {
			s.removeOrphan(ctx, rec.ScreenshotPath)
		}
		if _, ok := core.IsValidation(err); ok {
			return core.Investment{}, err
		}
		return core.Investment{}, &core.PersistenceError{Op: "save investment", Err: err}
	}

	s.logger.LogInvestmentCreated(ctx, inv.ID, inv.Amount.String(), string(inv.Category), inv.ScreenshotPath)
	s.publish(ctx, events.KindCreated, inv.ID)
	return inv, nil
}

// screenshotTypes are the raster formats accepted as screenshots. Vector and
// markup formats such as SVG are refused since blobs are served from the
// app's own origin.
var screenshotTypes = []string{
	"image/png", "image/jpeg", "image/gif", "image/webp",
	"image/bmp", "image/avif", "image/heic", "image/heif",
}

func (s *InvestmentService) readScreenshot(u *core.Upload) ([]byte, *mimetype.MIME, error) {
	tooLarge := &core.ValidationError{
		Field:   "screenshot",
		Message: fmt.Sprintf("File size must be less than %dMB", s.opts.MaxUploadBytes>>20),
	}
	if u.Size > s.opts.MaxUploadBytes {
		return nil, nil, tooLarge
	}

	data, err := io.ReadAll(io.LimitReader(u.Body, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, nil, &core.PersistenceError{Op: "read screenshot", Err: err}
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, nil, tooLarge
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), screenshotTypes...) {
		return nil, nil, &core.ValidationError{Field: "screenshot", Message: "Please select an image file"}
	}
	return data, mt, nil
}

func (s *InvestmentService) removeOrphan(ctx context.Context, p string) {
	if !s.opts.CleanupOrphans {
		slog.WarnContext(ctx, "Leaving orphaned screenshot after failed insert",
			log.FieldComponent, log.ComponentInvestment,
			log.FieldBlobPath, p)
		return
	}
	if err := s.blobs.Remove(ctx, p); err != nil {
		s.logger.LogBlobFailure(ctx, "Failed to remove orphaned screenshot", err, log.OpCreate, 0, p)
	}
}

// Delete removes a record and then, best effort, its screenshot. A failed
// blob removal is logged and does not undo the record deletion.
func (s *InvestmentService) Delete(ctx context.Context, id int64) (core.Investment, error) {
	inv, err := s.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Investment{}, err
		}
		return core.Investment{}, &core.PersistenceError{Op: "load investment", Err: err}
	}

	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Investment{}, err
		}
		return core.Investment{}, &core.PersistenceError{Op: "delete investment", Err: err}
	}

	if inv.HasScreenshot() {
		if err := s.blobs.Remove(ctx, inv.ScreenshotPath); err != nil {
			s.logger.LogBlobFailure(ctx, "Failed to remove screenshot of deleted investment", err, log.OpDelete, id, inv.ScreenshotPath)
		}
		if s.opts.URLCache != nil {
			s.opts.URLCache.Delete(inv.ScreenshotPath)
		}
	}

	s.logger.LogInvestmentDeleted(ctx, inv.ID, inv.Amount.String(), string(inv.Category), inv.ScreenshotPath)
	s.publish(ctx, events.KindDeleted, id)
	return inv, nil
}

// ScreenshotURL returns a time-limited link to the screenshot of record id.
// core.ErrNotFound is returned when the record or its screenshot is missing.
func (s *InvestmentService) ScreenshotURL(ctx context.Context, id int64) (string, error) {
	inv, err := s.records.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !inv.HasScreenshot() {
		return "", fmt.Errorf("investment %d has no screenshot: %w", id, core.ErrNotFound)
	}

	if s.opts.URLCache != nil {
		if link, ok := s.opts.URLCache.Get(inv.ScreenshotPath); ok {
			return link, nil
		}
	}

	link, err := s.blobs.SignedURL(ctx, inv.ScreenshotPath, s.opts.SignedURLTTL)
	if err != nil {
		return "", fmt.Errorf("sign screenshot url: %w", err)
	}
	if s.opts.URLCache != nil {
		s.opts.URLCache.Set(inv.ScreenshotPath, link)
	}
	return link, nil
}

func (s *InvestmentService) publish(ctx context.Context, kind events.Kind, id int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "No change publisher configured, views may show stale data")
		return
	}
	s.publisher.Publish(ctx, events.Change{Kind: kind, ID: id, At: s.now()})
}
