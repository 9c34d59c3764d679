package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"oro/internal/core"
	"oro/internal/session"
)

// storeTimeout bounds every store call made while serving a request.
const storeTimeout = 7 * time.Second

func withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// statusFor maps the core error taxonomy to a response status and the
// message shown to the user.
func statusFor(err error) (int, string) {
	if ve, ok := core.IsValidation(err); ok {
		return http.StatusUnprocessableEntity, ve.Message
	}
	var le *core.LoadError
	var pe *core.PersistenceError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "Investment not found"
	case errors.Is(err, session.ErrInvalidCode):
		return http.StatusUnauthorized, "Invalid security code"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "The store did not answer in time, please retry"
	case errors.As(err, &le):
		return http.StatusInternalServerError, "Failed to load investments"
	case errors.As(err, &pe):
		return http.StatusInternalServerError, "Failed to save changes, please retry"
	}
	return http.StatusInternalServerError, "Something went wrong"
}

// templateFuncs are the view helpers available to every template. Times are
// rendered in loc.
func templateFuncs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"inr":   core.FormatINR,
		"grams": core.FormatGrams,
		"when": func(t time.Time) string {
			return t.In(loc).Format("02 Jan 2006, 15:04")
		},
		"isoTime": func(t time.Time) string {
			return t.In(loc).Format(time.RFC3339)
		},
		"share": func(part, total decimal.Decimal) int {
			if !total.IsPositive() {
				return 0
			}
			return int(part.Mul(decimal.NewFromInt(100)).Div(total).Round(0).IntPart())
		},
	}
}
