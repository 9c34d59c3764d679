package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"oro/internal/core"
)

// formSlack is the room left for the text fields of the entry form on top
// of the screenshot size limit.
const formSlack = 64 << 10

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 1 << 20

// ParseSubmission reads the entry form, multipart or urlencoded, into a
// core.Submission. The returned cleanup closes the uploaded file and removes
// any temporary files; it is safe to call when err is non-nil.
//
// A body larger than maxUpload plus the text fields is rejected with a
// *core.ValidationError carrying the screenshot size message.
func ParseSubmission(w http.ResponseWriter, r *http.Request, maxUpload int64) (core.Submission, func(), error) {
	cleanup := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+formSlack)

	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return core.Submission{}, cleanup, &core.ValidationError{
				Field:   "screenshot",
				Message: fmt.Sprintf("File size must be less than %dMB", maxUpload>>20),
				Err:     err,
			}
		}
		return core.Submission{}, cleanup, fmt.Errorf("parse entry form: %w", err)
	}

	sub := core.Submission{
		Amount:     strings.TrimSpace(r.FormValue("amount")),
		Grams:      strings.TrimSpace(r.FormValue("grams")),
		Category:   strings.TrimSpace(r.FormValue("category")),
		ReceiptURL: strings.TrimSpace(r.FormValue("receipt_url")),
		Notes:      r.FormValue("notes"),
	}

	var file multipart.File
	if r.MultipartForm != nil {
		cleanup = func() {
			if file != nil {
				_ = file.Close()
			}
			_ = r.MultipartForm.RemoveAll()
		}

		f, header, ferr := r.FormFile("screenshot")
		switch {
		case errors.Is(ferr, http.ErrMissingFile):
		case ferr != nil:
			return core.Submission{}, cleanup, fmt.Errorf("read screenshot: %w", ferr)
		case header.Filename == "" || header.Size == 0:
			_ = f.Close()
		default:
			file = f
			sub.Screenshot = &core.Upload{Filename: header.Filename, Size: header.Size, Body: f}
		}
	}
	return sub, cleanup, nil
}

// ParseID reads the positive integer {id} path segment.
func ParseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
// DELETE bodies are not parsed by net/http, so the delete handler reads them
// through this.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(r.Body)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return core.SanitizeText(stringValue(val))
		}
	}
	if p.formData != nil {
		return core.SanitizeText(p.formData.Get(key))
	}
	return ""
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// formOrBody returns key from the query string, falling back to the request
// body. Used where HTMX may send values either way.
func formOrBody(r *http.Request, key string) (string, error) {
	if v := core.SanitizeText(r.URL.Query().Get(key)); v != "" {
		return v, nil
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return "", err
	}
	return p.Get(key), nil
}
