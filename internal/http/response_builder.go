package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Client events raised through HX-Trigger. app.js and the hx-trigger
// attributes in the templates listen for these names.
const (
	EventRecordsChanged = "records:changed"
	EventFormReset      = "form:reset"
	EventScreenshotOpen = "screenshot:open"
	EventNotification   = "show-notification"
)

// HTMXResponseBuilder assembles a partial response: status, HX-* headers
// and an optional HTML body.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    http.Header
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(http.Header),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with its detail to HX-Trigger. A second call
// with the same name replaces the detail.
func (b *HTMXResponseBuilder) Trigger(name string, detail any) *HTMXResponseBuilder {
	b.triggers[name] = detail
	return b
}

// TriggerRecordsChanged tells the list and the dashboard to reload.
func (b *HTMXResponseBuilder) TriggerRecordsChanged(kind string, id int64) *HTMXResponseBuilder {
	return b.Trigger(EventRecordsChanged, map[string]any{"kind": kind, "id": id})
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, struct{}{})
}

// TriggerScreenshotOpen asks the page to open url in a new tab.
func (b *HTMXResponseBuilder) TriggerScreenshotOpen(url string) *HTMXResponseBuilder {
	return b.Trigger(EventScreenshotOpen, map[string]string{"url": url})
}

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
)

// notificationDuration is how long each kind of toast stays up, in ms.
var notificationDuration = map[NotificationType]int{
	NotificationSuccess: 3000,
	NotificationWarning: 4000,
	NotificationError:   5000,
}

// Notify shows a toast. Only one toast is sent per response.
func (b *HTMXResponseBuilder) Notify(kind NotificationType, message string) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": notificationDuration[kind],
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.Notify(NotificationSuccess, message)
}

func (b *HTMXResponseBuilder) TriggerWarningNotification(message string) *HTMXResponseBuilder {
	return b.Notify(NotificationWarning, message)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.Notify(NotificationError, message)
}

// Redirect makes HTMX navigate the whole page to url.
func (b *HTMXResponseBuilder) Redirect(url string) *HTMXResponseBuilder {
	b.headers.Set("HX-Redirect", url)
	return b
}

// HTML sets a rendered template as the body.
func (b *HTMXResponseBuilder) HTML(body []byte) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	b.body = body
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.headers {
		w.Header()[name] = values
	}
	if len(b.triggers) > 0 {
		if data, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(data))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse is a bare alert fragment carrying message, HTML-escaped.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		HTML([]byte(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
