package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"oro/internal/core"
	"oro/internal/events"
	"oro/internal/log"
	"oro/internal/query"
)

type entriesView struct {
	query.Result
	Categories  []core.Category
	SortOptions []query.SortOption
	Error       string
}

func (s *Server) newEntriesView(res query.Result, errMsg string) entriesView {
	return entriesView{
		Result:      res,
		Categories:  core.Categories(),
		SortOptions: query.SortOptions(),
		Error:       errMsg,
	}
}

type formView struct {
	Categories  []core.Category
	Values      core.Submission
	Field       string
	Error       string
	MaxUploadMB int64
}

func (s *Server) newFormView() formView {
	return formView{
		Categories:  core.Categories(),
		Values:      core.Submission{Category: string(core.CategoryGold)},
		MaxUploadMB: s.opts.MaxUploadBytes >> 20,
	}
}

// stateFrom decodes the list view state from the query string.
func (s *Server) stateFrom(r *http.Request, version uint64) query.State {
	st := query.StateFromValues(r.URL.Query(), version)
	st.PageSize = s.opts.PageSize
	return st
}

// handleEntries renders the list partial. refresh=1 drops the cached
// snapshot first. A failed load shows the error state, never stale rows.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withStoreTimeout(r.Context())
	defer cancel()

	load := s.deps.Records.Load
	if r.URL.Query().Get("refresh") == "1" {
		load = s.deps.Records.Refresh
	}

	snap, err := load(ctx)
	if err != nil {
		status, msg := statusFor(err)
		requestLogger(r).ErrorContext(ctx, "Entry list load failed",
			log.FieldOperation, log.OpLoad,
			log.FieldError, err)
		st := s.stateFrom(r, s.deps.Records.Version())
		s.writeHTML(w, r, status, "entries", s.newEntriesView(query.Result{State: st}, msg))
		return
	}

	st := s.stateFrom(r, snap.Version)
	s.writeHTML(w, r, http.StatusOK, "entries", s.newEntriesView(st.Apply(snap.Records), ""))
}

func (s *Server) handleEntryForm(w http.ResponseWriter, r *http.Request) {
	s.writeHTML(w, r, http.StatusOK, "entry_form", s.newFormView())
}

// handleCreateEntry stores a submitted entry. Validation failures re-render
// the form with the values kept and the message inline.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)

	sub, cleanup, err := ParseSubmission(w, r, s.opts.MaxUploadBytes)
	defer cleanup()
	if err != nil {
		if _, ok := core.IsValidation(err); !ok {
			logger.WarnContext(r.Context(), "Parse entry form failed",
				log.FieldOperation, log.OpParse,
				log.FieldError, err)
			BadRequestError("Invalid request format").Write(w)
			return
		}
		s.writeFormError(w, r, sub, err)
		return
	}

	ctx, cancel := withStoreTimeout(r.Context())
	defer cancel()

	inv, err := s.deps.Investments.Submit(ctx, sub)
	if err != nil {
		if _, ok := core.IsValidation(err); !ok {
			logger.ErrorContext(ctx, "Failed to save investment",
				log.FieldOperation, log.OpCreate,
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeStorage)
		}
		s.writeFormError(w, r, sub, err)
		return
	}
	s.appMetrics.created.Add(1)

	body, err := s.render(ctx, "entry_form", s.newFormView())
	if err != nil {
		InternalServerError("Unable to render form").Write(w)
		return
	}
	NewHTMXResponse().
		TriggerRecordsChanged(string(events.KindCreated), inv.ID).
		TriggerFormReset().
		TriggerSuccessNotification("Investment of " + core.FormatINR(inv.Amount) + " saved").
		HTML(body).
		Write(w)
}

func (s *Server) writeFormError(w http.ResponseWriter, r *http.Request, sub core.Submission, err error) {
	status, msg := statusFor(err)
	view := s.newFormView()
	sub.Screenshot = nil
	view.Values = sub
	view.Error = msg
	if ve, ok := core.IsValidation(err); ok {
		view.Field = ve.Field
	}
	s.writeHTML(w, r, status, "entry_form", view)
}

// findRecord looks id up in the current snapshot.
func (s *Server) findRecord(ctx context.Context, id int64) (core.Investment, error) {
	snap, err := s.deps.Records.Load(ctx)
	if err != nil {
		return core.Investment{}, err
	}
	for _, rec := range snap.Records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return core.Investment{}, core.ErrNotFound
}

// handleConfirmDelete swaps a row for its confirm/cancel prompt.
func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	s.renderRow(w, r, "entry_confirm")
}

// handleEntryRow renders a single row, used by the cancel button.
func (s *Server) handleEntryRow(w http.ResponseWriter, r *http.Request) {
	s.renderRow(w, r, "entry_row")
}

func (s *Server) renderRow(w http.ResponseWriter, r *http.Request, name string) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError("Invalid investment id").Write(w)
		return
	}

	ctx, cancel := withStoreTimeout(r.Context())
	defer cancel()

	rec, err := s.findRecord(ctx, id)
	if err != nil {
		status, msg := statusFor(err)
		NewHTMXResponse().Status(status).TriggerErrorNotification(msg).Write(w)
		return
	}
	s.writeHTML(w, r, http.StatusOK, name, rec)
}

// handleDeleteEntry deletes a record once the prompt was confirmed. The
// response body is empty so the row disappears; the list and dashboard
// reload on records:changed.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)

	id, err := ParseID(r)
	if err != nil {
		BadRequestError("Invalid investment id").Write(w)
		return
	}

	confirm, err := formOrBody(r, "confirm")
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	if confirm != "yes" {
		BadRequestError("Deletion was not confirmed").Write(w)
		return
	}

	ctx, cancel := withStoreTimeout(r.Context())
	defer cancel()

	inv, err := s.deps.Investments.Delete(ctx, id)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Failed to delete investment",
				log.FieldOperation, log.OpDelete,
				log.FieldInvestmentID, id,
				log.FieldError, err)
			msg = "Failed to delete investment"
		}
		NewHTMXResponse().Status(status).TriggerErrorNotification(msg).Write(w)
		return
	}
	s.appMetrics.deleted.Add(1)

	NewHTMXResponse().
		TriggerRecordsChanged(string(events.KindDeleted), inv.ID).
		TriggerSuccessNotification("Investment deleted").
		Write(w)
}

// handleScreenshot sends the browser to a signed link for the receipt
// image. HTMX callers get the link in a screenshot:open event instead. A
// missing record or image is a notice, not a page error.
func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError("Invalid investment id").Write(w)
		return
	}

	ctx, cancel := withStoreTimeout(r.Context())
	defer cancel()

	link, err := s.deps.Investments.ScreenshotURL(ctx, id)
	if err != nil {
		level := requestLogger(r).WarnContext
		if !errors.Is(err, core.ErrNotFound) {
			level = requestLogger(r).ErrorContext
		}
		level(ctx, "Unable to load screenshot",
			log.FieldOperation, log.OpSign,
			log.FieldInvestmentID, id,
			log.FieldError, err)

		NotFoundError("Unable to load screenshot").
			TriggerWarningNotification("Unable to load screenshot").
			Write(w)
		return
	}

	if isHTMX(r) {
		NewHTMXResponse().TriggerScreenshotOpen(link).Write(w)
		return
	}
	http.Redirect(w, r, link, http.StatusSeeOther)
}

// handleExport downloads the full record set as CSV. An empty store is a
// no-op answered with 204.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withStoreTimeout(r.Context())
	defer cancel()

	snap, err := s.deps.Records.Load(ctx)
	if err != nil {
		status, msg := statusFor(err)
		requestLogger(r).ErrorContext(ctx, "Export load failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		http.Error(w, msg, status)
		return
	}
	if len(snap.Records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := query.WriteCSV(&buf, snap.Records, s.opts.Location); err != nil {
		requestLogger(r).ErrorContext(ctx, "Export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		http.Error(w, "Failed to export investments", http.StatusInternalServerError)
		return
	}
	s.appMetrics.exports.Add(1)

	name := query.ExportFilename(time.Now().In(s.opts.Location))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
