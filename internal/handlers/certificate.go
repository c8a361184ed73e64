// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the certificate page.
// Every handler works on the visitor's form, loaded from and saved back to
// the session store, and answers HTMX requests with template fragments.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"ewed/internal/certificate"
	"ewed/internal/export"
	"ewed/internal/media"
	"ewed/internal/middleware"
	"ewed/internal/persona"
	"ewed/internal/render"
)

// FormStore keeps one form per session and serializes generations.
// Update must be an atomic read-modify-write: concurrent requests of one
// visitor never overwrite each other's changes. *session.Store satisfies it.
type FormStore interface {
	Load(ctx context.Context, id string) (certificate.Form, bool, error)
	Update(ctx context.Context, id string, fn func(form certificate.Form, found bool) (certificate.Form, error)) error
	Lock(ctx context.Context, id string) (func(), error)
}

// Releaser deletes a published image that is no longer referenced.
// References it does not own must be ignored. *storage.Client satisfies it.
type Releaser interface {
	Release(ctx context.Context, ref string) error
}

// Certificate groups the handlers of the certificate page.
type Certificate struct {
	renderer     *render.Renderer
	forms        FormStore
	orchestrator *certificate.Orchestrator
	exporter     *export.Exporter
	publisher    media.Publisher
	releaser     Releaser
	persona      *persona.Persona
}

// NewCertificate creates the certificate handler group. releaser may be nil
// when no object storage is configured.
func NewCertificate(
	renderer *render.Renderer,
	forms FormStore,
	orchestrator *certificate.Orchestrator,
	exporter *export.Exporter,
	publisher media.Publisher,
	releaser Releaser,
	p *persona.Persona,
) *Certificate {
	return &Certificate{
		renderer:     renderer,
		forms:        forms,
		orchestrator: orchestrator,
		exporter:     exporter,
		publisher:    publisher,
		releaser:     releaser,
		persona:      p,
	}
}

// Index renders the full page with the visitor's current form.
func (h *Certificate) Index(w http.ResponseWriter, r *http.Request) {
	form, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderer.Page(w, r, "index", h.pageData(form))
}

// Fields applies text field edits and re-renders the preview. The controls
// are swapped out of band because an edit can clear the generated state.
func (h *Certificate) Fields(w http.ResponseWriter, r *http.Request) {
	form, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.fragment(w, r, http.StatusBadRequest, form, "Invalid form data.", "preview", "controls")
		return
	}

	edit := applyEditDefaults(parseEdit(r))
	if msg := validateEdit(edit); msg != "" {
		h.fragment(w, r, http.StatusUnprocessableEntity, form, msg, "preview", "controls")
		return
	}

	// Names feed the running generation, so edits wait for it to finish.
	err := h.update(r.Context(), func(f certificate.Form) (certificate.Form, error) {
		form = f
		if f.IsLoading() {
			return f, certificate.ErrInFlight
		}
		form = f.Edit(edit)
		return form, nil
	})
	if errors.Is(err, certificate.ErrInFlight) {
		h.fragment(w, r, http.StatusConflict, form, certificate.MsgInFlight, "preview", "controls")
		return
	}
	if err != nil {
		slog.Error("save form failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.fragment(w, r, http.StatusOK, form, "", "preview", "controls")
}

// Photo ingests an uploaded photo and makes it the user's portrait. The
// photo is independent of the generated fields, so it is accepted while a
// generation runs and survives its outcome.
func (h *Certificate) Photo(w http.ResponseWriter, r *http.Request) {
	form, ok := h.load(w, r)
	if !ok {
		return
	}

	// Limit request body to MaxUploadSize + some overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+1024)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fragment(w, r, http.StatusRequestEntityTooLarge, form, media.UserMessage(media.ErrTooLarge), "workspace")
			return
		}
		h.fragment(w, r, http.StatusBadRequest, form, "No photo provided.", "workspace")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		h.fragment(w, r, http.StatusBadRequest, form, "No photo provided.", "workspace")
		return
	}
	defer file.Close()

	photo, err := media.Ingest(file)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, media.ErrTooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, media.ErrUnsupportedImage):
			status = http.StatusUnsupportedMediaType
		}
		slog.Warn("photo rejected", "error", err)
		h.fragment(w, r, status, form, media.UserMessage(err), "workspace")
		return
	}

	ref, err := h.publisher.Publish(r.Context(), photo.Data, photo.ContentType, "photos", form.Record.UserName)
	if err != nil {
		slog.Error("publish photo failed", "error", err)
		h.fragment(w, r, http.StatusBadGateway, form, "Failed to store the photo. Please try again.", "workspace")
		return
	}

	// The form may have changed while the photo was published.
	var previous string
	err = h.update(r.Context(), func(f certificate.Form) (certificate.Form, error) {
		previous = f.Record.UserPhoto
		form = f.WithUserPhoto(ref)
		return form, nil
	})
	if err != nil {
		slog.Error("save form failed", "error", err)
		h.release(context.WithoutCancel(r.Context()), ref)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if previous != ref {
		h.release(r.Context(), previous)
	}

	h.fragment(w, r, http.StatusOK, form, "", "workspace")
}

// Generate runs one generation cycle. The loading snapshot is saved before
// the generators are called so a reload shows the progress state, and the
// per-session lock rejects a second submit while one is running. The
// outcome is settled onto the form as stored at the end, keeping a photo
// uploaded in the meantime.
func (h *Certificate) Generate(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionIDFromCtx(r.Context())

	unlock, err := h.forms.Lock(r.Context(), id)
	if errors.Is(err, certificate.ErrInFlight) {
		form, ok := h.load(w, r)
		if !ok {
			return
		}
		h.fragment(w, r, http.StatusConflict, form, certificate.MsgInFlight, "workspace")
		return
	}
	if err != nil {
		slog.Error("generation lock failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer unlock()

	var snapshot, loading certificate.Form
	var invalid error
	err = h.update(r.Context(), func(f certificate.Form) (certificate.Form, error) {
		snapshot = f
		loading, invalid = h.orchestrator.Begin(f)
		return loading, nil
	})
	if err != nil {
		slog.Error("save form failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if invalid != nil {
		h.fragment(w, r, http.StatusUnprocessableEntity, loading, "", "workspace")
		return
	}

	result, err := h.orchestrator.Submit(r.Context(), snapshot)

	// The visitor may have gone away; the outcome is still recorded.
	ctx := context.WithoutCancel(r.Context())
	var settled certificate.Form
	saveErr := h.update(ctx, func(f certificate.Form) (certificate.Form, error) {
		settled = f.Settle(result)
		return settled, nil
	})
	if saveErr != nil {
		slog.Error("save form failed", "error", saveErr)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err != nil {
		h.fragment(w, r, http.StatusBadGateway, settled, "", "workspace")
		return
	}

	if previous := snapshot.Record.CelebrityPhoto; previous != settled.Record.CelebrityPhoto {
		h.release(ctx, previous)
	}
	h.fragment(w, r, http.StatusOK, settled, "", "workspace")
}

// Reset discards the visitor's form ("Start Over"). It takes the
// generation lock, so it also clears a loading state left behind by a
// generation that never finished.
func (h *Certificate) Reset(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionIDFromCtx(r.Context())

	unlock, err := h.forms.Lock(r.Context(), id)
	if errors.Is(err, certificate.ErrInFlight) {
		form, ok := h.load(w, r)
		if !ok {
			return
		}
		h.fragment(w, r, http.StatusConflict, form, certificate.MsgInFlight, "workspace")
		return
	}
	if err != nil {
		slog.Error("reset lock failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer unlock()

	var old, fresh certificate.Form
	err = h.update(r.Context(), func(f certificate.Form) (certificate.Form, error) {
		old = f
		fresh = f.Reset(h.persona.DefaultStatement)
		return fresh, nil
	})
	if err != nil {
		slog.Error("reset form failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.release(r.Context(), old.Record.UserPhoto)
	h.release(r.Context(), old.Record.CelebrityPhoto)

	h.fragment(w, r, http.StatusOK, fresh, "", "workspace")
}

// Export sends the certificate as a PNG download.
func (h *Certificate) Export(w http.ResponseWriter, r *http.Request) {
	form, ok := h.load(w, r)
	if !ok {
		return
	}
	if form.IsLoading() {
		http.Error(w, certificate.MsgInFlight, http.StatusConflict)
		return
	}

	png, err := h.exporter.Export(r.Context(), form.Record)
	if errors.Is(err, export.ErrNoRasterizer) {
		http.Error(w, "Image export is not available on this server. Use Print instead.", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		slog.Error("export failed", "error", err, "number", form.Record.Number)
		http.Error(w, export.MsgExportFailed, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// Print serves the printable certificate view.
func (h *Certificate) Print(w http.ResponseWriter, r *http.Request) {
	form, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderer.PrintView(w, r, form.Record)
}

// load returns the visitor's form, or a fresh one when nothing is stored.
// On failure it writes the error response and returns false.
func (h *Certificate) load(w http.ResponseWriter, r *http.Request) (certificate.Form, bool) {
	id := middleware.SessionIDFromCtx(r.Context())
	form, found, err := h.forms.Load(r.Context(), id)
	if err != nil {
		slog.Error("load form failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return certificate.Form{}, false
	}
	if !found {
		form = certificate.NewForm(h.persona.DefaultStatement)
	}
	return form, true
}

// update applies fn to the visitor's stored form as one atomic
// read-modify-write. fn sees a fresh form when nothing is stored and may
// run more than once.
func (h *Certificate) update(ctx context.Context, fn func(certificate.Form) (certificate.Form, error)) error {
	id := middleware.SessionIDFromCtx(ctx)
	return h.forms.Update(ctx, id, func(form certificate.Form, found bool) (certificate.Form, error) {
		if !found {
			form = certificate.NewForm(h.persona.DefaultStatement)
		}
		return fn(form)
	})
}

// release drops a replaced image from object storage. Failures only leak
// an object, so they are logged and otherwise ignored.
func (h *Certificate) release(ctx context.Context, ref string) {
	if h.releaser == nil || ref == "" {
		return
	}
	if err := h.releaser.Release(ctx, ref); err != nil {
		slog.Warn("release image failed", "error", err)
	}
}

// fragment renders blocks of the page for form. A non-empty flash message
// is shown as an error without being stored in the form.
func (h *Certificate) fragment(w http.ResponseWriter, r *http.Request, status int, form certificate.Form, flash string, blocks ...string) {
	data := h.pageData(form)
	if flash != "" {
		data.Flashes = append(data.Flashes, render.Flash{Type: "error", Message: flash})
	}
	// A leading preview means the controls travel out of band.
	data.Oob = len(blocks) > 1
	h.renderer.Fragment(w, r, status, data, blocks...)
}

// pageData builds the template data shared by every view.
func (h *Certificate) pageData(form certificate.Form) *render.PageData {
	return &render.PageData{
		Form:       form,
		Persona:    h.persona,
		Options:    h.orchestrator.Options(),
		Exportable: h.exporter.Available(),
	}
}
