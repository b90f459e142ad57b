// Package handler contains HTTP request handlers.
//
// Handlers parse the request, call into a controller or service, and write
// the response. They hold no business rules of their own.
package handler

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/user-directory/internal/apperror"
	"github.com/sakif/user-directory/internal/controller"
	"github.com/sakif/user-directory/internal/session"
)

// SessionCookie carries the browser's session ID.
const SessionCookie = "directory_session"

//go:embed templates/*.html
var templateFS embed.FS

// DirectoryHandler is the presentation layer: it renders a session's list
// state as HTML and turns clicks and keystrokes into controller operations.
// It never talks to the user source itself.
type DirectoryHandler struct {
	sessions  *session.Store
	templates *template.Template
	logger    *slog.Logger
}

// NewDirectoryHandler parses the page template once at startup.
func NewDirectoryHandler(sessions *session.Store, logger *slog.Logger) (*DirectoryHandler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &DirectoryHandler{
		sessions:  sessions,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// HandlePage renders the whole page, or only the list region when called
// with ?fragment=list (used by the page script to refresh without losing
// focus in the search box).
func (h *DirectoryHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllerFor(w, r)
	state := ctrl.Snapshot()

	name := "page"
	if r.URL.Query().Get("fragment") == "list" {
		name = "list"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.templates.ExecuteTemplate(w, name, state); err != nil {
		h.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleState returns the session's state as JSON.
func (h *DirectoryHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controllerFor(w, r).Snapshot())
}

type searchRequest struct {
	Q string `json:"q"`
}

// HandleSearch sets the search text. The fetch itself is debounced by the
// controller, so calling this on every keystroke is fine.
func (h *DirectoryHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllerFor(w, r)

	var text string
	if isJSON(r.Header.Get("Content-Type")) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("invalid search JSON", slog.String("error", err.Error()))
			writeError(w, apperror.ValidationFailed("q", "invalid JSON body"))
			return
		}
		text = req.Q
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, apperror.ValidationFailed("q", "invalid form body"))
			return
		}
		text = r.PostForm.Get("q")
	}

	ctrl.SetSearchText(text)
	h.respond(w, r, ctrl)
}

// HandleLoadMore requests the next page. While a fetch is pending the
// request is refused with 409 for API callers; a browser is simply sent
// back to the page, where the button is not shown anyway.
func (h *DirectoryHandler) HandleLoadMore(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllerFor(w, r)

	if err := ctrl.LoadMore(); err != nil {
		h.logger.Debug("load more refused", slog.String("reason", err.Error()))
		if wantsJSON(r) {
			writeError(w, err)
			return
		}
	}
	h.respond(w, r, ctrl)
}

// HandleToggle opens or closes one user's panel.
func (h *DirectoryHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllerFor(w, r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperror.ValidationFailed("id", "user id must be an integer"))
		return
	}

	ctrl.ToggleExpand(id)
	h.respond(w, r, ctrl)
}

// HandleCollapseAll closes every panel.
func (h *DirectoryHandler) HandleCollapseAll(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllerFor(w, r)
	ctrl.CollapseAll()
	h.respond(w, r, ctrl)
}

// controllerFor finds the caller's controller, mounting a new session (and
// setting its cookie) when the request carries none or an expired one.
func (h *DirectoryHandler) controllerFor(w http.ResponseWriter, r *http.Request) *controller.Controller {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	sessionID, ctrl, created := h.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		h.logger.Info("session mounted", slog.String("session", sessionID))
	}
	return ctrl
}

// respond answers a state-changing request: JSON callers get the new
// state, browsers are redirected back to the page (POST/redirect/GET).
func (h *DirectoryHandler) respond(w http.ResponseWriter, r *http.Request, ctrl *controller.Controller) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}
