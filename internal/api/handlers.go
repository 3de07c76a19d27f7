package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/annolab/vidmark/internal/app/completion"
	"github.com/annolab/vidmark/internal/domain/navigation"
	"github.com/annolab/vidmark/internal/domain/render"
	"github.com/annolab/vidmark/internal/domain/stimulus"
	"github.com/annolab/vidmark/internal/domain/task"
	"github.com/annolab/vidmark/internal/infra/storage/resultstore"
)

const annotatorCookie = "annotator"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	names := s.svc.Tasks().Names()
	if len(names) == 0 {
		http.Error(w, "no tasks configured", http.StatusNotFound)
		return
	}

	s.redirectToStart(w, r, names[0])
}

func (s *Server) handleTaskStart(w http.ResponseWriter, r *http.Request) {
	s.redirectToStart(w, r, chi.URLParam(r, "task"))
}

func (s *Server) redirectToStart(w http.ResponseWriter, r *http.Request, taskName string) {
	id, ok, err := s.svc.FirstValid(taskName)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !ok {
		// Every stimulus excluded; nothing to annotate.
		http.Redirect(w, r, "/thanks", http.StatusFound)
		return
	}

	http.Redirect(w, r, stimulusURL(taskName, id), http.StatusFound)
}

// annotatePage is the view model for the annotation template.
type annotatePage struct {
	Task      *task.Task
	StimID    stimulus.ID
	Progress  string
	Annotator string
	Items     []renderedItem
}

type renderedItem struct {
	IsImage bool
	B64     string
	Text    string
}

func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskName := chi.URLParam(r, "task")

	t, err := s.svc.Task(taskName)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	requested := stimulus.Normalize(chi.URLParam(r, "stimID"))
	if !t.Sequence.Contains(requested) {
		http.NotFound(w, r)
		return
	}

	// Excluded stimuli are never presented, even when requested directly;
	// redirect forward to the next valid one.
	resolved, ok, err := s.svc.Resolve(taskName, requested)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !ok {
		http.Redirect(w, r, "/thanks", http.StatusFound)
		return
	}
	if resolved != requested {
		http.Redirect(w, r, stimulusURL(taskName, resolved), http.StatusFound)
		return
	}

	var items []renderedItem
	if ref, found := t.Ref(resolved); found {
		renderables, renderErr := s.renderers[taskName].Render(ctx, ref)
		if renderErr != nil {
			// The page still renders; the annotator sees an empty stimulus
			// rather than an error page.
			s.logger.Error(ctx, "rendering stimulus failed",
				"task", taskName, "stimulus_id", resolved, "error", renderErr)
		}
		items = toRenderedItems(renderables)
	}

	progress, err := s.svc.Progress(taskName, resolved)
	if err != nil {
		progress = ""
	}

	annotator := ""
	if c, cookieErr := r.Cookie(annotatorCookie); cookieErr == nil {
		annotator = c.Value
	}

	page := annotatePage{
		Task:      t,
		StimID:    resolved,
		Progress:  progress,
		Annotator: annotator,
		Items:     items,
	}

	if err := s.tmpl.ExecuteTemplate(w, "annotate.html", page); err != nil {
		s.logger.Error(ctx, "executing annotate template", "error", err)
	}
}

func toRenderedItems(renderables []render.Renderable) []renderedItem {
	items := make([]renderedItem, 0, len(renderables))
	for _, rb := range renderables {
		switch rb.Kind {
		case render.KindImage:
			items = append(items, renderedItem{
				IsImage: true,
				B64:     base64.StdEncoding.EncodeToString(rb.Data),
			})
		case render.KindText:
			items = append(items, renderedItem{Text: rb.Text})
		}
	}
	return items
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskName := chi.URLParam(r, "task")
	stimID := stimulus.Normalize(chi.URLParam(r, "stimID"))

	t, err := s.svc.Task(taskName)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	annotator := strings.TrimSpace(r.PostForm.Get("annotator"))
	if annotator == "" {
		s.metrics.IncSubmissionErrors(ctx, "missing_annotator")
		http.Error(w, "annotator name required", http.StatusBadRequest)
		return
	}

	values := make(map[string]string, len(t.Fields))
	for _, field := range t.Fields {
		var value string
		if field.Kind == task.MultiChoice {
			value = strings.Join(r.PostForm[field.Label], ";")
		} else {
			value = strings.TrimSpace(r.PostForm.Get(field.Label))
		}

		if field.Required && value == "" {
			s.metrics.IncSubmissionErrors(ctx, "missing_field")
			http.Error(w, fmt.Sprintf("missing required field: %s", field.Label), http.StatusBadRequest)
			return
		}

		values[field.Label] = value
	}

	rec := resultstore.Record{
		Annotator:   annotator,
		StimulusID:  stimID,
		RecordID:    uuid.NewString(),
		SubmittedAt: time.Now(),
		Values:      values,
		Notes:       r.PostForm.Get("notes"),
		Unsure:      r.PostForm.Get("unsure") == "on",
	}

	if err := s.store.Append(ctx, t, rec); err != nil {
		s.metrics.IncSubmissionErrors(ctx, "store_append")
		s.logger.Error(ctx, "appending record failed",
			"task", taskName, "annotator", annotator, "error", err)
		http.Error(w, "failed to record annotation", http.StatusInternalServerError)
		return
	}
	s.metrics.IncSubmissionsTotal(ctx, taskName)

	dir := navigation.Forward
	if _, back := r.PostForm["prev"]; back {
		dir = navigation.Backward
	}

	res, err := s.svc.Step(taskName, stimID, dir)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	setAnnotatorCookie(w, annotator)

	switch res.Outcome {
	case navigation.Found, navigation.StayOnCurrent:
		http.Redirect(w, r, stimulusURL(taskName, res.ID), http.StatusSeeOther)
	case navigation.NotFound:
		if dir == navigation.Backward {
			// Not even the current stimulus is presentable anymore.
			http.Redirect(w, r, "/"+taskName, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/thanks?annotator="+annotator, http.StatusSeeOther)
	}
}

func (s *Server) handleUnfilled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskName := chi.URLParam(r, "task")
	from := stimulus.Normalize(chi.URLParam(r, "stimID"))
	scope := completion.ParseScope(r.URL.Query().Get("scope"))

	annotator := r.URL.Query().Get("annotator")
	if annotator == "" {
		if c, err := r.Cookie(annotatorCookie); err == nil {
			annotator = c.Value
		}
	}

	id, ok, err := s.svc.NextUnfilled(ctx, taskName, from, scope, annotator)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error(ctx, "next unfilled query failed", "task", taskName, "error", err)
		http.Error(w, "navigation failed", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Redirect(w, r, "/thanks?annotator="+annotator, http.StatusFound)
		return
	}

	http.Redirect(w, r, stimulusURL(taskName, id), http.StatusFound)
}

func (s *Server) handleThanks(w http.ResponseWriter, r *http.Request) {
	annotator := r.URL.Query().Get("annotator")
	if annotator == "" {
		annotator = "Anonymous"
	}

	if err := s.tmpl.ExecuteTemplate(w, "thanks.html", struct{ Annotator string }{annotator}); err != nil {
		s.logger.Error(r.Context(), "executing thanks template", "error", err)
	}
}

func setAnnotatorCookie(w http.ResponseWriter, annotator string) {
	http.SetCookie(w, &http.Cookie{
		Name:  annotatorCookie,
		Value: annotator,
		Path:  "/",
	})
}

func stimulusURL(taskName string, id stimulus.ID) string {
	return "/" + taskName + "/" + string(id)
}
