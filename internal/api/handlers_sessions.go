package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/pagelens/internal/docview"
	"github.com/dgallion1/pagelens/internal/loader"
	"github.com/dgallion1/pagelens/internal/session"
)

var validate = validator.New()

type createSessionRequest struct {
	URL        string `json:"url" validate:"required,url"`
	HTML       string `json:"html,omitempty"`
	Render     bool   `json:"render,omitempty"`
	ReaderMode *bool  `json:"reader_mode,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
}

// handleCreateSession loads a document and starts its summary run. The body
// is either JSON (url plus optional inline html) or a multipart upload.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var (
		doc *docview.HTMLDocument
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		doc, err = s.loadUpload(w, r)
	} else {
		doc, err = s.loadJSON(w, r)
	}
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			code = http.StatusBadRequest
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		jsonError(w, err.Error(), code)
		return
	}

	sess := session.New(session.NewID(), doc, s.deps)
	s.sessions.Put(sess)
	sess.Start(r.Context())
	s.log.Info("session created", "session_id", sess.ID, "url", sess.URL())

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		URL:       sess.URL(),
		Title:     sess.Title(),
	})
}

func (s *Server) loadJSON(w http.ResponseWriter, r *http.Request) (*docview.HTMLDocument, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxDocumentBytes+64*1024)

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	readerMode := s.cfg.ReaderMode
	if req.ReaderMode != nil {
		readerMode = *req.ReaderMode
	}

	switch {
	case req.HTML != "":
		return loader.FromHTML(req.HTML, req.URL, readerMode)
	case req.Render:
		return loader.FromBrowser(r.Context(), req.URL, s.cfg.BrowserTimeout, readerMode)
	default:
		return loader.FromURL(r.Context(), req.URL, loader.FetchOptions{
			Timeout:    s.cfg.FetchTimeout,
			MaxBytes:   s.cfg.MaxDocumentBytes,
			ReaderMode: readerMode,
		})
	}
}

func (s *Server) loadUpload(w http.ResponseWriter, r *http.Request) (*docview.HTMLDocument, error) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxDocumentBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !loader.IsSupportedExtension(filename) {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxDocumentBytes {
		return nil, &http.MaxBytesError{Limit: s.cfg.MaxDocumentBytes}
	}
	return loader.FromFile(bytes.NewReader(data), filename, r.FormValue("url"))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return nil, false
	}
	return sess, true
}

// handleGetSummary is the poller's side-effect-free readiness query.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary())
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var cmd session.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := sess.Dispatch(r.Context(), cmd)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	resp, err := sess.Dispatch(r.Context(), session.Command{Kind: session.KindGetEvents})
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := sess.Render(&buf); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "sessionID")); err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
