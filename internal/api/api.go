// Package api exposes the sync engine over HTTP.
//
// The surface is deliberately small: link/unlink a page to a flow, push
// and pull, and read-only inspection of pages and flows. Structured error
// codes from pkg/errors map onto HTTP statuses so clients can branch on
// the code without parsing messages.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adnumaro/storyarn/pkg/errors"
	"github.com/adnumaro/storyarn/pkg/export/dot"
	"github.com/adnumaro/storyarn/pkg/flowlock"
	"github.com/adnumaro/storyarn/pkg/store"
	"github.com/adnumaro/storyarn/pkg/syncer"
)

// Server bundles the handlers' dependencies.
type Server struct {
	store  store.Store
	sync   *syncer.Syncer
	locker flowlock.Locker
	log    *log.Logger
}

// New returns a Server. A nil locker falls back to an in-process one and
// a nil logger to a silent one.
func New(st store.Store, sy *syncer.Syncer, locker flowlock.Locker, logger *log.Logger) *Server {
	if locker == nil {
		locker = flowlock.NewLocal()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{store: st, sync: sy, locker: locker, log: logger}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/pages/{pageID}", func(r chi.Router) {
		r.Get("/", s.handleGetPage)
		r.Get("/elements", s.handleGetElements)
		r.Post("/link", s.handleLink)
		r.Post("/unlink", s.handleUnlink)
		r.Post("/sync/push", s.handlePush)
		r.Post("/sync/pull", s.handlePull)
	})

	r.Route("/flows/{flowID}", func(r chi.Router) {
		r.Get("/", s.handleGetFlow)
		r.Get("/export.dot", s.handleExportDOT)
		r.Get("/export.svg", s.handleExportSVG)
	})

	return r
}

// =============================================================================
// Page handlers
// =============================================================================

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.store.Page(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetElements(w http.ResponseWriter, r *http.Request) {
	elements, err := s.store.Elements(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, elements)
}

type linkRequest struct {
	FlowID string `json:"flow_id"`
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if req.FlowID == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "flow_id is required"))
		return
	}
	if err := s.sync.LinkToFlow(r.Context(), chi.URLParam(r, "pageID"), req.FlowID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "linked", "flow_id": req.FlowID})
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.UnlinkFlow(r.Context(), chi.URLParam(r, "pageID")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "unlinked"})
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	res, err := s.withFlowLock(r, pageID, func() (any, error) {
		return s.sync.Push(r.Context(), pageID)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	res, err := s.withFlowLock(r, pageID, func() (any, error) {
		return s.sync.Pull(r.Context(), pageID)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// withFlowLock serializes push/pull per flow. Pages without a linked flow
// skip locking: push creates the flow itself and pull fails NOT_LINKED
// either way.
func (s *Server) withFlowLock(r *http.Request, pageID string, fn func() (any, error)) (any, error) {
	page, err := s.store.Page(r.Context(), pageID)
	if err != nil {
		return nil, err
	}
	if page.LinkedFlowID == "" {
		return fn()
	}

	release, err := s.locker.Acquire(r.Context(), page.LinkedFlowID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(r.Context()); err != nil {
			s.log.Warn("release flow lock", "flow", page.LinkedFlowID, "err", err)
		}
	}()
	return fn()
}

// =============================================================================
// Flow handlers
// =============================================================================

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")
	f, err := s.store.Flow(r.Context(), flowID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	nodes, err := s.store.Nodes(r.Context(), flowID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	conns, err := s.store.Connections(r.Context(), flowID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"flow":        f,
		"nodes":       nodes,
		"connections": conns,
	})
}

func (s *Server) flowDOT(r *http.Request) (string, error) {
	flowID := chi.URLParam(r, "flowID")
	if _, err := s.store.Flow(r.Context(), flowID); err != nil {
		return "", err
	}
	nodes, err := s.store.Nodes(r.Context(), flowID)
	if err != nil {
		return "", err
	}
	conns, err := s.store.Connections(r.Context(), flowID)
	if err != nil {
		return "", err
	}
	detailed := r.URL.Query().Get("detailed") == "true"
	return dot.ToDOT(nodes, conns, dot.Options{Detailed: detailed}), nil
}

func (s *Server) handleExportDOT(w http.ResponseWriter, r *http.Request) {
	out, err := s.flowDOT(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.Write([]byte(out))
}

func (s *Server) handleExportSVG(w http.ResponseWriter, r *http.Request) {
	out, err := s.flowDOT(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	svg, err := dot.RenderSVG(r.Context(), out)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render flow"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// =============================================================================
// Response helpers
// =============================================================================

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps structured error codes onto HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodePageNotFound, errors.ErrCodeFlowNotFound,
		errors.ErrCodeElementNotFound, errors.ErrCodeNodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidGroup, errors.ErrCodeInvalidNodeType:
		return http.StatusBadRequest
	case errors.ErrCodeNotLinked, errors.ErrCodeNoEntryNode:
		return http.StatusConflict
	case errors.ErrCodeFlowLocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= 500 {
		s.log.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{
		Code:    string(code),
		Message: errors.UserMessage(err),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "err", err)
	}
}
