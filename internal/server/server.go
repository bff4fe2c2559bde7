package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/FreePeak/inventory-dashboard/internal/inventory"
	"github.com/FreePeak/inventory-dashboard/internal/logger"
	"github.com/FreePeak/inventory-dashboard/pkg/db"
	"github.com/FreePeak/inventory-dashboard/pkg/request"
)

//go:embed templates/dashboard.html
var templates embed.FS

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the inventory dashboard and its JSON API
type Server struct {
	session *inventory.Session
	pinger  Pinger
	page    *template.Template
	router  *mux.Router
}

// NewServer creates a dashboard server for one inventory session
func NewServer(session *inventory.Session, pinger Pinger) (*Server, error) {
	page, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"cell": cellText,
	}).ParseFS(templates, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}

	s := &Server{
		session: session,
		pinger:  pinger,
		page:    page,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler with request logging applied
func (s *Server) Handler() http.Handler {
	return logRequests(s.router)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.UseEncodedPath()

	r.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/inventory", s.handleInventory).Methods(http.MethodGet)
	api.HandleFunc("/inventory/rows", s.handleInsert).Methods(http.MethodPost)
	api.HandleFunc("/inventory/rows/{key}", s.handleEdit).Methods(http.MethodPatch)
	api.HandleFunc("/inventory/rows/{key}", s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/inventory/save", s.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/inventory/discard", s.handleDiscard).Methods(http.MethodPost)
	api.HandleFunc("/inventory/reload", s.handleReload).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/requests/preview", s.handlePreview).Methods(http.MethodPost)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	return r
}

// inventoryView is the body of GET /api/inventory
type inventoryView struct {
	Table     string            `json:"table"`
	KeyColumn string            `json:"keyColumn"`
	Original  inventory.Table   `json:"original"`
	Working   inventory.Table   `json:"working"`
	Pending   inventory.Changes `json:"pending"`
}

// previewView is the body of POST /api/requests/preview
type previewView struct {
	Kind        request.Kind `json:"kind"`
	Query       string       `json:"query"`
	Description string       `json:"description"`
	Args        []any        `json:"args"`
}

func (s *Server) view() (inventoryView, error) {
	original, err := s.session.Original()
	if err != nil {
		return inventoryView{}, err
	}
	working, err := s.session.Snapshot()
	if err != nil {
		return inventoryView{}, err
	}
	pending, err := s.session.Pending()
	if err != nil {
		return inventoryView{}, err
	}
	return inventoryView{
		Table:     s.session.Table(),
		KeyColumn: s.session.KeyColumn(),
		Original:  original,
		Working:   working,
		Pending:   pending,
	}, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v, err := s.view()
	if err != nil && !errors.Is(err, inventory.ErrNotLoaded) {
		writeError(w, err)
		return
	}

	data := struct {
		inventoryView
		Loaded  bool
		History []inventory.HistoryEntry
	}{
		inventoryView: v,
		Loaded:        err == nil,
		History:       s.session.History(),
	}
	if data.Table == "" {
		data.Table = s.session.Table()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		logger.Error("Failed to render dashboard: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	v, err := s.view()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var row inventory.Row
	if err := decodeJSON(r, &row); err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.Insert(row); err != nil {
		writeError(w, err)
		return
	}
	s.handleInventory(w, r)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	key, err := rowKey(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var set inventory.Row
	if err := decodeJSON(r, &set); err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.EditRow(key, set); err != nil {
		writeError(w, err)
		return
	}
	s.handleInventory(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := rowKey(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.Delete(key); err != nil {
		writeError(w, err)
		return
	}
	s.handleInventory(w, r)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	entries, err := s.session.Save(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []inventory.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applied": entries})
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Discard(); err != nil {
		writeError(w, err)
		return
	}
	s.handleInventory(w, r)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reload(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.handleInventory(w, r)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.History())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"statements": db.DefaultTracker.Stats(),
		"slow":       db.DefaultTracker.Slow(),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var params request.Params
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	req, err := request.Build(params)
	if err != nil {
		writeError(w, err)
		return
	}

	args := req.Args()
	if args == nil {
		args = []any{}
	}
	writeJSON(w, http.StatusOK, previewView{
		Kind:        req.Kind(),
		Query:       req.Query(),
		Description: req.Description(),
		Args:        args,
	})
}

var (
	// errBadRequest marks malformed request bodies and paths
	errBadRequest = errors.New("bad request")
	// errTooLarge marks request bodies over maxRequestBody
	errTooLarge = errors.New("request body too large")
)

func rowKey(r *http.Request) (string, error) {
	key, err := url.PathUnescape(mux.Vars(r)["key"])
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return key, nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// statusFor maps an error to the HTTP status reported to the client
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, request.ErrInvalidArguments),
		errors.Is(err, inventory.ErrUnknownColumn),
		errors.Is(err, inventory.ErrMissingKey):
		return http.StatusBadRequest
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, inventory.ErrUnknownRow):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrDuplicateKey),
		errors.Is(err, inventory.ErrNotLoaded):
		return http.StatusConflict
	case errors.Is(err, request.ErrUnimplemented):
		return http.StatusNotImplemented
	case errors.Is(err, db.ErrNoDatabase):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorWithStack(fmt.Errorf("request failed: %w", err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

// cellText renders a cell value for the dashboard table
func cellText(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	return strings.TrimSpace(fmt.Sprint(inventory.Normalize(v)))
}
