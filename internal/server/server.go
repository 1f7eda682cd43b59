package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"mailsnap/internal/app"
	"mailsnap/internal/pagination"
	"mailsnap/internal/ratelimit"
	"mailsnap/internal/util"
	"mailsnap/pkg/domain"
	"mailsnap/pkg/store"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	MaxUploadBytes int64
	UploadLimiter  *ratelimit.Limiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes the upload and mailbox query endpoints.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	maxUploadBytes int64
	uploadLimiter  *ratelimit.Limiter
	trustedProxies *util.TrustedProxies
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
		uploadLimiter:  cfg.UploadLimiter,
		trustedProxies: cfg.TrustedProxies,
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("mailsnap", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// ingestion
	s.mux.HandleFunc("/api/v1/upload/debug", s.handleUploadDebug)
	s.mux.HandleFunc("/api/v1/upload/sessions/", s.handleSession)

	// mailbox read side
	s.mux.HandleFunc("/pub/v3/messages", s.handleMessages)
	s.mux.HandleFunc("/pub/v3/messages/", s.handleMessageByID)
	s.mux.HandleFunc("/pub/v1/messageFolders", s.handleFolders)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUploadDebug ingests a multipart batch of snapshot files. The
// response status reflects the batch outcome: 200 when the batch completed,
// 206 when every file failed, 500 when processing itself broke.
func (s *Server) handleUploadDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.uploadLimiter != nil {
		ip := util.ClientIP(r, s.trustedProxies)
		if !s.uploadLimiter.Allow(ip) {
			writeError(w, http.StatusTooManyRequests, "too many uploads")
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	files := make([]app.UploadedFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file: "+h.Filename)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file: "+h.Filename)
			return
		}
		files = append(files, app.UploadedFile{Name: h.Filename, Data: data})
	}

	uploadedBy := strings.TrimSpace(r.FormValue("userId"))
	notes := strings.TrimSpace(r.FormValue("notes"))

	result := s.app.IngestBatch(r.Context(), files, uploadedBy, notes)
	writeJSON(w, uploadStatusCode(result.Status), result)
}

func uploadStatusCode(status domain.BatchStatus) int {
	switch status {
	case domain.BatchFailed:
		return http.StatusPartialContent
	case domain.BatchError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token := strings.TrimPrefix(r.URL.Path, "/api/v1/upload/sessions/")
	if token == "" || strings.Contains(token, "/") {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	sess, found, err := s.app.GetSession(token)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("get session failed", "token", token, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	params := pagination.FromQuery(r.URL.Query())
	var folderID *int64
	if raw := r.URL.Query().Get("folder"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid folder id")
			return
		}
		folderID = &id
	}
	page, err := s.app.Messages(params, folderID)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("list messages failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleMessageByID serves /pub/v3/messages/{id} plus the read-flag
// subresources /pub/v3/messages/{id}/read and /unread.
func (s *Server) handleMessageByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/pub/v3/messages/")
	idPart, action, _ := strings.Cut(rest, "/")
	messageID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getMessage(w, r, messageID)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteMessage(w, r, messageID)
	case action == "read" && r.Method == http.MethodPut:
		s.setMessageRead(w, r, messageID, true)
	case action == "unread" && r.Method == http.MethodPut:
		s.setMessageRead(w, r, messageID, false)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) getMessage(w http.ResponseWriter, r *http.Request, messageID int64) {
	msg, err := s.app.Message(messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		util.LoggerFromContext(r.Context()).Error("get message failed", "id", messageID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request, messageID int64) {
	if err := s.app.DeleteMessage(messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		util.LoggerFromContext(r.Context()).Error("delete message failed", "id", messageID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) setMessageRead(w http.ResponseWriter, r *http.Request, messageID int64, read bool) {
	if err := s.app.SetMessageRead(messageID, read); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		util.LoggerFromContext(r.Context()).Error("set message read failed", "id", messageID, "read", read, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	includeCounts := strings.EqualFold(r.URL.Query().Get("includeFolderCounts"), "true")
	folders, err := s.app.Folders(includeCounts)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("list folders failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "message not found":
		return "MESSAGE_NOT_FOUND"
	case message == "session not found":
		return "SESSION_NOT_FOUND"
	case message == "too many uploads":
		return "UPLOAD_RATE_LIMITED"
	case message == "at least one file is required":
		return "UPLOAD_FILE_REQUIRED"
	case message == "invalid multipart form", strings.HasPrefix(message, "unreadable file"):
		return "UPLOAD_INVALID_FORM"
	case status == http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case status == http.StatusBadRequest:
		return "BAD_REQUEST"
	case status >= 500:
		return "SYSTEM_INTERNAL_ERROR"
	default:
		return "REQUEST_FAILED"
	}
}
