// Package server exposes the assistant over HTTP with the routes the web
// frontend calls.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/haivivi/cropcare/pkg/assistant"
	"github.com/haivivi/cropcare/pkg/prediction"
	"github.com/haivivi/cropcare/pkg/storage"
)

// DefaultMaxUpload bounds a /predict request body.
const DefaultMaxUpload = 16 << 20

// Audio serves stored speech clips. *speech.Service implements it.
type Audio interface {
	URLPrefix() string
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Config configures New.
type Config struct {
	Assistant *assistant.Service

	// Audio is optional; without it the static audio route is not served.
	Audio Audio

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// MaxUpload defaults to DefaultMaxUpload.
	MaxUpload int64

	Logger *slog.Logger
}

// Server routes HTTP requests to the assistant.
type Server struct {
	assistant *assistant.Service
	audio     Audio
	maxUpload int64
	logger    *slog.Logger
	mux       *http.ServeMux
	handler   http.Handler
}

// New creates a server.
func New(cfg Config) *Server {
	s := &Server{
		assistant: cfg.Assistant,
		audio:     cfg.Audio,
		maxUpload: cfg.MaxUpload,
		logger:    cfg.Logger,
		mux:       http.NewServeMux(),
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUpload
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.setupRoutes(cfg.Metrics)
	s.handler = s.logRequests(cors(s.mux))
	return s
}

func (s *Server) setupRoutes(metrics http.Handler) {
	s.mux.HandleFunc("POST /predict", s.handlePredict)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /disease_info", s.handleDiseaseInfo)
	s.mux.HandleFunc("POST /chatbot", s.handleChatbot)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.audio != nil {
		s.mux.HandleFunc("GET "+strings.TrimRight(s.audio.URLPrefix(), "/")+"/{name}", s.handleAudio)
	}
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

type predictResponse struct {
	Success    bool                  `json:"success"`
	Prediction predictedLabel        `json:"prediction"`
	Treatment  string                `json:"treatment"`
	Record     prediction.Prediction `json:"record"`
	Storage    string                `json:"storage"`
}

type predictedLabel struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read image")
		return
	}

	d, err := s.assistant.ClassifyImage(r.Context(), r.FormValue("user_id"), header.Filename, image)
	switch {
	case errors.Is(err, assistant.ErrNoImage):
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	case errors.Is(err, assistant.ErrClassifierUnavailable):
		writeError(w, http.StatusBadGateway, "Image classification is unavailable, please try again later")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "predict failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	record := d.Prediction
	record.ImageBase64 = ""
	writeJSON(w, http.StatusOK, predictResponse{
		Success:    true,
		Prediction: predictedLabel{Name: d.Label, Value: d.Confidence},
		Treatment:  d.Treatment,
		Record:     record,
		Storage:    d.StorageTier,
	})
}

type historyResponse struct {
	Success     bool                    `json:"success"`
	Predictions []prediction.Prediction `json:"predictions"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	preds := s.assistant.History(r.Context(), r.URL.Query().Get("user_id"))
	if preds == nil {
		preds = []prediction.Prediction{}
	}
	for i := range preds {
		preds[i].ImageBase64 = ""
	}
	writeJSON(w, http.StatusOK, historyResponse{Success: true, Predictions: preds})
}

func (s *Server) handleDiseaseInfo(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.URL.Query().Get("disease"))
	if ref == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"diseases": s.assistant.Diseases(),
		})
		return
	}
	e, err := s.assistant.DiseaseInfo(ref)
	if err != nil {
		writeError(w, http.StatusNotFound, "Disease not found: "+ref)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "disease": e})
}

type chatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

type chatResponse struct {
	Success  bool    `json:"success"`
	Response string  `json:"response"`
	AudioURL *string `json:"audioUrl"`
	Provider string  `json:"provider"`
}

func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	turn := s.assistant.Converse(r.Context(), req.Message, req.Language)
	resp := chatResponse{Success: true, Response: turn.Response, Provider: turn.Provider}
	if turn.AudioURL != "" {
		resp.AudioURL = &turn.AudioURL
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := storage.CheckName(name); err != nil {
		http.Error(w, "invalid name", http.StatusBadRequest)
		return
	}
	rc, err := s.audio.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.logger.ErrorContext(r.Context(), "open audio", "name", name, "error", err)
		http.Error(w, "audio unavailable", http.StatusInternalServerError)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	io.Copy(w, rc)
}

// cors allows any origin, as the frontend is served separately.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.DebugContext(r.Context(), "http",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
	})
}
