package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"storyreel/internal/app"
	"storyreel/internal/datauri"
	"storyreel/internal/llm"
)

const (
	maxRequestBytes = 32 << 20
	shutdownTimeout = 10 * time.Second
)

// Generator is the part of the app pipeline the HTTP API exposes.
type Generator interface {
	Story(ctx context.Context, req llm.StoryRequest) (*app.StoryOutput, error)
	Affiliate(ctx context.Context, req llm.AffiliateRequest) (*app.AffiliateOutput, error)
	Image(ctx context.Context, req llm.ImageRequest) (*app.ImageOutput, error)
	Storyboard(ctx context.Context, story *llm.StoryResult, opts app.StoryboardOptions) (*app.StoryboardOutput, error)
}

type storyboardRequest struct {
	Story            *llm.StoryResult `json:"story"`
	SceneAspectRatio llm.AspectRatio  `json:"sceneAspectRatio"`
	ReferenceImage   string           `json:"referenceImg,omitempty"`
}

type Server struct {
	generator Generator
	router    *mux.Router
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(generator Generator) *Server {
	s := &Server{generator: generator, router: mux.NewRouter()}
	s.router.Use(enableCORS)
	s.RegisterRoutes(s.router)
	return s
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/story", s.handleStory).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/affiliate", s.handleAffiliate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/image", s.handleImage).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/storyboard", s.handleStoryboard).Methods("POST", "OPTIONS")
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	var req llm.StoryRequest
	if !decode(w, r, &req) {
		return
	}
	if req.NumScenes <= 0 {
		writeError(w, http.StatusBadRequest, "numScenes must be positive")
		return
	}

	out, err := s.generator.Story(r.Context(), req)
	if err != nil {
		writeGenerateError(w, "story", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAffiliate(w http.ResponseWriter, r *http.Request) {
	var req llm.AffiliateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.NumScenes <= 0 {
		writeError(w, http.StatusBadRequest, "numScenes must be positive")
		return
	}

	out, err := s.generator.Affiliate(r.Context(), req)
	if err != nil {
		writeGenerateError(w, "affiliate", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	var req llm.ImageRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	out, err := s.generator.Image(r.Context(), req)
	if err != nil {
		writeGenerateError(w, "image", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStoryboard(w http.ResponseWriter, r *http.Request) {
	var req storyboardRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Story == nil || len(req.Story.Scenes) == 0 {
		writeError(w, http.StatusBadRequest, "story with scenes is required")
		return
	}

	out, err := s.generator.Storyboard(r.Context(), req.Story, app.StoryboardOptions{
		SceneAspectRatio: req.SceneAspectRatio,
		ReferenceImage:   req.ReferenceImage,
	})
	if err != nil {
		writeGenerateError(w, "storyboard", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, llm.ErrInvalidAspectRatio), errors.Is(err, datauri.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrIncompleteResponse), errors.Is(err, llm.ErrNoImage):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeGenerateError(w http.ResponseWriter, kind string, err error) {
	status := statusFor(err)
	slog.Error("Generation failed", "kind", kind, "status", status, "error", err)
	writeError(w, status, fmt.Sprintf("%s generation failed: %v", kind, err))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
