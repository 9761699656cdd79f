// Package srv exposes the assembler over HTTP: post Markdown, receive the
// finished PDF.
package srv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/mathgym/comicpdf/book"
	"github.com/mathgym/comicpdf/imagegen"
)

const maxBodyBytes = 1 << 20 // 1 MiB of Markdown is plenty

// Server wraps one shared Assembler behind a chi router.
type Server struct {
	asm    *book.Assembler
	router chi.Router
}

func New(asm *book.Assembler) *Server {
	s := &Server{asm: asm, router: chi.NewRouter()}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(httprate.LimitByIP(10, time.Minute))

	s.router.Get("/health", s.handleHealth)
	s.router.Post("/generate", s.handleGenerate)
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe blocks until ctx is canceled, then drains in-flight
// requests before returning.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Image providers are slow; give a whole document time to finish.
		WriteTimeout: 10 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// handleGenerate accepts Markdown as the raw request body or as the
// "markdown" form field and responds with the rendered PDF attachment.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	text, err := readMarkdown(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	var buf bytes.Buffer
	if err := s.asm.Render(r.Context(), text, "documento "+id[:8], &buf); err != nil {
		log.Printf("request %s: rendering failed: %v", id, err)
		if errors.Is(err, imagegen.ErrAuth) {
			http.Error(w, "image provider rejected credentials", http.StatusBadGateway)
			return
		}
		http.Error(w, "document generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".pdf"))
	if _, err := io.Copy(w, &buf); err != nil {
		log.Printf("request %s: writing response: %v", id, err)
	}
}

func readMarkdown(r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	if ct := r.Header.Get("Content-Type"); ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return "", fmt.Errorf("parsing form: %w", err)
		}
		if text := r.PostFormValue("markdown"); text != "" {
			return text, nil
		}
		return "", errors.New("missing markdown form field")
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", errors.New("empty document")
	}
	return string(data), nil
}
