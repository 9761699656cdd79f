package srv

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mathgym/comicpdf/book"
	"github.com/mathgym/comicpdf/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	asm, err := book.New(config.Config{
		Provider:    "placeholder",
		Refiner:     "heuristic",
		CacheDir:    t.TempDir(),
		MaxImages:   3,
		ImageWidth:  64,
		ImageHeight: 48,
		Retry: config.Retry{
			Attempts:  1,
			BaseDelay: time.Millisecond,
			MaxDelay:  time.Millisecond,
			Jitter:    time.Millisecond,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(asm)
}

func TestHealth(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestGenerateFromRawBody(t *testing.T) {
	s := testServer(t)
	body := "# Título\n\nUn párrafo que describe la escena del mercado del pueblo."
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type: got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Error("response is not a PDF")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".pdf") {
		t.Errorf("content disposition: got %q", cd)
	}
}

func TestGenerateFromForm(t *testing.T) {
	s := testServer(t)
	form := url.Values{"markdown": {"# Forma\n\nTexto enviado por formulario."}}
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateRejectsEmptyBody(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("   \n"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
}
