package generator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/llm-deployer/internal/models"
)

func TestFetchAllPlainAndHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notes.txt":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("  plain notes  "))
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body><p>hello</p><script>ignored()</script></body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewAttachmentFetcher()
	f.Client = srv.Client()

	texts := f.FetchAll(context.Background(), []models.Attachment{
		{Name: "notes.txt", URL: srv.URL + "/notes.txt"},
		{Name: "page.html", URL: srv.URL + "/page.html"},
	})
	if len(texts) != 2 {
		t.Fatalf("expected 2 attachment texts, got %d", len(texts))
	}
	if texts[0].Text != "plain notes" {
		t.Errorf("plain text not trimmed: %q", texts[0].Text)
	}
	if !strings.Contains(texts[1].Text, "hello") || strings.Contains(texts[1].Text, "ignored") {
		t.Errorf("html extraction wrong: %q", texts[1].Text)
	}
}

func TestFetchAllSkipsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/binary":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte{0x01, 0x02})
		case "/ok.txt":
			w.Write([]byte("still here"))
		}
	}))
	defer srv.Close()

	f := NewAttachmentFetcher()
	f.Client = srv.Client()

	texts := f.FetchAll(context.Background(), []models.Attachment{
		{Name: "missing", URL: srv.URL + "/missing"},
		{Name: "bin", URL: srv.URL + "/binary"},
		{Name: "ok.txt", URL: srv.URL + "/ok.txt"},
	})
	if len(texts) != 1 || texts[0].Text != "still here" {
		t.Fatalf("expected only the good attachment, got %v", texts)
	}
}

func TestFetchRejectsOversized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	f := NewAttachmentFetcher()
	f.Client = srv.Client()
	f.MaxBytes = 16

	if _, err := f.fetch(context.Background(), models.Attachment{Name: "big.txt", URL: srv.URL}); err == nil {
		t.Fatal("expected size-limit error")
	}
}
