package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	pdfx "github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/example/llm-deployer/internal/models"
)

// AttachmentText is the extracted plain text of one attachment.
type AttachmentText struct {
	Name string
	Text string
}

// AttachmentFetcher downloads task attachments and converts the common
// formats (PDF, HTML, plain text) to text for the generation prompt.
type AttachmentFetcher struct {
	Client   *http.Client
	MaxBytes int64
	MaxPages int
}

func NewAttachmentFetcher() *AttachmentFetcher {
	return &AttachmentFetcher{
		Client:   &http.Client{Timeout: 30 * time.Second},
		MaxBytes: 20 << 20,
		MaxPages: 20,
	}
}

// FetchAll resolves every attachment it can. A failing attachment is logged
// and skipped; enrichment never fails the request.
func (f *AttachmentFetcher) FetchAll(ctx context.Context, atts []models.Attachment) []AttachmentText {
	var out []AttachmentText
	for _, at := range atts {
		text, err := f.fetch(ctx, at)
		if err != nil {
			log.Printf("attachment %q skipped: %v", at.Name, err)
			continue
		}
		if text != "" {
			out = append(out, AttachmentText{Name: at.Name, Text: text})
		}
	}
	return out
}

func (f *AttachmentFetcher) fetch(ctx context.Context, at models.Attachment) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, at.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	lr := io.LimitedReader{R: resp.Body, N: f.MaxBytes + 1}
	buf, err := io.ReadAll(&lr)
	if err != nil {
		return "", err
	}
	if int64(len(buf)) > f.MaxBytes {
		return "", fmt.Errorf("attachment too large: limit %d bytes", f.MaxBytes)
	}
	return f.extract(at, resp.Header.Get("Content-Type"), buf)
}

func (f *AttachmentFetcher) extract(at models.Attachment, ctype string, buf []byte) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(at.Name), "."))

	if strings.HasPrefix(string(buf), "%PDF-") || ext == "pdf" || strings.Contains(ctype, "pdf") {
		return f.pdfText(buf)
	}

	looksHTML := ext == "html" || ext == "htm" || strings.Contains(ctype, "html")
	if !looksHTML {
		s := strings.ToLower(string(buf))
		if strings.Contains(s, "<html") || strings.Contains(s, "<body") {
			looksHTML = true
		}
	}
	if looksHTML {
		return htmlToText(string(buf))
	}

	if ext == "txt" || ext == "md" || ext == "csv" || ext == "json" || ext == "yaml" || ext == "yml" ||
		strings.Contains(ctype, "text/") || strings.Contains(ctype, "json") {
		return strings.TrimSpace(string(buf)), nil
	}
	return "", fmt.Errorf("unsupported attachment type %q", ctype)
}

func (f *AttachmentFetcher) pdfText(buf []byte) (string, error) {
	r, err := pdfx.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return "", err
	}
	pages := r.NumPage()
	if pages > f.MaxPages {
		pages = f.MaxPages
	}
	var out strings.Builder
	for i := 1; i <= pages; i++ {
		txt, _ := r.Page(i).GetPlainText(nil)
		if t := strings.TrimSpace(txt); t != "" {
			out.WriteString(t)
			out.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func htmlToText(htmlStr string) (string, error) {
	node, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	extractText(node, &b, false)
	return strings.TrimSpace(compactWhitespace(b.String())), nil
}

func extractText(n *html.Node, b *strings.Builder, inHidden bool) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			inHidden = true
		case "br", "p", "div", "li", "tr":
			b.WriteString("\n")
		}
	}
	if !inHidden && n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, b, inHidden)
	}
}

func compactWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	lines := strings.Split(s, "\n")
	var out []string
	for _, ln := range lines {
		if ln = strings.Join(strings.Fields(ln), " "); ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
