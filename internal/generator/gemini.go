package generator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/example/llm-deployer/internal/models"
)

// Gemini generates app files with the Gemini API.
type Gemini struct {
	model       *genai.GenerativeModel
	client      *genai.Client
	attachments *AttachmentFetcher
}

// NewGemini builds a Gemini-backed generator. It fails when no API key is
// configured; the server still starts and reports the endpoint unavailable.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	m := c.GenerativeModel(modelName)
	m.ResponseMIMEType = "application/json"
	return &Gemini{model: m, client: c, attachments: NewAttachmentFetcher()}, nil
}

func (g *Gemini) GenerateAppFiles(ctx context.Context, sub *models.TaskSubmission) (models.FileSet, error) {
	texts := g.attachments.FetchAll(ctx, sub.Attachments)
	prompt := buildAppPrompt(sub, texts)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	raw := firstText(resp)
	files, err := ParseFileSet(raw)
	if err != nil {
		return nil, fmt.Errorf("parse generated files: %w", err)
	}
	log.Printf("generator: produced %d files for task %q", len(files), sub.Task)
	return files, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error { return g.client.Close() }

func firstText(r *genai.GenerateContentResponse) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
