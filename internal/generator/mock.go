package generator

import (
	"context"
	"fmt"

	"github.com/example/llm-deployer/internal/models"
)

// MockClient produces a tiny deterministic site. Opted into with
// USE_MOCK_GENERATOR=1 when no API key is configured, and used by tests.
type MockClient struct{}

func (m *MockClient) GenerateAppFiles(ctx context.Context, sub *models.TaskSubmission) (models.FileSet, error) {
	return models.FileSet{
		{Path: "index.html", Content: fmt.Sprintf("<html><body><h1>%s</h1></body></html>", sub.Task)},
		{Path: "README.md", Content: fmt.Sprintf("# %s\n\nPlaceholder app for round %d.", sub.Task, sub.Round)},
	}, nil
}
