package generator

import (
	"context"

	"github.com/example/llm-deployer/internal/models"
)

// Client turns a task submission into the files of a small static web app.
// Implementations make a single best-effort call; retrying is the caller's
// decision, not the adapter's.
type Client interface {
	GenerateAppFiles(ctx context.Context, sub *models.TaskSubmission) (models.FileSet, error)
}
