package publisher

import (
	"context"
	"errors"

	"github.com/example/llm-deployer/internal/models"
)

// Publisher writes a generated file set to a remote repository keyed by the
// task identifier and reports where it landed.
type Publisher interface {
	Publish(ctx context.Context, taskID string, files models.FileSet) (*models.PublishResult, error)
}

// ErrConflict marks a failed optimistic-concurrency precondition: the remote
// file changed between our read and our write. The publish is aborted rather
// than merged locally.
var ErrConflict = errors.New("remote content changed concurrently")
