package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/llm-deployer/internal/generator"
	"github.com/example/llm-deployer/internal/models"
	"github.com/example/llm-deployer/internal/publisher"
)

// Notifier is the callback delivery dependency. Implementations never return
// an error; delivery failure must not change the synchronous response.
type Notifier interface {
	Notify(ctx context.Context, url string, payload *models.CallbackPayload)
}

// Orchestrator drives one submission through generation, publish and
// callback. Dependencies are set once at startup and read-only afterwards,
// so a single instance serves concurrent requests. A nil Generator or
// Publisher marks that dependency as failed-to-initialize: the process still
// serves health checks and answers 503 on task submissions.
type Orchestrator struct {
	Generator generator.Client
	Publisher publisher.Publisher
	Notifier  Notifier

	secrets []string
}

func New(gen generator.Client, pub publisher.Publisher, not Notifier, secrets []string) *Orchestrator {
	return &Orchestrator{
		Generator: gen,
		Publisher: pub,
		Notifier:  not,
		secrets:   secrets,
	}
}

// Handle runs the full pipeline for one validated submission and builds the
// synchronous acknowledgement. Callback delivery is best-effort: its failure
// is logged by the notifier and never alters the response.
func (o *Orchestrator) Handle(ctx context.Context, sub *models.TaskSubmission) (*models.TaskAck, *Error) {
	if err := o.authorize(sub.Secret); err != nil {
		return nil, err
	}
	if o.Generator == nil {
		return nil, unavailable("LLM not initialized on server")
	}
	if o.Publisher == nil {
		return nil, unavailable("GitHub publisher not initialized on server")
	}

	log.Printf("processing task %q round %d", sub.Task, sub.Round)
	start := time.Now()

	files, err := o.Generator.GenerateAppFiles(ctx, sub)
	if err != nil {
		return nil, internal("Failed to process request", err)
	}
	if len(files) == 0 {
		return nil, internal("LLM failed to generate any files", nil)
	}

	taskID := sub.TaskID()
	res, err := o.Publisher.Publish(ctx, taskID, files)
	if err != nil {
		return nil, internal("Failed to process request", err)
	}

	finalURL := res.PagesURL
	if finalURL == "" {
		finalURL = res.RepoURL
	}

	o.Notifier.Notify(ctx, sub.EvaluationURL, &models.CallbackPayload{
		Email:     sub.Email,
		Task:      sub.Task,
		Round:     sub.Round,
		Nonce:     sub.Nonce,
		RepoURL:   res.RepoURL,
		CommitSHA: res.CommitSHA,
		PagesURL:  res.PagesURL,
	})

	return &models.TaskAck{
		Status:        "success",
		Message:       fmt.Sprintf("Code generated and deployed successfully to new repository: %s", res.RepoURL),
		CommitURL:     finalURL,
		EvaluationURL: sub.EvaluationURL,
		TimeTaken:     fmt.Sprintf("%.2f seconds", time.Since(start).Seconds()),
	}, nil
}

// authorize checks the submitted secret against the configured allow list.
// An empty allow list rejects everything: fail closed, never open.
func (o *Orchestrator) authorize(secret string) *Error {
	if len(o.secrets) == 0 {
		return unauthorized("No server-side secret configured")
	}
	for _, s := range o.secrets {
		if secret == s {
			return nil
		}
	}
	return unauthorized("Invalid secret")
}
