package publisher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/go-github/v62/github"

	"github.com/example/llm-deployer/internal/models"
)

const defaultBranch = "main"

// GitHub publishes file sets as public GitHub repositories with Pages
// hosting enabled on the main branch.
type GitHub struct {
	client *github.Client
	owner  string
}

// NewGitHub builds a publisher for the account owning the token. It fails
// when credentials are missing; the server still starts without it.
func NewGitHub(token, username string) (*GitHub, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(username) == "" {
		return nil, errors.New("GITHUB_TOKEN or GITHUB_USERNAME is not set")
	}
	return &GitHub{
		client: github.NewClient(nil).WithAuthToken(token),
		owner:  username,
	}, nil
}

// NewGitHubWithClient wires an existing API client, e.g. one pointed at a
// test server.
func NewGitHubWithClient(client *github.Client, owner string) *GitHub {
	return &GitHub{client: client, owner: owner}
}

// RepoName derives the remote repository name for a task identifier.
// Deterministic: resubmitting the same task and round hits the same repo.
func RepoName(taskID string) string {
	return "llm-app-" + strings.ToLower(taskID)
}

// Publish ensures the repository exists, commits each non-blank file in
// order, and enables Pages. Files committed before a failure stay committed;
// a rerun with the same task identifier converges instead of duplicating.
func (g *GitHub) Publish(ctx context.Context, taskID string, files models.FileSet) (*models.PublishResult, error) {
	repoName := RepoName(taskID)

	repo, err := g.createOrReuse(ctx, taskID, repoName)
	if err != nil {
		return nil, err
	}

	// The branch is created by the first commit; absence is fine.
	if _, _, err := g.client.Git.GetRef(ctx, g.owner, repoName, "heads/"+defaultBranch); err != nil {
		log.Printf("publisher: no %s ref on %s yet: %v", defaultBranch, repoName, err)
	}

	commitSHA := ""
	for _, f := range files {
		if strings.TrimSpace(f.Content) == "" {
			log.Printf("publisher: skipping empty file %s", f.Path)
			continue
		}
		sha, err := g.commitFile(ctx, repoName, taskID, f)
		if err != nil {
			return nil, err
		}
		commitSHA = sha
	}

	confirmed := g.enablePages(ctx, repoName)

	return &models.PublishResult{
		RepoURL:        repo.GetHTMLURL(),
		CommitSHA:      commitSHA,
		PagesURL:       fmt.Sprintf("https://%s.github.io/%s/", g.owner, repoName),
		PagesConfirmed: confirmed,
	}, nil
}

// createOrReuse creates a public repository, falling back to the existing
// one when the name is already taken. Any other creation failure aborts.
func (g *GitHub) createOrReuse(ctx context.Context, taskID, repoName string) (*github.Repository, error) {
	repo, _, err := g.client.Repositories.Create(ctx, "", &github.Repository{
		Name:        github.String(repoName),
		Description: github.String("LLM generated code for task " + taskID),
		Private:     github.Bool(false),
	})
	if err == nil {
		log.Printf("publisher: created repository %s", repoName)
		return repo, nil
	}
	if !isNameTaken(err) {
		return nil, fmt.Errorf("create repository %s: %w", repoName, err)
	}

	log.Printf("publisher: repository %s already exists, updating files", repoName)
	repo, _, err = g.client.Repositories.Get(ctx, g.owner, repoName)
	if err != nil {
		return nil, fmt.Errorf("get existing repository %s: %w", repoName, err)
	}
	return repo, nil
}

// commitFile creates or updates one file on the default branch and returns
// the resulting commit SHA. Updates carry the current blob SHA as a
// compare-and-swap precondition; a stale SHA aborts with ErrConflict.
func (g *GitHub) commitFile(ctx context.Context, repoName, taskID string, f models.GeneratedFile) (string, error) {
	current, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, repoName, f.Path,
		&github.RepositoryContentGetOptions{Ref: defaultBranch})

	switch {
	case err == nil && current != nil:
		res, updResp, err := g.client.Repositories.UpdateFile(ctx, g.owner, repoName, f.Path,
			&github.RepositoryContentFileOptions{
				Message: github.String(fmt.Sprintf("Update %s for task %s", f.Path, taskID)),
				Content: []byte(f.Content),
				SHA:     current.SHA,
				Branch:  github.String(defaultBranch),
			})
		if err != nil {
			if updResp != nil && updResp.StatusCode == http.StatusConflict {
				return "", fmt.Errorf("update %s: %w: %v", f.Path, ErrConflict, err)
			}
			return "", fmt.Errorf("update %s: %w", f.Path, err)
		}
		log.Printf("publisher: updated %s (%.7s)", f.Path, res.Commit.GetSHA())
		return res.Commit.GetSHA(), nil

	case isNotFound(resp):
		res, _, err := g.client.Repositories.CreateFile(ctx, g.owner, repoName, f.Path,
			&github.RepositoryContentFileOptions{
				Message: github.String(fmt.Sprintf("Initial commit of %s for task %s", f.Path, taskID)),
				Content: []byte(f.Content),
				Branch:  github.String(defaultBranch),
			})
		if err != nil {
			return "", fmt.Errorf("create %s: %w", f.Path, err)
		}
		log.Printf("publisher: committed %s (%.7s)", f.Path, res.Commit.GetSHA())
		return res.Commit.GetSHA(), nil

	default:
		if err == nil {
			return "", fmt.Errorf("read %s: path is not a regular file", f.Path)
		}
		return "", fmt.Errorf("read %s: %w", f.Path, err)
	}
}

// enablePages asks GitHub to serve the default branch root as a static site.
// "Already enabled" counts as success; any other failure is only a warning,
// the conventional URL is reported regardless.
func (g *GitHub) enablePages(ctx context.Context, repoName string) bool {
	_, resp, err := g.client.Repositories.EnablePages(ctx, g.owner, repoName, &github.Pages{
		Source: &github.PagesSource{
			Branch: github.String(defaultBranch),
			Path:   github.String("/"),
		},
	})
	if err == nil {
		log.Printf("publisher: Pages enabled on %s", repoName)
		return true
	}
	if resp != nil && resp.StatusCode == http.StatusConflict {
		log.Printf("publisher: Pages already enabled on %s", repoName)
		return true
	}
	log.Printf("publisher: WARNING: Pages setup failed on %s: %v", repoName, err)
	return false
}

// isNameTaken reports whether a repository creation failed only because a
// repository of that name already exists on the account.
func isNameTaken(err error) bool {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) {
		return false
	}
	if ghErr.Response == nil || ghErr.Response.StatusCode != http.StatusUnprocessableEntity {
		return false
	}
	for _, e := range ghErr.Errors {
		if strings.Contains(e.Message, "already exists") {
			return true
		}
	}
	return false
}

func isNotFound(resp *github.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}
