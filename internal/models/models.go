package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Attachment is a named reference to supplementary task material.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TaskSubmission is the inbound webhook body. Secret is checked against the
// server-side allow list and is never written to logs.
type TaskSubmission struct {
	Email         string       `json:"email"`
	Secret        string       `json:"secret"`
	Task          string       `json:"task"`
	Round         int          `json:"round"`
	Nonce         string       `json:"nonce"`
	Brief         string       `json:"brief,omitempty"`
	Checks        []string     `json:"checks,omitempty"`
	EvaluationURL string       `json:"evaluation_url,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks structural invariants of a submission.
func (s *TaskSubmission) Validate() error {
	if !emailRe.MatchString(s.Email) {
		return fmt.Errorf("invalid email address: %q", s.Email)
	}
	if s.Round < 0 {
		return fmt.Errorf("round must be >= 0, got %d", s.Round)
	}
	if strings.TrimSpace(s.Task) == "" {
		return fmt.Errorf("missing task")
	}
	if strings.TrimSpace(s.Nonce) == "" {
		return fmt.Errorf("missing nonce")
	}
	return nil
}

// TaskID derives the stable slug used to key the remote repository:
// lower-cased task name, spaces to hyphens, suffixed with the round.
// The same task and round always map to the same identifier, so a
// resubmission updates the repository instead of duplicating it.
func (s *TaskSubmission) TaskID() string {
	slug := strings.ReplaceAll(strings.ToLower(s.Task), " ", "-")
	return fmt.Sprintf("%s-round-%d", slug, s.Round)
}

// GeneratedFile is one file of a generated application.
type GeneratedFile struct {
	Path    string
	Content string
}

// FileSet is an ordered collection of generated files. Order matters:
// files are committed in the order the generator produced them.
type FileSet []GeneratedFile

// PublishResult reports where a file set ended up.
type PublishResult struct {
	RepoURL   string
	CommitSHA string // last successful commit; empty when nothing was committed
	PagesURL  string // deterministic convention URL, returned even when unconfirmed
	// PagesConfirmed records whether the hosting platform acknowledged the
	// Pages configuration. The URL is returned either way.
	PagesConfirmed bool
}

// CallbackPayload is POSTed to the caller's evaluation URL after a publish.
type CallbackPayload struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}

// TaskAck is the synchronous response to a successful submission.
type TaskAck struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	CommitURL     string `json:"commit_url"`
	EvaluationURL string `json:"evaluation_url"`
	TimeTaken     string `json:"time_taken"`
}
