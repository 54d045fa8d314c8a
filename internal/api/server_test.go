package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/llm-deployer/internal/models"
	"github.com/example/llm-deployer/internal/notifier"
	"github.com/example/llm-deployer/internal/orchestrator"
)

type stubGenerator struct{ files models.FileSet }

func (s *stubGenerator) GenerateAppFiles(ctx context.Context, sub *models.TaskSubmission) (models.FileSet, error) {
	return s.files, nil
}

type stubPublisher struct{}

func (s *stubPublisher) Publish(ctx context.Context, taskID string, files models.FileSet) (*models.PublishResult, error) {
	return &models.PublishResult{
		RepoURL:        "https://github.com/octocat/llm-app-" + taskID,
		CommitSHA:      "abc123",
		PagesURL:       "https://octocat.github.io/llm-app-" + taskID + "/",
		PagesConfirmed: true,
	}, nil
}

type noopNotifier struct{ calls int32 }

func (n *noopNotifier) Notify(ctx context.Context, url string, payload *models.CallbackPayload) {
	atomic.AddInt32(&n.calls, 1)
}

func newTestServer(orch *orchestrator.Orchestrator) *httptest.Server {
	mux := http.NewServeMux()
	RegisterRoutes(mux, orch)
	return httptest.NewServer(mux)
}

func postTask(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/tasks", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

const validBody = `{
	"email": "user@example.com",
	"secret": "X",
	"task": "Todo App",
	"round": 0,
	"nonce": "n-1",
	"evaluation_url": "https://cb.example/x"
}`

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(orchestrator.New(nil, nil, &noopNotifier{}, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out map[string]string
	json.NewDecoder(resp.Body).Decode(&out)
	if out["status"] != "ok" || out["service"] != "llm-deployer" {
		t.Fatalf("health body %v", out)
	}
}

func TestTasksUnauthorizedWhenNoSecretsConfigured(t *testing.T) {
	srv := newTestServer(orchestrator.New(&stubGenerator{}, &stubPublisher{}, &noopNotifier{}, nil))
	defer srv.Close()

	resp, out := postTask(t, srv, validBody)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if d, _ := out["detail"].(string); !strings.Contains(d, "secret configured") {
		t.Fatalf("detail %v", out)
	}
}

func TestTasksServiceUnavailable(t *testing.T) {
	srv := newTestServer(orchestrator.New(nil, &stubPublisher{}, &noopNotifier{}, []string{"X"}))
	defer srv.Close()

	resp, out := postTask(t, srv, validBody)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if d, _ := out["detail"].(string); !strings.Contains(d, "LLM not initialized") {
		t.Fatalf("detail %v", out)
	}
}

func TestTasksBadRequest(t *testing.T) {
	srv := newTestServer(orchestrator.New(&stubGenerator{}, &stubPublisher{}, &noopNotifier{}, []string{"X"}))
	defer srv.Close()

	resp, _ := postTask(t, srv, `{"email": "nope`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed JSON: status %d", resp.StatusCode)
	}

	resp, out := postTask(t, srv, `{"email":"not-an-email","secret":"X","task":"T","round":0,"nonce":"n"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid email: status %d", resp.StatusCode)
	}
	if d, _ := out["detail"].(string); !strings.Contains(d, "email") {
		t.Fatalf("detail %v", out)
	}
}

func TestTasksEmptyGenerationIs500(t *testing.T) {
	orch := orchestrator.New(&stubGenerator{files: nil}, &stubPublisher{}, &noopNotifier{}, []string{"X"})
	srv := newTestServer(orch)
	defer srv.Close()

	resp, out := postTask(t, srv, validBody)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if d, _ := out["detail"].(string); !strings.Contains(d, "generate any files") {
		t.Fatalf("detail %v", out)
	}
}

func TestTasksSuccessScenario(t *testing.T) {
	gen := &stubGenerator{files: models.FileSet{{Path: "index.html", Content: "<html></html>"}}}
	not := &noopNotifier{}
	srv := newTestServer(orchestrator.New(gen, &stubPublisher{}, not, []string{"X"}))
	defer srv.Close()

	resp, out := postTask(t, srv, validBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %v", resp.StatusCode, out)
	}
	if out["status"] != "success" {
		t.Errorf("status field %v", out["status"])
	}
	if out["commit_url"] != "https://octocat.github.io/llm-app-todo-app-round-0/" {
		t.Errorf("commit_url %v", out["commit_url"])
	}
	if out["evaluation_url"] != "https://cb.example/x" {
		t.Errorf("evaluation_url %v", out["evaluation_url"])
	}
	if not.calls != 1 {
		t.Errorf("expected one notify sequence, got %d", not.calls)
	}
}

// blockingGenerator parks inside the pipeline until released, then records
// whether its context is still alive.
type blockingGenerator struct {
	entered chan struct{}
	release chan struct{}
	ctxErr  error
}

func (g *blockingGenerator) GenerateAppFiles(ctx context.Context, sub *models.TaskSubmission) (models.FileSet, error) {
	close(g.entered)
	<-g.release
	g.ctxErr = ctx.Err()
	return models.FileSet{{Path: "index.html", Content: "<html></html>"}}, nil
}

type signalNotifier struct {
	done chan struct{}
	url  string
}

func (n *signalNotifier) Notify(ctx context.Context, url string, payload *models.CallbackPayload) {
	n.url = url
	close(n.done)
}

// A client that hangs up mid-generation must not abort the pipeline: the
// handler context dies with the connection, but generation, publish and the
// callback all still run.
func TestTasksRunToCompletionAfterClientDisconnect(t *testing.T) {
	gen := &blockingGenerator{entered: make(chan struct{}), release: make(chan struct{})}
	not := &signalNotifier{done: make(chan struct{})}
	srv := newTestServer(orchestrator.New(gen, &stubPublisher{}, not, []string{"X"}))
	defer srv.Close()

	reqCtx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(reqCtx, http.MethodPost, srv.URL+"/tasks", strings.NewReader(validBody))
	req.Header.Set("Content-Type", "application/json")
	errc := make(chan error, 1)
	go func() {
		_, err := http.DefaultClient.Do(req)
		errc <- err
	}()

	<-gen.entered
	cancel() // client walks away while generation is in flight
	<-errc   // connection is gone before the handler resumes
	time.Sleep(50 * time.Millisecond)
	close(gen.release)

	select {
	case <-not.done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not finish after client disconnect")
	}
	if gen.ctxErr != nil {
		t.Fatalf("pipeline context canceled by client disconnect: %v", gen.ctxErr)
	}
	if not.url != "https://cb.example/x" {
		t.Errorf("callback url %q", not.url)
	}
}

// A callback endpoint that always fails must not change the synchronous
// success response; the retry budget is spent and the failure swallowed.
func TestTasksSuccessDespiteFailingCallback(t *testing.T) {
	var cbAttempts int32
	cb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&cbAttempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer cb.Close()

	n := notifier.New()
	n.BaseDelay = 0 // no real sleeping in tests

	gen := &stubGenerator{files: models.FileSet{{Path: "index.html", Content: "<html></html>"}}}
	srv := newTestServer(orchestrator.New(gen, &stubPublisher{}, n, []string{"X"}))
	defer srv.Close()

	body := strings.Replace(validBody, "https://cb.example/x", cb.URL, 1)
	resp, out := postTask(t, srv, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %v", resp.StatusCode, out)
	}
	if out["status"] != "success" {
		t.Errorf("status field %v", out["status"])
	}
	if got := atomic.LoadInt32(&cbAttempts); got != 6 {
		t.Errorf("expected 6 callback attempts, got %d", got)
	}
}
