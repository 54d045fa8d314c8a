package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/example/llm-deployer/internal/api"
	"github.com/example/llm-deployer/internal/config"
	"github.com/example/llm-deployer/internal/generator"
	"github.com/example/llm-deployer/internal/notifier"
	"github.com/example/llm-deployer/internal/orchestrator"
	"github.com/example/llm-deployer/internal/publisher"
)

func main() {
	cfg := config.Load()

	// A failed dependency is fatal for /tasks but not for the process:
	// the server starts anyway and reports 503 for that endpoint.
	var gen generator.Client
	if g, err := generator.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel); err != nil {
		log.Printf("FATAL dependency: LLM initialization failed: %v", err)
		if os.Getenv("USE_MOCK_GENERATOR") == "1" {
			log.Printf("USE_MOCK_GENERATOR=1, serving placeholder apps")
			gen = &generator.MockClient{}
		}
	} else {
		gen = g
	}

	var pub publisher.Publisher
	if p, err := publisher.NewGitHub(cfg.GitHubToken, cfg.GitHubUsername); err != nil {
		log.Printf("FATAL dependency: GitHub initialization failed: %v", err)
	} else {
		pub = p
	}

	orch := orchestrator.New(gen, pub, notifier.New(), cfg.AcceptedSecrets)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, orch)

	addr := ":" + cfg.Port
	log.Printf("server listening on %s", addr)
	if err := http.ListenAndServe(addr, cors(cfg.AllowOrigin, mux)); err != nil {
		log.Fatal(err)
	}
}

// cors answers preflight requests and stamps the configured origin. The
// default is permit-all; production deployments should restrict it via
// TDS_ALLOW_ORIGINS.
func cors(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
