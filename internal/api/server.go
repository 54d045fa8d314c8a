package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/example/llm-deployer/internal/models"
	"github.com/example/llm-deployer/internal/orchestrator"
)

const (
	serviceName    = "llm-deployer"
	serviceVersion = "0.1.0"
)

// RegisterRoutes wires the two endpoints onto the mux: a health check and
// the task-submission webhook.
func RegisterRoutes(mux *http.ServeMux, orch *orchestrator.Orchestrator) {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})

	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var sub models.TaskSubmission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		if err := sub.Validate(); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}

		// The pipeline must run to completion even if the caller drops the
		// connection: generation, publish and the callback retries keep
		// going, only the response write is lost.
		ack, herr := orch.Handle(context.WithoutCancel(r.Context()), &sub)
		if herr != nil {
			respondDetail(w, statusFor(herr.Kind), herr.Error())
			return
		}
		respondJSON(w, http.StatusOK, ack)
	})
}

func statusFor(k orchestrator.Kind) int {
	switch k {
	case orchestrator.KindUnauthorized:
		return http.StatusUnauthorized
	case orchestrator.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// respondDetail writes the {"detail": ...} error body callers expect.
func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
