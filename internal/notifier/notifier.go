package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/example/llm-deployer/internal/models"
)

// Notifier delivers the completion payload to the caller's evaluation URL.
// Delivery is at-least-once with bounded retry and never fails the request
// that triggered it: every failure is logged and swallowed.
type Notifier struct {
	Client      *http.Client
	MaxAttempts int
	BaseDelay   time.Duration
	// sleep is swapped out in tests to observe the backoff schedule.
	sleep func(time.Duration)
}

// New returns a notifier with the production policy: 6 total attempts,
// doubling delay starting at one second before each retry. The HTTP timeout
// is long because evaluation endpoints may themselves be slow.
func New() *Notifier {
	return &Notifier{
		Client:      &http.Client{Timeout: 10 * time.Minute},
		MaxAttempts: 6,
		BaseDelay:   time.Second,
		sleep:       time.Sleep,
	}
}

// Notify POSTs the payload as JSON. Only an HTTP 200 counts as delivered;
// any other status or transport error is retried until the budget runs out,
// then the last failure is logged and dropped.
func (n *Notifier) Notify(ctx context.Context, url string, payload *models.CallbackPayload) {
	if url == "" {
		log.Printf("notifier: no evaluation URL for task %q, skipping callback", payload.Task)
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notifier: WARNING: marshal callback payload: %v", err)
		return
	}

	sleep := n.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	attempts := n.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := n.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		err = n.post(ctx, url, body)
		if err == nil {
			log.Printf("notifier: posted results to %s (attempt %d)", url, attempt)
			return
		}
		if attempt == attempts {
			break
		}
		sleep(delay)
		delay *= 2
	}
	log.Printf("notifier: WARNING: giving up on %s after %d attempts: %v", url, attempts, err)
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}
