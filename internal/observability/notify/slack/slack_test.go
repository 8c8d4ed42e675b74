package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpay/interpay-api/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#payments",
		Username:   "bot",
	})
	require.NoError(t, err)

	msg := client.formatMessage(notify.JobFailurePayload{
		JobID:      "job_123",
		Sender:     "https://wallet.example/alice",
		Receiver:   "https://wallet.example/bob",
		Error:      "outgoing_payment failed: <503>",
		ErrorClass: "upstream",
		Attempts:   4,
		Metadata:   map[string]string{"quote": "q_1"},
	})

	assert.Equal(t, "bot", msg["username"])
	assert.Equal(t, "#payments", msg["channel"])
	text, ok := msg["text"].(string)
	require.True(t, ok)
	for _, want := range []string{
		"Settlement job failed", "`job_123`", "wallet.example/alice", "wallet.example/bob",
		"Poll attempts: 4", "upstream", "&lt;503&gt;", "quote: q_1",
	} {
		assert.Contains(t, text, want)
	}
}

func TestFormatMessageJobLink(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL:   "https://hooks.slack.com/services/test",
		JobURLPrefix: "https://pay.example/api/interledger/run-service/",
	})
	require.NoError(t, err)

	text := client.formatMessage(notify.JobFailurePayload{JobID: "job_9"})["text"].(string)
	assert.Contains(t, text, "<https://pay.example/api/interledger/run-service/job_9|job_9>")
}

func TestSendJobFailureRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var msg map[string]any
		assert.NoError(t, json.Unmarshal(body, &msg))
		if calls.Add(1) == 1 {
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 1, Timeout: time.Second})
	require.NoError(t, err)

	require.NoError(t, client.SendJobFailure(context.Background(), notify.JobFailurePayload{JobID: "job_1"}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendJobFailureGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	require.NoError(t, err)

	err = client.SendJobFailure(context.Background(), notify.JobFailurePayload{JobID: "job_1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}
