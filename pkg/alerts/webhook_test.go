package alerts_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentfleet/tokengate/pkg/alerts"
)

func testAlert() alerts.Alert {
	return alerts.Alert{
		Level:      alerts.LevelCritical,
		AgentID:    "agent-1",
		TokensUsed: 950_000,
		MaxTokens:  1_000_000,
		Percent:    95.0,
		Message:    "agent approaching hourly token limit",
	}
}

func TestWebhookNotifier_Send(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	require.NoError(t, n.Send(context.Background(), testAlert()))

	var payload struct {
		Event string       `json:"event"`
		Alert alerts.Alert `json:"alert"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "token_budget_alert", payload.Event)
	assert.Equal(t, alerts.LevelCritical, payload.Alert.Level)
	assert.Equal(t, int64(950_000), payload.Alert.TokensUsed)
}

func TestWebhookNotifier_SignsWithSecret(t *testing.T) {
	const secret = "s3cret"
	var gotSig string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature-256")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, secret)
	require.NoError(t, n.Send(context.Background(), testAlert()))

	require.True(t, strings.HasPrefix(gotSig, "sha256="))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), gotSig)
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), testAlert())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSlackNotifier_Send(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewSlackNotifier(server.URL, "#agents")
	require.NoError(t, n.Send(context.Background(), testAlert()))

	body := string(gotBody)
	assert.Contains(t, body, `"channel":"#agents"`)
	assert.Contains(t, body, "critical")
	assert.Contains(t, body, "agent-1")
}
