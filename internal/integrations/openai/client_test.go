package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hr-assistant/internal/domain"
)

// fakeGetter is a minimal paramstore.Getter stub for use within this package.
type fakeGetter struct {
	val    string
	err    error
	onCall func() // optional; called on each GetParameter invocation
}

func (f *fakeGetter) GetParameter(_ context.Context, _ string) (string, error) {
	if f.onCall != nil {
		f.onCall()
	}
	return f.val, f.err
}

func tokenGetter() *fakeGetter {
	return &fakeGetter{val: `{"token":"sk-test"}`}
}

// ---------------------------------------------------------------------------
// chatURL helper
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://api.openai.com/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_NilGetter(t *testing.T) {
	_, err := NewClient(nil, "/hr-assistant")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestNewClient_EmptyPrefix(t *testing.T) {
	_, err := NewClient(tokenGetter(), "  ")
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// resolveAPIKey — SSM caching behaviour
// ---------------------------------------------------------------------------

func TestResolveAPIKey_FetchedOnce(t *testing.T) {
	calls := 0
	g := tokenGetter()
	g.onCall = func() { calls++ }
	c, err := NewClient(g, "/hr-assistant")
	require.NoError(t, err)

	key, err := c.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-test", key)

	_, _ = c.resolveAPIKey(context.Background())
	_, _ = c.resolveAPIKey(context.Background())
	require.Equal(t, 1, calls, "SSM must only be called once per process lifetime")
}

func TestFetchAPIKey_MalformedJSON(t *testing.T) {
	g := &fakeGetter{val: `{"broken`}
	_, err := fetchAPIKeyFromParamStore(context.Background(), g, "/hr-assistant/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmarshal")
}

func TestFetchAPIKey_MissingTokenField(t *testing.T) {
	g := &fakeGetter{val: `{"other":"value"}`}
	_, err := fetchAPIKeyFromParamStore(context.Background(), g, "/hr-assistant/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "API token is empty")
}

func TestFetchAPIKey_GetterError(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm unavailable")}
	_, err := fetchAPIKeyFromParamStore(context.Background(), g, "/hr-assistant/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm unavailable")
}

// ---------------------------------------------------------------------------
// Complete
// ---------------------------------------------------------------------------

func completionServer(t *testing.T, status int, body string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if capture != nil {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, capture))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestComplete_HappyPath(t *testing.T) {
	var captured chatRequest
	srv := completionServer(t, http.StatusOK,
		`{"choices":[{"index":0,"message":{"role":"assistant","content":"  Dental is covered.  "}}]}`,
		&captured)
	defer srv.Close()

	c, err := NewClient(tokenGetter(), "/hr-assistant", WithBaseURL(srv.URL))
	require.NoError(t, err)

	msgs := []domain.ChatMessage{
		{Role: "system", Content: "You are an HR assistant."},
		{Role: "user", Content: "Is dental covered?"},
	}
	out, err := c.Complete(context.Background(), "gpt-4", msgs, 0.7, 1000)
	require.NoError(t, err)
	require.Equal(t, "Dental is covered.", out, "answer must be whitespace-trimmed")

	require.Equal(t, "gpt-4", captured.Model)
	require.Equal(t, msgs, captured.Messages)
	require.InDelta(t, 0.7, captured.Temperature, 1e-9)
	require.Equal(t, 1000, captured.MaxTokens)
}

func TestComplete_NonOKStatus(t *testing.T) {
	srv := completionServer(t, http.StatusTooManyRequests, `{"error":"rate limited"}`, nil)
	defer srv.Close()

	c, err := NewClient(tokenGetter(), "/hr-assistant", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "gpt-4", []domain.ChatMessage{{Role: "user", Content: "hi"}}, 0.3, 10)
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.HTTPStatusCode())
}

func TestComplete_NoChoices(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{"choices":[]}`, nil)
	defer srv.Close()

	c, err := NewClient(tokenGetter(), "/hr-assistant", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "gpt-4", []domain.ChatMessage{{Role: "user", Content: "hi"}}, 0.3, 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}

func TestComplete_EmptyModelOrMessages(t *testing.T) {
	c, err := NewClient(tokenGetter(), "/hr-assistant")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "", []domain.ChatMessage{{Role: "user", Content: "hi"}}, 0.3, 10)
	require.Error(t, err)

	_, err = c.Complete(context.Background(), "gpt-4", nil, 0.3, 10)
	require.Error(t, err)
}

func TestComplete_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(tokenGetter(), "/hr-assistant", WithBaseURL(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = c.Complete(ctx, "gpt-4", []domain.ChatMessage{{Role: "user", Content: "hi"}}, 0.3, 10)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
